// Package config loads runtime configuration for the docdesk client and gate.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Environment: DOCDESK_API_URL, DOCDESK_ENCRYPTION_KEY, DOCDESK_STORAGE,
//     DOCDESK_GATE_UPSTREAM.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-a string   base URL of the service API
//	-k string   encryption secret for local storage
//	-d string   path of the local storage database
//	-i int      document status poll interval (seconds)
//	-g string   listen address of the route gate
//	-u string   web front-end the gate forwards to
//	-l string   log level
//
// # JSON schema
//
//	{
//	  "api_base_url": "http://localhost:5000/api",
//	  "encryption_secret": "...",
//	  "storage_path": "docdesk.db",
//	  "poll_interval": "3s",
//	  "request_timeout": "30s",
//	  "page_size": 20,
//	  "gate_addr": "127.0.0.1:3000",
//	  "gate_upstream": "http://127.0.0.1:3001",
//	  "log_level": "info",
//	  "log_format": "text"
//	}
//
// Empty or zero JSON values leave the previous value in place.
package config
