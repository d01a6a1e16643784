package config

import (
	"os"
	"time"
)

// DefaultEncryptionSecret is the development fallback for EncryptionSecret.
// Real deployments must override it (see UsesDefaultSecret).
const DefaultEncryptionSecret = "your-secret-key-change-in-production"

// Config holds runtime settings for the docdesk client.
//
// Fields:
//   - APIBaseURL: base URL of the auth/document service, e.g. http://localhost:5000/api.
//   - EncryptionSecret: secret the storage encryption key is derived from.
//   - StoragePath: SQLite file used as the client's local storage.
//   - PollInterval: how often in-flight document jobs are re-queried.
//   - RequestTimeout: per-request timeout for calls to the service.
//   - PageSize: page size for the user directory and document listing.
//   - GateAddr: listen address of the route gate (cmd/gate).
//   - GateUpstream: web front-end the gate forwards allowed requests to; empty
//     means the gate answers them itself.
//   - LogLevel, LogFormat: slog level and "text" | "json".
type Config struct {
	APIBaseURL       string
	EncryptionSecret string
	StoragePath      string
	PollInterval     time.Duration
	RequestTimeout   time.Duration
	PageSize         int
	GateAddr         string
	GateUpstream     string
	LogLevel         string
	LogFormat        string
}

// LoadDefaults populates c with development defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:5000/api"
	c.EncryptionSecret = DefaultEncryptionSecret
	c.StoragePath = "docdesk.db"
	c.PollInterval = 3 * time.Second
	c.RequestTimeout = 30 * time.Second
	c.PageSize = 20
	c.GateAddr = "127.0.0.1:3000"
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// UsesDefaultSecret reports whether the encryption secret was never
// overridden. The client still runs, but callers should warn loudly.
func (c *Config) UsesDefaultSecret() bool {
	return c.EncryptionSecret == DefaultEncryptionSecret
}

// LoadConfig builds a Config from defaults, the JSON file named by -c/-config,
// the environment and finally command-line flags. Later sources win.
func LoadConfig() *Config {
	return LoadConfigFrom(os.Args[1:], os.Getenv)
}

// LoadConfigFrom is LoadConfig with explicit inputs.
func LoadConfigFrom(args []string, getenv func(string) string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseEnv(cfg, getenv)
	parseFlags(cfg, args)
	return cfg
}
