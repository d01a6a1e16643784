package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/docdesk/internal/flagx"
	"github.com/dmitrijs2005/docdesk/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations go through
// timex.Duration so both "3s" and nanosecond integers are accepted.
type JsonConfig struct {
	APIBaseURL       string         `json:"api_base_url"`
	EncryptionSecret string         `json:"encryption_secret"`
	StoragePath      string         `json:"storage_path"`
	PollInterval     timex.Duration `json:"poll_interval"`
	RequestTimeout   timex.Duration `json:"request_timeout"`
	PageSize         int            `json:"page_size"`
	GateAddr         string         `json:"gate_addr"`
	GateUpstream     string         `json:"gate_upstream"`
	LogLevel         string         `json:"log_level"`
	LogFormat        string         `json:"log_format"`
}

// parseJson overlays cfg with the file named by -c/-config, if any.
// It panics on read or decode errors; a broken config file is fatal at startup.
func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.APIBaseURL, jc.APIBaseURL)
	setString(&cfg.EncryptionSecret, jc.EncryptionSecret)
	setString(&cfg.StoragePath, jc.StoragePath)
	setString(&cfg.GateAddr, jc.GateAddr)
	setString(&cfg.GateUpstream, jc.GateUpstream)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	if jc.PollInterval.Duration > 0 {
		cfg.PollInterval = jc.PollInterval.Duration
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.PageSize > 0 {
		cfg.PageSize = jc.PageSize
	}
}

// parseEnv overlays cfg with DOCDESK_* variables.
func parseEnv(cfg *Config, getenv func(string) string) {
	if getenv == nil {
		return
	}
	setString(&cfg.APIBaseURL, getenv("DOCDESK_API_URL"))
	setString(&cfg.EncryptionSecret, getenv("DOCDESK_ENCRYPTION_KEY"))
	setString(&cfg.StoragePath, getenv("DOCDESK_STORAGE"))
	setString(&cfg.GateUpstream, getenv("DOCDESK_GATE_UPSTREAM"))
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
