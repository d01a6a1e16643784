package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) string { return "" }

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://localhost:5000/api", c.APIBaseURL)
	assert.Equal(t, 3*time.Second, c.PollInterval)
	assert.Equal(t, 30*time.Second, c.RequestTimeout)
	assert.Equal(t, 20, c.PageSize)
	assert.True(t, c.UsesDefaultSecret())
}

func TestLoadConfigFrom_DefaultsOnly(t *testing.T) {
	cfg := LoadConfigFrom(nil, noEnv)

	require.NotNil(t, cfg)
	assert.Equal(t, "docdesk.db", cfg.StoragePath)
	assert.Equal(t, 3*time.Second, cfg.PollInterval)
}

func TestLoadConfigFrom_EnvThenFlags(t *testing.T) {
	env := map[string]string{
		"DOCDESK_API_URL":        "http://env/api",
		"DOCDESK_ENCRYPTION_KEY": "env-secret",
		"DOCDESK_GATE_UPSTREAM":  "http://web:3001",
	}
	cfg := LoadConfigFrom([]string{"-a", "http://flag/api"}, func(k string) string { return env[k] })

	assert.Equal(t, "http://flag/api", cfg.APIBaseURL)
	assert.Equal(t, "env-secret", cfg.EncryptionSecret)
	assert.Equal(t, "http://web:3001", cfg.GateUpstream)
	assert.False(t, cfg.UsesDefaultSecret())
}
