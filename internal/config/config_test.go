package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "delegate-expiry", cfg.Service.Name)
	assert.Equal(t, time.Second, cfg.Bus.PruneInterval)
}

func TestLoadConfigFromFile(t *testing.T) {
	content := `
service:
  name: watcher
  env: test
logging:
  level: debug
bus:
  queue_size: 16
  prune_interval: 250ms
heartbeat:
  interval: 100ms
  watch_ttl: 2s
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "watcher", cfg.Service.Name)
	assert.Equal(t, "test", cfg.Service.Env)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 16, cfg.Bus.QueueSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Bus.PruneInterval)
	assert.Equal(t, 100*time.Millisecond, cfg.Heartbeat.Interval)
	assert.Equal(t, 2*time.Second, cfg.Heartbeat.WatchTTL)
	assert.Equal(t, ":8080", cfg.HTTP.Addr, "unset keys keep defaults")
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("DELEGATE_EXPIRY_BUS_QUEUE_SIZE", "64")
	t.Setenv("DELEGATE_EXPIRY_HEARTBEAT_WATCH_TTL", "5s")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("service:\n  name: env\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Bus.QueueSize)
	assert.Equal(t, 5*time.Second, cfg.Heartbeat.WatchTTL)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "invalid log level")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty name", func(c *Config) { c.Service.Name = "" }},
		{"empty addr", func(c *Config) { c.HTTP.Addr = "" }},
		{"zero queue", func(c *Config) { c.Bus.QueueSize = 0 }},
		{"negative prune", func(c *Config) { c.Bus.PruneInterval = -time.Second }},
		{"zero interval", func(c *Config) { c.Heartbeat.Interval = 0 }},
		{"negative ttl", func(c *Config) { c.Heartbeat.WatchTTL = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
