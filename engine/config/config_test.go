package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 200*time.Millisecond, cfg.Assets.ReloadDebounce())
	assert.Equal(t, time.Second/60, cfg.Engine.TickInterval())
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
name = "Demo"
log_level = "info"

[assets]
dir = "content"
watch = false
reload_debounce_ms = 50
workers = 4

[engine]
tick_rate = 30
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Demo", cfg.Name)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "content", cfg.Assets.Dir)
	assert.False(t, cfg.Assets.Watch)
	assert.Equal(t, 50*time.Millisecond, cfg.Assets.ReloadDebounce())
	assert.Equal(t, 4, cfg.Assets.Workers)
	assert.Equal(t, 64, cfg.Assets.QueueSize, "unset keys keep their default")
	assert.Equal(t, 30, cfg.Engine.TickRate)
}

func TestLoadEnvironmentOverlay(t *testing.T) {
	path := writeConfig(t, "log_level = \"info\"\n")
	t.Setenv("ANIMA_LOG_LEVEL", "WARN")
	t.Setenv("ANIMA_ASSETS_DIR", "/srv/assets")
	t.Setenv("ANIMA_ASSETS_WATCH", "false")
	t.Setenv("ANIMA_ASSETS_WORKERS", "3")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "/srv/assets", cfg.Assets.Dir)
	assert.False(t, cfg.Assets.Watch)
	assert.Equal(t, 3, cfg.Assets.Workers)
}

func TestLoadInvalidEnvironment(t *testing.T) {
	t.Setenv("ANIMA_ASSETS_WORKERS", "many")
	_, err := Load("")
	assert.ErrorContains(t, err, "ANIMA_ASSETS_WORKERS")
}

func TestLoadRejectsBadToml(t *testing.T) {
	path := writeConfig(t, "name = \n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"missing name", func(c *Config) { c.Name = "" }, "name is required"},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, "loglevel must be one of"},
		{"no workers", func(c *Config) { c.Assets.Workers = 0 }, "assets.workers must be at least 1"},
		{"negative debounce", func(c *Config) { c.Assets.ReloadDebounceMS = -1 }, "assets.reloaddebouncems must be at least 0"},
		{"tick rate too high", func(c *Config) { c.Engine.TickRate = 5000 }, "engine.tickrate must be at most 1000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}

	assert.NoError(t, Default().Validate())
}
