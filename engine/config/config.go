// Package config loads the application configuration from a TOML file,
// overlays ANIMA_* environment variables and validates the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const DefaultPath = "config.toml"

type Config struct {
	Name     string       `toml:"name" validate:"required"`
	LogLevel string       `toml:"log_level" validate:"oneof=debug info warn error fatal"`
	Assets   AssetsConfig `toml:"assets"`
	Engine   EngineConfig `toml:"engine"`
}

type AssetsConfig struct {
	Dir              string `toml:"dir" validate:"required"`
	Watch            bool   `toml:"watch"`
	ReloadDebounceMS int    `toml:"reload_debounce_ms" validate:"min=0"`
	Workers          int    `toml:"workers" validate:"min=1"`
	QueueSize        int    `toml:"queue_size" validate:"min=0"`
}

type EngineConfig struct {
	// Ticks per second of the main loop.
	TickRate int `toml:"tick_rate" validate:"min=1,max=1000"`
}

func (c AssetsConfig) ReloadDebounce() time.Duration {
	return time.Duration(c.ReloadDebounceMS) * time.Millisecond
}

func (c EngineConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

func Default() *Config {
	return &Config{
		Name:     "Anima Custom Asset",
		LogLevel: "debug",
		Assets: AssetsConfig{
			Dir:              "assets",
			Watch:            true,
			ReloadDebounceMS: 200,
			Workers:          2,
			QueueSize:        64,
		},
		Engine: EngineConfig{
			TickRate: 60,
		},
	}
}

// Load builds the configuration from defaults, the file at path (skipped when
// it does not exist) and the environment, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := toml.Unmarshal(b, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnvironment(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnvironment() error {
	if val := os.Getenv("ANIMA_NAME"); val != "" {
		c.Name = val
	}
	if val := os.Getenv("ANIMA_LOG_LEVEL"); val != "" {
		c.LogLevel = strings.ToLower(val)
	}
	if val := os.Getenv("ANIMA_ASSETS_DIR"); val != "" {
		c.Assets.Dir = val
	}
	if val := os.Getenv("ANIMA_ASSETS_WATCH"); val != "" {
		watch, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid ANIMA_ASSETS_WATCH value: %s", val)
		}
		c.Assets.Watch = watch
	}
	if val := os.Getenv("ANIMA_ASSETS_WORKERS"); val != "" {
		workers, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid ANIMA_ASSETS_WORKERS value: %s", val)
		}
		c.Assets.Workers = workers
	}
	return nil
}
