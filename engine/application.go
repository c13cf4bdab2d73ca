package engine

import (
	"time"

	"github.com/spaghettifunk/anima-custom-asset/engine/config"
	"github.com/spaghettifunk/anima-custom-asset/engine/core"
)

type ApplicationConfig struct {
	// The application name used in logs.
	Name     string
	LogLevel core.LogLevel
	// Root directory of the asset pipeline.
	AssetsDir string
	// Reload assets when their files change.
	WatchAssets    bool
	ReloadDebounce time.Duration
	// Asset loading worker pool.
	LoadWorkers   int
	LoadQueueSize int
	// Main loop period.
	TickInterval time.Duration
}

func NewApplicationConfig(cfg *config.Config) (*ApplicationConfig, error) {
	level, err := core.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return &ApplicationConfig{
		Name:           cfg.Name,
		LogLevel:       level,
		AssetsDir:      cfg.Assets.Dir,
		WatchAssets:    cfg.Assets.Watch,
		ReloadDebounce: cfg.Assets.ReloadDebounce(),
		LoadWorkers:    cfg.Assets.Workers,
		LoadQueueSize:  cfg.Assets.QueueSize,
		TickInterval:   cfg.Engine.TickInterval(),
	}, nil
}
