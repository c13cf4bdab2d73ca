package engine

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/anima-custom-asset/engine/assets"
	"github.com/spaghettifunk/anima-custom-asset/engine/core"
	"github.com/spaghettifunk/anima-custom-asset/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently booting up
	EngineStageBooting
	// Engine completed boot process and is ready to be initialized
	EngineStageBootComplete
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

type Engine struct {
	currentStage Stage
	gameInstance *Game
	isRunning    atomic.Bool
	events       *core.EventBus
	jobSystem    *systems.JobSystem
	assetManager *assets.AssetManager
	metrics      *core.LoadMetrics
	clock        *core.Clock
	lastTime     time.Duration

	quit     chan struct{}
	quitOnce sync.Once
}

func New(g *Game) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		return nil, errors.New("game and its application config are required")
	}
	cfg := g.ApplicationConfig
	core.SetLogLevel(cfg.LogLevel)

	e := &Engine{
		currentStage: EngineStageBooting,
		gameInstance: g,
		events:       core.NewEventBus(),
		metrics:      core.NewLoadMetrics("anima"),
		clock:        core.NewClock(),
		quit:         make(chan struct{}),
	}

	js, err := systems.NewJobSystem(cfg.LoadWorkers, cfg.LoadQueueSize)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	e.jobSystem = js

	am, err := assets.NewAssetManager(assets.ManagerConfig{
		RootDir:        cfg.AssetsDir,
		Watch:          cfg.WatchAssets,
		ReloadDebounce: cfg.ReloadDebounce,
	}, e.events, js, e.metrics)
	if err != nil {
		_ = js.Shutdown()
		core.LogError(err.Error())
		return nil, err
	}
	e.assetManager = am

	g.AssetManager = am
	g.Events = e.events

	e.currentStage = EngineStageBootComplete
	return e, nil
}

func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageBootComplete {
		return fmt.Errorf("engine cannot be initialized in stage %d", e.currentStage)
	}
	e.currentStage = EngineStageInitializing

	if !e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent) {
		return fmt.Errorf("failed to register the application quit listener")
	}

	if err := e.assetManager.Initialize(); err != nil {
		return err
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(); err != nil {
			core.LogError("failed to initialize the game: %s", err)
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	core.LogInfo("%s initialized.", e.gameInstance.ApplicationConfig.Name)
	return nil
}

// Run ticks the engine until the application quit event fires, then tears
// everything down.
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine cannot run in stage %d", e.currentStage)
	}
	e.currentStage = EngineStageRunning
	e.isRunning.Store(true)

	ticker := time.NewTicker(e.gameInstance.ApplicationConfig.TickInterval)
	defer ticker.Stop()

	e.clock.Start()
	var runErr error
	for e.isRunning.Load() {
		select {
		case <-e.quit:
			e.isRunning.Store(false)
			continue
		case <-ticker.C:
		}

		if err := e.tick(); err != nil {
			runErr = err
			break
		}
	}

	e.clock.Stop()
	if err := e.teardown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func (e *Engine) tick() error {
	e.clock.Update()
	now := e.clock.Elapsed()
	delta := now - e.lastTime
	e.lastTime = now

	// Deliver the asset events gathered since the last frame.
	e.assetManager.Update()

	if e.gameInstance.FnUpdate != nil {
		if err := e.gameInstance.FnUpdate(delta.Seconds()); err != nil {
			core.LogError("game update failed: %s", err)
			return err
		}
	}
	return nil
}

// Shutdown asks the run loop to stop. Safe to call from any goroutine.
func (e *Engine) Shutdown() error {
	e.events.Fire(core.EVENT_CODE_APPLICATION_QUIT, nil, core.EventContext{})
	return nil
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) AssetManager() *assets.AssetManager {
	return e.assetManager
}

func (e *Engine) Metrics() *core.LoadMetrics {
	return e.metrics
}

func (e *Engine) teardown() error {
	e.currentStage = EngineStageShuttingDown
	core.LogInfo("Shutting down...")

	var errs []error
	if e.gameInstance.FnShutdown != nil {
		errs = append(errs, e.gameInstance.FnShutdown())
	}
	// Handles released by the game still owe their Unused/Removed events.
	e.assetManager.Update()
	errs = append(errs, e.assetManager.Shutdown())
	errs = append(errs, e.jobSystem.Shutdown())
	e.events.Unregister(core.EVENT_CODE_APPLICATION_QUIT, e)

	return errors.Join(errs...)
}

func (e *Engine) onEvent(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	switch code {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.quitOnce.Do(func() { close(e.quit) })
		return true
	}
	return false
}
