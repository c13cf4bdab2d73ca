package engine

import (
	"github.com/spaghettifunk/anima-custom-asset/engine/assets"
	"github.com/spaghettifunk/anima-custom-asset/engine/core"
)

// Game is what an application plugs into the engine. AssetManager and Events
// are filled in by engine.New before FnInitialize runs.
type Game struct {
	ApplicationConfig *ApplicationConfig
	AssetManager      *assets.AssetManager
	Events            *core.EventBus
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnShutdown        Shutdown
}

type Initialize func() error
type Update func(deltaTime float64) error
type Shutdown func() error
