package testbed

import (
	"sync"

	"github.com/spaghettifunk/anima-custom-asset/engine"
	"github.com/spaghettifunk/anima-custom-asset/engine/assets"
	"github.com/spaghettifunk/anima-custom-asset/engine/assets/loaders"
	"github.com/spaghettifunk/anima-custom-asset/engine/core"
	"github.com/spaghettifunk/anima-custom-asset/engine/resources"
)

const (
	TestAssetPath  = "test.ron"
	TestEntityName = "Test entity!"
)

type TestGame struct {
	*engine.Game
}

// entity is the single named thing the demo spawns; it only keeps the handle
// alive.
type entity struct {
	Name   string
	Handle assets.Handle[*resources.Record]
}

type gameState struct {
	entities []*entity

	mu sync.Mutex
	// Records logged so far, newest last.
	logged []string
}

func NewTestGame(appConfig *engine.ApplicationConfig) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: appConfig,
			State:             &gameState{},
		},
	}
	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnShutdown = tg.Shutdown
	return tg
}

func (g *TestGame) Initialize() error {
	core.LogDebug("TestGame Initialize fn....")

	if err := g.AssetManager.RegisterLoader(&loaders.RecordLoader{}); err != nil {
		return err
	}
	if err := g.AssetManager.RegisterLoader(&loaders.RecordTOMLLoader{}); err != nil {
		return err
	}

	g.Events.Register(core.EVENT_CODE_ASSET_ADDED, g, g.onAssetEvent)
	g.Events.Register(core.EVENT_CODE_ASSET_MODIFIED, g, g.onAssetEvent)

	handle, err := assets.LoadAs[*resources.Record](g.AssetManager, TestAssetPath)
	if err != nil {
		return err
	}

	state := g.State.(*gameState)
	state.entities = append(state.entities, &entity{
		Name:   TestEntityName,
		Handle: handle,
	})
	core.LogInfo("Spawned '%s' holding asset %s.", TestEntityName, handle.ID())
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	return nil
}

func (g *TestGame) Shutdown() error {
	state := g.State.(*gameState)
	for _, e := range state.entities {
		g.AssetManager.Release(e.Handle.ID())
	}
	state.entities = nil
	return nil
}

// Logged returns the lines produced by asset events so far.
func (g *TestGame) Logged() []string {
	state := g.State.(*gameState)
	state.mu.Lock()
	defer state.mu.Unlock()
	return append([]string(nil), state.logged...)
}

func (g *TestGame) onAssetEvent(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	ev, ok := assets.EventFromContext(data)
	if !ok {
		return false
	}

	switch ev.Kind {
	case assets.AssetEventAdded, assets.AssetEventModified:
		record, ok := assets.GetByID[*resources.Record](g.AssetManager, ev.ID)
		if !ok {
			// Another asset type, or already gone again.
			return false
		}
		line := ev.Kind.String() + ": " + record.String()
		state := g.State.(*gameState)
		state.mu.Lock()
		state.logged = append(state.logged, line)
		state.mu.Unlock()
		core.LogInfo("%s", line)
	}
	return false
}
