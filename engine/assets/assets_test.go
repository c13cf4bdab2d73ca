package assets

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-custom-asset/engine/assets/loaders"
	"github.com/spaghettifunk/anima-custom-asset/engine/core"
	"github.com/spaghettifunk/anima-custom-asset/engine/resources"
	"github.com/spaghettifunk/anima-custom-asset/engine/systems"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []AssetEvent
}

func (r *eventRecorder) listen(bus *core.EventBus) {
	codes := []core.SystemEventCode{
		core.EVENT_CODE_ASSET_ADDED,
		core.EVENT_CODE_ASSET_MODIFIED,
		core.EVENT_CODE_ASSET_REMOVED,
		core.EVENT_CODE_ASSET_UNUSED,
		core.EVENT_CODE_ASSET_LOADED_WITH_DEPENDENCIES,
	}
	for _, code := range codes {
		bus.Register(code, r, func(code core.SystemEventCode, sender, listener interface{}, data core.EventContext) bool {
			ev, ok := EventFromContext(data)
			if ok {
				r.mu.Lock()
				r.events = append(r.events, ev)
				r.mu.Unlock()
			}
			return false
		})
	}
}

func (r *eventRecorder) kinds() []AssetEventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]AssetEventKind, 0, len(r.events))
	for _, ev := range r.events {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

func (r *eventRecorder) reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

type fixture struct {
	dir      string
	manager  *AssetManager
	metrics  *core.LoadMetrics
	recorder *eventRecorder
}

func newFixture(t *testing.T, watch bool) *fixture {
	t.Helper()
	dir := t.TempDir()

	bus := core.NewEventBus()
	jobs, err := systems.NewJobSystem(2, 8)
	require.NoError(t, err)
	t.Cleanup(func() { _ = jobs.Shutdown() })

	metrics := core.NewLoadMetrics("test")
	am, err := NewAssetManager(ManagerConfig{
		RootDir:        dir,
		Watch:          watch,
		ReloadDebounce: 10 * time.Millisecond,
	}, bus, jobs, metrics)
	require.NoError(t, err)
	t.Cleanup(func() { _ = am.Shutdown() })

	require.NoError(t, am.RegisterLoader(&loaders.RecordLoader{}))
	require.NoError(t, am.RegisterLoader(&loaders.RecordTOMLLoader{}))
	require.NoError(t, am.Initialize())

	rec := &eventRecorder{}
	rec.listen(bus)

	return &fixture{dir: dir, manager: am, metrics: metrics, recorder: rec}
}

func (f *fixture) write(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, name), []byte(content), 0o600))
}

func waitLoaded(t *testing.T, am *AssetManager, id AssetID) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return am.Wait(ctx, id)
}

func TestAssetManagerLoadLifecycle(t *testing.T) {
	f := newFixture(t, false)
	f.write(t, "test.ron", `test_field: "Test string!"`)

	h, err := LoadAs[*resources.Record](f.manager, "test.ron")
	require.NoError(t, err)
	require.True(t, h.IsValid())
	require.NoError(t, waitLoaded(t, f.manager, h.ID()))

	rec, ok := Get(f.manager, h)
	require.True(t, ok)
	assert.Equal(t, "Test string!", rec.TestField())
	assert.Equal(t, LoadStateLoaded, f.manager.LoadState(h.ID()))

	path, ok := f.manager.Path(h.ID())
	require.True(t, ok)
	assert.Equal(t, "test.ron", path)

	// Events are only delivered from Update.
	assert.Empty(t, f.recorder.kinds())
	f.manager.Update()
	assert.Equal(t, []AssetEventKind{AssetEventAdded, AssetEventLoadedWithDependencies}, f.recorder.kinds())
	f.recorder.reset()

	f.write(t, "test.ron", `test_field: "changed"`)
	require.NoError(t, f.manager.Reload("test.ron"))
	require.NoError(t, waitLoaded(t, f.manager, h.ID()))
	f.manager.Update()
	assert.Equal(t, []AssetEventKind{AssetEventModified}, f.recorder.kinds())

	rec, ok = Get(f.manager, h)
	require.True(t, ok)
	assert.Equal(t, "changed", rec.TestField())
	f.recorder.reset()

	f.manager.Release(h.ID())
	f.manager.Update()
	assert.Equal(t, []AssetEventKind{AssetEventUnused, AssetEventRemoved}, f.recorder.kinds())
	_, ok = Get(f.manager, h)
	assert.False(t, ok)
	assert.Equal(t, LoadStateNotLoaded, f.manager.LoadState(h.ID()))

	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.Loads.WithLabelValues("test.ron", core.LoadResultOK)))
}

func TestAssetManagerSamePathSharesID(t *testing.T) {
	f := newFixture(t, false)
	f.write(t, "test.ron", `test_field: "x"`)

	first, err := f.manager.Load("test.ron")
	require.NoError(t, err)
	second, err := f.manager.Load("./test.ron")
	require.NoError(t, err)
	third, err := f.manager.Load(filepath.Join(f.dir, "test.ron"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, first, third)
	require.NoError(t, waitLoaded(t, f.manager, first))

	f.manager.Release(first)
	f.manager.Release(first)
	_, ok := GetByID[*resources.Record](f.manager, first)
	assert.True(t, ok, "one handle is still alive")

	f.manager.Release(first)
	_, ok = GetByID[*resources.Record](f.manager, first)
	assert.False(t, ok)
}

func TestAssetManagerFormatFailure(t *testing.T) {
	f := newFixture(t, false)
	f.write(t, "bad.test.ron", "test_field: 42")

	id, err := f.manager.Load("bad.test.ron")
	require.NoError(t, err)

	err = waitLoaded(t, f.manager, id)
	require.Error(t, err)
	assert.True(t, resources.IsFormatError(err))
	assert.Equal(t, LoadStateFailed, f.manager.LoadState(id))
	assert.True(t, resources.IsFormatError(f.manager.Err(id)))

	f.manager.Update()
	assert.Empty(t, f.recorder.kinds())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Loads.WithLabelValues("test.ron", core.LoadResultFormatError)))
}

func TestAssetManagerFailedReloadKeepsValue(t *testing.T) {
	f := newFixture(t, false)
	f.write(t, "test.ron", `test_field: "good"`)

	h, err := LoadAs[*resources.Record](f.manager, "test.ron")
	require.NoError(t, err)
	require.NoError(t, waitLoaded(t, f.manager, h.ID()))

	f.write(t, "test.ron", `{}`)
	require.NoError(t, f.manager.Reload("test.ron"))
	err = waitLoaded(t, f.manager, h.ID())
	assert.True(t, resources.IsFormatError(err))
	assert.Equal(t, LoadStateFailed, f.manager.LoadState(h.ID()))

	rec, ok := Get(f.manager, h)
	require.True(t, ok)
	assert.Equal(t, "good", rec.TestField())
}

func TestAssetManagerMissingFile(t *testing.T) {
	f := newFixture(t, false)

	id, err := f.manager.Load("missing.test.ron")
	require.NoError(t, err)

	err = waitLoaded(t, f.manager, id)
	assert.True(t, resources.IsIOError(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Loads.WithLabelValues("test.ron", core.LoadResultIOError)))
}

func TestAssetManagerUnknownExtension(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.manager.Load("image.png")
	assert.ErrorIs(t, err, core.ErrNoLoader)
	assert.ErrorIs(t, f.manager.Reload("never-requested.test.ron"), core.ErrAssetNotFound)
	assert.ErrorIs(t, f.manager.Wait(context.Background(), InvalidAssetID), core.ErrAssetNotFound)
}

func TestAssetManagerWrongTypeHandle(t *testing.T) {
	f := newFixture(t, false)
	f.write(t, "test.toml", "test_field = \"from toml\"\n")

	h, err := LoadAs[string](f.manager, "test.toml")
	require.NoError(t, err)
	require.NoError(t, waitLoaded(t, f.manager, h.ID()))

	_, ok := Get(f.manager, h)
	assert.False(t, ok)

	rec, ok := GetByID[*resources.Record](f.manager, h.ID())
	require.True(t, ok)
	assert.Equal(t, "from toml", rec.TestField())
}

func TestAssetManagerClosed(t *testing.T) {
	f := newFixture(t, false)
	require.NoError(t, f.manager.Shutdown())
	require.NoError(t, f.manager.Shutdown())

	_, err := f.manager.Load("test.ron")
	assert.ErrorIs(t, err, core.ErrManagerClosed)
	assert.ErrorIs(t, f.manager.Initialize(), core.ErrManagerClosed)
}

func TestAssetManagerHotReload(t *testing.T) {
	f := newFixture(t, true)
	f.write(t, "test.ron", `test_field: "before"`)

	h, err := LoadAs[*resources.Record](f.manager, "test.ron")
	require.NoError(t, err)
	require.NoError(t, waitLoaded(t, f.manager, h.ID()))
	f.manager.Update()
	f.recorder.reset()

	f.write(t, "test.ron", `test_field: "after"`)
	require.Eventually(t, func() bool {
		f.manager.Update()
		rec, ok := Get(f.manager, h)
		return ok && rec.TestField() == "after"
	}, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		f.manager.Update()
		kinds := f.recorder.kinds()
		return len(kinds) > 0 && kinds[len(kinds)-1] == AssetEventModified
	}, 5*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, testutil.ToFloat64(f.metrics.Reloads), 1.0)
	f.recorder.reset()

	require.NoError(t, os.Remove(filepath.Join(f.dir, "test.ron")))
	require.Eventually(t, func() bool {
		f.manager.Update()
		for _, k := range f.recorder.kinds() {
			if k == AssetEventRemoved {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
	_, ok := Get(f.manager, h)
	assert.False(t, ok)
}
