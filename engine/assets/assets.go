package assets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/anima-custom-asset/engine/containers"
	"github.com/spaghettifunk/anima-custom-asset/engine/core"
	"github.com/spaghettifunk/anima-custom-asset/engine/resources"
	"github.com/spaghettifunk/anima-custom-asset/engine/systems"
)

type ManagerConfig struct {
	// Directory every asset path is relative to.
	RootDir string
	// Reload assets when their file changes on disk.
	Watch bool
	// Quiet period after the last write before a changed file is reloaded.
	ReloadDebounce time.Duration
}

type assetEntry struct {
	id      AssetID
	path    string
	ext     string
	loader  Loader
	state   LoadState
	value   interface{}
	err     error
	handles int
	// Set once Added has been emitted for the current value.
	added bool
	// Bumped on every submitted load; results of older loads are dropped.
	generation uint64
	// Closed when the in-flight load settles.
	done chan struct{}
}

type AssetManager struct {
	config   ManagerConfig
	registry *Registry
	bus      *core.EventBus
	jobs     *systems.JobSystem
	metrics  *core.LoadMetrics

	mutex  sync.RWMutex
	byPath map[string]*assetEntry
	byID   map[AssetID]*assetEntry

	eventsMutex sync.Mutex
	pending     *containers.RingQueue[AssetEvent]

	timersMutex sync.Mutex
	timers      map[string]*time.Timer

	fsnotify  *fsnotify.Watcher
	done      chan struct{}
	closeOnce sync.Once
	isClosed  bool
}

func NewAssetManager(config ManagerConfig, bus *core.EventBus, jobs *systems.JobSystem, metrics *core.LoadMetrics) (*AssetManager, error) {
	if bus == nil || jobs == nil {
		return nil, errors.New("asset manager requires an event bus and a job system")
	}
	root, err := filepath.Abs(config.RootDir)
	if err != nil {
		return nil, err
	}
	config.RootDir = root

	return &AssetManager{
		config:   config,
		registry: NewRegistry(),
		bus:      bus,
		jobs:     jobs,
		metrics:  metrics,
		byPath:   make(map[string]*assetEntry),
		byID:     make(map[AssetID]*assetEntry),
		pending:  containers.NewRingQueue[AssetEvent](16),
		timers:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}, nil
}

// Initialize starts watching the asset root when hot reload is enabled.
func (am *AssetManager) Initialize() error {
	if am.closed() {
		return core.ErrManagerClosed
	}
	if !am.config.Watch {
		core.LogInfo("Asset manager initialized for '%s' (hot reload disabled).", am.config.RootDir)
		return nil
	}

	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	am.fsnotify = fsWatch

	if err := am.watchRecursive(am.config.RootDir); err != nil {
		fsWatch.Close()
		am.fsnotify = nil
		return fmt.Errorf("failed to watch asset directory: %w", err)
	}

	go am.start()

	core.LogInfo("Asset manager initialized for '%s' (hot reload enabled).", am.config.RootDir)
	return nil
}

func (am *AssetManager) Registry() *Registry {
	return am.registry
}

func (am *AssetManager) RootDir() string {
	return am.config.RootDir
}

// Register loaders for each asset extension
func (am *AssetManager) RegisterLoader(l Loader) error {
	return am.registry.Register(l)
}

// Load requests the asset at path (relative to the root). Requesting the same
// path again returns the same ID and counts one more handle.
func (am *AssetManager) Load(path string) (AssetID, error) {
	if am.closed() {
		return InvalidAssetID, core.ErrManagerClosed
	}
	path = am.assetPath(path)

	loader, ext, err := am.registry.Resolve(path)
	if err != nil {
		return InvalidAssetID, fmt.Errorf("load asset: %w", err)
	}

	am.mutex.Lock()
	if entry, exists := am.byPath[path]; exists {
		entry.handles++
		am.mutex.Unlock()
		return entry.id, nil
	}
	entry := &assetEntry{
		id:      newAssetID(),
		path:    path,
		ext:     ext,
		loader:  loader,
		handles: 1,
	}
	am.byPath[path] = entry
	am.byID[entry.id] = entry
	gen := am.beginLoadLocked(entry)
	am.mutex.Unlock()

	am.submit(entry, gen)
	return entry.id, nil
}

// LoadAs is Load with a typed handle.
func LoadAs[T any](am *AssetManager, path string) (Handle[T], error) {
	id, err := am.Load(path)
	if err != nil {
		return Handle[T]{}, err
	}
	return HandleFromID[T](id), nil
}

// Get returns the current value behind h. It reports false while the asset is
// not loaded or when the value is not a T.
func Get[T any](am *AssetManager, h Handle[T]) (T, bool) {
	return GetByID[T](am, h.ID())
}

func GetByID[T any](am *AssetManager, id AssetID) (T, bool) {
	var zero T
	value, ok := am.Value(id)
	if !ok {
		return zero, false
	}
	typed, ok := value.(T)
	return typed, ok
}

// Value returns the last successfully loaded value for id.
func (am *AssetManager) Value(id AssetID) (interface{}, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()

	entry, exists := am.byID[id]
	if !exists || entry.value == nil {
		return nil, false
	}
	return entry.value, true
}

func (am *AssetManager) LoadState(id AssetID) LoadState {
	am.mutex.RLock()
	defer am.mutex.RUnlock()

	entry, exists := am.byID[id]
	if !exists {
		return LoadStateNotLoaded
	}
	return entry.state
}

// Err returns the error of the last failed load, or nil.
func (am *AssetManager) Err(id AssetID) error {
	am.mutex.RLock()
	defer am.mutex.RUnlock()

	entry, exists := am.byID[id]
	if !exists {
		return core.ErrAssetNotFound
	}
	return entry.err
}

func (am *AssetManager) Path(id AssetID) (string, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()

	entry, exists := am.byID[id]
	if !exists {
		return "", false
	}
	return entry.path, true
}

// Wait blocks until the asset is no longer loading and returns the load error,
// if any.
func (am *AssetManager) Wait(ctx context.Context, id AssetID) error {
	am.mutex.RLock()
	entry, exists := am.byID[id]
	if !exists {
		am.mutex.RUnlock()
		return core.ErrAssetNotFound
	}
	done := entry.done
	am.mutex.RUnlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	am.mutex.RLock()
	defer am.mutex.RUnlock()
	if am.byID[id] != entry {
		return core.ErrAssetNotFound
	}
	return entry.err
}

// Reload runs the loader again for an already requested path.
func (am *AssetManager) Reload(path string) error {
	if am.closed() {
		return core.ErrManagerClosed
	}
	path = am.assetPath(path)

	am.mutex.Lock()
	entry, exists := am.byPath[path]
	if !exists {
		am.mutex.Unlock()
		return fmt.Errorf("reload %s: %w", path, core.ErrAssetNotFound)
	}
	gen := am.beginLoadLocked(entry)
	am.mutex.Unlock()

	am.submit(entry, gen)
	return nil
}

// Release drops one handle. When the last one goes the asset is forgotten and
// Unused is emitted, followed by Removed if a value was loaded.
func (am *AssetManager) Release(id AssetID) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	entry, exists := am.byID[id]
	if !exists {
		return
	}
	entry.handles--
	if entry.handles > 0 {
		return
	}

	delete(am.byID, id)
	delete(am.byPath, entry.path)
	entry.generation++
	entry.state = LoadStateNotLoaded
	am.settleLocked(entry)

	am.emit(AssetEventUnused, entry)
	if entry.added {
		entry.value = nil
		entry.added = false
		am.emit(AssetEventRemoved, entry)
	}
}

// Update delivers the events queued since the previous call on the event bus.
// Call it once per frame from the engine loop.
func (am *AssetManager) Update() {
	am.eventsMutex.Lock()
	events := am.pending.Drain()
	am.eventsMutex.Unlock()

	for _, ev := range events {
		am.bus.Fire(ev.Kind.Code(), am, core.EventContext{Data: ev})
	}
}

// Shutdown stops the file watcher and any pending reloads.
func (am *AssetManager) Shutdown() error {
	var err error
	am.closeOnce.Do(func() {
		am.mutex.Lock()
		am.isClosed = true
		am.mutex.Unlock()

		close(am.done)

		am.timersMutex.Lock()
		for path, t := range am.timers {
			t.Stop()
			delete(am.timers, path)
		}
		am.timersMutex.Unlock()

		if am.fsnotify != nil {
			err = am.fsnotify.Close()
		}
	})
	return err
}

func (am *AssetManager) closed() bool {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return am.isClosed
}

// beginLoadLocked must be called with am.mutex held.
func (am *AssetManager) beginLoadLocked(entry *assetEntry) uint64 {
	entry.generation++
	if entry.state != LoadStateLoaded {
		entry.state = LoadStateLoading
	}
	if entry.done == nil {
		entry.done = make(chan struct{})
	}
	return entry.generation
}

// settleLocked wakes up Wait callers. Must be called with am.mutex held.
func (am *AssetManager) settleLocked(entry *assetEntry) {
	if entry.done != nil {
		close(entry.done)
		entry.done = nil
	}
}

func (am *AssetManager) submit(entry *assetEntry, gen uint64) {
	err := am.jobs.Submit(systems.JobTask{
		Name: "load " + entry.path,
		Run: func(ctx context.Context) error {
			return am.loadEntry(ctx, entry, gen)
		},
	})
	if err != nil {
		am.finishLoad(entry, gen, nil, err)
	}
}

// loadEntry runs on a worker: read the file, hand it to the loader, record the outcome.
func (am *AssetManager) loadEntry(ctx context.Context, entry *assetEntry, gen uint64) error {
	start := time.Now()

	value, err := am.readAndParse(ctx, entry)

	am.metrics.ObserveLoad(entry.ext, loadResult(err), time.Since(start))
	am.finishLoad(entry, gen, value, err)
	return err
}

func (am *AssetManager) readAndParse(ctx context.Context, entry *assetEntry) (interface{}, error) {
	f, err := os.Open(filepath.Join(am.config.RootDir, filepath.FromSlash(entry.path)))
	if err != nil {
		return nil, &resources.IOError{Op: "open", Err: err}
	}
	defer f.Close()

	lc := resources.NewLoadContext(entry.path, entry.ext)
	return entry.loader.Load(ctx, f, resources.Settings{}, lc)
}

func (am *AssetManager) finishLoad(entry *assetEntry, gen uint64, value interface{}, err error) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	if am.byID[entry.id] != entry || entry.generation != gen {
		// Released or superseded by a newer load.
		return
	}
	defer am.settleLocked(entry)

	if err != nil {
		entry.state = LoadStateFailed
		entry.err = err
		core.LogError("Failed to load asset '%s': %s", entry.path, err)
		return
	}

	entry.state = LoadStateLoaded
	entry.err = nil
	entry.value = value
	if !entry.added {
		entry.added = true
		am.emit(AssetEventAdded, entry)
		am.emit(AssetEventLoadedWithDependencies, entry)
		return
	}
	am.emit(AssetEventModified, entry)
}

// fileRemoved drops the value of an asset whose file disappeared. Handles stay
// valid; the asset comes back as Added if the file is created again.
func (am *AssetManager) fileRemoved(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	entry, exists := am.byPath[path]
	if !exists || !entry.added {
		return
	}
	entry.generation++
	entry.value = nil
	entry.added = false
	entry.state = LoadStateNotLoaded
	am.settleLocked(entry)
	am.emit(AssetEventRemoved, entry)
}

func (am *AssetManager) emit(kind AssetEventKind, entry *assetEntry) {
	am.eventsMutex.Lock()
	am.pending.Enqueue(AssetEvent{Kind: kind, ID: entry.id, Path: entry.path})
	am.eventsMutex.Unlock()
}

func (am *AssetManager) known(path string) bool {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	_, exists := am.byPath[path]
	return exists
}

func (am *AssetManager) start() {
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			am.handleFileEvent(e)

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("Asset watcher error: %s", err)

		case <-am.done:
			return
		}
	}
}

func (am *AssetManager) handleFileEvent(e fsnotify.Event) {
	if e.Op&fsnotify.Create != 0 {
		if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
			if err := am.watchRecursive(e.Name); err != nil {
				core.LogWarn("Unable to watch new directory '%s': %s", e.Name, err)
			}
			return
		}
	}

	rel, err := filepath.Rel(am.config.RootDir, e.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return
	}
	rel = normalizePath(rel)
	if !am.known(rel) {
		return
	}

	switch {
	case e.Op&(fsnotify.Create|fsnotify.Write) != 0:
		core.LogDebug("Asset '%s' changed (%s).", rel, e.Op)
		am.scheduleReload(rel)
	case e.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		core.LogDebug("Asset '%s' removed (%s).", rel, e.Op)
		am.cancelReload(rel)
		am.fileRemoved(rel)
	}
}

// scheduleReload debounces bursts of writes to the same file.
func (am *AssetManager) scheduleReload(path string) {
	reload := func() {
		am.timersMutex.Lock()
		delete(am.timers, path)
		am.timersMutex.Unlock()

		am.metrics.ObserveReload()
		if err := am.Reload(path); err != nil && !errors.Is(err, core.ErrManagerClosed) {
			core.LogWarn("Unable to reload asset '%s': %s", path, err)
		}
	}

	if am.config.ReloadDebounce <= 0 {
		reload()
		return
	}

	am.timersMutex.Lock()
	defer am.timersMutex.Unlock()
	if t, exists := am.timers[path]; exists {
		t.Stop()
	}
	am.timers[path] = time.AfterFunc(am.config.ReloadDebounce, reload)
}

func (am *AssetManager) cancelReload(path string) {
	am.timersMutex.Lock()
	defer am.timersMutex.Unlock()
	if t, exists := am.timers[path]; exists {
		t.Stop()
		delete(am.timers, path)
	}
}

// watchRecursive adds all directories under the given one to the watch list.
// A file created in a fresh directory before its watch is added is missed.
func (am *AssetManager) watchRecursive(path string) error {
	return filepath.WalkDir(path, func(walkPath string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return am.fsnotify.Add(walkPath)
		}
		return nil
	})
}

// assetPath turns an absolute path under the root into a root relative one.
func (am *AssetManager) assetPath(path string) string {
	if filepath.IsAbs(path) {
		if rel, err := filepath.Rel(am.config.RootDir, path); err == nil {
			path = rel
		}
	}
	return normalizePath(path)
}

func normalizePath(path string) string {
	return strings.TrimPrefix(filepath.ToSlash(filepath.Clean(path)), "./")
}

func loadResult(err error) string {
	switch {
	case err == nil:
		return core.LoadResultOK
	case resources.IsFormatError(err):
		return core.LoadResultFormatError
	default:
		return core.LoadResultIOError
	}
}
