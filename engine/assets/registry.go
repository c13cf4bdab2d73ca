package assets

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/exp/slices"

	"github.com/spaghettifunk/anima-custom-asset/engine/core"
)

// Registry maps file extensions to the loader that owns them.
type Registry struct {
	mutex   sync.RWMutex
	loaders map[string]Loader
}

func NewRegistry() *Registry {
	return &Registry{
		loaders: make(map[string]Loader),
	}
}

// Register claims every extension of l. Nothing is registered if one of them
// is already owned by another loader.
func (r *Registry) Register(l Loader) error {
	exts := l.Extensions()
	if len(exts) == 0 {
		return fmt.Errorf("loader %T declares no extensions", l)
	}

	normalized := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.TrimPrefix(ext, ".")
		if ext == "" {
			return fmt.Errorf("loader %T declares an empty extension", l)
		}
		normalized = append(normalized, ext)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	for _, ext := range normalized {
		if existing, ok := r.loaders[ext]; ok {
			core.LogError("Loader for extension '%s' already exists (%T) and %T will not be registered.", ext, existing, l)
			return fmt.Errorf("extension '%s': %w", ext, core.ErrLoaderExists)
		}
	}
	for _, ext := range normalized {
		r.loaders[ext] = l
	}
	core.LogDebug("Loader %T registered for %v.", l, normalized)
	return nil
}

// Resolve picks the loader for path. When several registered extensions
// match, the longest one wins.
func (r *Registry) Resolve(path string) (Loader, string, error) {
	name := filepath.Base(path)

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var (
		best    Loader
		bestExt string
	)
	for ext, l := range r.loaders {
		if matchesExtension(name, ext) && len(ext) > len(bestExt) {
			best, bestExt = l, ext
		}
	}
	if best == nil {
		return nil, "", fmt.Errorf("%s: %w", path, core.ErrNoLoader)
	}
	return best, bestExt, nil
}

func (r *Registry) Extensions() []string {
	r.mutex.RLock()
	exts := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		exts = append(exts, ext)
	}
	r.mutex.RUnlock()

	slices.Sort(exts)
	return exts
}

// matchesExtension is an exact, case sensitive suffix match on whole
// dot-separated parts: "test.ron" matches "test.ron" and "a.test.ron" but
// not "contest.ron".
func matchesExtension(name, ext string) bool {
	return name == ext || strings.HasSuffix(name, "."+ext)
}
