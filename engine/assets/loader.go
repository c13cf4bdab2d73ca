package assets

import (
	"context"
	"io"

	"github.com/spaghettifunk/anima-custom-asset/engine/resources"
)

// Loader turns a byte stream into an asset value. Implementations must be
// stateless: the manager calls Load concurrently from several workers.
type Loader interface {
	// Extensions lists the file extensions claimed by the loader, without the leading dot.
	Extensions() []string
	Load(ctx context.Context, r io.Reader, settings resources.Settings, lc *resources.LoadContext) (interface{}, error) // `interface{}` here allows loaders to return various asset types
}
