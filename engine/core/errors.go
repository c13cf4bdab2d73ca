package core

import (
	"errors"
)

var (
	ErrLoaderExists    = errors.New("a loader is already registered for this extension")
	ErrNoLoader        = errors.New("no loader registered for this path")
	ErrAssetNotFound   = errors.New("asset not found")
	ErrJobSystemClosed = errors.New("job system already shut down")
	ErrManagerClosed   = errors.New("asset manager already shut down")
	ErrUnknown         = errors.New("unknown")
)
