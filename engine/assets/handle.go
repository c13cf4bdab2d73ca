package assets

import "github.com/google/uuid"

// AssetID identifies a requested asset for the lifetime of the manager.
type AssetID uuid.UUID

var InvalidAssetID = AssetID(uuid.Nil)

func newAssetID() AssetID {
	return AssetID(uuid.New())
}

func (id AssetID) String() string {
	return uuid.UUID(id).String()
}

// Handle is a typed reference to an asset. The zero value is invalid.
type Handle[T any] struct {
	id AssetID
}

func HandleFromID[T any](id AssetID) Handle[T] {
	return Handle[T]{id: id}
}

func (h Handle[T]) ID() AssetID {
	return h.id
}

func (h Handle[T]) IsValid() bool {
	return h.id != InvalidAssetID
}

type LoadState int

const (
	LoadStateNotLoaded LoadState = iota
	LoadStateLoading
	LoadStateLoaded
	LoadStateFailed
)

func (s LoadState) String() string {
	switch s {
	case LoadStateNotLoaded:
		return "NotLoaded"
	case LoadStateLoading:
		return "Loading"
	case LoadStateLoaded:
		return "Loaded"
	case LoadStateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}
