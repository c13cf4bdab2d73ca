package assets

import (
	"fmt"

	"github.com/spaghettifunk/anima-custom-asset/engine/core"
)

type AssetEventKind int

const (
	AssetEventAdded AssetEventKind = iota + 1
	AssetEventModified
	AssetEventRemoved
	AssetEventUnused
	AssetEventLoadedWithDependencies
)

func (k AssetEventKind) String() string {
	switch k {
	case AssetEventAdded:
		return "Added"
	case AssetEventModified:
		return "Modified"
	case AssetEventRemoved:
		return "Removed"
	case AssetEventUnused:
		return "Unused"
	case AssetEventLoadedWithDependencies:
		return "LoadedWithDependencies"
	default:
		return fmt.Sprintf("AssetEventKind(%d)", int(k))
	}
}

// Code maps the kind onto the engine event bus.
func (k AssetEventKind) Code() core.SystemEventCode {
	switch k {
	case AssetEventAdded:
		return core.EVENT_CODE_ASSET_ADDED
	case AssetEventModified:
		return core.EVENT_CODE_ASSET_MODIFIED
	case AssetEventRemoved:
		return core.EVENT_CODE_ASSET_REMOVED
	case AssetEventUnused:
		return core.EVENT_CODE_ASSET_UNUSED
	case AssetEventLoadedWithDependencies:
		return core.EVENT_CODE_ASSET_LOADED_WITH_DEPENDENCIES
	default:
		return core.MAX_EVENT_CODE
	}
}

// AssetEvent is delivered through core.EventContext.Data.
type AssetEvent struct {
	Kind AssetEventKind
	ID   AssetID
	Path string
}

func (e AssetEvent) String() string {
	return fmt.Sprintf("%s{id: %s, path: %s}", e.Kind, e.ID, e.Path)
}

// EventFromContext extracts the AssetEvent carried by an asset event code.
func EventFromContext(data core.EventContext) (AssetEvent, bool) {
	ev, ok := data.Data.(AssetEvent)
	return ev, ok
}
