package fs

import (
	"time"

	"github.com/aretw0/introspection"

	"github.com/aretw0/tillage/pkg/core"
)

// CollectionState exposes internal state for observability.
type CollectionState struct {
	Name          string     `json:"name"`
	Path          string     `json:"path"`
	Format        string     `json:"format"`
	ReadOnly      bool       `json:"read_only"`
	Versioning    bool       `json:"versioning"`
	WatcherActive bool       `json:"watcher_active"`
	CachedRecords int64      `json:"cached_records"`
	Writes        uint64     `json:"writes"`
	LastWrite     *time.Time `json:"last_write,omitempty"`
}

// State implements introspection.Introspectable. It never waits on the store
// lock.
func (c *Collection[T]) State() any {
	state := CollectionState{
		Name:          c.config.Name,
		Path:          c.path,
		Format:        c.ser.Ext(),
		ReadOnly:      c.config.ReadOnly,
		Versioning:    c.config.Versioning,
		WatcherActive: c.watcherActive.Load(),
		CachedRecords: c.cached.Load(),
		Writes:        c.writes.Load(),
	}
	if ms := c.lastWriteAt.Load(); ms > 0 {
		at := time.UnixMilli(ms).UTC()
		state.LastWrite = &at
	}
	return state
}

// ComponentType implements introspection.Component.
func (c *Collection[T]) ComponentType() string {
	return "fs-collection"
}

var _ introspection.Introspectable = (*Collection[core.Task])(nil)
var _ introspection.Component = (*Collection[core.Note])(nil)
