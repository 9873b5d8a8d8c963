package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path           string     `json:"path"`
	ReadOnly       bool       `json:"read_only"`
	Versioning     bool       `json:"versioning"`
	WatcherActive  bool       `json:"watcher_active"`
	Writes         int        `json:"writes"`
	SnapshotErrors int        `json:"snapshot_errors"`
	LastReconcile  *time.Time `json:"last_reconcile,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()

	return RepositoryState{
		Path:           r.Path,
		ReadOnly:       r.config.ReadOnly,
		Versioning:     r.config.Versioning,
		WatcherActive:  r.watcherActive,
		Writes:         r.writes,
		SnapshotErrors: r.snapshotErrors,
		LastReconcile:  r.lastReconcile,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "note-store"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)

func (r *Repository) setWatcherActive(active bool) {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	r.watcherActive = active
}

func (r *Repository) recordReconcile() {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	now := time.Now()
	r.lastReconcile = &now
}

func (r *Repository) recordWrite() {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	r.writes++
}
