package core

import "context"

// NoteRepository defines the contract for persisting notes and the stats singleton.
// Not-found is reported through the boolean results, never as an error; errors
// are reserved for storage failures.
type NoteRepository interface {
	// EnsureInitialized creates the notes table and the stats singleton if absent.
	// It is idempotent and safe to call before every operation.
	EnsureInitialized(ctx context.Context) error

	// Create assigns the next id, persists the note, and adds xp to the stats.
	Create(ctx context.Context, title, text, tags string, xp int) (int64, error)

	// Update overwrites title, text, tags and timestamp of an existing note.
	// xp is accepted for symmetry with Create and is never written.
	Update(ctx context.Context, id int64, title, text, tags string, xp int) (bool, error)

	// List returns notes newest first, truncated to limit (limit <= 0 means all).
	List(ctx context.Context, limit int) ([]Note, error)

	// Delete removes a note and subtracts its xp from the stats.
	Delete(ctx context.Context, id int64) (bool, error)

	// LoadStats reads the stats singleton. It does not self-heal.
	LoadStats(ctx context.Context) (Stats, error)

	// SaveStats overwrites the stats singleton.
	SaveStats(ctx context.Context, s Stats) error
}

// Maintainer is implemented by repositories that support offline cleanup passes.
type Maintainer interface {
	// Backup copies the notes table next to itself and returns the backup path.
	Backup(ctx context.Context) (string, error)

	// Replace rewrites the notes table with exactly the given notes, keeping their ids.
	Replace(ctx context.Context, notes []Note) error
}

// Watchable defines an interface for repositories that can report external changes.
type Watchable interface {
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}

// Dispatcher turns a fired reminder into a user-visible event.
// Implementations must never block the caller on delivery nor report failures.
type Dispatcher interface {
	Notify(ctx context.Context, message string)
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, message string)

func (f DispatcherFunc) Notify(ctx context.Context, message string) { f(ctx, message) }
