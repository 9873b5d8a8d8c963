package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/studydesk/pkg/core"
	"github.com/aretw0/studydesk/pkg/git"
)

// Watch starts a watcher over the data directory and streams changes to the
// files matching pattern (e.g. "*" or "notes.csv"). The channel is closed
// once ctx is cancelled and the watcher has shut down.
func (r *Repository) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = "*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern: %q", pattern)
	}

	events := make(chan core.Event, 16)
	w := newWatchWorker(r, pattern, events)
	w.onExit = func() { close(events) }

	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

// Reconcile reports the current presence of the tracked files. It is used
// after a burst of activity (such as a git checkout) during which individual
// events were not forwarded.
func (r *Repository) Reconcile(ctx context.Context) ([]core.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := time.Now().Unix()
	var events []core.Event
	for _, name := range []string{NotesFile, StatsFile} {
		eType := core.EventModify
		if _, err := os.Stat(filepath.Join(r.Path, name)); os.IsNotExist(err) {
			eType = core.EventDelete
		} else if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", name, err)
		}
		events = append(events, core.Event{Type: eType, ID: name, Timestamp: now})
	}
	r.recordReconcile()
	return events, nil
}

// shouldIgnore filters out our own temp, backup, mark and lock files, anything
// inside .git, and names not matching pattern.
func (r *Repository) shouldIgnore(event fsnotify.Event, pattern string) bool {
	base := filepath.Base(event.Name)
	switch {
	case strings.HasPrefix(base, TempFilePrefix),
		strings.HasSuffix(base, BackupSuffix),
		base == git.DefaultLockName,
		base == IDMarkFile,
		base == ".gitignore":
		return true
	}
	rel, err := filepath.Rel(r.Path, event.Name)
	if err != nil || strings.HasPrefix(filepath.ToSlash(rel), ".git/") {
		return true
	}
	ok, err := doublestar.Match(pattern, filepath.ToSlash(rel))
	return err != nil || !ok
}

func (r *Repository) mapEventType(event fsnotify.Event) core.EventType {
	switch {
	case event.Has(fsnotify.Create):
		return core.EventCreate
	case event.Has(fsnotify.Write):
		return core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return core.EventDelete
	default:
		return ""
	}
}

func (r *Repository) resolveID(path string) (string, error) {
	rel, err := filepath.Rel(r.Path, path)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %s is outside %s", path, r.Path)
	}
	return filepath.ToSlash(rel), nil
}
