package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/studydesk/pkg/core"
)

func waitForEvent(t *testing.T, events <-chan core.Event, want func(core.Event) bool) core.Event {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case e, ok := <-events:
			require.True(t, ok, "events channel closed early")
			if want(e) {
				return e
			}
		case <-deadline:
			t.Fatal("timeout waiting for event")
			return core.Event{}
		}
	}
}

func TestWatchReportsExternalChanges(t *testing.T) {
	repo, path := setupRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := repo.Watch(ctx, "*.json")
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(path, "stats.json")))
	e := waitForEvent(t, events, func(e core.Event) bool { return e.Type == core.EventDelete })
	assert.Equal(t, "stats.json", e.ID)

	require.NoError(t, repo.EnsureInitialized(ctx))
	e = waitForEvent(t, events, func(e core.Event) bool { return e.Type != core.EventDelete })
	assert.Equal(t, "stats.json", e.ID)

	cancel()
	closed := false
	deadline := time.After(3 * time.Second)
	for !closed {
		select {
		case _, ok := <-events:
			closed = !ok
		case <-deadline:
			t.Fatal("events channel not closed after cancel")
		}
	}
}

func TestWatchIgnoresTempAndBackupFiles(t *testing.T) {
	repo, path := setupRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := repo.Watch(ctx, "*")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(path, "notes.csv.backup"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(path, "studydesk-tmp-123"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(path, "marker.txt"), []byte("x"), 0644))

	e := waitForEvent(t, events, func(core.Event) bool { return true })
	assert.Equal(t, "marker.txt", e.ID)
}

func TestWatchRejectsBadPattern(t *testing.T) {
	repo, _ := setupRepo(t)
	_, err := repo.Watch(context.Background(), "[")
	assert.Error(t, err)
}
