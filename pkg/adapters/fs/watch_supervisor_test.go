package fs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/supervisor"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/studydesk/pkg/core"
)

func watcherActive(repo *Repository) func() bool {
	return func() bool {
		st, ok := repo.State().(RepositoryState)
		return ok && st.WatcherActive
	}
}

func TestSupervisedWatcherRestartsAfterFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := NewRepository(Config{Path: filepath.Join(t.TempDir(), "data")})
	require.NoError(t, repo.Initialize(ctx))

	out := make(chan core.Event)
	spawned := make(chan *watchWorker, 2)

	sup := supervisor.New("notes-watch", supervisor.StrategyOneForOne, supervisor.Spec{
		Name: "fs-watcher",
		Type: string(worker.TypeGoroutine),
		Factory: func() (worker.Worker, error) {
			w := newWatchWorker(repo, NotesFile, out)
			spawned <- w
			return w, nil
		},
		Backoff: supervisor.Backoff{
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     50 * time.Millisecond,
			Multiplier:      1,
			ResetDuration:   50 * time.Millisecond,
			MaxRestarts:     2,
			MaxDuration:     200 * time.Millisecond,
		},
		RestartPolicy: supervisor.RestartOnFailure,
	})
	require.NoError(t, sup.Start(ctx))

	var first *watchWorker
	select {
	case first = <-spawned:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor never spawned a watcher")
	}
	require.Eventually(t, watcherActive(repo), 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return first.watcher != nil }, 2*time.Second, 10*time.Millisecond)

	// Closing fsnotify underneath the worker closes its channels without a stop request.
	_ = first.watcher.Close()

	select {
	case second := <-spawned:
		assert.NotSame(t, first, second)
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not restart the watcher")
	}
	require.Eventually(t, watcherActive(repo), 2*time.Second, 10*time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	require.NoError(t, sup.Stop(stopCtx))
}

func TestGitGate(t *testing.T) {
	lock := filepath.Join("data", ".git", "index.lock")
	var g gitGate

	isLock, released := g.observe(fsnotify.Event{Name: filepath.Join("data", NotesFile), Op: fsnotify.Write})
	assert.False(t, isLock)
	assert.False(t, released)

	isLock, released = g.observe(fsnotify.Event{Name: lock, Op: fsnotify.Create})
	assert.True(t, isLock)
	assert.False(t, released)
	assert.True(t, g.held)

	isLock, released = g.observe(fsnotify.Event{Name: lock, Op: fsnotify.Remove})
	assert.True(t, isLock)
	assert.True(t, released)
	assert.False(t, g.held)

	// A stray removal without a prior create releases nothing.
	_, released = g.observe(fsnotify.Event{Name: lock, Op: fsnotify.Rename})
	assert.False(t, released)
}

func TestDebouncerCoalesces(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)
	got := make(chan core.Event, 4)
	deliver := func(e core.Event) { got <- e }

	d.add(core.Event{Type: core.EventCreate, ID: NotesFile}, deliver)
	d.add(core.Event{Type: core.EventModify, ID: NotesFile}, deliver)
	d.add(core.Event{Type: core.EventModify, ID: NotesFile}, deliver)
	d.add(core.Event{Type: core.EventDelete, ID: StatsFile}, deliver)

	time.Sleep(100 * time.Millisecond)
	require.True(t, d.stopAndWait(time.Second))
	close(got)

	last := map[string]core.EventType{}
	delivered := 0
	for e := range got {
		last[e.ID] = e.Type
		delivered++
	}
	assert.Equal(t, 2, delivered)
	assert.Equal(t, map[string]core.EventType{
		NotesFile: core.EventModify,
		StatsFile: core.EventDelete,
	}, last)

	d.add(core.Event{ID: "late"}, func(core.Event) { t.Error("event accepted after stop") })
	time.Sleep(50 * time.Millisecond)
}
