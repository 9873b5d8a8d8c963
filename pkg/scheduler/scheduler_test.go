package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/studydesk/pkg/core"
	"github.com/aretw0/studydesk/pkg/scheduler"
)

// recorder is a Dispatcher that counts deliveries.
type recorder struct {
	mu       sync.Mutex
	messages []string
	calls    atomic.Int32
	done     chan string
}

func newRecorder() *recorder {
	return &recorder{done: make(chan string, 16)}
}

func (r *recorder) Notify(ctx context.Context, msg string) {
	r.mu.Lock()
	r.messages = append(r.messages, msg)
	r.mu.Unlock()
	r.calls.Add(1)
	r.done <- msg
}

func startScheduler(t *testing.T, d core.Dispatcher) *scheduler.Scheduler {
	t.Helper()
	s := scheduler.New(scheduler.Config{Dispatcher: d})
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	})
	return s
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestScheduleFiresAndRemoves(t *testing.T) {
	rec := newRecorder()
	s := startScheduler(t, rec)

	id, err := s.Schedule(time.Now().Add(time.Second), "ping", "")
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.Len(t, s.List(), 1)

	select {
	case msg := <-rec.done:
		assert.Equal(t, "ping", msg)
	case <-time.After(2 * time.Second):
		t.Fatal("job did not fire within 2s")
	}
	assert.Empty(t, s.List())
}

func TestCancelPreventsDispatch(t *testing.T) {
	rec := newRecorder()
	s := startScheduler(t, rec)

	id, err := s.Schedule(time.Now().Add(150*time.Millisecond), "never", "j1")
	require.NoError(t, err)

	assert.True(t, s.Cancel(id))
	assert.False(t, s.Cancel(id), "second cancel reports not found")
	assert.Empty(t, s.List())

	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int32(0), rec.calls.Load())
}

func TestDuplicateIDRejected(t *testing.T) {
	s := startScheduler(t, newRecorder())
	at := time.Now().Add(time.Hour)

	id, err := s.Schedule(at, "first", "")
	require.NoError(t, err)
	assert.Equal(t, core.JobIDFor(at), id)

	_, err = s.Schedule(at, "second", "")
	assert.ErrorIs(t, err, core.ErrDuplicateJob)

	_, err = s.Schedule(at, "third", "explicit")
	assert.NoError(t, err, "distinct ids at the same instant are fine")
	assert.Len(t, s.List(), 2)
}

func TestListOrderedByFireTime(t *testing.T) {
	s := startScheduler(t, newRecorder())
	now := time.Now()

	_, _ = s.Schedule(now.Add(3*time.Hour), "c", "c")
	_, _ = s.Schedule(now.Add(1*time.Hour), "a", "a")
	_, _ = s.Schedule(now.Add(2*time.Hour), "b", "b")

	var ids []string
	for _, j := range s.List() {
		ids = append(ids, j.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestPastFireTimeFiresImmediately(t *testing.T) {
	rec := newRecorder()
	s := startScheduler(t, rec)

	_, err := s.Schedule(time.Now().Add(-time.Minute), "late", "")
	require.NoError(t, err)

	select {
	case msg := <-rec.done:
		assert.Equal(t, "late", msg)
	case <-time.After(time.Second):
		t.Fatal("past job did not fire")
	}
}

func TestPanickingDispatcherDoesNotStopScheduler(t *testing.T) {
	var calls atomic.Int32
	done := make(chan struct{}, 4)
	d := core.DispatcherFunc(func(ctx context.Context, msg string) {
		calls.Add(1)
		done <- struct{}{}
		if msg == "boom" {
			panic("notification backend exploded")
		}
	})
	s := startScheduler(t, d)

	_, err := s.Schedule(time.Now().Add(20*time.Millisecond), "boom", "1")
	require.NoError(t, err)
	_, err = s.Schedule(time.Now().Add(80*time.Millisecond), "ok", "2")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d of 2 jobs dispatched", calls.Load())
		}
	}
	assert.Empty(t, s.List())
}

func TestStopDiscardsPendingJobs(t *testing.T) {
	rec := newRecorder()
	s := scheduler.New(scheduler.Config{Dispatcher: rec})

	_, err := s.Schedule(time.Now().Add(time.Hour), "too early", "")
	assert.ErrorIs(t, err, core.ErrSchedulerStopped, "not started yet")

	require.NoError(t, s.Start(context.Background()))
	_, err = s.Schedule(time.Now().Add(100*time.Millisecond), "discarded", "x")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	waitFor(t, func() bool { return len(s.List()) == 0 })
	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, int32(0), rec.calls.Load())

	waitFor(t, func() bool {
		_, err = s.Schedule(time.Now().Add(time.Hour), "after stop", "y")
		return errors.Is(err, core.ErrSchedulerStopped)
	})
}

func TestEventsReportFiredAndCancelled(t *testing.T) {
	rec := newRecorder()
	s := startScheduler(t, rec)

	_, err := s.Schedule(time.Now().Add(time.Hour), "c", "cancel-me")
	require.NoError(t, err)
	require.True(t, s.Cancel("cancel-me"))
	_, err = s.Schedule(time.Now().Add(10*time.Millisecond), "f", "fire-me")
	require.NoError(t, err)

	got := map[string]core.EventType{}
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case e := <-s.Events():
			got[e.ID] = e.Type
		case <-timeout:
			t.Fatalf("missing events, got %v", got)
		}
	}
	assert.Equal(t, core.EventJobCancelled, got["cancel-me"])
	assert.Equal(t, core.EventJobFired, got["fire-me"])
}

func TestStartRequiresDispatcher(t *testing.T) {
	s := scheduler.New(scheduler.Config{})
	assert.Error(t, s.Start(context.Background()))
}
