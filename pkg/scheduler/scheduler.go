// Package scheduler runs one-shot reminder jobs on a background clock.
//
// Jobs live only in memory: they fire once at their fire time and are removed,
// or are removed early by Cancel. Stopping the scheduler discards every
// pending job.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/worker"

	"github.com/aretw0/studydesk/pkg/core"
)

// Config holds the scheduler dependencies.
type Config struct {
	// Dispatcher receives the message of every fired job. Required.
	Dispatcher core.Dispatcher
	Logger     *slog.Logger
	// Now overrides the wall clock, for tests.
	Now func() time.Time
	// EventBuffer is the capacity of the Events channel (default 64).
	// Events are dropped when nobody drains it.
	EventBuffer int
}

type job struct {
	id      string
	fireAt  time.Time
	message string
}

// Scheduler is a lifecycle worker owning the job table.
type Scheduler struct {
	*worker.BaseWorker
	config Config

	mu        sync.Mutex
	jobs      map[string]*job
	running   bool
	fired     int
	cancelled int
	events    chan core.Event
	closed    bool

	wake   chan struct{}
	cancel context.CancelFunc
}

// New creates a scheduler. It accepts jobs only after Start.
func New(config Config) *Scheduler {
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.EventBuffer <= 0 {
		config.EventBuffer = 64
	}
	return &Scheduler{
		BaseWorker: worker.NewBaseWorker("reminder-scheduler"),
		config:     config,
		jobs:       make(map[string]*job),
		events:     make(chan core.Event, config.EventBuffer),
		wake:       make(chan struct{}, 1),
	}
}

// Events streams JOB_FIRED and JOB_CANCELLED events. It is closed on Stop.
func (s *Scheduler) Events() <-chan core.Event {
	return s.events
}

// Start launches the background clock.
func (s *Scheduler) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if s.config.Dispatcher == nil {
		return fmt.Errorf("scheduler requires a dispatcher")
	}

	status := s.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("scheduler already started (status: %s)", status)
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	s.SetStatus(worker.StatusRunning)
	if err := s.StartFunc(runCtx, s.run); err != nil {
		cancel()
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return err
	}
	return nil
}

// Stop shuts the clock down. Pending jobs are discarded, not fired.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.StopRequested = true
		s.cancel()
	}
	return s.BaseWorker.Stop(ctx)
}

// Shutdown is an alias of Stop.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	return s.Stop(ctx)
}

func (s *Scheduler) State() worker.State {
	s.mu.Lock()
	pending, fired, cancelled := len(s.jobs), s.fired, s.cancelled
	s.mu.Unlock()

	return s.ExportState(func(st *worker.State) {
		st.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"pending":           strconv.Itoa(pending),
			"fired":             strconv.Itoa(fired),
			"cancelled":         strconv.Itoa(cancelled),
		}
	})
}

// Schedule registers a one-shot job. An empty id is derived from fireAt with
// core.JobIDFor. Scheduling an id that is already pending fails with
// core.ErrDuplicateJob and leaves the existing job untouched.
//
// Fire times in the past are accepted and fire on the next clock pass;
// rejecting them is the caller's job.
func (s *Scheduler) Schedule(fireAt time.Time, message, id string) (string, error) {
	if id == "" {
		id = core.JobIDFor(fireAt)
	}

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return "", core.ErrSchedulerStopped
	}
	if _, exists := s.jobs[id]; exists {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: %s", core.ErrDuplicateJob, id)
	}
	s.jobs[id] = &job{id: id, fireAt: fireAt, message: message}
	s.mu.Unlock()

	s.config.Logger.Debug("job scheduled", "id", id, "fire_at", fireAt)
	s.poke()
	return id, nil
}

// List returns the pending jobs ordered by fire time.
func (s *Scheduler) List() []core.JobInfo {
	s.mu.Lock()
	out := make([]core.JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, core.JobInfo{ID: j.id, FireAt: j.fireAt, Message: j.message})
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, k int) bool {
		if !out[i].FireAt.Equal(out[k].FireAt) {
			return out[i].FireAt.Before(out[k].FireAt)
		}
		return out[i].ID < out[k].ID
	})
	return out
}

// Cancel removes a pending job and reports whether it existed.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	_, ok := s.jobs[id]
	if ok {
		delete(s.jobs, id)
		s.cancelled++
		s.emitLocked(core.EventJobCancelled, id)
	}
	s.mu.Unlock()

	if ok {
		s.config.Logger.Debug("job cancelled", "id", id)
		s.poke()
	}
	return ok
}

func (s *Scheduler) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) emitLocked(t core.EventType, id string) {
	if s.closed {
		return
	}
	select {
	case s.events <- core.Event{Type: t, ID: id, Timestamp: s.config.Now().Unix()}:
	default:
		s.config.Logger.Debug("scheduler event dropped", "type", t, "id", id)
	}
}

func (s *Scheduler) run(ctx context.Context) error {
	defer s.shutdown()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		s.fireDue(ctx)

		var wait <-chan time.Time
		if next, ok := s.nextFireAt(); ok {
			timer.Reset(max(0, next.Sub(s.config.Now())))
			wait = timer.C
		}

		select {
		case <-ctx.Done():
			return nil
		case <-s.wake:
			timer.Stop()
		case <-wait:
		}
	}
}

func (s *Scheduler) nextFireAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next time.Time
	found := false
	for _, j := range s.jobs {
		if !found || j.fireAt.Before(next) {
			next, found = j.fireAt, true
		}
	}
	return next, found
}

// fireDue removes every job whose time has come and dispatches it.
// A job leaves the table before dispatch, so Cancel racing with firing
// either wins (no dispatch) or reports false.
func (s *Scheduler) fireDue(ctx context.Context) {
	now := s.config.Now()

	s.mu.Lock()
	var due []*job
	for id, j := range s.jobs {
		if !j.fireAt.After(now) {
			due = append(due, j)
			delete(s.jobs, id)
			s.fired++
			s.emitLocked(core.EventJobFired, id)
		}
	}
	s.mu.Unlock()

	sort.Slice(due, func(i, k int) bool { return due[i].fireAt.Before(due[k].fireAt) })
	for _, j := range due {
		s.dispatch(ctx, j)
	}
}

// dispatch delivers the message off the clock goroutine. Failures and panics
// are logged and never reach the clock.
func (s *Scheduler) dispatch(ctx context.Context, j *job) {
	logger := s.config.Logger
	logger.Info("reminder fired", "id", j.id, "message", j.message)

	dispatchCtx := context.WithoutCancel(ctx)
	lifecycle.Go(dispatchCtx, func(ctx context.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("dispatch of job %s panicked: %v", j.id, r)
				if logger.Enabled(ctx, slog.LevelDebug) {
					logger.Error("dispatch panic", "error", err, "stack", string(debug.Stack()))
				} else {
					logger.Error("dispatch panic", "error", err)
				}
				err = nil
			}
		}()
		s.config.Dispatcher.Notify(ctx, j.message)
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		logger.Error("dispatch failed", "id", j.id, "error", err)
	}))
}

func (s *Scheduler) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.jobs); n > 0 {
		s.config.Logger.Info("scheduler stopped, discarding pending jobs", "count", n)
	}
	s.jobs = make(map[string]*job)
	s.running = false
	if !s.closed {
		s.closed = true
		close(s.events)
	}
}

var _ worker.Worker = (*Scheduler)(nil)
