// Package studytimer implements the study countdown.
package studytimer

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"
)

// DefaultTick is the countdown resolution.
const DefaultTick = time.Second

// Config holds the timer settings and callbacks. Callbacks run on the timer
// goroutine and must not block.
type Config struct {
	Duration time.Duration
	Tick     time.Duration
	// OnTick receives the remaining time after every tick.
	OnTick func(remaining time.Duration)
	// OnDone runs once when the countdown reaches zero. It does not run
	// when the timer is stopped early.
	OnDone func()
	Logger *slog.Logger
}

// Timer is a countdown worker.
type Timer struct {
	*worker.BaseWorker
	config Config

	mu        sync.Mutex
	remaining time.Duration
	finished  bool
	done      chan struct{}
	cancel    context.CancelFunc
}

// New creates a timer for config.Duration.
func New(config Config) *Timer {
	if config.Tick <= 0 {
		config.Tick = DefaultTick
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Timer{
		BaseWorker: worker.NewBaseWorker("study-timer"),
		config:     config,
		remaining:  config.Duration,
		done:       make(chan struct{}),
	}
}

// Start begins the countdown.
func (t *Timer) Start(ctx context.Context) error {
	if t.config.Duration <= 0 {
		return fmt.Errorf("timer duration must be positive, got %s", t.config.Duration)
	}
	status := t.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("timer already started (status: %s)", status)
	}

	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.SetStatus(worker.StatusRunning)
	if err := t.StartFunc(runCtx, t.run); err != nil {
		cancel()
		return err
	}
	return nil
}

// Stop ends the countdown early.
func (t *Timer) Stop(ctx context.Context) error {
	if t.cancel != nil {
		t.StopRequested = true
		t.cancel()
	}
	return t.BaseWorker.Stop(ctx)
}

// Done is closed when the countdown ends, whether it finished or was stopped.
func (t *Timer) Done() <-chan struct{} {
	return t.done
}

// Remaining returns the time left.
func (t *Timer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Finished reports whether the countdown reached zero.
func (t *Timer) Finished() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.finished
}

func (t *Timer) State() worker.State {
	remaining := t.Remaining()
	return t.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"remaining":         remaining.String(),
			"finished":          strconv.FormatBool(t.Finished()),
		}
	})
}

func (t *Timer) run(ctx context.Context) error {
	defer close(t.done)

	ticker := time.NewTicker(t.config.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.config.Logger.Debug("study timer stopped", "remaining", t.Remaining())
			return nil
		case <-ticker.C:
			t.mu.Lock()
			t.remaining = max(0, t.remaining-t.config.Tick)
			remaining := t.remaining
			if remaining == 0 {
				t.finished = true
			}
			t.mu.Unlock()

			if t.config.OnTick != nil {
				t.config.OnTick(remaining)
			}
			if remaining == 0 {
				t.config.Logger.Info("study timer finished", "duration", t.config.Duration)
				if t.config.OnDone != nil {
					t.config.OnDone()
				}
				return nil
			}
		}
	}
}

// Format renders a duration as MM:SS, or H:MM:SS from one hour up.
func Format(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
