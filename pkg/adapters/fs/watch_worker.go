package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/studydesk/pkg/core"
)

const (
	// watchDebounce is how long a file must stay quiet before its event is forwarded.
	watchDebounce = 50 * time.Millisecond
	// drainTimeout bounds how long shutdown waits for debounced sends.
	drainTimeout = 5 * time.Second
)

var errChannelClosed = errors.New("fsnotify channel closed")

// gitGate holds back events while git owns the working tree.
// git creates .git/index.lock for the duration of a commit or checkout.
type gitGate struct {
	held bool
}

// observe consumes lock events. It reports whether ev was a lock event and
// whether the gate has just been released.
func (g *gitGate) observe(ev fsnotify.Event) (lockEvent, released bool) {
	if filepath.Base(ev.Name) != "index.lock" || filepath.Base(filepath.Dir(ev.Name)) != ".git" {
		return false, false
	}
	switch {
	case ev.Has(fsnotify.Create):
		g.held = true
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		released = g.held
		g.held = false
	}
	return true, released
}

// watchWorker turns fsnotify events on the data directory into core events.
type watchWorker struct {
	*worker.BaseWorker
	repo    *Repository
	pattern string
	out     chan<- core.Event
	logger  *slog.Logger

	watcher  *fsnotify.Watcher
	debounce *debouncer
	gate     gitGate
	cancel   context.CancelFunc
	onExit   func()
}

func newWatchWorker(repo *Repository, pattern string, out chan<- core.Event) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("fs-watcher"),
		repo:       repo,
		pattern:    pattern,
		out:        out,
		logger:     repo.config.Logger,
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if st := w.State().Status; st != worker.StatusCreated && st != worker.StatusPending {
		return fmt.Errorf("watcher cannot start from status %v", st)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(w.repo.Path); err != nil {
		_ = fw.Close()
		return fmt.Errorf("failed to watch %s: %w", w.repo.Path, err)
	}
	// The .git directory only exists with versioning on; a failure here is expected otherwise.
	_ = fw.Add(filepath.Join(w.repo.Path, ".git"))

	w.watcher = fw
	w.debounce = newDebouncer(watchDebounce)
	w.repo.setWatcherActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}
	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"pattern":           w.pattern,
		}
	})
}

func (w *watchWorker) run(ctx context.Context) (err error) {
	defer w.recoverPanic(ctx, &err)
	defer func() {
		if w.onExit != nil {
			w.onExit()
		}
	}()
	defer w.repo.setWatcherActive(false)
	defer w.watcher.Close()

	err = w.consume(ctx)

	// onExit closes the output channel, so pending sends must drain first.
	if !w.debounce.stopAndWait(drainTimeout) {
		w.logger.Warn("watcher gave up waiting for pending events")
	}
	return err
}

func (w *watchWorker) recoverPanic(ctx context.Context, err *error) {
	r := recover()
	if r == nil {
		return
	}
	*err = fmt.Errorf("watcher panic: %v", r)
	attrs := []any{"error", *err}
	if w.logger.Enabled(ctx, slog.LevelDebug) {
		attrs = append(attrs, "stack", string(debug.Stack()))
	}
	w.logger.Error("watcher panic", attrs...)
}

func (w *watchWorker) consume(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return w.closed(ctx)
			}
			w.handle(ctx, ev)
		case werr, ok := <-w.watcher.Errors:
			if !ok {
				return w.closed(ctx)
			}
			w.fail(werr)
		}
	}
}

// closed decides whether a closed fsnotify channel is a clean stop or a failure
// the supervisor should restart from.
func (w *watchWorker) closed(ctx context.Context) error {
	if w.StopRequested || ctx.Err() != nil {
		return nil
	}
	return errChannelClosed
}

func (w *watchWorker) handle(ctx context.Context, ev fsnotify.Event) {
	if lockEvent, released := w.gate.observe(ev); lockEvent {
		if released {
			w.logger.Debug("git released the working tree, reconciling")
			w.catchUp(ctx)
		} else if w.gate.held {
			w.logger.Debug("git holds the working tree, holding events")
		}
		return
	}
	if w.gate.held {
		return
	}

	w.logger.Debug("fs event", "name", ev.Name, "op", ev.Op.String())
	if w.repo.shouldIgnore(ev, w.pattern) {
		return
	}
	typ := w.repo.mapEventType(ev)
	if typ == "" {
		return
	}
	id, err := w.repo.resolveID(ev.Name)
	if err != nil {
		w.logger.Debug("dropping event outside data dir", "path", ev.Name, "error", err)
		return
	}
	w.emit(ctx, core.Event{Type: typ, ID: id, Timestamp: time.Now().Unix()})
}

// catchUp reports the state of the tracked files after git finished, since
// the individual events were swallowed while the gate was held.
func (w *watchWorker) catchUp(ctx context.Context) {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		events, err := w.repo.Reconcile(ctx)
		if err != nil {
			return err
		}
		for _, e := range events {
			w.emit(ctx, e)
		}
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		w.fail(fmt.Errorf("reconcile: %w", err))
	}))
}

func (w *watchWorker) emit(ctx context.Context, ev core.Event) {
	w.debounce.add(ev, func(e core.Event) {
		// A send racing a timed-out shutdown may hit the closed channel.
		defer func() { _ = recover() }()
		select {
		case w.out <- e:
		case <-ctx.Done():
		}
	})
}

func (w *watchWorker) fail(err error) {
	w.logger.Error("watcher error", "error", err)
	if h := w.repo.config.ErrorHandler; h != nil {
		h(err)
	}
}
