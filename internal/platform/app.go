package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/studydesk/pkg/adapters/fs"
	lcadapter "github.com/aretw0/studydesk/pkg/adapters/lifecycle"
	"github.com/aretw0/studydesk/pkg/core"
	"github.com/aretw0/studydesk/pkg/notify"
	"github.com/aretw0/studydesk/pkg/scheduler"
	"github.com/aretw0/studydesk/pkg/session"
	"github.com/aretw0/studydesk/pkg/studyai"
)

// Dashboard sizes.
const (
	DashboardRecentNotes = 8
	DashboardUpcoming    = 6
)

// App is the composition root. It owns the note store, the stats service,
// the reminder scheduler, the notification dispatcher and the edit session,
// and runs their background workers between Start and Stop.
type App struct {
	path   string
	config Config
	logger *slog.Logger

	store      *fs.Repository
	service    *core.Service
	scheduler  *scheduler.Scheduler
	dispatcher core.Dispatcher
	session    *session.Controller
	assistant  *studyai.Assistant
	aiErr      error

	readOnly     bool
	watch        bool
	errorHandler func(error)
	now          func() time.Time

	mu        sync.Mutex
	started   bool
	cancel    context.CancelFunc
	done      chan struct{}
	events    int
	repairs   int
	lastEvent *core.Event
}

// New resolves the data directory, loads the configuration, builds every
// component and initializes the store. Workers run only after Start.
func New(uri string, opts ...Option) (*App, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	bypassSafety := o.readOnly || !o.devSafety
	useTemp := o.forceTemp || (IsDevRun() && !bypassSafety)
	path := ResolveDataPath(uri, useTemp)
	if useTemp {
		logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", uri, "resolved_path", path)
	} else if IsDevRun() {
		logger.Debug("dev sandbox bypassed", "path", path, "read_only", o.readOnly)
	}

	var cfg Config
	if o.config != nil {
		cfg = *o.config
	} else {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}
	if o.versioning != nil {
		cfg.Versioning = *o.versioning
	}
	if o.speech != nil {
		cfg.Speech = *o.speech
	}
	if o.autosaveInterval > 0 {
		cfg.AutosaveInterval = o.autosaveInterval
	}
	if o.minAutosaveLength > 0 {
		cfg.MinAutosaveLength = o.minAutosaveLength
	}

	a := &App{
		path:         path,
		config:       cfg,
		logger:       logger,
		readOnly:     o.readOnly,
		watch:        o.watch,
		errorHandler: o.errorHandler,
		now:          time.Now,
	}

	a.store = fs.NewRepository(fs.Config{
		Path:         path,
		MustExist:    o.mustExist,
		ReadOnly:     o.readOnly,
		Versioning:   cfg.Versioning,
		Logger:       logger,
		ErrorHandler: o.errorHandler,
	})
	if err := a.store.Initialize(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize note store: %w", err)
	}
	a.service = core.NewService(a.store, cfg.Levels)

	a.dispatcher = o.notifier
	if a.dispatcher == nil {
		a.dispatcher = notify.New(
			notify.WithTitle(cfg.NotifyTitle),
			notify.WithSpeech(cfg.Speech),
			notify.WithLogger(logger),
		)
	}
	a.scheduler = scheduler.New(scheduler.Config{
		Dispatcher: a.dispatcher,
		Logger:     logger,
	})

	a.session = session.New(session.Config{
		Store:     a.store,
		Interval:  cfg.AutosaveInterval,
		MinLength: cfg.MinAutosaveLength,
		Logger:    logger,
		OnAutosave: func(outcome session.Outcome, id int64, err error) {
			if err != nil {
				a.report(fmt.Errorf("autosave: %w", err))
				return
			}
			logger.Debug("autosaved", "outcome", outcome, "id", id)
		},
	})

	completer := o.completer
	if completer == nil {
		client, err := studyai.NewAnthropic(studyai.AnthropicConfig{
			APIKey:     cfg.AIAPIKey,
			Model:      cfg.AIModel,
			MaxRetries: cfg.AIMaxRetries,
			Logger:     logger,
		})
		if err != nil {
			a.aiErr = err
		} else {
			completer = client
		}
	}
	if completer != nil {
		a.assistant = studyai.NewAssistant(completer, logger)
	}

	return a, nil
}

// Path returns the resolved data directory.
func (a *App) Path() string { return a.path }

// Config returns the effective configuration.
func (a *App) Config() Config { return a.config }

// Store returns the note store.
func (a *App) Store() *fs.Repository { return a.store }

// Service returns the stats and maintenance service.
func (a *App) Service() *core.Service { return a.service }

// Scheduler returns the reminder scheduler.
func (a *App) Scheduler() *scheduler.Scheduler { return a.scheduler }

// Dispatcher returns the notification dispatcher used for reminders.
func (a *App) Dispatcher() core.Dispatcher { return a.dispatcher }

// Session returns the edit session controller.
func (a *App) Session() *session.Controller { return a.session }

// Assistant returns the AI helpers, or the reason they are unavailable.
func (a *App) Assistant() (*studyai.Assistant, error) {
	if a.assistant == nil {
		return nil, a.aiErr
	}
	return a.assistant, nil
}

// Start runs the scheduler, the autosave loop and, when enabled, the
// external change watcher. Events from the watcher and the scheduler are
// handled on a single goroutine until Stop.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return errors.New("app already started")
	}
	a.started = true
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan struct{})
	a.mu.Unlock()

	fail := func(err error) error {
		cancel()
		a.mu.Lock()
		a.started = false
		close(a.done)
		a.mu.Unlock()
		return err
	}

	// Workers outlive this call, so they get runCtx rather than the group context.
	var g errgroup.Group
	g.Go(func() error { return a.scheduler.Start(runCtx) })
	if !a.readOnly {
		g.Go(func() error { return a.session.Start(runCtx) })
	}
	if err := g.Wait(); err != nil {
		return fail(fmt.Errorf("failed to start workers: %w", err))
	}

	inputs := []<-chan core.Event{a.scheduler.Events()}
	if a.watch {
		events, err := a.store.Watch(runCtx, "*")
		if err != nil {
			return fail(fmt.Errorf("failed to watch data directory: %w", err))
		}
		inputs = append(inputs, events)
	}

	src := lcadapter.NewSource(nil, inputs...)
	if err := src.Start(runCtx); err != nil {
		return fail(err)
	}
	done := a.done
	lifecycle.Go(runCtx, func(ctx context.Context) error {
		defer close(done)
		a.react(ctx, src.Events())
		return nil
	})

	a.logger.Debug("app started", "path", a.path, "watch", a.watch, "read_only", a.readOnly)
	return nil
}

// Stop makes a final autosave, shuts the scheduler down (discarding
// pending reminders) and waits for the event loop to drain.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return nil
	}
	a.started = false
	cancel, done := a.cancel, a.done
	a.mu.Unlock()

	var g errgroup.Group
	g.Go(func() error { return a.session.Close(ctx) })
	g.Go(func() error { return a.scheduler.Shutdown(ctx) })
	err := g.Wait()

	cancel()
	select {
	case <-done:
	case <-ctx.Done():
		return errors.Join(err, ctx.Err())
	}
	return err
}

func (a *App) react(ctx context.Context, events <-chan lifecycle.Event) {
	for ev := range events {
		e, ok := ev.(core.Event)
		if !ok {
			continue
		}
		a.mu.Lock()
		a.events++
		a.lastEvent = &e
		a.mu.Unlock()

		switch e.Type {
		case core.EventJobFired:
			a.logger.Debug("reminder delivered", "id", e.ID)
		case core.EventDelete:
			if e.ID == fs.NotesFile || e.ID == fs.StatsFile {
				a.repair(ctx, e.ID)
			}
		}
	}
}

// repair recreates a data file removed behind our back and resyncs the stats.
func (a *App) repair(ctx context.Context, file string) {
	if a.readOnly {
		return
	}
	a.logger.Warn("data file removed externally, restoring", "file", file)
	if err := a.store.EnsureInitialized(ctx); err != nil {
		a.report(fmt.Errorf("restore %s: %w", file, err))
		return
	}
	if _, _, err := a.service.ResyncStats(ctx); err != nil {
		a.report(fmt.Errorf("resync after %s removal: %w", file, err))
		return
	}
	a.mu.Lock()
	a.repairs++
	a.mu.Unlock()
}

func (a *App) report(err error) {
	a.logger.Error("background failure", "error", err)
	if a.errorHandler != nil {
		a.errorHandler(err)
	}
}

// ScheduleReminder validates fireAt against the clock and schedules a
// reminder. A blank message gets the default text and a repeat label is
// appended cosmetically.
func (a *App) ScheduleReminder(fireAt time.Time, message, repeat string) (string, error) {
	if err := core.ValidateFireTime(fireAt, a.now()); err != nil {
		return "", err
	}
	return a.scheduler.Schedule(fireAt, core.ReminderMessage(message, repeat), "")
}

// RemindNote schedules a reminder quoting note id. found is false when the
// note does not exist.
func (a *App) RemindNote(ctx context.Context, id int64, fireAt time.Time) (jobID string, found bool, err error) {
	if err := core.ValidateFireTime(fireAt, a.now()); err != nil {
		return "", false, err
	}
	n, ok, err := a.store.Get(ctx, id)
	if err != nil || !ok {
		return "", ok, err
	}
	jobID, err = a.scheduler.Schedule(fireAt, core.NoteReminderMessage(n), "")
	return jobID, true, err
}

// Dashboard is the home screen snapshot.
type Dashboard struct {
	Stats core.Stats
	Level int
	// NextLevelAt is the XP needed for the next level, or 0 at the top level.
	NextLevelAt int
	Badges      []core.Badge
	NewBadges   []string
	Recent      []core.Note
	Upcoming    []core.JobInfo
}

// Dashboard refreshes earned badges and collects stats, level, recent notes
// and upcoming reminders.
func (a *App) Dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	if !a.readOnly {
		added, err := a.service.RefreshBadges(ctx)
		if err != nil {
			return d, err
		}
		d.NewBadges = added
	}

	stats, err := a.service.Stats(ctx)
	if err != nil {
		return d, err
	}
	levels := a.service.Levels()
	d.Stats = stats
	d.Level = core.LevelForXP(stats.TotalXP, levels)
	if d.Level+1 < len(levels) {
		d.NextLevelAt = levels[d.Level+1]
	}
	d.Badges = core.NewBadgeChecker(stats, levels).Badges()

	if d.Recent, err = a.store.List(ctx, DashboardRecentNotes); err != nil {
		return d, err
	}
	d.Upcoming = a.scheduler.List()
	if len(d.Upcoming) > DashboardUpcoming {
		d.Upcoming = d.Upcoming[:DashboardUpcoming]
	}
	return d, nil
}
