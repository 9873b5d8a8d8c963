package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/studydesk/pkg/core"
	"github.com/aretw0/studydesk/pkg/studyai"
)

// options holds the internal configuration for the App.
type options struct {
	logger       *slog.Logger
	errorHandler func(error)

	forceTemp bool
	mustExist bool
	readOnly  bool
	devSafety bool
	watch     bool

	// Pointers distinguish "unset" from the zero value so options
	// can override the config file.
	versioning        *bool
	speech            *bool
	autosaveInterval  time.Duration
	minAutosaveLength int

	notifier  core.Dispatcher
	completer studyai.Completer
	config    *Config
}

// Option defines a functional option for configuring the App.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		devSafety: true,
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithErrorHandler registers a callback for failures that are logged but not
// returned, such as snapshot commits and watcher errors.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// WithVersioning commits the data files to git after each mutation.
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.versioning = &enabled
	}
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithMustExist requires the data directory to exist already.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithReadOnly opens the store read-only. Writes return core.ErrReadOnly and
// the dev sandbox is bypassed.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or
// `go test`. By default (true) the data directory is re-rooted under the
// system temp directory.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// WithWatch makes Start watch the data directory for external changes.
func WithWatch(enabled bool) Option {
	return func(o *options) {
		o.watch = enabled
	}
}

// WithAutosaveInterval overrides autosave.interval.
func WithAutosaveInterval(d time.Duration) Option {
	return func(o *options) {
		o.autosaveInterval = d
	}
}

// WithMinAutosaveLength overrides autosave.min_length.
func WithMinAutosaveLength(n int) Option {
	return func(o *options) {
		o.minAutosaveLength = n
	}
}

// WithNotifier replaces the OS notification dispatcher.
func WithNotifier(d core.Dispatcher) Option {
	return func(o *options) {
		o.notifier = d
	}
}

// WithSpeaker enables or disables spoken reminders.
func WithSpeaker(enabled bool) Option {
	return func(o *options) {
		o.speech = &enabled
	}
}

// WithCompleter injects the AI text service instead of the Anthropic client.
func WithCompleter(c studyai.Completer) Option {
	return func(o *options) {
		o.completer = c
	}
}

// WithConfig skips loading the config file and uses cfg instead.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.config = &cfg
	}
}
