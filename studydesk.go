package studydesk

import (
	"log/slog"
	"time"

	"github.com/aretw0/studydesk/internal/platform"
	"github.com/aretw0/studydesk/pkg/core"
	"github.com/aretw0/studydesk/pkg/studyai"
)

// Version of the studydesk module.
const Version = "0.1.0"

// --- Types ---

// App is the assembled study desk: note store, stats, reminders, autosave.
type App = platform.App

// Dashboard is the home screen snapshot returned by App.Dashboard.
type Dashboard = platform.Dashboard

// Config is the user configuration read from studydesk.yaml and STUDYDESK_* variables.
type Config = platform.Config

// --- Configuration ---

// Option defines a functional option for configuring the App.
type Option = platform.Option

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option { return platform.WithLogger(logger) }

// WithErrorHandler receives background failures that are logged but not returned.
func WithErrorHandler(fn func(error)) Option { return platform.WithErrorHandler(fn) }

// WithVersioning commits the data files to git after each mutation.
func WithVersioning(enabled bool) Option { return platform.WithVersioning(enabled) }

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option { return platform.WithForceTemp(force) }

// WithMustExist requires the data directory to exist already.
func WithMustExist(must bool) Option { return platform.WithMustExist(must) }

// WithReadOnly opens the store read-only.
func WithReadOnly(enabled bool) Option { return platform.WithReadOnly(enabled) }

// WithDevSafety controls the sandbox used under `go run` and `go test`.
func WithDevSafety(enabled bool) Option { return platform.WithDevSafety(enabled) }

// WithWatch watches the data directory for external changes while started.
func WithWatch(enabled bool) Option { return platform.WithWatch(enabled) }

// WithAutosaveInterval overrides the autosave period.
func WithAutosaveInterval(d time.Duration) Option { return platform.WithAutosaveInterval(d) }

// WithMinAutosaveLength overrides the shortest text autosave persists.
func WithMinAutosaveLength(n int) Option { return platform.WithMinAutosaveLength(n) }

// WithNotifier replaces the OS notification dispatcher.
func WithNotifier(d core.Dispatcher) Option { return platform.WithNotifier(d) }

// WithSpeaker enables or disables spoken reminders.
func WithSpeaker(enabled bool) Option { return platform.WithSpeaker(enabled) }

// WithCompleter injects the AI text service.
func WithCompleter(c studyai.Completer) Option { return platform.WithCompleter(c) }

// WithConfig skips the config file and uses cfg.
func WithConfig(cfg Config) Option { return platform.WithConfig(cfg) }

// --- Factory ---

// New opens the study desk stored at path.
func New(path string, opts ...Option) (*App, error) {
	return platform.New(path, opts...)
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return platform.DefaultConfig()
}

// LoadConfig reads the configuration for the data directory dir.
func LoadConfig(dir string) (Config, error) {
	return platform.LoadConfig(dir)
}

// --- Safety & Utils ---

// ResolveDataDir picks the data directory: explicit path, discovered root, or ~/.studydesk.
func ResolveDataDir(explicit string) string {
	return platform.ResolveDataDir(explicit)
}

// IsDevRun reports whether the process runs via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// ParseFireTime parses a reminder time such as "+30m", "17:45" or "tomorrow at 9am".
func ParseFireTime(input string, now time.Time) (time.Time, error) {
	return platform.ParseFireTime(input, now)
}
