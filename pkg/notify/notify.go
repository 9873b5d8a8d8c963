// Package notify delivers fired reminders as a desktop notification and a
// spoken announcement. Both are best-effort: failures are logged and never
// reach the caller.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/studydesk/pkg/core"
)

// DefaultTitle is the notification title.
const DefaultTitle = "Study Assistant"

// Runner executes an external command. It is swapped out in tests.
type Runner func(ctx context.Context, name string, args ...string) error

// ExecRunner runs the command with os/exec and discards its output.
func ExecRunner(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w (%s)", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Dispatcher implements core.Dispatcher.
type Dispatcher struct {
	title    string
	goos     string
	visual   bool
	speech   bool
	run      Runner
	logger   *slog.Logger
	inflight sync.WaitGroup

	delivered atomic.Int64
	failed    atomic.Int64
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTitle sets the notification title.
func WithTitle(title string) Option {
	return func(d *Dispatcher) { d.title = title }
}

// WithLogger sets the logger used for suppressed failures.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithRunner replaces the command runner.
func WithRunner(run Runner) Option {
	return func(d *Dispatcher) { d.run = run }
}

// WithPlatform overrides runtime.GOOS when picking commands.
func WithPlatform(goos string) Option {
	return func(d *Dispatcher) { d.goos = goos }
}

// WithSpeech toggles the spoken announcement.
func WithSpeech(enabled bool) Option {
	return func(d *Dispatcher) { d.speech = enabled }
}

// WithVisual toggles the desktop notification.
func WithVisual(enabled bool) Option {
	return func(d *Dispatcher) { d.visual = enabled }
}

// New creates a dispatcher for the current platform.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		title:  DefaultTitle,
		goos:   runtime.GOOS,
		visual: true,
		speech: true,
		run:    ExecRunner,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.New(slog.DiscardHandler)
	}
	return d
}

// Notify starts the notification and the announcement independently and
// returns immediately.
func (d *Dispatcher) Notify(ctx context.Context, message string) {
	if d.visual {
		if name, args, ok := NotificationCommand(d.goos, d.title, message); ok {
			d.spawn(ctx, "notification", name, args)
		}
	}
	if d.speech {
		if name, args, ok := SpeechCommand(d.goos, message); ok {
			d.spawn(ctx, "speech", name, args)
		}
	}
}

func (d *Dispatcher) spawn(ctx context.Context, kind, name string, args []string) {
	d.inflight.Add(1)
	lifecycle.Go(ctx, func(ctx context.Context) (err error) {
		defer d.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s panicked: %v", kind, r)
			}
			if err != nil {
				d.failed.Add(1)
				d.logger.Warn("delivery failed", "kind", kind, "error", err)
				err = nil
			} else {
				d.delivered.Add(1)
			}
		}()
		return d.run(ctx, name, args...)
	}, lifecycle.WithErrorHandler(func(err error) {
		d.logger.Error("delivery goroutine failed", "kind", kind, "error", err)
	}))
}

// Wait blocks until every started delivery has finished.
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}

// Counts returns the number of successful and failed deliveries.
func (d *Dispatcher) Counts() (delivered, failed int64) {
	return d.delivered.Load(), d.failed.Load()
}

// NotificationCommand returns the desktop notification command for goos.
// Unsupported platforms report ok=false.
func NotificationCommand(goos, title, message string) (name string, args []string, ok bool) {
	switch goos {
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s", appleScriptQuote(message), appleScriptQuote(title))
		return "osascript", []string{"-e", script}, true
	case "linux":
		return "notify-send", []string{title, message}, true
	default:
		return "", nil, false
	}
}

// SpeechCommand returns the text-to-speech command for goos.
func SpeechCommand(goos, message string) (name string, args []string, ok bool) {
	switch goos {
	case "darwin":
		return "say", []string{message}, true
	case "linux":
		return "espeak", []string{message}, true
	default:
		return "", nil, false
	}
}

func appleScriptQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

var _ core.Dispatcher = (*Dispatcher)(nil)
