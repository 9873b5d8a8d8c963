// Package session decides when editor content is written to the note store:
// manual saves, a periodic autosave, and deletes guarded by a confirmation.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"

	"github.com/aretw0/studydesk/pkg/core"
)

const (
	// DefaultInterval is the autosave period.
	DefaultInterval = 3 * time.Second
	// DefaultMinLength is the shortest trimmed text autosave will persist.
	DefaultMinLength = 3
)

// NoteStore is the part of core.NoteRepository the controller drives.
type NoteStore interface {
	Create(ctx context.Context, title, text, tags string, xp int) (int64, error)
	Update(ctx context.Context, id int64, title, text, tags string, xp int) (bool, error)
	List(ctx context.Context, limit int) ([]core.Note, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// Config holds the controller settings.
type Config struct {
	Store     NoteStore
	Interval  time.Duration
	MinLength int
	Logger    *slog.Logger
	// OnAutosave is called after every autosave tick that wrote something
	// or failed.
	OnAutosave func(outcome Outcome, id int64, err error)
}

// Controller owns the editor buffer and its note identity.
// All methods are safe for concurrent use; saves never overlap.
type Controller struct {
	*worker.BaseWorker
	config Config

	mu     sync.Mutex
	state  State
	title  string
	text   string
	tags   string
	dirty  bool
	paused bool

	saves     int
	autosaves int

	resumed chan struct{}
	cancel  context.CancelFunc
}

// New creates a controller in NEW mode. Autosave runs once Start is called.
func New(config Config) *Controller {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.MinLength <= 0 {
		config.MinLength = DefaultMinLength
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		BaseWorker: worker.NewBaseWorker("autosave"),
		config:     config,
		state:      newState(),
		resumed:    make(chan struct{}, 1),
	}
}

// Current returns the editor identity.
func (c *Controller) Current() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Content returns the editor buffer.
func (c *Controller) Content() (title, text, tags string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.title, c.text, c.tags
}

// Dirty reports unsaved changes.
func (c *Controller) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// Edit replaces the editor buffer and marks it dirty when anything changed.
func (c *Controller) Edit(title, text, tags string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if title == c.title && text == c.text && tags == c.tags {
		return
	}
	c.title, c.text, c.tags = title, text, tags
	c.dirty = true
}

// Load shows an existing note; pending edits of the previous note are dropped.
func (c *Controller) Load(n core.Note) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = editing(n.ID)
	c.title, c.text, c.tags = n.Title, n.Text, n.Tags
	c.dirty = false
}

// New clears the editor for a fresh note.
func (c *Controller) New() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

func (c *Controller) clearLocked() {
	c.state = newState()
	c.title, c.text, c.tags = "", "", ""
	c.dirty = false
}

// Save persists the buffer on explicit user request. Empty text is rejected
// with core.ErrEmptyText.
func (c *Controller) Save(ctx context.Context) (Outcome, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Mode == ModePendingDelete {
		return OutcomeSkipped, c.state.NoteID, nil
	}
	if strings.TrimSpace(c.text) == "" {
		return OutcomeSkipped, c.state.NoteID, core.ErrEmptyText
	}
	return c.persistLocked(ctx)
}

// Tick runs one autosave pass. It writes only when the buffer is dirty, not
// paused, not awaiting a delete, and holds at least MinLength characters.
func (c *Controller) Tick(ctx context.Context) (Outcome, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.paused {
		return OutcomeSkipped, c.state.NoteID, nil
	}
	return c.autosaveLocked(ctx)
}

func (c *Controller) autosaveLocked(ctx context.Context) (Outcome, int64, error) {
	if !c.dirty || c.state.Mode == ModePendingDelete {
		return OutcomeSkipped, c.state.NoteID, nil
	}
	if len([]rune(strings.TrimSpace(c.text))) < c.config.MinLength {
		c.config.Logger.Debug("autosave skipped, text too short", "length", len(c.text))
		return OutcomeSkipped, c.state.NoteID, nil
	}
	outcome, id, err := c.persistLocked(ctx)
	if err == nil {
		c.autosaves++
	}
	return outcome, id, err
}

// persistLocked writes the buffer according to the current mode.
// In EDITING mode a vanished note is created again and its new id adopted.
func (c *Controller) persistLocked(ctx context.Context) (Outcome, int64, error) {
	title := strings.TrimSpace(c.title)
	if title == "" {
		notes, err := c.config.Store.List(ctx, 0)
		if err != nil {
			return OutcomeSkipped, c.state.NoteID, fmt.Errorf("failed to pick a title: %w", err)
		}
		title = core.NextUntitledTitle(notes)
	}
	xp := core.XPForText(c.text)

	if c.state.Mode == ModeEditing {
		ok, err := c.config.Store.Update(ctx, c.state.NoteID, title, c.text, c.tags, xp)
		if err != nil {
			return OutcomeSkipped, c.state.NoteID, err
		}
		if ok {
			c.title = title
			c.dirty = false
			c.saves++
			return OutcomeUpdated, c.state.NoteID, nil
		}
		c.config.Logger.Info("note vanished while editing, saving as new", "id", c.state.NoteID)
		outcome, id, err := c.createLocked(ctx, title, xp)
		if outcome == OutcomeCreated {
			outcome = OutcomeRecreated
		}
		return outcome, id, err
	}
	return c.createLocked(ctx, title, xp)
}

func (c *Controller) createLocked(ctx context.Context, title string, xp int) (Outcome, int64, error) {
	id, err := c.config.Store.Create(ctx, title, c.text, c.tags, xp)
	if id == 0 {
		return OutcomeSkipped, c.state.NoteID, err
	}
	// The row exists even if the stats update failed; adopt it so the next
	// save updates instead of duplicating.
	c.state = editing(id)
	c.title = title
	c.dirty = false
	c.saves++
	return OutcomeCreated, id, err
}

// Pause suppresses autosave ticks. A write already in progress completes.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = true
}

// Resume re-enables autosave and restarts the interval.
func (c *Controller) Resume() {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()

	select {
	case c.resumed <- struct{}{}:
	default:
	}
}

// Paused reports whether autosave is suspended.
func (c *Controller) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// DeleteWithConfirmation deletes note id once confirm agrees.
//
// Autosave is paused and the editor cleared before confirm is asked, so a
// tick can not write the note back while the user decides. Autosave resumes
// afterwards whatever the answer. When the delete is declined or fails, the
// editor gets back the buffer it had before the prompt.
func (c *Controller) DeleteWithConfirmation(ctx context.Context, id int64, confirm func(context.Context) bool) (bool, error) {
	if id <= 0 {
		return false, nil
	}

	c.Pause()
	defer c.Resume()

	c.mu.Lock()
	saved := c.snapshotLocked()
	c.clearLocked()
	c.state = pendingDelete(id)
	c.mu.Unlock()

	// gone is set once the store no longer holds id.
	gone := false
	defer func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.state != pendingDelete(id) {
			// Load or New ran while the prompt was open.
			return
		}
		if gone && saved.state == editing(id) {
			c.state = newState()
			return
		}
		c.restoreLocked(saved)
	}()

	if confirm != nil && !confirm(ctx) {
		c.config.Logger.Debug("delete not confirmed", "id", id)
		return false, nil
	}
	deleted, err := c.config.Store.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	gone = true
	return deleted, nil
}

// buffer is a copy of the editor taken before a destructive prompt.
type buffer struct {
	state             State
	title, text, tags string
	dirty             bool
}

func (c *Controller) snapshotLocked() buffer {
	return buffer{state: c.state, title: c.title, text: c.text, tags: c.tags, dirty: c.dirty}
}

func (c *Controller) restoreLocked(b buffer) {
	c.state = b.state
	c.title, c.text, c.tags = b.title, b.text, b.tags
	c.dirty = b.dirty
}

// Start launches the autosave loop.
func (c *Controller) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.config.Store == nil {
		return fmt.Errorf("autosave requires a note store")
	}

	status := c.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("autosave already started (status: %s)", status)
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.SetStatus(worker.StatusRunning)
	return c.StartFunc(runCtx, c.run)
}

// Stop ends the autosave loop without a final save; see Close.
func (c *Controller) Stop(ctx context.Context) error {
	if c.cancel != nil {
		c.StopRequested = true
		c.cancel()
	}
	return c.BaseWorker.Stop(ctx)
}

// Close makes one last autosave attempt if the buffer is dirty, even while
// paused, and then stops the loop.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	_, _, saveErr := c.autosaveLocked(ctx)
	c.mu.Unlock()

	if saveErr != nil {
		c.config.Logger.Error("final autosave failed", "error", saveErr)
	}
	if c.cancel == nil {
		return saveErr
	}
	stopErr := c.Stop(ctx)
	if saveErr != nil {
		return saveErr
	}
	return stopErr
}

func (c *Controller) State() worker.State {
	c.mu.Lock()
	st, dirty, paused, saves, autosaves := c.state, c.dirty, c.paused, c.saves, c.autosaves
	c.mu.Unlock()

	return c.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"mode":              st.String(),
			"dirty":             strconv.FormatBool(dirty),
			"paused":            strconv.FormatBool(paused),
			"saves":             strconv.Itoa(saves),
			"autosaves":         strconv.Itoa(autosaves),
		}
	})
}

func (c *Controller) run(ctx context.Context) error {
	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.resumed:
			ticker.Reset(c.config.Interval)
		case <-ticker.C:
			outcome, id, err := c.Tick(ctx)
			if err != nil {
				c.config.Logger.Error("autosave failed", "error", err)
			} else if outcome != OutcomeSkipped {
				c.config.Logger.Debug("autosaved", "outcome", outcome, "id", id)
			}
			if c.config.OnAutosave != nil && (err != nil || outcome != OutcomeSkipped) {
				c.config.OnAutosave(outcome, id, err)
			}
		}
	}
}

var _ worker.Worker = (*Controller)(nil)
