package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/studydesk/pkg/core"
	"github.com/aretw0/studydesk/pkg/git"
)

const (
	// NotesFile is the notes table inside the data directory.
	NotesFile = "notes.csv"
	// StatsFile is the stats singleton inside the data directory.
	StatsFile = "stats.json"
	// BackupSuffix is appended to the notes table name by Backup.
	BackupSuffix = ".backup"
	// IDMarkFile holds the highest note id ever issued. It survives a
	// malformed stats file, which would otherwise lose last_id.
	IDMarkFile = ".last_id"
)

// Repository implements core.NoteRepository on top of a CSV notes table and a
// JSON stats file.
//
// Every mutating call is serialized by a single mutex and rewrites the whole
// file atomically. Another process writing the same files is not guarded against.
type Repository struct {
	Path   string
	git    *git.Client
	config Config

	mu sync.Mutex // serializes file access

	stateMu        sync.RWMutex
	watcherActive  bool
	lastReconcile  *time.Time
	writes         int
	snapshotErrors int
}

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path       string
	MustExist  bool
	ReadOnly   bool
	Versioning bool // commit notes.csv and stats.json to git after each mutation
	Logger     *slog.Logger

	// ErrorHandler receives failures that are logged but not returned,
	// such as snapshot commits and watcher errors.
	ErrorHandler func(error)

	// Now overrides the clock used for note timestamps.
	Now func() time.Time
}

// NewRepository creates a new filesystem-backed repository.
func NewRepository(config Config) *Repository {
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Repository{
		Path:   config.Path,
		git:    git.NewClient(config.Path, config.Logger),
		config: config,
	}
}

func (r *Repository) notesPath() string { return filepath.Join(r.Path, NotesFile) }
func (r *Repository) statsPath() string { return filepath.Join(r.Path, StatsFile) }
func (r *Repository) markPath() string  { return filepath.Join(r.Path, IDMarkFile) }

// Initialize prepares the data directory: checks or creates it, sets up git
// when versioning is enabled, and creates the notes table and stats file.
func (r *Repository) Initialize(ctx context.Context) error {
	if r.config.MustExist {
		info, err := os.Stat(r.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: data path does not exist: %s", core.ErrStorageUnavailable, r.Path)
		}
		if err != nil {
			return fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%w: data path is not a directory: %s", core.ErrStorageUnavailable, r.Path)
		}
	}

	if r.config.ReadOnly {
		return nil
	}

	if err := r.EnsureInitialized(ctx); err != nil {
		return err
	}

	if r.config.Versioning {
		return r.initVersioning(ctx)
	}
	return nil
}

func (r *Repository) initVersioning(ctx context.Context) error {
	if !git.IsInstalled() {
		return fmt.Errorf("versioning requested but git is not installed")
	}
	if !r.git.IsRepo() {
		if err := r.git.Init(ctx); err != nil {
			return fmt.Errorf("failed to git init: %w", err)
		}
	}
	if _, err := r.ensureIgnore(); err != nil {
		return fmt.Errorf("failed to ensure .gitignore: %w", err)
	}
	r.snapshot(ctx, git.FormatCommitMessage(git.CommitTypeChore, "", "initialize study data"), ".gitignore")
	return nil
}

// ensureIgnore keeps lock, backup and temp files out of version control.
func (r *Repository) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(r.Path, ".gitignore")
	entries := []string{git.DefaultLockName, IDMarkFile, "*" + BackupSuffix, TempFilePrefix + "*"}

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(content), "\n") {
		present[strings.TrimSpace(line)] = true
	}

	var missing []string
	for _, e := range entries {
		if !present[e] {
			missing = append(missing, e)
		}
	}
	if len(missing) == 0 {
		return false, nil
	}

	out := string(content)
	if len(out) > 0 && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	out += strings.Join(missing, "\n") + "\n"
	return true, writeFileAtomic(ignorePath, []byte(out), 0644)
}

// EnsureInitialized creates the notes table and stats file when absent.
// It is idempotent and recreates files that were deleted externally.
func (r *Repository) EnsureInitialized(ctx context.Context) error {
	if r.config.ReadOnly {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ensureLocked()
}

func (r *Repository) ensureLocked() error {
	if err := os.MkdirAll(r.Path, 0755); err != nil {
		return fmt.Errorf("%w: failed to create data directory: %w", core.ErrStorageUnavailable, err)
	}

	if _, err := os.Stat(r.notesPath()); os.IsNotExist(err) {
		r.config.Logger.Debug("creating notes table", "path", r.notesPath())
		if err := r.writeTable(&table{}); err != nil {
			return err
		}
	} else if err != nil {
		return fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}

	if _, err := os.Stat(r.statsPath()); os.IsNotExist(err) {
		// Seed from whatever is in the table so the counters start in sync.
		seed := core.Stats{LastID: r.readIDMark()}
		if t, err := r.readTable(); err == nil {
			seed = seed.Recompute(t.notes())
		}
		r.config.Logger.Debug("creating stats file", "path", r.statsPath(), "total_xp", seed.TotalXP)
		if err := r.writeStats(seed); err != nil {
			return err
		}
	} else if err != nil {
		return fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}
	return nil
}

// Create assigns the next id, appends the note and adds its xp to the stats.
//
// When the row is written but the stats update fails, the new id is returned
// together with the error so callers can keep track of the persisted note.
func (r *Repository) Create(ctx context.Context, title, text, tags string, xp int) (int64, error) {
	if r.config.ReadOnly {
		return 0, core.ErrReadOnly
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureLocked(); err != nil {
		return 0, err
	}
	t, err := r.readTable()
	if err != nil {
		return 0, err
	}
	stats, err := r.readStats()
	if err != nil {
		if !errors.Is(err, core.ErrStatsCorrupt) {
			return 0, err
		}
		r.config.Logger.Warn("stats file is malformed, rebuilding from table", "error", err)
		stats = core.Stats{}.Recompute(t.notes())
	}

	id := max(t.maxID(), stats.LastID, r.readIDMark()) + 1
	t.rows = append(t.rows, newRow(core.Note{
		ID:       id,
		DateTime: r.config.Now(),
		Title:    title,
		Text:     text,
		Tags:     tags,
		XP:       xp,
	}))
	if err := r.writeTable(t); err != nil {
		return 0, err
	}
	r.writeIDMark(id)

	stats.TotalXP += xp
	stats.NotesCreated++
	stats.LastID = id
	if err := r.writeStats(stats); err != nil {
		return id, fmt.Errorf("note %d saved but stats update failed: %w", id, err)
	}

	r.config.Logger.Debug("note created", "id", id, "xp", xp)
	r.snapshot(ctx, git.FormatCommitMessage(git.CommitTypeFeat, "notes", fmt.Sprintf("create %d", id)), NotesFile, StatsFile)
	return id, nil
}

// Update overwrites title, text, tags and timestamp of note id.
// The note's xp and the stats are never touched; xp is ignored.
func (r *Repository) Update(ctx context.Context, id int64, title, text, tags string, xp int) (bool, error) {
	if r.config.ReadOnly {
		return false, core.ErrReadOnly
	}
	if id <= 0 {
		return false, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureLocked(); err != nil {
		return false, err
	}
	t, err := r.readTable()
	if err != nil {
		return false, err
	}
	i := t.find(id)
	if i < 0 {
		return false, nil
	}

	n := &t.rows[i].note
	n.Title, n.Text, n.Tags = title, text, tags
	n.DateTime = r.config.Now()
	t.rows[i].timeOK = true
	if err := r.writeTable(t); err != nil {
		return false, err
	}

	r.config.Logger.Debug("note updated", "id", id)
	r.snapshot(ctx, git.FormatCommitMessage(git.CommitTypeFeat, "notes", fmt.Sprintf("update %d", id)), NotesFile)
	return true, nil
}

// List returns notes newest first. limit <= 0 returns every note.
// Missing title, text and tags read as empty strings.
func (r *Repository) List(ctx context.Context, limit int) ([]core.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.config.ReadOnly {
		if err := r.ensureLocked(); err != nil {
			return nil, err
		}
	}
	t, err := r.readTable()
	if err != nil {
		return nil, err
	}

	notes := t.notes()
	sortNewestFirst(notes)
	if limit > 0 && len(notes) > limit {
		notes = notes[:limit]
	}
	return notes, nil
}

// Get returns a single note by id.
func (r *Repository) Get(ctx context.Context, id int64) (core.Note, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.readTable()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return core.Note{}, false, nil
		}
		return core.Note{}, false, err
	}
	i := t.find(id)
	if i < 0 {
		return core.Note{}, false, nil
	}
	return t.rows[i].note, true, nil
}

// Delete removes note id and subtracts its xp from the stats, flooring both
// counters at zero.
func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	if r.config.ReadOnly {
		return false, core.ErrReadOnly
	}
	if id <= 0 {
		return false, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureLocked(); err != nil {
		return false, err
	}
	t, err := r.readTable()
	if err != nil {
		return false, err
	}
	i := t.find(id)
	if i < 0 {
		return false, nil
	}
	removed := t.rows[i].note
	t.rows = append(t.rows[:i], t.rows[i+1:]...)

	if err := r.writeTable(t); err != nil {
		return false, err
	}

	stats, err := r.readStats()
	if err != nil {
		if !errors.Is(err, core.ErrStatsCorrupt) {
			return true, fmt.Errorf("note %d deleted but stats update failed: %w", id, err)
		}
		stats = core.Stats{LastID: max(id, r.readIDMark())}.Recompute(t.notes())
	} else {
		stats.TotalXP = max(0, stats.TotalXP-removed.XP)
		stats.NotesCreated = max(0, stats.NotesCreated-1)
		stats.LastID = max(stats.LastID, id)
	}
	if err := r.writeStats(stats); err != nil {
		return true, fmt.Errorf("note %d deleted but stats update failed: %w", id, err)
	}

	r.config.Logger.Debug("note deleted", "id", id, "xp", removed.XP)
	r.snapshot(ctx, git.FormatCommitMessage(git.CommitTypeFeat, "notes", fmt.Sprintf("delete %d", id)), NotesFile, StatsFile)
	return true, nil
}

// LoadStats reads the stats file. A missing file is a storage error and a
// malformed one wraps core.ErrStatsCorrupt; neither is repaired here.
func (r *Repository) LoadStats(ctx context.Context) (core.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readStats()
}

// SaveStats overwrites the stats file.
func (r *Repository) SaveStats(ctx context.Context, s core.Stats) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureLocked(); err != nil {
		return err
	}
	if err := r.writeStats(s); err != nil {
		return err
	}
	r.snapshot(ctx, git.FormatCommitMessage(git.CommitTypeChore, "stats", "update"), StatsFile)
	return nil
}

// Backup copies the notes table to notes.csv.backup.
func (r *Repository) Backup(ctx context.Context) (string, error) {
	if r.config.ReadOnly {
		return "", core.ErrReadOnly
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureLocked(); err != nil {
		return "", err
	}
	dst := r.notesPath() + BackupSuffix
	if err := copyFileAtomic(r.notesPath(), dst); err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}
	r.config.Logger.Info("notes table backed up", "path", dst)
	return dst, nil
}

// Replace rewrites the notes table with exactly notes, keeping their ids and
// timestamps. Stats are left for the caller to resync.
func (r *Repository) Replace(ctx context.Context, notes []core.Note) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureLocked(); err != nil {
		return err
	}
	t := &table{}
	for _, n := range notes {
		t.rows = append(t.rows, row{note: n, valid: true, timeOK: !n.DateTime.IsZero()})
	}
	if err := r.writeTable(t); err != nil {
		return err
	}
	r.snapshot(ctx, git.FormatCommitMessage(git.CommitTypeChore, "notes", fmt.Sprintf("rewrite table (%d notes)", len(notes))), NotesFile)
	return nil
}

func (r *Repository) readTable() (*table, error) {
	t, err := readTableFile(r.notesPath())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read notes table: %w", core.ErrStorageUnavailable, err)
	}
	return t, nil
}

func (r *Repository) writeTable(t *table) error {
	data, err := t.encode()
	if err != nil {
		return fmt.Errorf("failed to encode notes table: %w", err)
	}
	if err := writeFileAtomic(r.notesPath(), data, 0644); err != nil {
		return fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}
	r.recordWrite()
	return nil
}

func (r *Repository) readStats() (core.Stats, error) {
	data, err := os.ReadFile(r.statsPath())
	if err != nil {
		return core.Stats{}, fmt.Errorf("%w: failed to read stats: %w", core.ErrStorageUnavailable, err)
	}
	var s core.Stats
	if err := json.Unmarshal(data, &s); err != nil {
		return core.Stats{}, fmt.Errorf("%w: %w", core.ErrStatsCorrupt, err)
	}
	return s, nil
}

// readIDMark returns the persisted high-water mark, or 0 when there is none.
func (r *Repository) readIDMark() int64 {
	data, err := os.ReadFile(r.markPath())
	if err != nil {
		if !os.IsNotExist(err) {
			r.config.Logger.Warn("failed to read id mark", "error", err)
		}
		return 0
	}
	id, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		r.config.Logger.Warn("ignoring malformed id mark", "error", err)
		return 0
	}
	return id
}

// writeIDMark is best-effort: stats.last_id carries the same value.
func (r *Repository) writeIDMark(id int64) {
	if err := writeFileAtomic(r.markPath(), []byte(strconv.FormatInt(id, 10)+"\n"), 0644); err != nil {
		r.config.Logger.Warn("failed to write id mark", "id", id, "error", err)
	}
}

func (r *Repository) writeStats(s core.Stats) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}
	if err := writeFileAtomic(r.statsPath(), append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}
	r.recordWrite()
	return nil
}

// snapshot commits files when versioning is enabled. Failures are reported
// through the logger and ErrorHandler only; the data write already succeeded.
func (r *Repository) snapshot(ctx context.Context, msg string, files ...string) {
	if !r.config.Versioning {
		return
	}
	if reason, ok := ctx.Value(core.ChangeReasonKey).(string); ok && reason != "" {
		msg = git.AppendFooter(reason)
	}
	err := r.git.Snapshot(ctx, msg, files...)
	if err == nil || errors.Is(err, git.ErrNothingToCommit) {
		return
	}

	r.stateMu.Lock()
	r.snapshotErrors++
	r.stateMu.Unlock()

	r.config.Logger.Warn("snapshot commit failed", "message", msg, "error", err)
	if r.config.ErrorHandler != nil {
		r.config.ErrorHandler(fmt.Errorf("snapshot %q: %w", msg, err))
	}
}

var _ core.NoteRepository = (*Repository)(nil)
var _ core.Maintainer = (*Repository)(nil)
var _ core.Watchable = (*Repository)(nil)
