package platform

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/studydesk/pkg/core"
	"github.com/aretw0/studydesk/pkg/studyai"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingNotifier) Notify(_ context.Context, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *recordingNotifier) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

func newTestApp(t *testing.T, opts ...Option) (*App, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	base := []Option{
		WithConfig(DefaultConfig()),
		WithNotifier(n),
		WithAutosaveInterval(time.Hour),
	}
	app, err := New(t.TempDir(), append(base, opts...)...)
	require.NoError(t, err)
	return app, n
}

func TestApp_New(t *testing.T) {
	app, _ := newTestApp(t)

	assert.FileExists(t, filepath.Join(app.Path(), "notes.csv"))
	assert.FileExists(t, filepath.Join(app.Path(), "stats.json"))

	st := app.State().(AppState)
	assert.False(t, st.Started)
	assert.Equal(t, "studydesk-app", app.ComponentType())
}

func TestApp_MustExist(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	_, err := New(missing, WithConfig(DefaultConfig()), WithMustExist(true))
	assert.ErrorIs(t, err, core.ErrStorageUnavailable)
}

func TestApp_ReminderLifecycle(t *testing.T) {
	app, notifier := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, app.Start(ctx))
	defer app.Stop(ctx)

	_, err := app.ScheduleReminder(time.Now().Add(-time.Minute), "late", "")
	assert.ErrorIs(t, err, core.ErrPastFireTime)

	id, err := app.ScheduleReminder(time.Now().Add(200*time.Millisecond), "", "Daily")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.Eventually(t, func() bool { return len(notifier.Messages()) == 1 }, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, core.DefaultReminderMessage+" (Repeats: Daily)", notifier.Messages()[0])
	assert.Empty(t, app.Scheduler().List())
}

func TestApp_RemindNote(t *testing.T) {
	app, notifier := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, app.Start(ctx))
	defer app.Stop(ctx)

	id, err := app.Store().Create(ctx, "Chemistry", "Moles\nand more moles", "", 5)
	require.NoError(t, err)

	_, found, err := app.RemindNote(ctx, id+100, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = app.RemindNote(ctx, id, time.Now().Add(100*time.Millisecond))
	require.NoError(t, err)
	assert.True(t, found)

	require.Eventually(t, func() bool { return len(notifier.Messages()) == 1 }, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, "Chemistry - Moles and more moles", notifier.Messages()[0])
}

func TestApp_Dashboard(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, app.Start(ctx))
	defer app.Stop(ctx)

	for i := 0; i < 10; i++ {
		_, err := app.Store().Create(ctx, "", "note body", "", 15)
		require.NoError(t, err)
	}
	for i := 1; i <= 8; i++ {
		_, err := app.ScheduleReminder(time.Now().Add(time.Duration(i)*time.Hour), "later", "")
		require.NoError(t, err)
	}

	d, err := app.Dashboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, 150, d.Stats.TotalXP)
	assert.Equal(t, 1, d.Level)
	assert.Equal(t, 250, d.NextLevelAt)
	assert.Len(t, d.Recent, DashboardRecentNotes)
	assert.Len(t, d.Upcoming, DashboardUpcoming)
	assert.Equal(t, []string{"first_note", "note_taker", "scribe", "xp_100"}, d.NewBadges)

	again, err := app.Dashboard(ctx)
	require.NoError(t, err)
	assert.Empty(t, again.NewBadges, "badges are persisted once")
	assert.Equal(t, d.NewBadges, again.Stats.Badges)
}

func TestApp_StopSavesDirtyBuffer(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, app.Start(ctx))

	app.Session().Edit("", "unsaved thoughts about entropy", "physics")
	require.NoError(t, app.Stop(ctx))

	notes, err := app.Store().List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Untitled note #1", notes[0].Title)
	assert.Equal(t, "physics", notes[0].Tags)
}

func TestApp_RepairsRemovedTable(t *testing.T) {
	app, _ := newTestApp(t, WithWatch(true))
	ctx := context.Background()

	_, err := app.Store().Create(ctx, "keep", "some text", "", 10)
	require.NoError(t, err)

	require.NoError(t, app.Start(ctx))
	defer app.Stop(ctx)

	require.NoError(t, os.Remove(filepath.Join(app.Path(), "notes.csv")))

	require.Eventually(t, func() bool {
		return app.State().(AppState).Repairs > 0
	}, 3*time.Second, 50*time.Millisecond)

	assert.FileExists(t, filepath.Join(app.Path(), "notes.csv"))
	stats, err := app.Service().Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalXP)
	assert.Equal(t, 0, stats.NotesCreated)
}

func TestApp_StartTwice(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, app.Start(ctx))
	defer app.Stop(ctx)
	assert.Error(t, app.Start(ctx))
}

func TestApp_Assistant(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	app, _ := newTestApp(t)
	_, err := app.Assistant()
	assert.ErrorIs(t, err, studyai.ErrAPIKeyRequired)

	fake := studyai.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		return "alpha, beta", nil
	})
	app, _ = newTestApp(t, WithCompleter(fake))
	a, err := app.Assistant()
	require.NoError(t, err)
	kw, err := a.Keywords(context.Background(), "alpha beta gamma", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, kw)
}
