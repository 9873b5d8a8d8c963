// Package studydesk is the composition root of a personal study assistant.
//
// It keeps notes in a flat CSV table next to a JSON stats file, awards XP
// and badges, schedules one-shot reminders delivered as desktop
// notifications, autosaves the note being edited and offers AI study aids
// (summaries, flashcards, quizzes, rewrites).
//
// Usage:
//
//	app, err := studydesk.New("~/.studydesk", studydesk.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	if err := app.Start(ctx); err != nil {
//		return err
//	}
//	defer app.Stop(ctx)
//
//	id, err := app.Store().Create(ctx, "Thermodynamics", "Entropy never decreases.", "physics", core.XPForText(text))
//	_, err = app.ScheduleReminder(time.Now().Add(25*time.Minute), "Review thermodynamics", "")
//
// Layers:
//
//   - pkg/core: domain types, XP and badge rules, the stats service.
//   - pkg/adapters/fs: the note store (CSV + JSON, atomic writes, optional git snapshots, watcher).
//   - pkg/scheduler, pkg/notify: reminders and their delivery.
//   - pkg/session: the edit buffer with autosave.
//   - pkg/studyai, pkg/studytimer: AI helpers and the study countdown.
package studydesk
