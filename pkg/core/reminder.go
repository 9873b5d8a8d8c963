package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultReminderMessage is used when a reminder is scheduled with a blank message.
const DefaultReminderMessage = "Time to study! 📚"

// JobState is the lifecycle of a one-shot reminder job.
// SCHEDULED is the only non-terminal state.
type JobState string

const (
	JobScheduled JobState = "scheduled"
	JobFired     JobState = "fired"
	JobCancelled JobState = "cancelled"
)

// JobInfo is the caller-facing view of a pending job.
type JobInfo struct {
	ID      string
	FireAt  time.Time
	Message string
}

// JobIDFor derives a job id from the fire time's numeric timestamp.
// Two jobs at the same instant derive the same id.
func JobIDFor(fireAt time.Time) string {
	secs := float64(fireAt.UnixNano()) / float64(time.Second)
	id := strconv.FormatFloat(secs, 'f', -1, 64)
	if !strings.Contains(id, ".") {
		id += ".0"
	}
	return id
}

// ValidateFireTime rejects reminders at or before now.
// This belongs to the caller-facing layer; the scheduler itself accepts any time.
func ValidateFireTime(fireAt, now time.Time) error {
	if !fireAt.After(now) {
		return fmt.Errorf("%w: %s is not after %s", ErrPastFireTime,
			fireAt.Format("2006-01-02 15:04"), now.Format("2006-01-02 15:04"))
	}
	return nil
}

// ReminderMessage builds the delivered message. The repeat label is cosmetic:
// jobs never recur.
func ReminderMessage(msg, repeat string) string {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		msg = DefaultReminderMessage
	}
	repeat = strings.TrimSpace(repeat)
	if repeat == "" || strings.EqualFold(repeat, "once") {
		return msg
	}
	return fmt.Sprintf("%s (Repeats: %s)", msg, repeat)
}

// NoteReminderMessage is the message used when reminding about a specific note.
func NoteReminderMessage(n Note) string {
	title := n.Title
	if title == "" {
		title = "(no-title)"
	}
	return fmt.Sprintf("%s - %s", title, Snippet(n.Text, 140))
}
