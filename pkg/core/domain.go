package core

import (
	"fmt"
	"time"
)

// EventType represents the kind of change observed in the data directory or job table.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"

	EventJobFired     EventType = "JOB_FIRED"
	EventJobCancelled EventType = "JOB_CANCELLED"
)

// Event represents a change in the store or the scheduler.
// For file events ID is the file name (e.g. "notes.csv"); for job events it is the job id.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

// String implements lifecycle.Event.
func (e Event) String() string {
	return fmt.Sprintf("%s %s @ %s", e.Type, e.ID, time.Unix(e.Timestamp, 0).Format(time.RFC3339))
}

// ChangeReasonKey is the context key for passing the snapshot commit message.
type contextKey string

const ChangeReasonKey contextKey = "change_reason"
