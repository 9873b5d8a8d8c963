package core

import "errors"

// Common errors.
var (
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrStatsCorrupt       = errors.New("stats file is malformed")
	ErrReadOnly           = errors.New("store is in read-only mode")

	ErrEmptyText = errors.New("note text is empty")

	ErrDuplicateJob     = errors.New("a job with this id is already scheduled")
	ErrSchedulerStopped = errors.New("scheduler is not running")
	ErrPastFireTime     = errors.New("reminder time must be in the future")
)
