package scheduler

import "errors"

var (
	ErrStarted         = errors.New("scheduler already started")
	ErrInvalidInterval = errors.New("collector interval must be positive")
	ErrDuplicateName   = errors.New("collector name already registered")
	ErrBacklogFull     = errors.New("collector backlog full")
	// ErrCriticalBlocked is the deliberate termination reason when a
	// critical collector is found still in progress at its due time.
	ErrCriticalBlocked = errors.New("critical collector still in progress")
)
