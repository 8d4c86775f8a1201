package reconciler

import "errors"

var (
	// ErrUnknownTask is returned for any operation on a task name the
	// reconciler never registered.
	ErrUnknownTask = errors.New("unknown task")

	// ErrInvalidTransition is returned when an operation does not match
	// the task's current state in the state table.
	ErrInvalidTransition = errors.New("invalid state transition")
)
