package queue

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition marks a status change the state machine forbids.
	// It indicates a logic defect in the caller, not a runtime condition.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidOperation marks a store call that is malformed for the item's
	// current state, such as retrying an item that has not failed.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrNotFound is returned when the referenced item no longer exists.
	// In-flight work treats it as a removal signal and discards its result.
	ErrNotFound = errors.New("queue item not found")
)

// TransitionError carries the rejected edge for diagnostics.
type TransitionError struct {
	ID   string
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s for item %s", e.From, e.To, e.ID)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
