package models

import (
	"errors"
	"fmt"
)

// Domain errors, surfaced unwrapped so the HTTP layer can map each to a
// distinct status and error code.
var (
	// ErrNotFound is returned when a requested event or signup does not exist
	// (or has been soft-deleted).
	ErrNotFound = errors.New("not found")

	// ErrEventFull is returned by admission control when an event has no
	// remaining capacity.
	ErrEventFull = errors.New("event is full")

	// ErrEventCancelled is returned when an operation targets a cancelled event.
	ErrEventCancelled = errors.New("event is cancelled")

	// ErrAlreadyCancelled is returned on a repeat cancel. Cancellation is not
	// idempotent at the API layer: the second call must surface this instead
	// of re-notifying.
	ErrAlreadyCancelled = errors.New("event is already cancelled")

	// ErrEditWindowClosed is returned when an update arrives inside the 24h
	// edit lock.
	ErrEditWindowClosed = errors.New("event can no longer be edited this close to start")

	// ErrSignupWindowClosed is returned when a signup arrives inside the 1h
	// cutoff.
	ErrSignupWindowClosed = errors.New("signups are closed this close to start")

	// ErrTooCloseToStart is returned when a cancel arrives outside the
	// actor's cancel window.
	ErrTooCloseToStart = errors.New("event is too close to start to cancel")

	// ErrUnauthorized is returned when a non-admin cancel's email does not
	// match the coordinator's.
	ErrUnauthorized = errors.New("not authorized for this event")
)

// ValidationError rejects malformed input before any store access.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
