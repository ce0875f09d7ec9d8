/*
errors.go - Error taxonomy for the scheduling engine

PURPOSE:
  Defines the sentinel errors and structured error types shared by the
  schedule and attendance packages and their stores. Handlers map these
  onto HTTP status codes with the IsXxx helpers instead of string
  matching.

TAXONOMY:
  - ValidationError: the request contradicts an invariant (overlapping
    schedules, duplicate work-time rules, malformed intervals). The
    violated invariant is named.
  - StateError: the record's lifecycle state forbids the operation
    (deleting a locked schedule, locking a draft shift).
  - Not-found sentinels: lookups that missed.

  An empty generation result is not an error. A template that produces
  zero shifts for a range simply yields an empty slice.
*/
package schedule

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrValidation is the base of every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrState is the base of every StateError.
	ErrState = errors.New("operation not allowed in current state")

	ErrScheduleNotFound = errors.New("schedule not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrShiftNotFound    = errors.New("shift not found")
	ErrEmployeeNotFound = errors.New("employee not found")
)

// =============================================================================
// VALIDATION ERRORS
// =============================================================================

// ValidationError names the invariant a request violated.
type ValidationError struct {
	Invariant string // short identifier, e.g. "schedule-overlap"
	Detail    string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("validation failed: %s", e.Invariant)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Invariant, e.Detail)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError with a formatted detail.
func NewValidationError(invariant, format string, args ...interface{}) error {
	return &ValidationError{Invariant: invariant, Detail: fmt.Sprintf(format, args...)}
}

// =============================================================================
// STATE ERRORS
// =============================================================================

// StateError reports an operation refused because of lifecycle state.
type StateError struct {
	Op    string // the refused operation, e.g. "delete schedule"
	ID    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s %q in state %q", e.Op, e.ID, e.State)
}

func (e *StateError) Unwrap() error { return ErrState }

// =============================================================================
// CLASSIFICATION HELPERS
// =============================================================================

// IsValidation reports whether err is (or wraps) a validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsStateError reports whether err is (or wraps) a lifecycle refusal.
func IsStateError(err error) bool {
	return errors.Is(err, ErrState)
}

// IsNotFound reports whether err is any of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrScheduleNotFound) ||
		errors.Is(err, ErrTemplateNotFound) ||
		errors.Is(err, ErrShiftNotFound) ||
		errors.Is(err, ErrEmployeeNotFound)
}

// IsClientError reports whether err should map to a 4xx response.
func IsClientError(err error) bool {
	return IsValidation(err) || IsStateError(err) || IsNotFound(err)
}
