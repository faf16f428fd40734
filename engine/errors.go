/*
errors.go - Error taxonomy for the accounting engine

PURPOSE:
  One place for the four error categories the engine and its callers deal
  with. Operations reject whole: an error means nothing was applied.

CATEGORIES:
  1. Validation - missing or malformed input (mandatory note absent,
     malformed date/time, end before start)
  2. Conflict - overlapping leave booking, decided twice
  3. Authorization - back-dating window exceeded, tracking disabled
  4. NotFound - unknown leave/user id

USAGE:
  Callers match with errors.Is/As:

    if engine.IsConflict(err) {
        // map to 409
    }
*/
package engine

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of all malformed-input rejections.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when a write would collide with existing
	// state, e.g. an overlapping leave booking.
	ErrConflict = errors.New("conflict")

	// ErrAuthorization is returned when the actor may not perform the
	// operation, e.g. a self-correction outside the back-dating window.
	ErrAuthorization = errors.New("not authorized")

	// ErrNotFound is returned for unknown user or request ids.
	ErrNotFound = errors.New("not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports a malformed or missing input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// OverlapError reports a leave booking that intersects an existing
// SUBMITTED or APPROVED request for the same user.
type OverlapError struct {
	UserID     string
	ExistingID string
	Start, End time.Time
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("leave request overlaps existing request %s (%s .. %s)",
		e.ExistingID, DayKey(e.Start), DayKey(e.End))
}

func (e *OverlapError) Unwrap() error { return ErrConflict }

// StateError reports an operation applied to a request that is no longer in
// a state permitting it (e.g. deciding a canceled request).
type StateError struct {
	ID     string
	Status LeaveStatus
}

func (e *StateError) Error() string {
	return fmt.Sprintf("request %s is %s and cannot be modified", e.ID, e.Status)
}

func (e *StateError) Unwrap() error { return ErrConflict }

// WindowError reports a self-service correction outside the permitted
// back-dating window.
type WindowError struct {
	Date    time.Time
	MaxDays int
	Future  bool
}

func (e *WindowError) Error() string {
	if e.Future {
		return fmt.Sprintf("date %s is in the future", DayKey(e.Date))
	}
	return fmt.Sprintf("date %s is more than %d days back", DayKey(e.Date), e.MaxDays)
}

func (e *WindowError) Unwrap() error { return ErrAuthorization }

// TrackingDisabledError reports a punch operation on a user whose account
// does not track working time.
type TrackingDisabledError struct {
	UserID string
}

func (e *TrackingDisabledError) Error() string {
	return fmt.Sprintf("time tracking is disabled for user %s", e.UserID)
}

func (e *TrackingDisabledError) Unwrap() error { return ErrAuthorization }

// NotFoundError names the missing record.
type NotFoundError struct {
	Kind string // "user", "leave request", ...
	ID   string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %s not found", e.Kind, e.ID) }

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

func IsValidation(err error) bool    { return errors.Is(err, ErrValidation) }
func IsConflict(err error) bool      { return errors.Is(err, ErrConflict) }
func IsAuthorization(err error) bool { return errors.Is(err, ErrAuthorization) }
func IsNotFound(err error) bool      { return errors.Is(err, ErrNotFound) }

// IsClientError reports whether the error is the caller's fault rather than
// an internal failure.
func IsClientError(err error) bool {
	return IsValidation(err) || IsConflict(err) || IsAuthorization(err) || IsNotFound(err)
}
