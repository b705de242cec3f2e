/*
errors.go - Centralized error taxonomy for the overtime engine

PURPOSE:
  All domain error types in one place. The tracker and api packages wrap
  and map these; they never invent parallel taxonomies.

ERROR CATEGORIES:
  1. Validation errors - missing/malformed caller input, never retried
  2. Rule violations   - tolerance windows, budget caps, identity checks
  3. State conflicts   - session/decision lifecycle, recoverable by re-read

USAGE:
  Structured errors wrap sentinels, so callers can branch either way:

    if errors.Is(err, engine.ErrBudgetExceeded) { ... }

    var be *engine.BudgetExceededError
    if errors.As(err, &be) {
        offerReducedOptions(be.Remaining)
    }
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidShift is returned for a shift profile outside the two
	// supported schedules. Never silently defaulted.
	ErrInvalidShift = errors.New("invalid shift profile")

	// ErrValidation is returned for missing or malformed required fields.
	// Surfaced directly to the caller; never retried automatically.
	ErrValidation = errors.New("validation failed")

	// ErrToleranceViolation is returned when a clock action falls outside
	// its legal window. The caller must redirect the employee into the
	// correction-request workflow; the attempt itself is terminal.
	ErrToleranceViolation = errors.New("outside tolerance window")

	// ErrBudgetExceeded is returned when a registration would push the
	// holiday's used hours past its maximum. Hard rejection, not a clamp.
	ErrBudgetExceeded = errors.New("holiday hour budget exceeded")

	// ErrIdentityMismatch is returned when an hour-bank claim's detected
	// identity differs from the claimant. Always fatal to that claim.
	ErrIdentityMismatch = errors.New("detected identity does not match claimant")

	// ErrAlreadyActive is returned when a clock-in finds an open session.
	// Recoverable: the existing session is returned alongside.
	ErrAlreadyActive = errors.New("session already active")

	// ErrNoActiveSession is returned when a clock-out finds nothing open.
	ErrNoActiveSession = errors.New("no active session")

	// ErrDecisionFinal is returned on an attempt to re-decide an
	// already-approved/rejected claim, request, or record. No override path.
	ErrDecisionFinal = errors.New("decision already final")

	// ErrHolidayInactive is returned for registrations against a holiday
	// whose active flag is off.
	ErrHolidayInactive = errors.New("holiday is not active")

	// ErrDeadlinePassed is returned for submissions after the holiday's
	// submission deadline.
	ErrDeadlinePassed = errors.New("submission deadline passed")

	// ErrNotFound is returned when a referenced entity doesn't exist.
	ErrNotFound = errors.New("not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidShiftError names the unknown profile.
type InvalidShiftError struct {
	Profile ShiftProfile
}

func (e *InvalidShiftError) Error() string {
	return fmt.Sprintf("invalid shift profile %q", e.Profile)
}

func (e *InvalidShiftError) Unwrap() error { return ErrInvalidShift }

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ToleranceError reports the legal window the timestamp missed.
type ToleranceError struct {
	Action      string // "clock_in" or "clock_out"
	At          ClockTime
	WindowOpen  ClockTime
	WindowClose ClockTime
}

func (e *ToleranceError) Error() string {
	return fmt.Sprintf("%s at %s outside window [%s, %s]",
		e.Action, e.At, e.WindowOpen, e.WindowClose)
}

func (e *ToleranceError) Unwrap() error { return ErrToleranceViolation }

// BudgetExceededError reports the exact remaining capacity so the caller
// can offer a reduced option set instead of an opaque failure.
type BudgetExceededError struct {
	EmployeeID EmployeeID
	HolidayID  HolidayID
	Requested  Hours
	Remaining  Hours
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("budget exceeded for %s/%s: requested %s, remaining %s",
		e.EmployeeID, e.HolidayID, e.Requested, e.Remaining)
}

func (e *BudgetExceededError) Unwrap() error { return ErrBudgetExceeded }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input
// or a business rule the caller can act on.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidShift) ||
		errors.Is(err, ErrToleranceViolation) ||
		errors.Is(err, ErrBudgetExceeded) ||
		errors.Is(err, ErrHolidayInactive) ||
		errors.Is(err, ErrDeadlinePassed)
}

// IsConflict returns true for state-machine conflicts that the caller
// recovers from by re-reading current state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyActive) ||
		errors.Is(err, ErrNoActiveSession) ||
		errors.Is(err, ErrDecisionFinal)
}
