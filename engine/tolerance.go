/*
tolerance.go - Clock-in/out acceptance windows

PURPOSE:
  Validates whether a clock action's timestamp falls inside its legal
  window. A rejection is terminal for that attempt: it never creates or
  closes a session, and the caller must route the employee into the
  correction-request workflow instead. There is no retry and no bypass.

THE WINDOWS (calibration constants, reproduced exactly):
  Clock-in:  [06:00, 09:15] for BOTH shifts. The window is absolute, not
             derived from the shift's standard start.
  Clock-out: [standardEnd - 10min, 20:10]. The lower bound is
             shift-dependent (17:20 for "8-17", 18:20 for "9-18"); the
             upper bound is fixed.

  All bounds are inclusive and minute-granular: 09:15 is accepted,
  09:16 is rejected.
*/
package engine

import "time"

// Clock-in window bounds. Absolute, shift-independent.
var (
	clockInOpen  = NewClockTime(6, 0)
	clockInClose = NewClockTime(9, 15)
)

// Clock-out upper bound. The lower bound is standardEnd - 10min.
var clockOutClose = NewClockTime(20, 10)

const clockOutGraceMinutes = 10

// CheckClockIn validates a clock-in timestamp for the given shift.
// The shift is resolved even though the window is absolute, so that an
// unknown profile fails with ErrInvalidShift before any gate decision.
func CheckClockIn(at time.Time, profile ShiftProfile) error {
	if _, err := StandardWindowFor(profile); err != nil {
		return err
	}
	ct := ClockTimeOf(at)
	if ct.Before(clockInOpen) || ct.After(clockInClose) {
		return &ToleranceError{
			Action:      "clock_in",
			At:          ct,
			WindowOpen:  clockInOpen,
			WindowClose: clockInClose,
		}
	}
	return nil
}

// CheckClockOut validates a clock-out timestamp for the given shift.
func CheckClockOut(at time.Time, profile ShiftProfile) error {
	window, err := StandardWindowFor(profile)
	if err != nil {
		return err
	}
	open := window.End.AddMinutes(-clockOutGraceMinutes)
	ct := ClockTimeOf(at)
	if ct.Before(open) || ct.After(clockOutClose) {
		return &ToleranceError{
			Action:      "clock_out",
			At:          ct,
			WindowOpen:  open,
			WindowClose: clockOutClose,
		}
	}
	return nil
}
