package engine

// =============================================================================
// SHIFT CALENDAR - The two supported shift schedules
// =============================================================================

// ShiftProfile identifies one of the two supported shift schedules.
// A profile is fixed at employee creation; only an administrative edit
// (outside this engine) can change it.
type ShiftProfile string

const (
	// ShiftEarly works 08:00-17:30.
	ShiftEarly ShiftProfile = "8-17"
	// ShiftLate works 09:00-18:30.
	ShiftLate ShiftProfile = "9-18"
)

// StandardWindow is the nominal start/end of a shift. Time worked inside the
// window is never chargeable; it is the zero-point for overtime.
type StandardWindow struct {
	Start ClockTime
	End   ClockTime
}

// StandardWindowFor returns the standard window for a shift profile.
// Unknown profiles fail with ErrInvalidShift - there is deliberately no
// silent default, since every downstream rule depends on the window.
func StandardWindowFor(profile ShiftProfile) (StandardWindow, error) {
	switch profile {
	case ShiftEarly:
		return StandardWindow{Start: NewClockTime(8, 0), End: NewClockTime(17, 30)}, nil
	case ShiftLate:
		return StandardWindow{Start: NewClockTime(9, 0), End: NewClockTime(18, 30)}, nil
	default:
		return StandardWindow{}, &InvalidShiftError{Profile: profile}
	}
}
