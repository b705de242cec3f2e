/*
accrual.go - Conversion of worked time into chargeable overtime

PURPOSE:
  Computes how much of a (start, end) work period is chargeable overtime
  for a holiday: the time worked BEFORE the shift's standard start plus
  the time worked AFTER its standard end. The standard window itself is
  never chargeable.

ROUNDING:
  Results snap UP to the next 0.5-hour increment (ceiling, never floor),
  so partial minutes always count in the employee's favor, and the result
  is never negative. Rounding is idempotent: an exact multiple of 0.5
  stays put.

END OPTIONS:
  Given an accepted clock-in, the calculator offers the discrete set of
  legal (end time, total hours) pairs for the fixed allowed totals
  {0.5, 1, 1.5, 2}. The credit already earned by arriving early is
  subtracted from the remaining time to work, and totals below that
  credit are discarded - an employee cannot choose a total smaller than
  what they have already accrued.
*/
package engine

import "time"

// Overtime is charged in half-hour steps.
const halfStepMinutes = 30

// allowedTotalSteps are the fixed selectable session totals, in half-hour
// steps: 0.5h, 1h, 1.5h, 2h.
var allowedTotalSteps = []int64{1, 2, 3, 4}

// ceilHalfSteps converts worked minutes to half-hour steps, rounding up.
func ceilHalfSteps(minutes int) int64 {
	if minutes <= 0 {
		return 0
	}
	return int64((minutes + halfStepMinutes - 1) / halfStepMinutes)
}

// minutesBetween returns whole minutes from a to b, negative if b < a.
func minutesBetween(a, b time.Time) int {
	return int(b.Sub(a) / time.Minute)
}

// ComputeOvertime converts an actual (start, end) pair plus the standard
// window into chargeable overtime hours. The window is anchored on the
// calendar date of start.
func ComputeOvertime(start, end time.Time, window StandardWindow) Hours {
	stdStart := window.Start.At(start)
	stdEnd := window.End.At(start)

	overtimeMinutes := 0
	if start.Before(stdStart) {
		early := stdStart
		if end.Before(stdStart) {
			early = end
		}
		overtimeMinutes += minutesBetween(start, early)
	}
	if end.After(stdEnd) {
		late := stdEnd
		if start.After(stdEnd) {
			late = start
		}
		overtimeMinutes += minutesBetween(late, end)
	}

	return HoursFromHalfSteps(ceilHalfSteps(overtimeMinutes))
}

// EarlyCredit returns the overtime already earned by arriving before the
// standard start, rounded up to the half-hour like everything else.
func EarlyCredit(start time.Time, window StandardWindow) Hours {
	stdStart := window.Start.At(start)
	if !start.Before(stdStart) {
		return ZeroHours()
	}
	return HoursFromHalfSteps(ceilHalfSteps(minutesBetween(start, stdStart)))
}

// EndOptions generates the legal clock-out choices for a session that
// started at start. Each option's Total is one of the fixed allowed totals;
// its End is the standard end plus whatever of that total is not already
// covered by early-arrival credit. Totals below the early credit are
// excluded from the set.
func EndOptions(start time.Time, window StandardWindow) []EndOption {
	earlySteps := int64(0)
	stdStart := window.Start.At(start)
	if start.Before(stdStart) {
		earlySteps = ceilHalfSteps(minutesBetween(start, stdStart))
	}

	var options []EndOption
	for _, total := range allowedTotalSteps {
		if total < earlySteps {
			continue
		}
		remaining := int(total-earlySteps) * halfStepMinutes
		options = append(options, EndOption{
			End:   window.End.AddMinutes(remaining),
			Total: HoursFromHalfSteps(total),
		})
	}
	return options
}
