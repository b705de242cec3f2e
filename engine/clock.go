package engine

import "time"

// Clock abstracts wall-clock time so tolerance and accrual decisions can be
// pinned to exact instants in tests (09:15 vs 09:16 matters here).
type Clock interface {
	Now() time.Time
}

// RealClock is the production clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant. Test helper.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

// ClockTimeOf extracts the minute-granular time of day from an instant.
func ClockTimeOf(t time.Time) ClockTime {
	return NewClockTime(t.Hour(), t.Minute())
}

// At anchors a ClockTime onto the calendar date of ref, in ref's location.
func (c ClockTime) At(ref time.Time) time.Time {
	return time.Date(ref.Year(), ref.Month(), ref.Day(), c.Hour(), c.Minute(), 0, 0, ref.Location())
}
