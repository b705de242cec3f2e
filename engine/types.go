/*
Package engine provides the core overtime accrual engine.

PURPOSE:
  This package contains the pure domain logic for holiday overtime work:
  shift calendars, clock-in/out tolerance windows, and the conversion of
  worked time into chargeable overtime hours. It has no storage, no HTTP,
  and no side effects - everything stateful lives in the tracker package.

KEY CONCEPTS IN THIS FILE (types.go):
  - Hours: A chargeable overtime quantity, always a multiple of 0.5
  - ClockTime: A time-of-day (minutes since midnight) used for windows
  - ShiftProfile: One of the two supported shift schedules
  - EndOption: A typed (end time, total hours) choice for clocking out

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Determinism: Wall-clock time is injected via the Clock interface
  3. Type Safety: IDs and time-of-day values are distinct types
  4. In the employee's favor: partial minutes always round UP to 0.5h

SEE ALSO:
  - shift.go:     Standard windows for the two shift schedules
  - tolerance.go: Clock-in/out acceptance windows
  - accrual.go:   Overtime computation and end-option generation
*/
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// HOURS - Chargeable overtime quantity
// =============================================================================

// Hours is a non-negative overtime quantity in hours. All chargeable values
// produced by this package are multiples of 0.5.
type Hours struct {
	Value decimal.Decimal
}

// NewHours creates an Hours value from a float (e.g. 2.5).
func NewHours(v float64) Hours {
	return Hours{Value: decimal.NewFromFloat(v)}
}

// HoursFromHalfSteps creates an Hours value from a count of half-hour steps.
func HoursFromHalfSteps(n int64) Hours {
	return Hours{Value: decimal.New(n*5, -1)}
}

func ZeroHours() Hours { return Hours{Value: decimal.Zero} }

func (h Hours) Add(o Hours) Hours        { return Hours{Value: h.Value.Add(o.Value)} }
func (h Hours) Sub(o Hours) Hours        { return Hours{Value: h.Value.Sub(o.Value)} }
func (h Hours) IsZero() bool             { return h.Value.IsZero() }
func (h Hours) IsNegative() bool         { return h.Value.IsNegative() }
func (h Hours) IsPositive() bool         { return h.Value.IsPositive() }
func (h Hours) GreaterThan(o Hours) bool { return h.Value.GreaterThan(o.Value) }
func (h Hours) LessThan(o Hours) bool    { return h.Value.LessThan(o.Value) }
func (h Hours) Equal(o Hours) bool       { return h.Value.Equal(o.Value) }
func (h Hours) Float64() float64         { f, _ := h.Value.Float64(); return f }
func (h Hours) String() string           { return h.Value.String() }

// IsHalfStep reports whether the value is a non-negative multiple of 0.5.
func (h Hours) IsHalfStep() bool {
	if h.Value.IsNegative() {
		return false
	}
	return h.Value.Mul(decimal.NewFromInt(2)).IsInteger()
}

// Abs returns the absolute difference |h - o|.
func (h Hours) AbsDiff(o Hours) Hours {
	return Hours{Value: h.Value.Sub(o.Value).Abs()}
}

// =============================================================================
// CLOCK TIME - Time-of-day at minute granularity
// =============================================================================

// ClockTime is a time of day expressed as minutes since midnight.
// Tolerance windows and standard shift windows are minute-granular;
// seconds never influence an accept/reject decision.
type ClockTime int

// NewClockTime builds a ClockTime from hour and minute.
func NewClockTime(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

func (c ClockTime) Hour() int   { return int(c) / 60 }
func (c ClockTime) Minute() int { return int(c) % 60 }

func (c ClockTime) Before(o ClockTime) bool { return c < o }
func (c ClockTime) After(o ClockTime) bool  { return c > o }

// AddMinutes returns the clock time shifted by n minutes.
func (c ClockTime) AddMinutes(n int) ClockTime { return c + ClockTime(n) }

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type HolidayID string

// =============================================================================
// END OPTION - Typed clock-out choice
// =============================================================================

// EndOption is one legal clock-out choice offered to an employee: leaving at
// End yields Total chargeable hours for the session. Options are value
// objects computed by the accrual calculator; nothing is ever parsed back
// out of a display label.
type EndOption struct {
	End   ClockTime
	Total Hours
}
