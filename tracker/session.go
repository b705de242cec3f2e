/*
session.go - Time-clock session state machine

PURPOSE:
  Tracks the lifecycle of a single clock session per (employee, holiday):

    none --StartEntry--> active --Finish--> completed

  StartEntry is idempotent-safe: a second clock-in while a session is
  open returns the EXISTING session instead of creating a duplicate.
  Finish closes the session at an explicit end time (one of the accrual
  calculator's suggestions) or "now", runs the accrual calculator, and
  posts an approved overtime record through the budget check. There is no
  cancel transition; an active session lingers until finished. A new
  cycle may begin afterwards for a different date within the holiday.

TOLERANCE:
  Both transitions pass the tolerance gate first. A rejected timestamp
  never touches the session; the caller routes the employee into the
  correction-request workflow.
*/
package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/warp/overtime-engine/engine"
)

// Sessions drives the time-clock state machine.
type Sessions struct {
	store  Store
	ledger *BudgetLedger
	locks  *PairLock
	clock  engine.Clock
}

func NewSessions(store Store, ledger *BudgetLedger, locks *PairLock, clock engine.Clock) *Sessions {
	return &Sessions{store: store, ledger: ledger, locks: locks, clock: clock}
}

// StartEntry clocks the employee in for the holiday. The returned bool is
// true when an already-active session was returned instead of a new one
// (the AlreadyActive conflict, resolved idempotently).
func (s *Sessions) StartEntry(ctx context.Context, employeeID engine.EmployeeID, holidayID engine.HolidayID) (*TimeClockSession, bool, error) {
	employee, holiday, err := s.resolve(ctx, employeeID, holidayID)
	if err != nil {
		return nil, false, err
	}
	if !holiday.Active {
		return nil, false, fmt.Errorf("holiday %s: %w", holidayID, engine.ErrHolidayInactive)
	}

	now := s.clock.Now()
	if err := engine.CheckClockIn(now, employee.Shift); err != nil {
		return nil, false, err
	}

	unlock := s.locks.Lock(employeeID, holidayID)
	defer unlock()

	existing, err := s.store.GetActiveSession(ctx, employeeID, holidayID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, true, nil
	}

	session := TimeClockSession{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		HolidayID:  holidayID,
		Date:       now.Truncate(24 * time.Hour),
		Start:      now,
		Status:     SessionActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.SaveSession(ctx, session); err != nil {
		return nil, false, err
	}
	return &session, false, nil
}

// Finish clocks the employee out. When end is nil the clock's "now" is
// used. On success the session is completed and, when the period produced
// chargeable overtime, the newly posted approved record is returned.
// A budget rejection leaves the session active so a smaller option can be
// chosen.
func (s *Sessions) Finish(ctx context.Context, employeeID engine.EmployeeID, holidayID engine.HolidayID, end *time.Time) (*TimeClockSession, *OvertimeRecord, error) {
	employee, holiday, err := s.resolve(ctx, employeeID, holidayID)
	if err != nil {
		return nil, nil, err
	}

	endAt := s.clock.Now()
	if end != nil {
		endAt = *end
	}
	if err := engine.CheckClockOut(endAt, employee.Shift); err != nil {
		return nil, nil, err
	}

	window, err := engine.StandardWindowFor(employee.Shift)
	if err != nil {
		return nil, nil, err
	}

	unlock := s.locks.Lock(employeeID, holidayID)
	defer unlock()

	session, err := s.store.GetActiveSession(ctx, employeeID, holidayID)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, fmt.Errorf("%s/%s: %w", employeeID, holidayID, engine.ErrNoActiveSession)
	}
	if endAt.Before(session.Start) {
		return nil, nil, &engine.ValidationError{Field: "end", Message: "before session start"}
	}

	overtime := engine.ComputeOvertime(session.Start, endAt, window)

	var record *OvertimeRecord
	if overtime.IsPositive() {
		record = &OvertimeRecord{
			ID:          uuid.NewString(),
			EmployeeID:  employeeID,
			HolidayID:   holidayID,
			HolidayName: holiday.Name,
			Date:        session.Date,
			Source:      SourceDirect,
			Label:       recordLabel(session.Start, endAt, overtime),
			Hours:       overtime,
			Start:       session.Start,
			End:         endAt,
			Status:      RecordApproved,
			CreatedAt:   s.clock.Now(),
			UpdatedAt:   s.clock.Now(),
		}
		if err := s.ledger.Post(ctx, record); err != nil {
			// Session stays active; the caller offers a reduced option set.
			return nil, nil, err
		}
	}

	session.End = &endAt
	session.Status = SessionCompleted
	session.UpdatedAt = s.clock.Now()
	if err := s.store.SaveSession(ctx, *session); err != nil {
		return nil, nil, err
	}
	return session, record, nil
}

// EndOptions returns the legal clock-out choices for the active session,
// already filtered down to what the holiday's remaining budget can absorb.
func (s *Sessions) EndOptions(ctx context.Context, employeeID engine.EmployeeID, holidayID engine.HolidayID) ([]engine.EndOption, error) {
	employee, _, err := s.resolve(ctx, employeeID, holidayID)
	if err != nil {
		return nil, err
	}
	window, err := engine.StandardWindowFor(employee.Shift)
	if err != nil {
		return nil, err
	}

	session, err := s.store.GetActiveSession(ctx, employeeID, holidayID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%s/%s: %w", employeeID, holidayID, engine.ErrNoActiveSession)
	}

	stats, err := s.ledger.Stats(ctx, employeeID, holidayID)
	if err != nil {
		return nil, err
	}

	var options []engine.EndOption
	for _, opt := range engine.EndOptions(session.Start, window) {
		if opt.Total.GreaterThan(stats.Remaining) {
			continue
		}
		options = append(options, opt)
	}
	return options, nil
}

// resolve loads the employee and holiday or fails with ErrNotFound.
func (s *Sessions) resolve(ctx context.Context, employeeID engine.EmployeeID, holidayID engine.HolidayID) (*Employee, *HolidayDefinition, error) {
	employee, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, nil, err
	}
	if employee == nil {
		return nil, nil, fmt.Errorf("employee %s: %w", employeeID, engine.ErrNotFound)
	}
	holiday, err := s.store.GetHoliday(ctx, holidayID)
	if err != nil {
		return nil, nil, err
	}
	if holiday == nil {
		return nil, nil, fmt.Errorf("holiday %s: %w", holidayID, engine.ErrNotFound)
	}
	return employee, holiday, nil
}
