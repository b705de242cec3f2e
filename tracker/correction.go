/*
correction.go - Manual correction request workflow

PURPOSE:
  The tolerance gate is strict and offers no bypass. When an honest
  late/early clock event is rejected, this workflow is the controlled
  escape hatch: the employee submits a TimeRequest asserting the missed
  entry or exit, and an administrator disposes of it.

    pending --Approve--> approved   (creates the session / record)
    pending --Reject--->  rejected

  Approving a missing_entry opens an active session at the requested
  time. Approving a missing_exit closes the active session at the
  requested time and posts a pending_admin record - a human confirms the
  hours before the ledger is charged. Re-deciding a decided request fails
  with ErrDecisionFinal.
*/
package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/warp/overtime-engine/engine"
)

// Corrections manages the TimeRequest lifecycle.
type Corrections struct {
	store  Store
	ledger *BudgetLedger
	locks  *PairLock
	clock  engine.Clock
}

func NewCorrections(store Store, ledger *BudgetLedger, locks *PairLock, clock engine.Clock) *Corrections {
	return &Corrections{store: store, ledger: ledger, locks: locks, clock: clock}
}

// Request creates a pending correction request. Reason and requested time
// are mandatory; every correction is reviewed, none auto-approve.
func (c *Corrections) Request(ctx context.Context, employeeID engine.EmployeeID, holidayID engine.HolidayID, reqType RequestType, requestedTime time.Time, reason string) (*TimeRequest, error) {
	if reqType != RequestMissingEntry && reqType != RequestMissingExit {
		return nil, &engine.ValidationError{Field: "request_type", Message: "must be missing_entry or missing_exit"}
	}
	if requestedTime.IsZero() {
		return nil, &engine.ValidationError{Field: "requested_time", Message: "required"}
	}
	if reason == "" {
		return nil, &engine.ValidationError{Field: "reason", Message: "required"}
	}

	if err := c.resolvePair(ctx, employeeID, holidayID); err != nil {
		return nil, err
	}

	request := TimeRequest{
		ID:            uuid.NewString(),
		EmployeeID:    employeeID,
		HolidayID:     holidayID,
		Type:          reqType,
		RequestedTime: requestedTime,
		Reason:        reason,
		Status:        RequestPending,
		CreatedAt:     c.clock.Now(),
	}
	if err := c.store.SaveRequest(ctx, request); err != nil {
		return nil, err
	}
	return &request, nil
}

// Approve executes the administrator's approval. For a missing entry it
// opens a session at the requested time; for a missing exit it closes the
// active session and posts a pending_admin record with the computed hours.
func (c *Corrections) Approve(ctx context.Context, requestID, adminNotes string) (*TimeRequest, *OvertimeRecord, error) {
	request, err := c.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if request == nil {
		return nil, nil, fmt.Errorf("request %s: %w", requestID, engine.ErrNotFound)
	}

	unlock := c.locks.Lock(request.EmployeeID, request.HolidayID)
	defer unlock()

	// Re-read under the lock: a concurrent decision may have landed.
	request, err = c.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if request.Status != RequestPending {
		return nil, nil, fmt.Errorf("request %s is %s: %w", requestID, request.Status, engine.ErrDecisionFinal)
	}

	var record *OvertimeRecord
	switch request.Type {
	case RequestMissingEntry:
		err = c.applyMissingEntry(ctx, request)
	case RequestMissingExit:
		record, err = c.applyMissingExit(ctx, request)
	}
	if err != nil {
		return nil, nil, err
	}

	now := c.clock.Now()
	request.Status = RequestApproved
	request.AdminNotes = adminNotes
	request.DecidedAt = &now
	if err := c.store.SaveRequest(ctx, *request); err != nil {
		return nil, nil, err
	}
	return request, record, nil
}

// Reject records the administrator's rejection. Terminal for the request;
// the employee must submit a new one.
func (c *Corrections) Reject(ctx context.Context, requestID, adminNotes string) (*TimeRequest, error) {
	request, err := c.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, fmt.Errorf("request %s: %w", requestID, engine.ErrNotFound)
	}

	unlock := c.locks.Lock(request.EmployeeID, request.HolidayID)
	defer unlock()

	// Re-read under the lock: rejection must not race an approval.
	request, err = c.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != RequestPending {
		return nil, fmt.Errorf("request %s is %s: %w", requestID, request.Status, engine.ErrDecisionFinal)
	}

	now := c.clock.Now()
	request.Status = RequestRejected
	request.AdminNotes = adminNotes
	request.DecidedAt = &now
	if err := c.store.SaveRequest(ctx, *request); err != nil {
		return nil, err
	}
	return request, nil
}

// applyMissingEntry opens an active session at the requested time.
// Caller holds the pair lock.
func (c *Corrections) applyMissingEntry(ctx context.Context, request *TimeRequest) error {
	existing, err := c.store.GetActiveSession(ctx, request.EmployeeID, request.HolidayID)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%s/%s: %w", request.EmployeeID, request.HolidayID, engine.ErrAlreadyActive)
	}

	now := c.clock.Now()
	session := TimeClockSession{
		ID:         uuid.NewString(),
		EmployeeID: request.EmployeeID,
		HolidayID:  request.HolidayID,
		Date:       request.RequestedTime.Truncate(24 * time.Hour),
		Start:      request.RequestedTime,
		Status:     SessionActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return c.store.SaveSession(ctx, session)
}

// applyMissingExit closes the active session at the requested time and
// posts the computed hours for human confirmation. Caller holds the pair
// lock.
func (c *Corrections) applyMissingExit(ctx context.Context, request *TimeRequest) (*OvertimeRecord, error) {
	session, err := c.store.GetActiveSession(ctx, request.EmployeeID, request.HolidayID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%s/%s: %w", request.EmployeeID, request.HolidayID, engine.ErrNoActiveSession)
	}
	if request.RequestedTime.Before(session.Start) {
		return nil, &engine.ValidationError{Field: "requested_time", Message: "before session start"}
	}

	employee, err := c.store.GetEmployee(ctx, request.EmployeeID)
	if err != nil {
		return nil, err
	}
	holiday, err := c.store.GetHoliday(ctx, request.HolidayID)
	if err != nil {
		return nil, err
	}
	window, err := engine.StandardWindowFor(employee.Shift)
	if err != nil {
		return nil, err
	}

	overtime := engine.ComputeOvertime(session.Start, request.RequestedTime, window)

	var record *OvertimeRecord
	if overtime.IsPositive() {
		now := c.clock.Now()
		record = &OvertimeRecord{
			ID:          uuid.NewString(),
			EmployeeID:  request.EmployeeID,
			HolidayID:   request.HolidayID,
			HolidayName: holiday.Name,
			Date:        session.Date,
			Source:      SourceCorrection,
			Label:       recordLabel(session.Start, request.RequestedTime, overtime),
			Hours:       overtime,
			Start:       session.Start,
			End:         request.RequestedTime,
			Status:      RecordPendingAdmin,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := c.ledger.Post(ctx, record); err != nil {
			return nil, err
		}
	}

	end := request.RequestedTime
	session.End = &end
	session.Status = SessionCompleted
	session.UpdatedAt = c.clock.Now()
	if err := c.store.SaveSession(ctx, *session); err != nil {
		return nil, err
	}
	return record, nil
}

func (c *Corrections) resolvePair(ctx context.Context, employeeID engine.EmployeeID, holidayID engine.HolidayID) error {
	employee, err := c.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return err
	}
	if employee == nil {
		return fmt.Errorf("employee %s: %w", employeeID, engine.ErrNotFound)
	}
	holiday, err := c.store.GetHoliday(ctx, holidayID)
	if err != nil {
		return err
	}
	if holiday == nil {
		return fmt.Errorf("holiday %s: %w", holidayID, engine.ErrNotFound)
	}
	return nil
}
