/*
ledger.go - Holiday budget ledger (derived read model)

PURPOSE:
  Tracks, per (employee, holiday), the hours already charged against the
  holiday's maximum and the portion offset by approved hour-bank credit.
  The ledger is NOT a stored entity: it is always recomputed from the sum
  of approved OvertimeRecord hours against HolidayDefinition.MaxHours.
  There is no stats cache to invalidate - recomputation is the source of
  truth.

INVARIANT:
  sum(approved record hours) <= holiday max hours, after ANY sequence of
  registrations (direct, corrected, or bank-derived). Every registration
  path re-checks remaining capacity before commit, under the per-pair
  lock. A violation is a hard rejection carrying the exact remaining
  capacity - never a clamp.

TERMINAL DECISIONS:
  Decide() flips a pending_admin record to approved (budget-checked) or
  rejected_admin, clears the stored proof reference either way (storage
  minimization, not optional), and syncs the owning hour-bank claim when
  the record is bank-derived. A second decision on the same record fails
  with ErrDecisionFinal.
*/
package tracker

import (
	"context"
	"fmt"

	"github.com/warp/overtime-engine/engine"
)

// BudgetStats is the derived used-vs-maximum accounting for one
// (employee, holiday) pair. Compensated is the share of Used attributable
// to hour-bank credit; it exists for display only.
type BudgetStats struct {
	Used        engine.Hours
	Max         engine.Hours
	Compensated engine.Hours
	Remaining   engine.Hours
}

// BudgetLedger computes budget stats and owns record registration.
type BudgetLedger struct {
	store Store
	locks *PairLock
	clock engine.Clock
}

func NewBudgetLedger(store Store, locks *PairLock, clock engine.Clock) *BudgetLedger {
	return &BudgetLedger{store: store, locks: locks, clock: clock}
}

// Stats recomputes the budget view from source records.
func (l *BudgetLedger) Stats(ctx context.Context, employeeID engine.EmployeeID, holidayID engine.HolidayID) (BudgetStats, error) {
	holiday, err := l.store.GetHoliday(ctx, holidayID)
	if err != nil {
		return BudgetStats{}, err
	}
	if holiday == nil {
		return BudgetStats{}, fmt.Errorf("holiday %s: %w", holidayID, engine.ErrNotFound)
	}

	records, err := l.store.ListRecords(ctx, employeeID, holidayID)
	if err != nil {
		return BudgetStats{}, err
	}

	used := engine.ZeroHours()
	compensated := engine.ZeroHours()
	for _, r := range records {
		if r.Status != RecordApproved {
			continue
		}
		used = used.Add(r.Hours)
		if r.Source == SourceHourBank {
			compensated = compensated.Add(r.Hours)
		}
	}

	return BudgetStats{
		Used:        used,
		Max:         holiday.MaxHours,
		Compensated: compensated,
		Remaining:   holiday.MaxHours.Sub(used),
	}, nil
}

// Post registers a new overtime record. Approved records are capacity
// checked; pending_admin records are not charged until decided.
//
// Caller MUST hold the pair lock for (record.EmployeeID, record.HolidayID);
// every registration path goes through a service that does.
func (l *BudgetLedger) Post(ctx context.Context, record *OvertimeRecord) error {
	if !record.Hours.IsHalfStep() {
		return &engine.ValidationError{Field: "hours", Message: "must be a non-negative multiple of 0.5"}
	}

	if record.Status == RecordApproved {
		if err := l.checkCapacity(ctx, record.EmployeeID, record.HolidayID, record.Hours); err != nil {
			return err
		}
	}
	return l.store.SaveRecord(ctx, *record)
}

// checkCapacity enforces used + requested <= max. Caller holds the pair lock.
func (l *BudgetLedger) checkCapacity(ctx context.Context, employeeID engine.EmployeeID, holidayID engine.HolidayID, requested engine.Hours) error {
	stats, err := l.Stats(ctx, employeeID, holidayID)
	if err != nil {
		return err
	}
	if requested.GreaterThan(stats.Remaining) {
		return &engine.BudgetExceededError{
			EmployeeID: employeeID,
			HolidayID:  holidayID,
			Requested:  requested,
			Remaining:  stats.Remaining,
		}
	}
	return nil
}

// Decide applies the administrator's terminal decision to a pending_admin
// record. Approve re-checks the budget exactly like any other registration;
// reject has no ledger effect. The proof reference is cleared on both
// outcomes, and a bank-derived record's owning claim is moved in lockstep.
func (l *BudgetLedger) Decide(ctx context.Context, recordID string, approve bool) (*OvertimeRecord, error) {
	record, err := l.store.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("record %s: %w", recordID, engine.ErrNotFound)
	}

	unlock := l.locks.Lock(record.EmployeeID, record.HolidayID)
	defer unlock()

	// Re-read under the lock: a concurrent decision may have landed.
	record, err = l.store.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.Status != RecordPendingAdmin {
		return nil, fmt.Errorf("record %s is %s: %w", recordID, record.Status, engine.ErrDecisionFinal)
	}

	if approve {
		if err := l.checkCapacity(ctx, record.EmployeeID, record.HolidayID, record.Hours); err != nil {
			return nil, err
		}
		record.Status = RecordApproved
	} else {
		record.Status = RecordRejectedAdmin
	}
	record.ProofRef = ""
	record.UpdatedAt = l.clock.Now()

	if err := l.store.SaveRecord(ctx, *record); err != nil {
		return nil, err
	}

	if record.Source == SourceHourBank {
		if err := l.syncClaim(ctx, record.ID, approve); err != nil {
			return nil, err
		}
	}
	return record, nil
}

// syncClaim moves the owning hour-bank claim to the record's terminal state.
func (l *BudgetLedger) syncClaim(ctx context.Context, recordID string, approve bool) error {
	claim, err := l.store.GetClaimByRecord(ctx, recordID)
	if err != nil || claim == nil {
		return err
	}
	if claim.Status != ClaimPending {
		return nil
	}
	if approve {
		claim.Status = ClaimApproved
	} else {
		claim.Status = ClaimRejected
	}
	claim.ProofRef = ""
	now := l.clock.Now()
	claim.DecidedAt = &now
	return l.store.SaveClaim(ctx, *claim)
}
