/*
store.go - Persistence interface for the overtime tracker

PURPOSE:
  Defines the interface between the tracker services and the database.
  Implementations: store/sqlite (production), store/memory (tests/dev).

CONTRACT:
  Save* methods upsert by ID. Get* methods return (nil, nil) when the row
  does not exist; callers translate that into engine.ErrNotFound with
  context. List* methods return rows in creation order.

  The Store does NOT serialize business sequences - check-then-write
  invariants (budget cap, single active session, once-only decisions) are
  enforced by the services under the per-(employee, holiday) PairLock.
*/
package tracker

import (
	"context"

	"github.com/warp/overtime-engine/engine"
)

// Store handles persistence for all tracker entities.
type Store interface {
	// Employees
	SaveEmployee(ctx context.Context, e Employee) error
	GetEmployee(ctx context.Context, id engine.EmployeeID) (*Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)

	// Holidays
	SaveHoliday(ctx context.Context, h HolidayDefinition) error
	GetHoliday(ctx context.Context, id engine.HolidayID) (*HolidayDefinition, error)
	ListHolidays(ctx context.Context) ([]HolidayDefinition, error)
	DeleteHoliday(ctx context.Context, id engine.HolidayID) error

	// Sessions
	SaveSession(ctx context.Context, s TimeClockSession) error
	GetSession(ctx context.Context, id string) (*TimeClockSession, error)
	// GetActiveSession returns the single active session for the pair, or nil.
	GetActiveSession(ctx context.Context, employeeID engine.EmployeeID, holidayID engine.HolidayID) (*TimeClockSession, error)
	ListSessions(ctx context.Context, employeeID engine.EmployeeID, holidayID engine.HolidayID) ([]TimeClockSession, error)

	// Overtime records
	SaveRecord(ctx context.Context, r OvertimeRecord) error
	GetRecord(ctx context.Context, id string) (*OvertimeRecord, error)
	ListRecords(ctx context.Context, employeeID engine.EmployeeID, holidayID engine.HolidayID) ([]OvertimeRecord, error)
	ListRecordsByStatus(ctx context.Context, status RecordStatus) ([]OvertimeRecord, error)

	// Time requests
	SaveRequest(ctx context.Context, r TimeRequest) error
	GetRequest(ctx context.Context, id string) (*TimeRequest, error)
	ListPendingRequests(ctx context.Context) ([]TimeRequest, error)

	// Hour-bank claims
	SaveClaim(ctx context.Context, c HourBankClaim) error
	GetClaim(ctx context.Context, id string) (*HourBankClaim, error)
	// GetClaimByRecord resolves the claim owning an overtime record, or nil.
	GetClaimByRecord(ctx context.Context, recordID string) (*HourBankClaim, error)
	ListPendingClaims(ctx context.Context) ([]HourBankClaim, error)
}
