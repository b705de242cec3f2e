/*
Package tracker implements the stateful side of the overtime engine: the
holiday budget ledger, the time-clock session state machine, and the two
approval workflows (correction requests and hour-bank compensation).

Everything here runs against the Store interface and serializes
check-then-write sequences per (employee, holiday) pair - see locks.go.
The pure calculations live in the engine package.
*/
package tracker

import (
	"fmt"
	"time"

	"github.com/warp/overtime-engine/engine"
)

// =============================================================================
// EMPLOYEES AND HOLIDAYS
// =============================================================================

// Employee is the engine's view of an employee: identity plus the shift
// profile every tolerance and accrual decision derives from. The profile is
// set at creation and only changed by administrative edit.
type Employee struct {
	ID        engine.EmployeeID
	Name      string
	Shift     engine.ShiftProfile
	CreatedAt time.Time
}

// HolidayDefinition is an admin-managed date for which overtime work can be
// declared, capped at MaxHours chargeable hours per employee.
type HolidayDefinition struct {
	ID        engine.HolidayID
	Name      string
	Date      time.Time
	Active    bool
	Deadline  time.Time // submission deadline for hour-bank claims
	MaxHours  engine.Hours
	CreatedAt time.Time
}

// =============================================================================
// TIME-CLOCK SESSION
// =============================================================================

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// TimeClockSession is one continuous work period for (employee, holiday,
// date). At most one active session exists per (employee, holiday) at a
// time; sessions are never deleted in normal flow.
type TimeClockSession struct {
	ID         string
	EmployeeID engine.EmployeeID
	HolidayID  engine.HolidayID
	Date       time.Time // calendar date of the start
	Start      time.Time
	End        *time.Time // nil while active
	Status     SessionStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// =============================================================================
// OVERTIME RECORD - The ledger-charging unit
// =============================================================================

type RecordSource string

const (
	SourceDirect     RecordSource = "direct"     // self-service clock-in/out
	SourceCorrection RecordSource = "correction" // admin-approved time request
	SourceHourBank   RecordSource = "hour_bank"  // approved external credit
)

type RecordStatus string

const (
	RecordApproved      RecordStatus = "approved"
	RecordPendingAdmin  RecordStatus = "pending_admin"
	RecordRejectedAdmin RecordStatus = "rejected_admin"
)

// OvertimeRecord charges hours against a holiday's budget. Hours is a
// non-negative multiple of 0.5; only approved records count toward the
// budget's used total.
type OvertimeRecord struct {
	ID          string
	EmployeeID  engine.EmployeeID
	HolidayID   engine.HolidayID
	HolidayName string
	Date        time.Time
	Source      RecordSource
	Label       string // display only, never parsed
	Hours       engine.Hours
	Start       time.Time
	End         time.Time
	Status      RecordStatus
	ProofRef    string // cleared on any terminal decision
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// recordLabel builds the display label for a worked period. The label is
// derived from the typed fields, never the other way around.
func recordLabel(start, end time.Time, hours engine.Hours) string {
	return fmt.Sprintf("%s - %s (%sh)",
		start.Format("15:04"), end.Format("15:04"), hours)
}

// =============================================================================
// HOUR-BANK CLAIM
// =============================================================================

type Recommendation string

const (
	RecommendApprove Recommendation = "approve"
	RecommendReject  Recommendation = "reject"
)

type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "pending"
	ClaimApproved ClaimStatus = "approved"
	ClaimRejected ClaimStatus = "rejected"
)

// HourBankClaim is an employee's assertion of an externally-issued hour-bank
// credit, backed by a proof screenshot. The automated verdict and the final
// authoritative status are separate fields: Recommendation is advisory,
// Status is what the admin (or the fail-closed identity check) decided.
type HourBankClaim struct {
	ID             string
	EmployeeID     engine.EmployeeID
	HolidayID      engine.HolidayID
	DeclaredHours  engine.Hours
	DetectedHours  engine.Hours
	Confidence     int
	Recommendation Recommendation
	Reason         string
	ProofRef       string // cleared on any terminal decision
	RecordID       string // overtime record created for this claim, if any
	Status         ClaimStatus
	CreatedAt      time.Time
	DecidedAt      *time.Time
}

// =============================================================================
// TIME REQUEST - Manual correction for out-of-window events
// =============================================================================

type RequestType string

const (
	RequestMissingEntry RequestType = "missing_entry"
	RequestMissingExit  RequestType = "missing_exit"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// TimeRequest captures an employee-asserted correction for a clock event the
// tolerance gate rejected. Every correction is reviewed by an administrator;
// there is no automatic approval.
type TimeRequest struct {
	ID            string
	EmployeeID    engine.EmployeeID
	HolidayID     engine.HolidayID
	Type          RequestType
	RequestedTime time.Time
	Reason        string
	Status        RequestStatus
	AdminNotes    string
	CreatedAt     time.Time
	DecidedAt     *time.Time
}
