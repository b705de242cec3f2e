/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry go-playground/validator struct tags; handlers call
  validate.Struct before touching domain logic. Domain rules (half-step
  hours, tolerance windows, budgets) are NOT duplicated here - the
  services own them.

SEE ALSO:
  - handlers.go: Uses these types
  - tracker/types.go: The domain model these project
*/
package api

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/warp/overtime-engine/engine"
	"github.com/warp/overtime-engine/tracker"
)

var validate = validator.New()

// =============================================================================
// EMPLOYEES AND HOLIDAYS
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Shift     string `json:"shift"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateEmployeeRequest is the request to create an employee. The shift
// profile is fixed at creation.
type CreateEmployeeRequest struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name" validate:"required"`
	Shift string `json:"shift" validate:"required,oneof=8-17 9-18"`
}

// HolidayDTO represents a holiday definition in API responses.
type HolidayDTO struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Date      string  `json:"date"`
	Active    bool    `json:"active"`
	Deadline  string  `json:"deadline"`
	MaxHours  float64 `json:"max_hours"`
	CreatedAt string  `json:"created_at,omitempty"`
}

// CreateHolidayRequest is the admin request to define a holiday.
type CreateHolidayRequest struct {
	ID       string  `json:"id" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	Date     string  `json:"date" validate:"required,datetime=2006-01-02"`
	Deadline string  `json:"deadline" validate:"required,datetime=2006-01-02"`
	MaxHours float64 `json:"max_hours" validate:"required,gt=0"`
}

// SetHolidayActiveRequest toggles whether a holiday accepts new work.
type SetHolidayActiveRequest struct {
	Active bool `json:"active"`
}

// =============================================================================
// SESSIONS AND BUDGET
// =============================================================================

// SessionDTO represents a time-clock session.
type SessionDTO struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employee_id"`
	HolidayID  string  `json:"holiday_id"`
	Date       string  `json:"date"`
	Start      string  `json:"start"`
	End        *string `json:"end,omitempty"`
	Status     string  `json:"status"`
	Resumed    bool    `json:"resumed,omitempty"`
}

// ClockOutRequest optionally carries an explicit end time (one of the
// offered end options); empty means "now".
type ClockOutRequest struct {
	End string `json:"end,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// BudgetDTO is the derived budget view for one (employee, holiday) pair.
type BudgetDTO struct {
	Used        float64 `json:"used"`
	Max         float64 `json:"max"`
	Compensated float64 `json:"compensated"`
	Remaining   float64 `json:"remaining"`
}

// EndOptionDTO is one legal clock-out choice.
type EndOptionDTO struct {
	End   string  `json:"end"`
	Total float64 `json:"total_hours"`
}

// RecordDTO represents an overtime record.
type RecordDTO struct {
	ID          string  `json:"id"`
	EmployeeID  string  `json:"employee_id"`
	HolidayID   string  `json:"holiday_id"`
	HolidayName string  `json:"holiday_name"`
	Date        string  `json:"date"`
	Source      string  `json:"source"`
	Label       string  `json:"label"`
	Hours       float64 `json:"hours"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

// ClockOutResponse bundles the completed session with the record it
// produced, if the period was chargeable.
type ClockOutResponse struct {
	Session SessionDTO `json:"session"`
	Record  *RecordDTO `json:"record,omitempty"`
}

// =============================================================================
// CORRECTION REQUESTS
// =============================================================================

// SubmitRequestRequest is an employee's correction assertion.
type SubmitRequestRequest struct {
	EmployeeID    string `json:"employee_id" validate:"required"`
	HolidayID     string `json:"holiday_id" validate:"required"`
	Type          string `json:"type" validate:"required,oneof=missing_entry missing_exit"`
	RequestedTime string `json:"requested_time" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Reason        string `json:"reason" validate:"required"`
}

// TimeRequestDTO represents a correction request.
type TimeRequestDTO struct {
	ID            string  `json:"id"`
	EmployeeID    string  `json:"employee_id"`
	HolidayID     string  `json:"holiday_id"`
	Type          string  `json:"type"`
	RequestedTime string  `json:"requested_time"`
	Reason        string  `json:"reason"`
	Status        string  `json:"status"`
	AdminNotes    string  `json:"admin_notes,omitempty"`
	CreatedAt     string  `json:"created_at,omitempty"`
	DecidedAt     *string `json:"decided_at,omitempty"`
}

// DecisionRequest carries the administrator's notes on a decision.
type DecisionRequest struct {
	Notes string `json:"notes,omitempty"`
}

// RecordDecisionRequest is the admin's terminal verdict on a record.
type RecordDecisionRequest struct {
	Approve bool `json:"approve"`
}

// =============================================================================
// HOUR-BANK CLAIMS
// =============================================================================

// SubmitClaimRequest is an employee's hour-bank claim. The proof
// screenshot travels base64-encoded in the JSON body.
type SubmitClaimRequest struct {
	EmployeeID    string  `json:"employee_id" validate:"required"`
	HolidayID     string  `json:"holiday_id" validate:"required"`
	DeclaredHours float64 `json:"declared_hours" validate:"required,gt=0"`
	ProofBase64   string  `json:"proof_base64" validate:"required"`
}

// ClaimDTO represents an hour-bank claim. The proof itself is never
// echoed back.
type ClaimDTO struct {
	ID             string  `json:"id"`
	EmployeeID     string  `json:"employee_id"`
	HolidayID      string  `json:"holiday_id"`
	DeclaredHours  float64 `json:"declared_hours"`
	DetectedHours  float64 `json:"detected_hours"`
	Confidence     int     `json:"confidence"`
	Recommendation string  `json:"recommendation"`
	Reason         string  `json:"reason,omitempty"`
	RecordID       string  `json:"record_id,omitempty"`
	Status         string  `json:"status"`
	CreatedAt      string  `json:"created_at,omitempty"`
	DecidedAt      *string `json:"decided_at,omitempty"`
}

// ConfirmClaimRequest is the admin's terminal verdict on a claim.
type ConfirmClaimRequest struct {
	Approve bool `json:"approve"`
}

// =============================================================================
// REMINDERS
// =============================================================================

// SetReminderRequest schedules a one-shot clock-out reminder.
type SetReminderRequest struct {
	At string `json:"at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toEmployeeDTO(e tracker.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:        string(e.ID),
		Name:      e.Name,
		Shift:     string(e.Shift),
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
}

func toHolidayDTO(h tracker.HolidayDefinition) HolidayDTO {
	return HolidayDTO{
		ID:        string(h.ID),
		Name:      h.Name,
		Date:      h.Date.Format("2006-01-02"),
		Active:    h.Active,
		Deadline:  h.Deadline.Format("2006-01-02"),
		MaxHours:  h.MaxHours.Float64(),
		CreatedAt: h.CreatedAt.Format(time.RFC3339),
	}
}

func toSessionDTO(s tracker.TimeClockSession, resumed bool) SessionDTO {
	dto := SessionDTO{
		ID:         s.ID,
		EmployeeID: string(s.EmployeeID),
		HolidayID:  string(s.HolidayID),
		Date:       s.Date.Format("2006-01-02"),
		Start:      s.Start.Format(time.RFC3339),
		Status:     string(s.Status),
		Resumed:    resumed,
	}
	if s.End != nil {
		end := s.End.Format(time.RFC3339)
		dto.End = &end
	}
	return dto
}

func toRecordDTO(r tracker.OvertimeRecord) RecordDTO {
	return RecordDTO{
		ID:          r.ID,
		EmployeeID:  string(r.EmployeeID),
		HolidayID:   string(r.HolidayID),
		HolidayName: r.HolidayName,
		Date:        r.Date.Format("2006-01-02"),
		Source:      string(r.Source),
		Label:       r.Label,
		Hours:       r.Hours.Float64(),
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
}

func toRequestDTO(r tracker.TimeRequest) TimeRequestDTO {
	dto := TimeRequestDTO{
		ID:            r.ID,
		EmployeeID:    string(r.EmployeeID),
		HolidayID:     string(r.HolidayID),
		Type:          string(r.Type),
		RequestedTime: r.RequestedTime.Format(time.RFC3339),
		Reason:        r.Reason,
		Status:        string(r.Status),
		AdminNotes:    r.AdminNotes,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
	}
	if r.DecidedAt != nil {
		t := r.DecidedAt.Format(time.RFC3339)
		dto.DecidedAt = &t
	}
	return dto
}

func toClaimDTO(c tracker.HourBankClaim) ClaimDTO {
	dto := ClaimDTO{
		ID:             c.ID,
		EmployeeID:     string(c.EmployeeID),
		HolidayID:      string(c.HolidayID),
		DeclaredHours:  c.DeclaredHours.Float64(),
		DetectedHours:  c.DetectedHours.Float64(),
		Confidence:     c.Confidence,
		Recommendation: string(c.Recommendation),
		Reason:         c.Reason,
		RecordID:       c.RecordID,
		Status:         string(c.Status),
		CreatedAt:      c.CreatedAt.Format(time.RFC3339),
	}
	if c.DecidedAt != nil {
		t := c.DecidedAt.Format(time.RFC3339)
		dto.DecidedAt = &t
	}
	return dto
}

func toBudgetDTO(s tracker.BudgetStats) BudgetDTO {
	return BudgetDTO{
		Used:        s.Used.Float64(),
		Max:         s.Max.Float64(),
		Compensated: s.Compensated.Float64(),
		Remaining:   s.Remaining.Float64(),
	}
}

func toEndOptionDTOs(options []engine.EndOption) []EndOptionDTO {
	dtos := make([]EndOptionDTO, len(options))
	for i, opt := range options {
		dtos[i] = EndOptionDTO{End: opt.End.String(), Total: opt.Total.Float64()}
	}
	return dtos
}
