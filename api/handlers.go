/*
handlers.go - HTTP API handlers for the overtime engine

PURPOSE:
  Exposes the overtime engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Employees:
    GET    /api/employees                    List all employees
    POST   /api/employees                    Create employee
    GET    /api/employees/{id}               Get employee details

  Time clock:
    POST   /api/employees/{id}/holidays/{hid}/clock-in     Start session
    POST   /api/employees/{id}/holidays/{hid}/clock-out    Finish session
    GET    /api/employees/{id}/holidays/{hid}/end-options  End-option menu
    GET    /api/employees/{id}/holidays/{hid}/budget       Budget stats

  Holidays:
    GET    /api/holidays                     List definitions
    POST   /api/holidays                     Admin create
    PATCH  /api/holidays/{id}/active         Toggle active
    DELETE /api/holidays/{id}                Delete

  Corrections / claims / records:
    POST   /api/requests                     Correction request
    GET    /api/requests/pending             Admin queue
    POST   /api/requests/{id}/approve        Admin approve
    POST   /api/requests/{id}/reject         Admin reject
    POST   /api/claims                       Submit hour-bank claim
    GET    /api/claims/pending               Admin queue
    POST   /api/claims/{id}/confirm          Admin confirm
    GET    /api/records/pending              Admin queue
    POST   /api/records/{id}/decision        Admin decide record

ERROR HANDLING:
  Domain errors map to HTTP status via writeDomainError:
  - 400: Validation errors, unknown shift
  - 404: Not found
  - 409: Conflicts (already active, decision final, budget, inactive,
         deadline passed)
  - 422: Tolerance-window rejections (the client routes the employee to
         the correction-request flow)
  - 500: Everything else

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/warp/overtime-engine/engine"
	"github.com/warp/overtime-engine/tracker"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store         tracker.Store
	Ledger        *tracker.BudgetLedger
	Sessions      *tracker.Sessions
	Corrections   *tracker.Corrections
	Compensations *tracker.Compensations
	Reminders     *ReminderScheduler
	Clock         engine.Clock
}

// NewHandler creates a new handler over the wired services.
func NewHandler(store tracker.Store, ledger *tracker.BudgetLedger, sessions *tracker.Sessions,
	corrections *tracker.Corrections, compensations *tracker.Compensations,
	reminders *ReminderScheduler, clock engine.Clock) *Handler {
	return &Handler{
		Store:         store,
		Ledger:        ledger,
		Sessions:      sessions,
		Corrections:   corrections,
		Compensations: compensations,
		Reminders:     reminders,
		Clock:         clock,
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))

	employee, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if employee == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*employee))
}

// CreateEmployee creates a new employee with a fixed shift profile.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	employee := tracker.Employee{
		ID:        engine.EmployeeID(req.ID),
		Name:      req.Name,
		Shift:     engine.ShiftProfile(req.Shift),
		CreatedAt: h.Clock.Now(),
	}
	if err := h.Store.SaveEmployee(r.Context(), employee); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(employee))
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns all holiday definitions.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Store.ListHolidays(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}

	dtos := make([]HolidayDTO, len(holidays))
	for i, hd := range holidays {
		dtos[i] = toHolidayDTO(hd)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday defines a new holiday (admin).
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	date, _ := time.Parse("2006-01-02", req.Date)
	deadline, _ := time.Parse("2006-01-02", req.Deadline)
	holiday := tracker.HolidayDefinition{
		ID:        engine.HolidayID(req.ID),
		Name:      req.Name,
		Date:      date,
		Active:    true,
		Deadline:  deadline.Add(24*time.Hour - time.Minute), // end of day
		MaxHours:  engine.NewHours(req.MaxHours),
		CreatedAt: h.Clock.Now(),
	}
	if err := h.Store.SaveHoliday(r.Context(), holiday); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(holiday))
}

// SetHolidayActive toggles whether new work can be declared.
func (h *Handler) SetHolidayActive(w http.ResponseWriter, r *http.Request) {
	id := engine.HolidayID(chi.URLParam(r, "id"))

	var req SetHolidayActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	holiday, err := h.Store.GetHoliday(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get holiday", err)
		return
	}
	if holiday == nil {
		writeError(w, http.StatusNotFound, "Holiday not found", nil)
		return
	}

	holiday.Active = req.Active
	if err := h.Store.SaveHoliday(r.Context(), *holiday); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update holiday", err)
		return
	}
	writeJSON(w, http.StatusOK, toHolidayDTO(*holiday))
}

// DeleteHoliday removes a holiday definition.
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	id := engine.HolidayID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteHoliday(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete holiday", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// TIME-CLOCK HANDLERS
// =============================================================================

func pairParams(r *http.Request) (engine.EmployeeID, engine.HolidayID) {
	return engine.EmployeeID(chi.URLParam(r, "id")), engine.HolidayID(chi.URLParam(r, "hid"))
}

// ClockIn starts (or resumes) a session for the employee and holiday.
func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	employeeID, holidayID := pairParams(r)

	session, resumed, err := h.Sessions.StartEntry(r.Context(), employeeID, holidayID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	status := http.StatusCreated
	if resumed {
		status = http.StatusOK
	}
	writeJSON(w, status, toSessionDTO(*session, resumed))
}

// ClockOut finishes the active session, at an explicit end time or "now".
func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	employeeID, holidayID := pairParams(r)

	var req ClockOutRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "Validation failed", err)
			return
		}
	}

	var end *time.Time
	if req.End != "" {
		t, _ := time.Parse(time.RFC3339, req.End)
		end = &t
	}

	session, record, err := h.Sessions.Finish(r.Context(), employeeID, holidayID, end)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := ClockOutResponse{Session: toSessionDTO(*session, false)}
	if record != nil {
		dto := toRecordDTO(*record)
		resp.Record = &dto
	}
	writeJSON(w, http.StatusOK, resp)
}

// EndOptions returns the legal clock-out choices for the active session.
func (h *Handler) EndOptions(w http.ResponseWriter, r *http.Request) {
	employeeID, holidayID := pairParams(r)

	options, err := h.Sessions.EndOptions(r.Context(), employeeID, holidayID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEndOptionDTOs(options))
}

// GetBudget returns the derived budget view for the pair.
func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	employeeID, holidayID := pairParams(r)

	stats, err := h.Ledger.Stats(r.Context(), employeeID, holidayID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetDTO(stats))
}

// =============================================================================
// CORRECTION REQUEST HANDLERS
// =============================================================================

// SubmitRequest files a correction request.
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	requestedTime, _ := time.Parse(time.RFC3339, req.RequestedTime)
	request, err := h.Corrections.Request(r.Context(),
		engine.EmployeeID(req.EmployeeID), engine.HolidayID(req.HolidayID),
		tracker.RequestType(req.Type), requestedTime, req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestDTO(*request))
}

// ListPendingRequests returns the admin review queue.
func (h *Handler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Store.ListPendingRequests(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}

	dtos := make([]TimeRequestDTO, len(requests))
	for i, req := range requests {
		dtos[i] = toRequestDTO(req)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ApproveRequest executes the admin's approval.
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	notes, err := decodeNotes(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	request, record, err := h.Corrections.Approve(r.Context(), id, notes)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := struct {
		Request TimeRequestDTO `json:"request"`
		Record  *RecordDTO     `json:"record,omitempty"`
	}{Request: toRequestDTO(*request)}
	if record != nil {
		dto := toRecordDTO(*record)
		resp.Record = &dto
	}
	writeJSON(w, http.StatusOK, resp)
}

// RejectRequest records the admin's rejection.
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	notes, err := decodeNotes(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	request, err := h.Corrections.Reject(r.Context(), id, notes)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(*request))
}

func decodeNotes(r *http.Request) (string, error) {
	var req DecisionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", err
		}
	}
	return req.Notes, nil
}

// =============================================================================
// HOUR-BANK CLAIM HANDLERS
// =============================================================================

// SubmitClaim files an hour-bank claim with its proof screenshot.
func (h *Handler) SubmitClaim(w http.ResponseWriter, r *http.Request) {
	var req SubmitClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	proof, err := base64.StdEncoding.DecodeString(req.ProofBase64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid proof encoding", err)
		return
	}

	claim, err := h.Compensations.SubmitClaim(r.Context(),
		engine.EmployeeID(req.EmployeeID), engine.HolidayID(req.HolidayID),
		engine.NewHours(req.DeclaredHours), proof)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toClaimDTO(*claim))
}

// ListPendingClaims returns the admin review queue.
func (h *Handler) ListPendingClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := h.Store.ListPendingClaims(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list claims", err)
		return
	}

	dtos := make([]ClaimDTO, len(claims))
	for i, c := range claims {
		dtos[i] = toClaimDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ConfirmClaim applies the admin's terminal verdict on a claim.
func (h *Handler) ConfirmClaim(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ConfirmClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	claim, record, err := h.Compensations.Confirm(r.Context(), id, req.Approve)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := struct {
		Claim  ClaimDTO   `json:"claim"`
		Record *RecordDTO `json:"record,omitempty"`
	}{Claim: toClaimDTO(*claim)}
	if record != nil {
		dto := toRecordDTO(*record)
		resp.Record = &dto
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// RECORD DECISION HANDLERS
// =============================================================================

// ListPendingRecords returns records awaiting an admin decision.
func (h *Handler) ListPendingRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListRecordsByStatus(r.Context(), tracker.RecordPendingAdmin)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list records", err)
		return
	}

	dtos := make([]RecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = toRecordDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// DecideRecord applies the admin's terminal verdict on a pending record.
func (h *Handler) DecideRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req RecordDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	record, err := h.Ledger.Decide(r.Context(), id, req.Approve)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(*record))
}

// =============================================================================
// REMINDER HANDLERS
// =============================================================================

// SetReminder schedules a one-shot clock-out reminder for the employee.
func (h *Handler) SetReminder(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))

	var req SetReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	at, _ := time.Parse(time.RFC3339, req.At)
	if err := h.Reminders.Set(id, at); err != nil {
		writeDomainError(w, err)
		return
	}

	log.Debug().Str("employee", string(id)).Time("at", at).Msg("reminder scheduled")
	writeJSON(w, http.StatusOK, map[string]string{
		"employee_id": string(id),
		"at":          at.Format(time.RFC3339),
		"request_id":  uuid.NewString(),
	})
}

// CancelReminder drops any scheduled reminder for the employee.
func (h *Handler) CancelReminder(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))
	h.Reminders.Cancel(id)
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps a domain error to its HTTP status.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrValidation), errors.Is(err, engine.ErrInvalidShift):
		writeError(w, http.StatusBadRequest, "Validation failed", err)
	case errors.Is(err, engine.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, engine.ErrToleranceViolation):
		writeError(w, http.StatusUnprocessableEntity, "Outside tolerance window", err)
	case errors.Is(err, engine.ErrAlreadyActive),
		errors.Is(err, engine.ErrNoActiveSession),
		errors.Is(err, engine.ErrDecisionFinal),
		errors.Is(err, engine.ErrBudgetExceeded),
		errors.Is(err, engine.ErrHolidayInactive),
		errors.Is(err, engine.ErrDeadlinePassed):
		writeError(w, http.StatusConflict, "Conflict", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
