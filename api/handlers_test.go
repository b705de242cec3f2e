package api_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/overtime-engine/api"
	"github.com/warp/overtime-engine/engine"
	"github.com/warp/overtime-engine/store/memory"
	"github.com/warp/overtime-engine/tracker"
)

func day(h, m int) time.Time {
	return time.Date(2025, 6, 19, h, m, 0, 0, time.UTC)
}

type testClock struct {
	at time.Time
}

func (c *testClock) Now() time.Time  { return c.at }
func (c *testClock) set(t time.Time) { c.at = t }

type stubDetector struct {
	result tracker.DetectionResult
	err    error
}

func (d *stubDetector) Analyze(_ context.Context, _ []byte) (tracker.DetectionResult, error) {
	if d.err != nil {
		return tracker.DetectionResult{}, d.err
	}
	return d.result, nil
}

type testAPI struct {
	router   http.Handler
	store    *memory.Store
	clock    *testClock
	detector *stubDetector
}

// newTestAPI wires the full stack over the in-memory store and seeds one
// late-shift employee and one active holiday with a 4h budget.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store := memory.New()
	clock := &testClock{at: day(7, 0)}
	detector := &stubDetector{}
	locks := tracker.NewPairLock()
	ledger := tracker.NewBudgetLedger(store, locks, clock)
	sessions := tracker.NewSessions(store, ledger, locks, clock)
	corrections := tracker.NewCorrections(store, ledger, locks, clock)
	compensations := tracker.NewCompensations(store, ledger, detector, locks, clock)
	reminders := api.NewReminderScheduler(api.LogNotifier{}, clock)
	t.Cleanup(reminders.Stop)

	handler := api.NewHandler(store, ledger, sessions, corrections, compensations, reminders, clock)

	ctx := context.Background()
	require.NoError(t, store.SaveEmployee(ctx, tracker.Employee{
		ID: "emp-1", Name: "Jane Porter", Shift: engine.ShiftLate, CreatedAt: day(0, 0),
	}))
	require.NoError(t, store.SaveHoliday(ctx, tracker.HolidayDefinition{
		ID: "hol-1", Name: "Midsummer", Date: day(0, 0), Active: true,
		Deadline: time.Date(2025, 7, 15, 23, 59, 0, 0, time.UTC),
		MaxHours: engine.NewHours(4), CreatedAt: day(0, 0),
	}))

	return &testAPI{router: api.NewRouter(handler), store: store, clock: clock, detector: detector}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

// =============================================================================
// EMPLOYEES AND HOLIDAYS
// =============================================================================

func TestCreateAndGetEmployee(t *testing.T) {
	a := newTestAPI(t)

	// WHEN an employee is created with a valid shift
	rec := a.do(t, "POST", "/api/employees", map[string]any{
		"id": "emp-2", "name": "Tom Chester", "shift": "8-17",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// THEN it can be fetched back
	rec = a.do(t, "GET", "/api/employees/emp-2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dto := decode[api.EmployeeDTO](t, rec)
	assert.Equal(t, "Tom Chester", dto.Name)
	assert.Equal(t, "8-17", dto.Shift)
}

func TestCreateEmployeeRejectsUnknownShift(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(t, "POST", "/api/employees", map[string]any{
		"id": "emp-2", "name": "Tom Chester", "shift": "7-16",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMissingEmployee(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(t, "GET", "/api/employees/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHolidayLifecycle(t *testing.T) {
	a := newTestAPI(t)

	// GIVEN a newly created holiday
	rec := a.do(t, "POST", "/api/holidays", map[string]any{
		"id": "hol-2", "name": "Assumption Day", "date": "2025-08-15",
		"deadline": "2025-09-15", "max_hours": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[api.HolidayDTO](t, rec)
	assert.True(t, created.Active)

	// WHEN it is deactivated
	rec = a.do(t, "PATCH", "/api/holidays/hol-2/active", map[string]any{"active": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[api.HolidayDTO](t, rec).Active)

	// THEN deleting it removes it from the listing
	rec = a.do(t, "DELETE", "/api/holidays/hol-2", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = a.do(t, "GET", "/api/holidays", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]api.HolidayDTO](t, rec), 1)
}

// =============================================================================
// TIME CLOCK
// =============================================================================

func TestClockInAndResume(t *testing.T) {
	a := newTestAPI(t)

	// WHEN the employee clocks in at 07:00
	rec := a.do(t, "POST", "/api/employees/emp-1/holidays/hol-1/clock-in", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[api.SessionDTO](t, rec)
	assert.Equal(t, "active", first.Status)

	// AND clocks in again
	rec = a.do(t, "POST", "/api/employees/emp-1/holidays/hol-1/clock-in", nil)

	// THEN the existing session is resumed with 200, not duplicated
	require.Equal(t, http.StatusOK, rec.Code)
	second := decode[api.SessionDTO](t, rec)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.Resumed)
}

func TestClockInOutsideToleranceIs422(t *testing.T) {
	a := newTestAPI(t)
	a.clock.set(day(5, 59))
	rec := a.do(t, "POST", "/api/employees/emp-1/holidays/hol-1/clock-in", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestClockOutPostsRecordAndBudget(t *testing.T) {
	a := newTestAPI(t)

	// GIVEN a session from 07:00
	rec := a.do(t, "POST", "/api/employees/emp-1/holidays/hol-1/clock-in", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	// WHEN the employee clocks out at 19:00
	a.clock.set(day(19, 0))
	rec = a.do(t, "POST", "/api/employees/emp-1/holidays/hol-1/clock-out", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[api.ClockOutResponse](t, rec)

	// THEN the session completes with an approved 2.5h record
	assert.Equal(t, "completed", resp.Session.Status)
	require.NotNil(t, resp.Record)
	assert.Equal(t, 2.5, resp.Record.Hours)
	assert.Equal(t, "approved", resp.Record.Status)

	// AND the budget endpoint shows the charge
	rec = a.do(t, "GET", "/api/employees/emp-1/holidays/hol-1/budget", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	budget := decode[api.BudgetDTO](t, rec)
	assert.Equal(t, 2.5, budget.Used)
	assert.Equal(t, 1.5, budget.Remaining)
}

func TestEndOptionsEndpoint(t *testing.T) {
	a := newTestAPI(t)

	// GIVEN a session started at 08:00 (1h early credit)
	a.clock.set(day(8, 0))
	rec := a.do(t, "POST", "/api/employees/emp-1/holidays/hol-1/clock-in", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	// WHEN end options are requested
	rec = a.do(t, "GET", "/api/employees/emp-1/holidays/hol-1/end-options", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	options := decode[[]api.EndOptionDTO](t, rec)

	// THEN the menu offers 1h, 1.5h, and 2h totals
	require.Len(t, options, 3)
	assert.Equal(t, "18:30", options[0].End)
	assert.Equal(t, 1.0, options[0].Total)
	assert.Equal(t, "19:30", options[2].End)
	assert.Equal(t, 2.0, options[2].Total)
}

func TestClockOutOverBudgetIs409(t *testing.T) {
	a := newTestAPI(t)
	ctx := context.Background()

	// GIVEN only 2h remain
	require.NoError(t, a.store.SaveRecord(ctx, tracker.OvertimeRecord{
		ID: "prior", EmployeeID: "emp-1", HolidayID: "hol-1", HolidayName: "Midsummer",
		Date: day(0, 0), Source: tracker.SourceDirect, Label: "x",
		Hours: engine.NewHours(2), Status: tracker.RecordApproved,
	}))
	rec := a.do(t, "POST", "/api/employees/emp-1/holidays/hol-1/clock-in", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	// WHEN a 2.5h clock-out is attempted
	a.clock.set(day(19, 0))
	rec = a.do(t, "POST", "/api/employees/emp-1/holidays/hol-1/clock-out", nil)

	// THEN the conflict carries the budget detail
	assert.Equal(t, http.StatusConflict, rec.Code)
	errResp := decode[api.ErrorResponse](t, rec)
	assert.Contains(t, errResp.Details, "budget")
}

// =============================================================================
// CORRECTIONS
// =============================================================================

func TestCorrectionRequestFlow(t *testing.T) {
	a := newTestAPI(t)

	// GIVEN a filed missing-entry request
	rec := a.do(t, "POST", "/api/requests", map[string]any{
		"employee_id": "emp-1", "holiday_id": "hol-1", "type": "missing_entry",
		"requested_time": day(5, 45).Format(time.RFC3339), "reason": "badge reader down",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	request := decode[api.TimeRequestDTO](t, rec)

	// AND it shows in the pending queue
	rec = a.do(t, "GET", "/api/requests/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]api.TimeRequestDTO](t, rec), 1)

	// WHEN the admin approves it
	rec = a.do(t, "POST", "/api/requests/"+request.ID+"/approve", map[string]any{"notes": "verified"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN a second approval is a conflict
	rec = a.do(t, "POST", "/api/requests/"+request.ID+"/approve", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDecisionWithMalformedNotesIs400(t *testing.T) {
	a := newTestAPI(t)

	// GIVEN a pending correction request
	rec := a.do(t, "POST", "/api/requests", map[string]any{
		"employee_id": "emp-1", "holiday_id": "hol-1", "type": "missing_entry",
		"requested_time": day(5, 45).Format(time.RFC3339), "reason": "badge reader down",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	request := decode[api.TimeRequestDTO](t, rec)

	// WHEN the approval carries a malformed notes body
	raw := httptest.NewRequest("POST", "/api/requests/"+request.ID+"/approve",
		strings.NewReader(`{"notes": `))
	raw.Header.Set("Content-Type", "application/json")
	got := httptest.NewRecorder()
	a.router.ServeHTTP(got, raw)

	// THEN it is rejected instead of silently approving with empty notes
	assert.Equal(t, http.StatusBadRequest, got.Code)

	// AND the request is still pending and decidable
	rec = a.do(t, "POST", "/api/requests/"+request.ID+"/reject", map[string]any{"notes": "resubmit"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

// =============================================================================
// HOUR-BANK CLAIMS
// =============================================================================

func TestClaimSubmitAndConfirmFlow(t *testing.T) {
	a := newTestAPI(t)
	a.detector.result = tracker.DetectionResult{
		Name: "Jane Porter", Hours: engine.NewHours(2.5), Confidence: 90,
	}

	// GIVEN a submitted 2.5h claim with matching detection
	rec := a.do(t, "POST", "/api/claims", map[string]any{
		"employee_id": "emp-1", "holiday_id": "hol-1", "declared_hours": 2.5,
		"proof_base64": base64.StdEncoding.EncodeToString([]byte("fake-png")),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	claim := decode[api.ClaimDTO](t, rec)
	assert.Equal(t, "approve", claim.Recommendation)
	assert.Equal(t, "pending", claim.Status)
	require.NotEmpty(t, claim.RecordID)

	// WHEN the admin confirms it
	rec = a.do(t, "POST", "/api/claims/"+claim.ID+"/confirm", map[string]any{"approve": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN the budget shows 2.5h used, all of it compensated
	rec = a.do(t, "GET", "/api/employees/emp-1/holidays/hol-1/budget", nil)
	budget := decode[api.BudgetDTO](t, rec)
	assert.Equal(t, 2.5, budget.Used)
	assert.Equal(t, 2.5, budget.Compensated)

	// AND re-confirming is a conflict
	rec = a.do(t, "POST", "/api/claims/"+claim.ID+"/confirm", map[string]any{"approve": false})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestClaimWithInvalidProofEncoding(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(t, "POST", "/api/claims", map[string]any{
		"employee_id": "emp-1", "holiday_id": "hol-1", "declared_hours": 2.5,
		"proof_base64": "not-base64!!!",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// RECORD DECISIONS
// =============================================================================

func TestRecordDecisionEndpoint(t *testing.T) {
	a := newTestAPI(t)
	ctx := context.Background()
	require.NoError(t, a.store.SaveRecord(ctx, tracker.OvertimeRecord{
		ID: "r1", EmployeeID: "emp-1", HolidayID: "hol-1", HolidayName: "Midsummer",
		Date: day(0, 0), Source: tracker.SourceCorrection, Label: "x",
		Hours: engine.NewHours(1.5), Status: tracker.RecordPendingAdmin,
	}))

	// GIVEN the pending queue holds the record
	rec := a.do(t, "GET", "/api/records/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]api.RecordDTO](t, rec), 1)

	// WHEN the admin approves it
	rec = a.do(t, "POST", "/api/records/r1/decision", map[string]any{"approve": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "approved", decode[api.RecordDTO](t, rec).Status)

	// THEN the queue drains and a repeat decision conflicts
	rec = a.do(t, "GET", "/api/records/pending", nil)
	assert.Len(t, decode[[]api.RecordDTO](t, rec), 0)
	rec = a.do(t, "POST", "/api/records/r1/decision", map[string]any{"approve": false})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// =============================================================================
// REMINDERS
// =============================================================================

func TestReminderEndpoints(t *testing.T) {
	a := newTestAPI(t)

	// WHEN a future reminder is set
	rec := a.do(t, "POST", "/api/employees/emp-1/reminder", map[string]any{
		"at": day(18, 30).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// AND cancelled
	rec = a.do(t, "DELETE", "/api/employees/emp-1/reminder", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// THEN a reminder in the past is rejected
	rec = a.do(t, "POST", "/api/employees/emp-1/reminder", map[string]any{
		"at": day(6, 0).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
