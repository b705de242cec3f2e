/*
Package sqlite provides the SQLite-backed implementation of tracker.Store.

PURPOSE:
  Persists employees, holiday definitions, time-clock sessions, overtime
  records, correction requests, and hour-bank claims. The schema mirrors
  the tracker types one table per entity; business sequencing is NOT done
  here - the tracker's per-pair locks own check-then-write ordering, the
  store only guarantees durable single-statement upserts.

KEY TABLES:
  employees:          Identity + shift profile
  holidays:           Admin-managed holiday definitions with budget caps
  sessions:           Time-clock sessions (one active per employee/holiday)
  overtime_records:   The ledger-charging units
  time_requests:      Manual correction workflow
  hour_bank_claims:   External-credit claims with detection results

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - tracker/store.go: Interface definition and contract
  - store/memory:     In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/engine"
	"github.com/warp/overtime-engine/tracker"
)

// Store implements tracker.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ tracker.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		shift TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		date TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		deadline TEXT NOT NULL,
		max_hours TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		holiday_id TEXT NOT NULL,
		date TEXT NOT NULL,
		start_at TEXT NOT NULL,
		end_at TEXT,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_pair
		ON sessions(employee_id, holiday_id);

	-- CRITICAL: at most one active session per (employee, holiday)
	CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_one_active
		ON sessions(employee_id, holiday_id)
		WHERE status = 'active';

	CREATE TABLE IF NOT EXISTS overtime_records (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		holiday_id TEXT NOT NULL,
		holiday_name TEXT NOT NULL,
		date TEXT NOT NULL,
		source TEXT NOT NULL,
		label TEXT NOT NULL,
		hours TEXT NOT NULL,
		start_at TEXT,
		end_at TEXT,
		status TEXT NOT NULL,
		proof_ref TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Hot path: budget recomputation per (employee, holiday)
	CREATE INDEX IF NOT EXISTS idx_records_pair
		ON overtime_records(employee_id, holiday_id);
	CREATE INDEX IF NOT EXISTS idx_records_status
		ON overtime_records(status);

	CREATE TABLE IF NOT EXISTS time_requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		holiday_id TEXT NOT NULL,
		request_type TEXT NOT NULL,
		requested_time TEXT NOT NULL,
		reason TEXT NOT NULL,
		status TEXT NOT NULL,
		admin_notes TEXT,
		created_at TEXT NOT NULL,
		decided_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON time_requests(status);

	CREATE TABLE IF NOT EXISTS hour_bank_claims (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		holiday_id TEXT NOT NULL,
		declared_hours TEXT NOT NULL,
		detected_hours TEXT NOT NULL,
		confidence INTEGER NOT NULL DEFAULT 0,
		recommendation TEXT,
		reason TEXT,
		proof_ref TEXT,
		record_id TEXT,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		decided_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_claims_status
		ON hour_bank_claims(status);
	CREATE INDEX IF NOT EXISTS idx_claims_record
		ON hour_bank_claims(record_id) WHERE record_id != '';
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) SaveEmployee(ctx context.Context, e tracker.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, name, shift, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			shift = excluded.shift
	`
	_, err := s.db.ExecContext(ctx, query,
		string(e.ID), e.Name, string(e.Shift),
		e.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetEmployee(ctx context.Context, id engine.EmployeeID) (*tracker.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var e tracker.Employee
	var empID, shift, createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, shift, created_at FROM employees WHERE id = ?",
		string(id),
	).Scan(&empID, &e.Name, &shift, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	e.ID = engine.EmployeeID(empID)
	e.Shift = engine.ShiftProfile(shift)
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &e, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]tracker.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, shift, created_at FROM employees ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []tracker.Employee
	for rows.Next() {
		var e tracker.Employee
		var empID, shift, createdAt string
		if err := rows.Scan(&empID, &e.Name, &shift, &createdAt); err != nil {
			return nil, err
		}
		e.ID = engine.EmployeeID(empID)
		e.Shift = engine.ShiftProfile(shift)
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (s *Store) SaveHoliday(ctx context.Context, h tracker.HolidayDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO holidays (id, name, date, active, deadline, max_hours, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			date = excluded.date,
			active = excluded.active,
			deadline = excluded.deadline,
			max_hours = excluded.max_hours
	`
	_, err := s.db.ExecContext(ctx, query,
		string(h.ID), h.Name,
		h.Date.UTC().Format(time.RFC3339),
		h.Active,
		h.Deadline.UTC().Format(time.RFC3339),
		h.MaxHours.String(),
		h.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetHoliday(ctx context.Context, id engine.HolidayID) (*tracker.HolidayDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var h tracker.HolidayDefinition
	var holID, date, deadline, maxHours, createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, date, active, deadline, max_hours, created_at FROM holidays WHERE id = ?",
		string(id),
	).Scan(&holID, &h.Name, &date, &h.Active, &deadline, &maxHours, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	h.ID = engine.HolidayID(holID)
	h.Date, _ = time.Parse(time.RFC3339, date)
	h.Deadline, _ = time.Parse(time.RFC3339, deadline)
	h.MaxHours = parseHours(maxHours)
	h.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &h, nil
}

func (s *Store) ListHolidays(ctx context.Context) ([]tracker.HolidayDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, date, active, deadline, max_hours, created_at FROM holidays ORDER BY date ASC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []tracker.HolidayDefinition
	for rows.Next() {
		var h tracker.HolidayDefinition
		var holID, date, deadline, maxHours, createdAt string
		if err := rows.Scan(&holID, &h.Name, &date, &h.Active, &deadline, &maxHours, &createdAt); err != nil {
			return nil, err
		}
		h.ID = engine.HolidayID(holID)
		h.Date, _ = time.Parse(time.RFC3339, date)
		h.Deadline, _ = time.Parse(time.RFC3339, deadline)
		h.MaxHours = parseHours(maxHours)
		h.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

func (s *Store) DeleteHoliday(ctx context.Context, id engine.HolidayID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", string(id))
	return err
}

// =============================================================================
// SESSIONS
// =============================================================================

func (s *Store) SaveSession(ctx context.Context, sess tracker.TimeClockSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO sessions (id, employee_id, holiday_id, date, start_at, end_at, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			end_at = excluded.end_at,
			status = excluded.status,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		sess.ID, string(sess.EmployeeID), string(sess.HolidayID),
		sess.Date.UTC().Format(time.RFC3339),
		sess.Start.UTC().Format(time.RFC3339),
		nullTime(sess.End),
		string(sess.Status),
		sess.CreatedAt.UTC().Format(time.RFC3339),
		sess.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetSession(ctx context.Context, id string) (*tracker.TimeClockSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions, err := s.querySessions(ctx,
		sessionSelect+" WHERE id = ?", id)
	if err != nil || len(sessions) == 0 {
		return nil, err
	}
	return &sessions[0], nil
}

func (s *Store) GetActiveSession(ctx context.Context, employeeID engine.EmployeeID, holidayID engine.HolidayID) (*tracker.TimeClockSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions, err := s.querySessions(ctx,
		sessionSelect+" WHERE employee_id = ? AND holiday_id = ? AND status = 'active'",
		string(employeeID), string(holidayID))
	if err != nil || len(sessions) == 0 {
		return nil, err
	}
	return &sessions[0], nil
}

func (s *Store) ListSessions(ctx context.Context, employeeID engine.EmployeeID, holidayID engine.HolidayID) ([]tracker.TimeClockSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.querySessions(ctx,
		sessionSelect+" WHERE employee_id = ? AND holiday_id = ? ORDER BY start_at ASC",
		string(employeeID), string(holidayID))
}

const sessionSelect = `
	SELECT id, employee_id, holiday_id, date, start_at, end_at, status, created_at, updated_at
	FROM sessions`

func (s *Store) querySessions(ctx context.Context, query string, args ...any) ([]tracker.TimeClockSession, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []tracker.TimeClockSession
	for rows.Next() {
		var sess tracker.TimeClockSession
		var empID, holID, date, start, status, createdAt, updatedAt string
		var end sql.NullString
		if err := rows.Scan(&sess.ID, &empID, &holID, &date, &start, &end, &status, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sess.EmployeeID = engine.EmployeeID(empID)
		sess.HolidayID = engine.HolidayID(holID)
		sess.Date, _ = time.Parse(time.RFC3339, date)
		sess.Start, _ = time.Parse(time.RFC3339, start)
		sess.End = parseNullTime(end)
		sess.Status = tracker.SessionStatus(status)
		sess.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		sess.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// =============================================================================
// OVERTIME RECORDS
// =============================================================================

func (s *Store) SaveRecord(ctx context.Context, r tracker.OvertimeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO overtime_records
		(id, employee_id, holiday_id, holiday_name, date, source, label, hours,
		 start_at, end_at, status, proof_ref, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			proof_ref = excluded.proof_ref,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		r.ID, string(r.EmployeeID), string(r.HolidayID), r.HolidayName,
		r.Date.UTC().Format(time.RFC3339),
		string(r.Source), r.Label, r.Hours.String(),
		zeroableTime(r.Start), zeroableTime(r.End),
		string(r.Status), r.ProofRef,
		r.CreatedAt.UTC().Format(time.RFC3339),
		r.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetRecord(ctx context.Context, id string) (*tracker.OvertimeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, err := s.queryRecords(ctx, recordSelect+" WHERE id = ?", id)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return &records[0], nil
}

func (s *Store) ListRecords(ctx context.Context, employeeID engine.EmployeeID, holidayID engine.HolidayID) ([]tracker.OvertimeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryRecords(ctx,
		recordSelect+" WHERE employee_id = ? AND holiday_id = ? ORDER BY created_at ASC",
		string(employeeID), string(holidayID))
}

func (s *Store) ListRecordsByStatus(ctx context.Context, status tracker.RecordStatus) ([]tracker.OvertimeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryRecords(ctx,
		recordSelect+" WHERE status = ? ORDER BY created_at ASC", string(status))
}

const recordSelect = `
	SELECT id, employee_id, holiday_id, holiday_name, date, source, label, hours,
	       start_at, end_at, status, proof_ref, created_at, updated_at
	FROM overtime_records`

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]tracker.OvertimeRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []tracker.OvertimeRecord
	for rows.Next() {
		var r tracker.OvertimeRecord
		var empID, holID, date, source, hours, status, createdAt, updatedAt string
		var start, end, proofRef sql.NullString
		if err := rows.Scan(&r.ID, &empID, &holID, &r.HolidayName, &date, &source,
			&r.Label, &hours, &start, &end, &status, &proofRef, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		r.EmployeeID = engine.EmployeeID(empID)
		r.HolidayID = engine.HolidayID(holID)
		r.Date, _ = time.Parse(time.RFC3339, date)
		r.Source = tracker.RecordSource(source)
		r.Hours = parseHours(hours)
		if t := parseNullTime(start); t != nil {
			r.Start = *t
		}
		if t := parseNullTime(end); t != nil {
			r.End = *t
		}
		r.Status = tracker.RecordStatus(status)
		r.ProofRef = proofRef.String
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		r.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// =============================================================================
// TIME REQUESTS
// =============================================================================

func (s *Store) SaveRequest(ctx context.Context, r tracker.TimeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO time_requests
		(id, employee_id, holiday_id, request_type, requested_time, reason, status, admin_notes, created_at, decided_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			admin_notes = excluded.admin_notes,
			decided_at = excluded.decided_at
	`
	_, err := s.db.ExecContext(ctx, query,
		r.ID, string(r.EmployeeID), string(r.HolidayID),
		string(r.Type),
		r.RequestedTime.UTC().Format(time.RFC3339),
		r.Reason, string(r.Status), r.AdminNotes,
		r.CreatedAt.UTC().Format(time.RFC3339),
		nullTime(r.DecidedAt),
	)
	return err
}

func (s *Store) GetRequest(ctx context.Context, id string) (*tracker.TimeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	requests, err := s.queryRequests(ctx, requestSelect+" WHERE id = ?", id)
	if err != nil || len(requests) == 0 {
		return nil, err
	}
	return &requests[0], nil
}

func (s *Store) ListPendingRequests(ctx context.Context) ([]tracker.TimeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryRequests(ctx,
		requestSelect+" WHERE status = 'pending' ORDER BY created_at ASC")
}

const requestSelect = `
	SELECT id, employee_id, holiday_id, request_type, requested_time, reason, status, admin_notes, created_at, decided_at
	FROM time_requests`

func (s *Store) queryRequests(ctx context.Context, query string, args ...any) ([]tracker.TimeRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var requests []tracker.TimeRequest
	for rows.Next() {
		var r tracker.TimeRequest
		var empID, holID, reqType, requestedTime, status, createdAt string
		var adminNotes, decidedAt sql.NullString
		if err := rows.Scan(&r.ID, &empID, &holID, &reqType, &requestedTime,
			&r.Reason, &status, &adminNotes, &createdAt, &decidedAt); err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		r.EmployeeID = engine.EmployeeID(empID)
		r.HolidayID = engine.HolidayID(holID)
		r.Type = tracker.RequestType(reqType)
		r.RequestedTime, _ = time.Parse(time.RFC3339, requestedTime)
		r.Status = tracker.RequestStatus(status)
		r.AdminNotes = adminNotes.String
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		r.DecidedAt = parseNullTime(decidedAt)
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// =============================================================================
// HOUR-BANK CLAIMS
// =============================================================================

func (s *Store) SaveClaim(ctx context.Context, c tracker.HourBankClaim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO hour_bank_claims
		(id, employee_id, holiday_id, declared_hours, detected_hours, confidence,
		 recommendation, reason, proof_ref, record_id, status, created_at, decided_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			detected_hours = excluded.detected_hours,
			confidence = excluded.confidence,
			recommendation = excluded.recommendation,
			reason = excluded.reason,
			proof_ref = excluded.proof_ref,
			record_id = excluded.record_id,
			status = excluded.status,
			decided_at = excluded.decided_at
	`
	_, err := s.db.ExecContext(ctx, query,
		c.ID, string(c.EmployeeID), string(c.HolidayID),
		c.DeclaredHours.String(), c.DetectedHours.String(), c.Confidence,
		string(c.Recommendation), c.Reason, c.ProofRef, c.RecordID,
		string(c.Status),
		c.CreatedAt.UTC().Format(time.RFC3339),
		nullTime(c.DecidedAt),
	)
	return err
}

func (s *Store) GetClaim(ctx context.Context, id string) (*tracker.HourBankClaim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	claims, err := s.queryClaims(ctx, claimSelect+" WHERE id = ?", id)
	if err != nil || len(claims) == 0 {
		return nil, err
	}
	return &claims[0], nil
}

func (s *Store) GetClaimByRecord(ctx context.Context, recordID string) (*tracker.HourBankClaim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	claims, err := s.queryClaims(ctx, claimSelect+" WHERE record_id = ?", recordID)
	if err != nil || len(claims) == 0 {
		return nil, err
	}
	return &claims[0], nil
}

func (s *Store) ListPendingClaims(ctx context.Context) ([]tracker.HourBankClaim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryClaims(ctx,
		claimSelect+" WHERE status = 'pending' ORDER BY created_at ASC")
}

const claimSelect = `
	SELECT id, employee_id, holiday_id, declared_hours, detected_hours, confidence,
	       recommendation, reason, proof_ref, record_id, status, created_at, decided_at
	FROM hour_bank_claims`

func (s *Store) queryClaims(ctx context.Context, query string, args ...any) ([]tracker.HourBankClaim, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query claims: %w", err)
	}
	defer rows.Close()

	var claims []tracker.HourBankClaim
	for rows.Next() {
		var c tracker.HourBankClaim
		var empID, holID, declared, detected, status, createdAt string
		var recommendation, reason, proofRef, recordID, decidedAt sql.NullString
		if err := rows.Scan(&c.ID, &empID, &holID, &declared, &detected, &c.Confidence,
			&recommendation, &reason, &proofRef, &recordID, &status, &createdAt, &decidedAt); err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		c.EmployeeID = engine.EmployeeID(empID)
		c.HolidayID = engine.HolidayID(holID)
		c.DeclaredHours = parseHours(declared)
		c.DetectedHours = parseHours(detected)
		c.Recommendation = tracker.Recommendation(recommendation.String)
		c.Reason = reason.String
		c.ProofRef = proofRef.String
		c.RecordID = recordID.String
		c.Status = tracker.ClaimStatus(status)
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		c.DecidedAt = parseNullTime(decidedAt)
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"hour_bank_claims", "time_requests", "overtime_records", "sessions", "holidays", "employees"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func parseHours(s string) engine.Hours {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return engine.ZeroHours()
	}
	return engine.Hours{Value: d}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func zeroableTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil
	}
	return &t
}
