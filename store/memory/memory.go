// Package memory provides an in-memory tracker.Store for tests and dev.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/overtime-engine/engine"
	"github.com/warp/overtime-engine/tracker"
)

// Store keeps everything in maps guarded by a single RWMutex. Good enough
// for tests and local runs; store/sqlite is the production implementation.
type Store struct {
	mu        sync.RWMutex
	employees map[engine.EmployeeID]tracker.Employee
	holidays  map[engine.HolidayID]tracker.HolidayDefinition
	sessions  map[string]tracker.TimeClockSession
	records   map[string]tracker.OvertimeRecord
	requests  map[string]tracker.TimeRequest
	claims    map[string]tracker.HourBankClaim
	seq       int
	order     map[string]int // insertion order for stable listings
}

var _ tracker.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		employees: make(map[engine.EmployeeID]tracker.Employee),
		holidays:  make(map[engine.HolidayID]tracker.HolidayDefinition),
		sessions:  make(map[string]tracker.TimeClockSession),
		records:   make(map[string]tracker.OvertimeRecord),
		requests:  make(map[string]tracker.TimeRequest),
		claims:    make(map[string]tracker.HourBankClaim),
		order:     make(map[string]int),
	}
}

func (s *Store) touch(id string) {
	if _, ok := s.order[id]; !ok {
		s.seq++
		s.order[id] = s.seq
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) SaveEmployee(_ context.Context, e tracker.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[e.ID] = e
	s.touch(string(e.ID))
	return nil
}

func (s *Store) GetEmployee(_ context.Context, id engine.EmployeeID) (*tracker.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.employees[id]; ok {
		return &e, nil
	}
	return nil, nil
}

func (s *Store) ListEmployees(_ context.Context) ([]tracker.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]tracker.Employee, 0, len(s.employees))
	for _, e := range s.employees {
		out = append(out, e)
	}
	s.sortByOrder(out)
	return out, nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (s *Store) SaveHoliday(_ context.Context, h tracker.HolidayDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holidays[h.ID] = h
	s.touch(string(h.ID))
	return nil
}

func (s *Store) GetHoliday(_ context.Context, id engine.HolidayID) (*tracker.HolidayDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if h, ok := s.holidays[id]; ok {
		return &h, nil
	}
	return nil, nil
}

func (s *Store) ListHolidays(_ context.Context) ([]tracker.HolidayDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]tracker.HolidayDefinition, 0, len(s.holidays))
	for _, h := range s.holidays {
		out = append(out, h)
	}
	s.sortByOrder(out)
	return out, nil
}

func (s *Store) DeleteHoliday(_ context.Context, id engine.HolidayID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.holidays, id)
	return nil
}

// =============================================================================
// SESSIONS
// =============================================================================

func (s *Store) SaveSession(_ context.Context, sess tracker.TimeClockSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	s.touch(sess.ID)
	return nil
}

func (s *Store) GetSession(_ context.Context, id string) (*tracker.TimeClockSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[id]; ok {
		return &sess, nil
	}
	return nil, nil
}

func (s *Store) GetActiveSession(_ context.Context, employeeID engine.EmployeeID, holidayID engine.HolidayID) (*tracker.TimeClockSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		if sess.EmployeeID == employeeID && sess.HolidayID == holidayID && sess.Status == tracker.SessionActive {
			out := sess
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) ListSessions(_ context.Context, employeeID engine.EmployeeID, holidayID engine.HolidayID) ([]tracker.TimeClockSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []tracker.TimeClockSession
	for _, sess := range s.sessions {
		if sess.EmployeeID == employeeID && sess.HolidayID == holidayID {
			out = append(out, sess)
		}
	}
	s.sortByOrder(out)
	return out, nil
}

// =============================================================================
// OVERTIME RECORDS
// =============================================================================

func (s *Store) SaveRecord(_ context.Context, r tracker.OvertimeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.ID] = r
	s.touch(r.ID)
	return nil
}

func (s *Store) GetRecord(_ context.Context, id string) (*tracker.OvertimeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.records[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (s *Store) ListRecords(_ context.Context, employeeID engine.EmployeeID, holidayID engine.HolidayID) ([]tracker.OvertimeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []tracker.OvertimeRecord
	for _, r := range s.records {
		if r.EmployeeID == employeeID && r.HolidayID == holidayID {
			out = append(out, r)
		}
	}
	s.sortByOrder(out)
	return out, nil
}

func (s *Store) ListRecordsByStatus(_ context.Context, status tracker.RecordStatus) ([]tracker.OvertimeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []tracker.OvertimeRecord
	for _, r := range s.records {
		if r.Status == status {
			out = append(out, r)
		}
	}
	s.sortByOrder(out)
	return out, nil
}

// =============================================================================
// TIME REQUESTS
// =============================================================================

func (s *Store) SaveRequest(_ context.Context, r tracker.TimeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[r.ID] = r
	s.touch(r.ID)
	return nil
}

func (s *Store) GetRequest(_ context.Context, id string) (*tracker.TimeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.requests[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (s *Store) ListPendingRequests(_ context.Context) ([]tracker.TimeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []tracker.TimeRequest
	for _, r := range s.requests {
		if r.Status == tracker.RequestPending {
			out = append(out, r)
		}
	}
	s.sortByOrder(out)
	return out, nil
}

// =============================================================================
// HOUR-BANK CLAIMS
// =============================================================================

func (s *Store) SaveClaim(_ context.Context, c tracker.HourBankClaim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims[c.ID] = c
	s.touch(c.ID)
	return nil
}

func (s *Store) GetClaim(_ context.Context, id string) (*tracker.HourBankClaim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.claims[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (s *Store) GetClaimByRecord(_ context.Context, recordID string) (*tracker.HourBankClaim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.claims {
		if c.RecordID == recordID {
			out := c
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) ListPendingClaims(_ context.Context) ([]tracker.HourBankClaim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []tracker.HourBankClaim
	for _, c := range s.claims {
		if c.Status == tracker.ClaimPending {
			out = append(out, c)
		}
	}
	s.sortByOrder(out)
	return out, nil
}

// sortByOrder sorts a typed slice by insertion order of its IDs.
func (s *Store) sortByOrder(slice any) {
	switch v := slice.(type) {
	case []tracker.Employee:
		sort.SliceStable(v, func(i, j int) bool { return s.order[string(v[i].ID)] < s.order[string(v[j].ID)] })
	case []tracker.HolidayDefinition:
		sort.SliceStable(v, func(i, j int) bool { return s.order[string(v[i].ID)] < s.order[string(v[j].ID)] })
	case []tracker.TimeClockSession:
		sort.SliceStable(v, func(i, j int) bool { return s.order[v[i].ID] < s.order[v[j].ID] })
	case []tracker.OvertimeRecord:
		sort.SliceStable(v, func(i, j int) bool { return s.order[v[i].ID] < s.order[v[j].ID] })
	case []tracker.TimeRequest:
		sort.SliceStable(v, func(i, j int) bool { return s.order[v[i].ID] < s.order[v[j].ID] })
	case []tracker.HourBankClaim:
		sort.SliceStable(v, func(i, j int) bool { return s.order[v[i].ID] < s.order[v[j].ID] })
	}
}
