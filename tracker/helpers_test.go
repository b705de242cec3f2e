package tracker_test

import (
	"context"
	"time"

	"github.com/warp/overtime-engine/engine"
	"github.com/warp/overtime-engine/store/memory"
	"github.com/warp/overtime-engine/tracker"
)

// holidayDate is the reference working day used across the tracker tests.
// day(h, m) pins an instant on it; the exact date is irrelevant, the
// time-of-day is what the tolerance and accrual rules care about.
func day(h, m int) time.Time {
	return time.Date(2025, 6, 19, h, m, 0, 0, time.UTC)
}

// testClock is a settable clock so one test can clock in at 07:00 and
// clock out at 19:00.
type testClock struct {
	at time.Time
}

func (c *testClock) Now() time.Time  { return c.at }
func (c *testClock) set(t time.Time) { c.at = t }

// stubDetector returns a canned detection result (or error).
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

const (
	testEmployee engine.EmployeeID = "emp-1"
	testHoliday  engine.HolidayID  = "hol-1"
)

type fixture struct {
	store       *memory.Store
	locks       *tracker.PairLock
	clock       *testClock
	detector    *stubDetector
	ledger      *tracker.BudgetLedger
	sessions    *tracker.Sessions
	corrections *tracker.Corrections
	comps       *tracker.Compensations
}

// newFixture wires the full tracker stack against the in-memory store and
// seeds one late-shift employee and one active holiday with a 4h budget.
func newFixture() *fixture {
	f := &fixture{
		store:    memory.New(),
		locks:    tracker.NewPairLock(),
		clock:    &testClock{at: day(7, 0)},
		detector: &stubDetector{},
	}
	f.ledger = tracker.NewBudgetLedger(f.store, f.locks, f.clock)
	f.sessions = tracker.NewSessions(f.store, f.ledger, f.locks, f.clock)
	f.corrections = tracker.NewCorrections(f.store, f.ledger, f.locks, f.clock)
	f.comps = tracker.NewCompensations(f.store, f.ledger, f.detector, f.locks, f.clock)

	ctx := context.Background()
	_ = f.store.SaveEmployee(ctx, tracker.Employee{
		ID:        testEmployee,
		Name:      "Jane Porter",
		Shift:     engine.ShiftLate,
		CreatedAt: day(0, 0),
	})
	_ = f.store.SaveHoliday(ctx, tracker.HolidayDefinition{
		ID:        testHoliday,
		Name:      "Midsummer",
		Date:      day(0, 0),
		Active:    true,
		Deadline:  time.Date(2025, 7, 15, 23, 59, 0, 0, time.UTC),
		MaxHours:  engine.NewHours(4),
		CreatedAt: day(0, 0),
	})
	return f
}

// postApproved registers an approved record directly through the ledger,
// taking the pair lock the way a service would.
func (f *fixture) postApproved(ctx context.Context, id string, hours engine.Hours) error {
	unlock := f.locks.Lock(testEmployee, testHoliday)
	defer unlock()
	return f.ledger.Post(ctx, &tracker.OvertimeRecord{
		ID:         id,
		EmployeeID: testEmployee,
		HolidayID:  testHoliday,
		Source:     tracker.SourceDirect,
		Hours:      hours,
		Status:     tracker.RecordApproved,
		CreatedAt:  f.clock.Now(),
		UpdatedAt:  f.clock.Now(),
	})
}

// postPending registers a pending_admin record for decision tests.
func (f *fixture) postPending(ctx context.Context, id string, hours engine.Hours, source tracker.RecordSource, proofRef string) error {
	unlock := f.locks.Lock(testEmployee, testHoliday)
	defer unlock()
	return f.ledger.Post(ctx, &tracker.OvertimeRecord{
		ID:         id,
		EmployeeID: testEmployee,
		HolidayID:  testHoliday,
		Source:     source,
		Hours:      hours,
		Status:     tracker.RecordPendingAdmin,
		ProofRef:   proofRef,
		CreatedAt:  f.clock.Now(),
		UpdatedAt:  f.clock.Now(),
	})
}
