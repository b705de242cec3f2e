package tracker

import (
	"sync"

	"github.com/warp/overtime-engine/engine"
)

// PairLock serializes check-then-write sequences per (employee, holiday).
// Two concurrent registrations for the same pair could each read
// used < max and both write, exceeding the cap; the same race would let two
// clock-ins create duplicate active sessions. Locking is always scoped to
// one pair - there is no cross-employee contention.
type PairLock struct {
	mu    sync.Mutex
	locks map[pairKey]*sync.Mutex
}

type pairKey struct {
	EmployeeID engine.EmployeeID
	HolidayID  engine.HolidayID
}

func NewPairLock() *PairLock {
	return &PairLock{locks: make(map[pairKey]*sync.Mutex)}
}

// Lock acquires the mutex for the pair and returns its unlock function.
//
//	defer locks.Lock(empID, holID)()
func (p *PairLock) Lock(employeeID engine.EmployeeID, holidayID engine.HolidayID) func() {
	k := pairKey{EmployeeID: employeeID, HolidayID: holidayID}

	p.mu.Lock()
	m, ok := p.locks[k]
	if !ok {
		m = &sync.Mutex{}
		p.locks[k] = m
	}
	p.mu.Unlock()

	m.Lock()
	return m.Unlock
}
