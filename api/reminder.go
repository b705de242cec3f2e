/*
reminder.go - One-shot clock-out reminder scheduler

PURPOSE:
  Employees who stay past their standard end tend to forget the clock-out
  and end up in the correction queue. The scheduler holds at most one
  pending reminder per employee and fires it once at the requested time.

DESIGN:
  - One time.Timer per employee, replaced on re-set
  - Fired and cancelled reminders are removed from the table
  - Delivery goes through the Notifier interface; the default
    implementation only logs, a real deployment plugs in push/email

USAGE:
  reminders := NewReminderScheduler(LogNotifier{}, engine.RealClock{})
  reminders.Set("emp-1", at)
  // ... shutdown
  reminders.Stop()
*/
package api

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/warp/overtime-engine/engine"
)

// Notifier delivers a fired reminder to the employee.
type Notifier interface {
	Notify(employeeID engine.EmployeeID, at time.Time)
}

// LogNotifier logs the reminder instead of delivering it.
type LogNotifier struct{}

func (LogNotifier) Notify(employeeID engine.EmployeeID, at time.Time) {
	log.Info().
		Str("employee", string(employeeID)).
		Time("scheduled_for", at).
		Msg("clock-out reminder fired")
}

// ReminderScheduler manages one pending reminder per employee.
type ReminderScheduler struct {
	notifier Notifier
	clock    engine.Clock

	mu     sync.Mutex
	timers map[engine.EmployeeID]*time.Timer
}

// NewReminderScheduler creates an empty scheduler.
func NewReminderScheduler(notifier Notifier, clock engine.Clock) *ReminderScheduler {
	return &ReminderScheduler{
		notifier: notifier,
		clock:    clock,
		timers:   make(map[engine.EmployeeID]*time.Timer),
	}
}

// Set schedules (or replaces) the employee's reminder. The time must be
// in the future.
func (rs *ReminderScheduler) Set(employeeID engine.EmployeeID, at time.Time) error {
	delay := at.Sub(rs.clock.Now())
	if delay <= 0 {
		return &engine.ValidationError{Field: "at", Message: "must be in the future"}
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	if existing, ok := rs.timers[employeeID]; ok {
		existing.Stop()
	}
	rs.timers[employeeID] = time.AfterFunc(delay, func() {
		rs.mu.Lock()
		delete(rs.timers, employeeID)
		rs.mu.Unlock()
		rs.notifier.Notify(employeeID, at)
	})
	return nil
}

// Cancel drops the employee's pending reminder, if any.
func (rs *ReminderScheduler) Cancel(employeeID engine.EmployeeID) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if timer, ok := rs.timers[employeeID]; ok {
		timer.Stop()
		delete(rs.timers, employeeID)
	}
}

// Stop cancels every pending reminder. Called on shutdown.
func (rs *ReminderScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	for id, timer := range rs.timers {
		timer.Stop()
		delete(rs.timers, id)
	}
}
