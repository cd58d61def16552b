package verification

import (
	"sync"
	"time"
)

// Scheduler runs fn once after d. The returned cancel func stops a pending
// run and is safe to call more than once or after fn has run.
type Scheduler interface {
	ScheduleAfter(d time.Duration, fn func()) (cancel func())
}

// TimerScheduler schedules with time.AfterFunc.
type TimerScheduler struct{}

// ScheduleAfter implements Scheduler.
func (TimerScheduler) ScheduleAfter(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// ManualScheduler queues callbacks until the caller fires them. It lets tests
// step through retry delays without sleeping.
type ManualScheduler struct {
	mu      sync.Mutex
	pending []*manualTimer
	delays  []time.Duration
}

type manualTimer struct {
	delay    time.Duration
	fn       func()
	canceled bool
}

// ScheduleAfter implements Scheduler.
func (m *ManualScheduler) ScheduleAfter(d time.Duration, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{delay: d, fn: fn}
	m.pending = append(m.pending, t)
	m.delays = append(m.delays, d)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		t.canceled = true
	}
}

// Pending returns how many scheduled callbacks are neither fired nor canceled.
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.pending {
		if !t.canceled {
			n++
		}
	}
	return n
}

// Delays returns every delay ever requested, in order.
func (m *ManualScheduler) Delays() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.delays...)
}

// FireNext runs the oldest live callback and reports whether there was one.
// The callback runs without the scheduler's lock held.
func (m *ManualScheduler) FireNext() bool {
	m.mu.Lock()
	var next *manualTimer
	for len(m.pending) > 0 {
		t := m.pending[0]
		m.pending = m.pending[1:]
		if !t.canceled {
			next = t
			break
		}
	}
	m.mu.Unlock()

	if next == nil {
		return false
	}
	next.fn()
	return true
}
