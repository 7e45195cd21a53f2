package timer

import (
	"sort"
	"sync"
	"time"
)

// Manual is a deterministic Scheduler for tests. Time only moves when the
// test calls Advance or AdvanceTo; due callbacks run synchronously on the
// advancing goroutine, in deadline order (FIFO for equal deadlines).
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	nextSeq uint64
	entries []*manualEntry
}

type manualEntry struct {
	due       time.Duration
	seq       uint64
	fn        func()
	cancelled bool
}

// NewManual creates a manual scheduler starting at time zero.
func NewManual() *Manual {
	return &Manual{}
}

// ScheduleAfter implements Scheduler. A zero (or negative) delay still waits
// for the next Advance call; nothing runs synchronously here.
func (m *Manual) ScheduleAfter(d time.Duration, fn func()) CancelFunc {
	if d < 0 {
		d = 0
	}

	m.mu.Lock()
	e := &manualEntry{
		due: m.now + d,
		seq: m.nextSeq,
		fn:  fn,
	}
	m.nextSeq++
	m.entries = append(m.entries, e)
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		e.cancelled = true
		m.mu.Unlock()
	}
}

// Now returns the current manual time.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves time forward by d, firing every schedule that becomes due,
// in deadline order. Callbacks may schedule further work; a callback
// scheduled within the advanced window fires in the same call.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()
	m.AdvanceTo(target)
}

// AdvanceTo moves time forward to the absolute manual time target.
func (m *Manual) AdvanceTo(target time.Duration) {
	for {
		m.mu.Lock()
		if target < m.now {
			m.mu.Unlock()
			return
		}

		e := m.nextDue(target)
		if e == nil {
			m.now = target
			m.mu.Unlock()
			return
		}

		// Time jumps to the entry's deadline before its callback runs, so
		// work scheduled inside the callback is measured from that moment.
		m.now = e.due
		m.mu.Unlock()

		e.fn()
	}
}

// Pending returns the number of live (uncancelled, unfired) schedules.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if !e.cancelled {
			n++
		}
	}
	return n
}

// nextDue removes and returns the earliest live entry due at or before
// target, or nil. Caller holds m.mu.
func (m *Manual) nextDue(target time.Duration) *manualEntry {
	live := m.entries[:0]
	for _, e := range m.entries {
		if !e.cancelled {
			live = append(live, e)
		}
	}
	m.entries = live

	sort.SliceStable(m.entries, func(i, j int) bool {
		if m.entries[i].due != m.entries[j].due {
			return m.entries[i].due < m.entries[j].due
		}
		return m.entries[i].seq < m.entries[j].seq
	})

	if len(m.entries) == 0 || m.entries[0].due > target {
		return nil
	}
	e := m.entries[0]
	m.entries = m.entries[1:]
	return e
}
