// Package timer abstracts one-shot timer scheduling so hooks that delay work
// can be driven by a real clock in production and a manual clock in tests.
package timer

import (
	"sync/atomic"
	"time"
)

// CancelFunc cancels a pending schedule. After CancelFunc returns, the
// callback is guaranteed not to run. Cancelling twice is a no-op.
type CancelFunc func()

// Scheduler schedules a callback to run once after a delay.
type Scheduler interface {
	// ScheduleAfter runs fn once after d has elapsed. fn runs on an
	// unspecified goroutine; it is never invoked synchronously from
	// ScheduleAfter, even for a zero delay.
	ScheduleAfter(d time.Duration, fn func()) CancelFunc
}

// System returns the production scheduler backed by the runtime timer.
func System() Scheduler {
	return systemScheduler{}
}

type systemScheduler struct{}

func (systemScheduler) ScheduleAfter(d time.Duration, fn func()) CancelFunc {
	if d < 0 {
		d = 0
	}

	// The fired flag closes the race between Stop and an already-running
	// timer goroutine: whoever swaps first wins.
	var fired atomic.Bool
	t := time.AfterFunc(d, func() {
		if fired.CompareAndSwap(false, true) {
			fn()
		}
	})

	return func() {
		fired.Store(true)
		t.Stop()
	}
}
