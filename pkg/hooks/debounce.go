package hooks

import (
	"time"

	"github.com/jrc1883/elshaddai-hooks/pkg/reactive"
)

// DefaultDebounceDelay is the delay used when callers pass a negative one.
const DefaultDebounceDelay = 300 * time.Millisecond

// Debounced returns a signal holding a delayed copy of source. The initial
// value is visible immediately; every later change to source schedules a
// commit after delay, and a change arriving inside the window cancels the
// prior schedule, so intermediate values are never observed. A zero delay
// still defers the commit by one scheduling cycle.
//
// The pending timer belongs to the current scope: disposing the scope
// guarantees no commit fires afterwards.
func Debounced[T any](source *reactive.Signal[T], delay time.Duration, opts ...Option) *reactive.Signal[T] {
	cfg := newConfig(opts)
	if delay < 0 {
		delay = 0
	}

	out := reactive.NewSignal(source.Peek())

	first := true
	reactive.CreateEffect(func() reactive.Cleanup {
		value := source.Get()
		if first {
			// The creation run only establishes tracking; the initial
			// value was committed synchronously above.
			first = false
			return nil
		}
		cancel := cfg.scheduler.ScheduleAfter(delay, func() {
			out.Set(value)
		})
		return reactive.Cleanup(cancel)
	})

	return out
}

// DebounceCell is a self-contained debounced tracker for hosts without a
// surrounding reactive scope. Input feeds it, Value reads the committed
// value, Close releases the pending timer.
type DebounceCell[T any] struct {
	in    *reactive.Signal[T]
	out   *reactive.Signal[T]
	scope *reactive.Scope
}

// NewDebounceCell creates a cell committing inputs after delay. A negative
// delay means DefaultDebounceDelay.
func NewDebounceCell[T any](initial T, delay time.Duration, opts ...Option) *DebounceCell[T] {
	if delay < 0 {
		delay = DefaultDebounceDelay
	}

	c := &DebounceCell[T]{
		in:    reactive.NewSignal(initial),
		scope: reactive.NewScope(nil, reactive.Immediate()),
	}
	c.scope.Run(func() {
		c.out = Debounced(c.in, delay, opts...)
	})
	return c
}

// Input supplies the next value, rearming the delay window.
func (c *DebounceCell[T]) Input(value T) {
	c.in.Set(value)
}

// Value returns the last committed value.
func (c *DebounceCell[T]) Value() T {
	return c.out.Peek()
}

// Close cancels any pending commit. The committed value stays readable.
func (c *DebounceCell[T]) Close() {
	c.scope.Dispose()
}
