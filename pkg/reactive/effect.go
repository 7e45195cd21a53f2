package reactive

import (
	"sync"
	"sync/atomic"
)

// Effect is a reactive side effect. It runs once on creation and re-runs
// whenever a signal it read during its last run changes. The Cleanup it
// returns is invoked before each re-run and on dispose, so resources
// acquired by one run never outlive it.
type Effect struct {
	id uint64

	fn      func() Cleanup
	cleanup Cleanup

	sources   []*subscribers
	sourcesMu sync.Mutex

	scope *Scope

	pending  atomic.Bool
	disposed atomic.Bool
}

// CreateEffect creates an effect owned by the current scope and runs it
// immediately. Without a scope the effect still runs but must be disposed
// via the scope mechanism it lacks; callers outside any scope should keep
// the returned Effect and arrange disposal themselves.
func CreateEffect(fn func() Cleanup) *Effect {
	e := &Effect{
		id:    nextID(),
		fn:    fn,
		scope: activeScope(),
	}
	if e.scope != nil {
		e.scope.adoptEffect(e)
	}
	e.run()
	return e
}

// OnMount runs fn once when the surrounding scope mounts. It is an effect
// with no reactive dependencies.
func OnMount(fn func()) {
	CreateEffect(func() Cleanup {
		fn()
		return nil
	})
}

// OnUnmount registers fn to run when the current scope is disposed.
func OnUnmount(fn func()) {
	if s := activeScope(); s != nil {
		s.OnCleanup(fn)
	}
}

// ID implements Listener.
func (e *Effect) ID() uint64 {
	return e.id
}

// MarkDirty implements Listener. The effect is scheduled at most once; the
// scope decides whether it re-runs synchronously or waits for Flush.
func (e *Effect) MarkDirty() {
	if e.disposed.Load() {
		return
	}
	if e.pending.CompareAndSwap(false, true) {
		if e.scope != nil {
			e.scope.scheduleEffect(e)
		} else {
			e.run()
		}
	}
}

// run executes the effect body: previous cleanup first, then source
// re-tracking, then the function itself.
func (e *Effect) run() {
	if e.disposed.Load() {
		return
	}
	e.pending.Store(false)

	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}

	e.sourcesMu.Lock()
	for _, src := range e.sources {
		src.remove(e)
	}
	e.sources = e.sources[:0]
	e.sourcesMu.Unlock()

	prev := setActiveListener(e)
	e.cleanup = e.fn()
	setActiveListener(prev)
}

// trackSource records a signal read during the current run.
func (e *Effect) trackSource(src *subscribers) {
	e.sourcesMu.Lock()
	defer e.sourcesMu.Unlock()
	for _, cur := range e.sources {
		if cur == src {
			return
		}
	}
	e.sources = append(e.sources, src)
}

// Dispose runs the pending cleanup and unsubscribes from all sources.
// Disposing twice is a no-op. Scope disposal calls this automatically.
func (e *Effect) Dispose() {
	if e.disposed.Swap(true) {
		return
	}

	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}

	e.sourcesMu.Lock()
	for _, src := range e.sources {
		src.remove(e)
	}
	e.sources = nil
	e.sourcesMu.Unlock()
}

// IsDisposed reports whether Dispose has run.
func (e *Effect) IsDisposed() bool {
	return e.disposed.Load()
}
