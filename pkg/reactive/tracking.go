package reactive

import (
	"runtime"
	"sync"
)

// trackingState is the per-goroutine reactive state: which scope adopts new
// effects, which listener subscribes on signal reads, and the batch nesting
// depth. Goroutine-local state keeps concurrent consumers independent.
//
// Entries live in trackingStates only while something is active. Read paths
// never allocate, and the setters drop the entry once it is empty again, so
// short-lived goroutines (timer callbacks, store watch dispatch) leave
// nothing behind.
type trackingState struct {
	scope    *Scope
	listener Listener
	batch    int
	pending  []Listener
}

func (st *trackingState) empty() bool {
	return st.scope == nil && st.listener == nil && st.batch == 0 && len(st.pending) == 0
}

var trackingStates sync.Map // goroutine id -> *trackingState

// goroutineID parses the current goroutine's ID out of the runtime stack
// header ("goroutine <id> ..."). Implementation detail, not exported.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// state returns the calling goroutine's entry, creating it if needed. Only
// paths that are about to store something may call this; read paths use
// loadState so they never allocate.
func state() *trackingState {
	gid := goroutineID()
	if st, ok := trackingStates.Load(gid); ok {
		return st.(*trackingState)
	}
	st := &trackingState{}
	trackingStates.Store(gid, st)
	return st
}

func loadState() *trackingState {
	if st, ok := trackingStates.Load(goroutineID()); ok {
		return st.(*trackingState)
	}
	return nil
}

// releaseState drops the calling goroutine's entry once nothing is active.
func releaseState() {
	gid := goroutineID()
	if st, ok := trackingStates.Load(gid); ok && st.(*trackingState).empty() {
		trackingStates.Delete(gid)
	}
}

func activeListener() Listener {
	if st := loadState(); st != nil {
		return st.listener
	}
	return nil
}

func setActiveListener(l Listener) Listener {
	st := loadState()
	if st == nil {
		if l == nil {
			return nil
		}
		st = state()
	}
	prev := st.listener
	st.listener = l
	releaseState()
	return prev
}

func activeScope() *Scope {
	if st := loadState(); st != nil {
		return st.scope
	}
	return nil
}

func setActiveScope(s *Scope) *Scope {
	st := loadState()
	if st == nil {
		if s == nil {
			return nil
		}
		st = state()
	}
	prev := st.scope
	st.scope = s
	releaseState()
	return prev
}

func batchDepth() int {
	if st := loadState(); st != nil {
		return st.batch
	}
	return 0
}

// queuePending records a batched notification. Only reachable with a batch
// open, so the entry already exists.
func queuePending(l Listener) {
	st := state()
	st.pending = append(st.pending, l)
}

// ActiveScope returns the scope currently active on this goroutine, or nil.
// Hooks use it to tie their cleanups to the caller's scope.
func ActiveScope() *Scope {
	return activeScope()
}

// WithScope runs fn with the given scope active on this goroutine. Use it
// when spawning goroutines that create effects belonging to an existing
// scope.
func WithScope(s *Scope, fn func()) {
	prev := setActiveScope(s)
	defer setActiveScope(prev)
	fn()
}
