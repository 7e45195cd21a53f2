package reactive

import (
	"sync"
	"sync/atomic"
)

// Scope owns reactive primitives. Disposing a scope disposes every child
// scope and effect it owns and runs registered cleanups, guaranteeing that
// nothing owned by the scope fires after teardown.
//
// Scopes form a hierarchy mirroring the consumer's component or session
// tree: each UI component creates a child scope of its parent's.
type Scope struct {
	id     uint64
	parent *Scope

	mu       sync.Mutex
	children []*Scope
	effects  []*Effect
	cleanups []func()
	queue    []*Effect

	immediate bool
	disposed  atomic.Bool
}

// ScopeOption configures a Scope at creation.
type ScopeOption func(*Scope)

// Immediate makes the scope re-run dirty effects synchronously when a signal
// changes, instead of queueing them for Flush. Hosts without their own event
// loop want this; hosts that flush once per tick do not.
func Immediate() ScopeOption {
	return func(s *Scope) {
		s.immediate = true
	}
}

// NewScope creates a scope. A nil parent makes a root scope; otherwise the
// new scope registers as a child and is disposed with its parent.
func NewScope(parent *Scope, opts ...ScopeOption) *Scope {
	s := &Scope{
		id:     nextID(),
		parent: parent,
	}
	if parent != nil {
		s.immediate = parent.immediate
	}
	for _, opt := range opts {
		opt(s)
	}
	if parent != nil {
		parent.mu.Lock()
		parent.children = append(parent.children, s)
		parent.mu.Unlock()
	}
	return s
}

// ID returns the scope's unique identifier.
func (s *Scope) ID() uint64 {
	return s.id
}

// IsDisposed reports whether Dispose has run.
func (s *Scope) IsDisposed() bool {
	return s.disposed.Load()
}

// OnCleanup registers fn to run when the scope is disposed. If the scope is
// already disposed, fn runs immediately.
func (s *Scope) OnCleanup(fn func()) {
	if s.disposed.Load() {
		fn()
		return
	}
	s.mu.Lock()
	s.cleanups = append(s.cleanups, fn)
	s.mu.Unlock()
}

// Run executes fn with this scope active, so effects created inside belong
// to it. The previous active scope is restored afterwards.
func (s *Scope) Run(fn func()) {
	prev := setActiveScope(s)
	defer setActiveScope(prev)
	fn()
}

func (s *Scope) adoptEffect(e *Effect) {
	if s.disposed.Load() {
		return
	}
	s.mu.Lock()
	s.effects = append(s.effects, e)
	s.mu.Unlock()
}

func (s *Scope) scheduleEffect(e *Effect) {
	if s.disposed.Load() {
		return
	}
	if s.immediate {
		e.run()
		return
	}
	s.mu.Lock()
	s.queue = append(s.queue, e)
	s.mu.Unlock()
}

// Flush runs every queued effect re-run in this scope and its children.
// Hosts with a tick loop call this once per tick, after event handling.
func (s *Scope) Flush() {
	if s.disposed.Load() {
		return
	}

	s.mu.Lock()
	queued := s.queue
	s.queue = nil
	children := make([]*Scope, len(s.children))
	copy(children, s.children)
	s.mu.Unlock()

	for _, e := range queued {
		if e.pending.Load() {
			e.run()
		}
	}
	for _, child := range children {
		child.Flush()
	}
}

// Dispose tears the scope down: children in reverse creation order, then
// effects, then cleanups in reverse registration order. Safe to call twice.
func (s *Scope) Dispose() {
	if s.disposed.Swap(true) {
		return
	}

	if s.parent != nil {
		s.parent.dropChild(s)
	}

	s.mu.Lock()
	children := s.children
	effects := s.effects
	cleanups := s.cleanups
	s.children = nil
	s.effects = nil
	s.cleanups = nil
	s.queue = nil
	s.mu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}
	for _, e := range effects {
		e.Dispose()
	}
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

func (s *Scope) dropChild(child *Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.children {
		if c == child {
			s.children = append(s.children[:i], s.children[i+1:]...)
			return
		}
	}
}
