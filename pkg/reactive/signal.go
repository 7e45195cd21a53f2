package reactive

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// Listener is anything that reacts to a dependency change. Effects implement
// it; so can host integrations that want change notifications.
type Listener interface {
	// MarkDirty tells the listener that a dependency changed.
	MarkDirty()

	// ID returns a unique identifier, used to deduplicate notifications.
	ID() uint64
}

// Cleanup releases whatever an effect acquired. It runs before the effect
// re-runs and when the effect is disposed.
type Cleanup func()

// idCounter issues unique IDs for signals, effects, and scopes.
var idCounter atomic.Uint64

func nextID() uint64 {
	return idCounter.Add(1)
}

// subscribers manages the listener set shared by all signal types.
type subscribers struct {
	id uint64

	mu   sync.RWMutex
	subs []Listener
}

func (s *subscribers) add(l Listener) {
	if l == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	lid := l.ID()
	for _, cur := range s.subs {
		if cur.ID() == lid {
			return
		}
	}
	s.subs = append(s.subs, l)
}

func (s *subscribers) remove(l Listener) {
	if l == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	lid := l.ID()
	for i, cur := range s.subs {
		if cur.ID() == lid {
			s.subs[i] = s.subs[len(s.subs)-1]
			s.subs = s.subs[:len(s.subs)-1]
			return
		}
	}
}

// notify marks every subscriber dirty. Subscribers are copied first so no
// lock is held while listeners run. Inside a Batch the notifications are
// queued and deduplicated instead.
func (s *subscribers) notify() {
	s.mu.RLock()
	subs := make([]Listener, len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()

	if batchDepth() > 0 {
		for _, sub := range subs {
			queuePending(sub)
		}
		return
	}
	for _, sub := range subs {
		sub.MarkDirty()
	}
}

// Signal is a reactive value container. Reading it via Get inside an effect
// subscribes the effect; writing it via Set or Update notifies subscribers
// when the value actually changed.
type Signal[T any] struct {
	base subscribers

	mu    sync.RWMutex
	value T

	// equal overrides change detection; nil means defaultEquals.
	equal func(T, T) bool
}

// NewSignal creates a signal holding initial.
func NewSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{
		base:  subscribers{id: nextID()},
		value: initial,
	}
}

// Get returns the current value and subscribes the active listener, if any.
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	value := s.value
	s.mu.RUnlock()

	if l := activeListener(); l != nil {
		s.base.add(l)
		if tracker, ok := l.(sourceTracker); ok {
			tracker.trackSource(&s.base)
		}
	}
	return value
}

// Peek returns the current value without subscribing.
func (s *Signal[T]) Peek() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set replaces the value, notifying subscribers if it changed.
func (s *Signal[T]) Set(value T) {
	s.mu.Lock()
	changed := !s.equals(s.value, value)
	if changed {
		s.value = value
	}
	s.mu.Unlock()

	if changed {
		s.base.notify()
	}
}

// Update applies fn to the current value under the write lock.
func (s *Signal[T]) Update(fn func(T) T) {
	s.mu.Lock()
	next := fn(s.value)
	changed := !s.equals(s.value, next)
	if changed {
		s.value = next
	}
	s.mu.Unlock()

	if changed {
		s.base.notify()
	}
}

// WithEquals configures a custom equality function and returns the signal.
// Useful when reflect.DeepEqual is too expensive or semantically wrong.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// ID returns the signal's unique identifier.
func (s *Signal[T]) ID() uint64 {
	return s.base.id
}

func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals uses == for the common scalar types and falls back to
// reflect.DeepEqual for everything else.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case bool:
		return av == any(b).(bool)
	case string:
		return av == any(b).(string)
	case int:
		return av == any(b).(int)
	case int64:
		return av == any(b).(int64)
	case uint64:
		return av == any(b).(uint64)
	case float64:
		return av == any(b).(float64)
	default:
		return reflect.DeepEqual(a, b)
	}
}

// sourceTracker is implemented by listeners that keep a source list so they
// can unsubscribe when re-tracking (effects do).
type sourceTracker interface {
	trackSource(src *subscribers)
}
