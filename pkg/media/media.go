// Package media models the viewport/preference query service consumed by
// the media hooks. The environment that evaluates queries is an injected
// collaborator, never an ambient global, so hosts embed a real display
// backend and tests use the in-memory Sim.
package media

// Environment evaluates media-query expressions against the current
// viewport and user-preference state. Invalid expressions evaluate to
// non-matching; the environment performs no validation beyond that.
type Environment interface {
	Evaluate(query string) bool
}

// Subscribable is the preferred change-notification mechanism: one
// subscription per query, cancelled by the returned function. The callback
// receives the new match state and must only be invoked when that state
// actually changed.
type Subscribable interface {
	Subscribe(query string, fn func(matches bool)) (cancel func())
}

// Listener receives legacy change notifications.
type Listener interface {
	MediaChanged(matches bool)
}

// LegacyNotifier is the older registration mechanism some environments
// expose instead of Subscribable. Register/unregister semantics are
// equivalent; listeners are compared by interface identity.
type LegacyNotifier interface {
	AddListener(query string, l Listener)
	RemoveListener(query string, l Listener)
}

// Fixed query strings for the convenience hooks.
const (
	QueryMobile        = "(max-width: 768px)"
	QueryTablet        = "(min-width: 769px) and (max-width: 1024px)"
	QueryDesktop       = "(min-width: 1025px)"
	QueryDark          = "(prefers-color-scheme: dark)"
	QueryReducedMotion = "(prefers-reduced-motion: reduce)"
)

// listenerFunc adapts a func to Listener with pointer identity, so the same
// adapter value can be handed to both halves of a legacy register pair.
type listenerFunc struct {
	fn func(bool)
}

func (l *listenerFunc) MediaChanged(matches bool) {
	l.fn(matches)
}

// Observe subscribes fn to change notifications for query, preferring the
// Subscribable mechanism and falling back to LegacyNotifier. Environments
// supporting neither yield a no-op cancel: the caller keeps the initial
// evaluation and never hears about changes.
func Observe(env Environment, query string, fn func(matches bool)) (cancel func()) {
	if s, ok := env.(Subscribable); ok {
		return s.Subscribe(query, fn)
	}
	if legacy, ok := env.(LegacyNotifier); ok {
		l := &listenerFunc{fn: fn}
		legacy.AddListener(query, l)
		return func() {
			legacy.RemoveListener(query, l)
		}
	}
	return func() {}
}
