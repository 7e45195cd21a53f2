// Package storage provides the persistent key-value store consumed by the
// persisted-cell hook, with in-memory, file, Redis, and S3 backends plus
// metrics and tracing wrappers.
//
// A store holds opaque byte values under string keys. Stores that can
// observe out-of-context changes additionally implement Watchable; its
// events carry the new value, or nil for a deletion. A context never
// observes its own writes through Watch: the broadcast reaches every other
// context sharing the store, mirroring how browser storage events behave
// across tabs.
package storage

import "context"

// Event is a change notification from another context sharing the store.
// Value is nil when the change was a deletion.
type Event struct {
	Key   string
	Value []byte
}

// Store is the persistent key-value store interface.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value under key. The second result is false when no
	// entry exists; that is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set writes value under key, overwriting any existing entry.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes the entry under key. Deleting a missing entry is a
	// no-op, not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the store.
	Close() error
}

// Watchable is implemented by stores that deliver cross-context change
// events. The returned cancel releases the watch; after cancel returns, fn
// is never invoked again.
type Watchable interface {
	Watch(fn func(Event)) (cancel func())
}

// Watch subscribes fn to store change events when the store supports them.
// For stores without a change feed it returns a no-op cancel, so callers
// need not type-assert.
func Watch(s Store, fn func(Event)) (cancel func()) {
	if w, ok := s.(Watchable); ok {
		return w.Watch(fn)
	}
	return func() {}
}
