package hooks

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/jrc1883/elshaddai-hooks/pkg/reactive"
	"github.com/jrc1883/elshaddai-hooks/pkg/storage"
)

// Cell is a persisted key-value cell: an in-memory value mirrored to a store
// entry, synced with other contexts through the store's change feed. Every
// storage failure is absorbed and logged; the cell stays usable on its
// fallback or last known value, and no operation ever returns an error.
type Cell[T any] struct {
	key      string
	fallback T
	store    storage.Store
	log      zerolog.Logger

	sig         *reactive.Signal[T]
	cancelWatch func()
}

// Persisted creates a cell over store[key]. Initialization reads the store:
// an absent, unreadable, or unparsable entry yields fallback (the failures
// logged as warnings). A nil store yields a purely in-memory cell pinned to
// the same contract, for hosts without a persistent environment.
//
// The cell watches the store for the key: a change from another context with
// a non-nil value overrides the in-memory value. Changes to other keys and
// deletion events are ignored. The watch is released by Close, or with the
// current scope if one is active.
func Persisted[T any](store storage.Store, key string, fallback T, opts ...Option) *Cell[T] {
	cfg := newConfig(opts)

	c := &Cell[T]{
		key:      key,
		fallback: fallback,
		store:    store,
		log:      cfg.log,
	}
	c.sig = reactive.NewSignal(c.load())

	if store != nil {
		c.cancelWatch = storage.Watch(store, c.onStoreEvent)
	}
	if s := reactive.ActiveScope(); s != nil {
		s.OnCleanup(c.Close)
	}
	return c
}

// load reads the initial value, degrading to fallback on any failure.
func (c *Cell[T]) load() T {
	if c.store == nil {
		return c.fallback
	}

	data, ok, err := c.store.Get(context.Background(), c.key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", c.key).Msg("read persisted value")
		return c.fallback
	}
	if !ok {
		return c.fallback
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		c.log.Warn().Err(err).Str("key", c.key).Msg("decode persisted value")
		return c.fallback
	}
	return value
}

func (c *Cell[T]) onStoreEvent(ev storage.Event) {
	if ev.Key != c.key || ev.Value == nil {
		return
	}
	var value T
	if err := json.Unmarshal(ev.Value, &value); err != nil {
		c.log.Warn().Err(err).Str("key", c.key).Msg("decode change event")
		return
	}
	c.sig.Set(value)
}

// Get returns the current value, subscribing the active listener.
func (c *Cell[T]) Get() T {
	return c.sig.Get()
}

// Signal exposes the cell's value signal for effects and derived state.
func (c *Cell[T]) Signal() *reactive.Signal[T] {
	return c.sig
}

// Set replaces the value and persists it. The in-memory value advances even
// when serialization or the store write fails; the failure is logged and the
// store keeps its previous entry until the next successful write.
func (c *Cell[T]) Set(value T) {
	c.sig.Set(value)
	c.persist(value)
}

// SetFunc replaces the value with fn applied to the current one.
func (c *Cell[T]) SetFunc(fn func(prev T) T) {
	c.Set(fn(c.sig.Peek()))
}

// Clear deletes the store entry and resets the value to the fallback. The
// in-memory reset happens regardless of whether the deletion succeeds.
func (c *Cell[T]) Clear() {
	c.sig.Set(c.fallback)
	if c.store == nil {
		return
	}
	if err := c.store.Delete(context.Background(), c.key); err != nil {
		c.log.Warn().Err(err).Str("key", c.key).Msg("clear persisted value")
	}
}

func (c *Cell[T]) persist(value T) {
	if c.store == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.log.Warn().Err(err).Str("key", c.key).Msg("encode persisted value")
		return
	}
	if err := c.store.Set(context.Background(), c.key, data); err != nil {
		c.log.Warn().Err(err).Str("key", c.key).Msg("write persisted value")
	}
}

// Close releases the store watch. The cell's value stays readable; it just
// stops following other contexts.
func (c *Cell[T]) Close() {
	if c.cancelWatch != nil {
		c.cancelWatch()
		c.cancelWatch = nil
	}
}
