package storage

import (
	"context"
	"sync"
)

// Memory is a shared in-process store. Each logical context (a "tab" in
// browser terms) calls Open to obtain its own handle; writes through one
// handle broadcast change events to the watchers of every other handle but
// never back to the writer's own.
type Memory struct {
	mu       sync.RWMutex
	entries  map[string][]byte
	watchers map[uint64]*memoryWatcher
	nextID   uint64
}

type memoryWatcher struct {
	origin uint64
	fn     func(Event)
}

// NewMemory creates an empty shared memory store.
func NewMemory() *Memory {
	return &Memory{
		entries:  make(map[string][]byte),
		watchers: make(map[uint64]*memoryWatcher),
	}
}

// Open returns a context handle onto the shared store.
func (m *Memory) Open() *MemoryContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	return &MemoryContext{mem: m, origin: m.nextID}
}

// broadcast delivers ev to every watcher not registered by origin.
func (m *Memory) broadcast(origin uint64, ev Event) {
	m.mu.RLock()
	var fire []func(Event)
	for _, w := range m.watchers {
		if w.origin != origin {
			fire = append(fire, w.fn)
		}
	}
	m.mu.RUnlock()

	for _, fn := range fire {
		fn(ev)
	}
}

// MemoryContext is one context's handle onto a shared Memory store. It
// implements Store and Watchable.
type MemoryContext struct {
	mem    *Memory
	origin uint64
}

// Get implements Store.
func (c *MemoryContext) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mem.mu.RLock()
	defer c.mem.mu.RUnlock()

	value, ok := c.mem.entries[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

// Set implements Store. Other contexts' watchers receive the new value.
func (c *MemoryContext) Set(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	c.mem.mu.Lock()
	c.mem.entries[key] = stored
	c.mem.mu.Unlock()

	c.mem.broadcast(c.origin, Event{Key: key, Value: stored})
	return nil
}

// Delete implements Store. Other contexts' watchers receive a nil-value
// event.
func (c *MemoryContext) Delete(_ context.Context, key string) error {
	c.mem.mu.Lock()
	_, existed := c.mem.entries[key]
	delete(c.mem.entries, key)
	c.mem.mu.Unlock()

	if existed {
		c.mem.broadcast(c.origin, Event{Key: key})
	}
	return nil
}

// Watch implements Watchable. The callback fires for changes made through
// other contexts of the same Memory store, never for this context's own.
func (c *MemoryContext) Watch(fn func(Event)) (cancel func()) {
	c.mem.mu.Lock()
	c.mem.nextID++
	id := c.mem.nextID
	c.mem.watchers[id] = &memoryWatcher{origin: c.origin, fn: fn}
	c.mem.mu.Unlock()

	return func() {
		c.mem.mu.Lock()
		delete(c.mem.watchers, id)
		c.mem.mu.Unlock()
	}
}

// Close implements Store. The shared Memory outlives individual contexts,
// so closing a context is a no-op.
func (c *MemoryContext) Close() error {
	return nil
}
