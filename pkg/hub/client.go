package hub

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/jrc1883/elshaddai-hooks/pkg/storage"
)

// Client is one context's connection to a hub. Publish sends local change
// events; Watch delivers the other contexts' events. The hub never echoes a
// client's own frames back, so Watch has the same no-self-echo guarantee as
// the storage backends.
type Client struct {
	conn *websocket.Conn
	log  zerolog.Logger

	writeMu sync.Mutex

	mu       sync.Mutex
	watchers map[uint64]func(storage.Event)
	nextID   uint64

	closed chan struct{}
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientLogger sets the client's logger. Default: no-op.
func WithClientLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// Dial connects to a hub's /ws endpoint. url is a ws:// or wss:// URL.
func Dial(url string, opts ...ClientOption) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial hub: %w", err)
	}

	c := &Client{
		conn:     conn,
		log:      zerolog.Nop(),
		watchers: make(map[uint64]func(storage.Event)),
		closed:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.readLoop()
	return c, nil
}

// Publish sends a change event to the hub for delivery to other contexts.
func (c *Client) Publish(ev storage.Event) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(frame{Key: ev.Key, Value: ev.Value}); err != nil {
		return fmt.Errorf("publish %q: %w", ev.Key, err)
	}
	return nil
}

// Watch registers fn for events from other contexts.
func (c *Client) Watch(fn func(storage.Event)) (cancel func()) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.watchers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.watchers, id)
		c.mu.Unlock()
	}
}

func (c *Client) readLoop() {
	for {
		var f frame
		if err := c.conn.ReadJSON(&f); err != nil {
			select {
			case <-c.closed:
			default:
				c.log.Warn().Err(err).Msg("hub connection lost")
			}
			return
		}

		c.mu.Lock()
		fire := make([]func(storage.Event), 0, len(c.watchers))
		for _, fn := range c.watchers {
			fire = append(fire, fn)
		}
		c.mu.Unlock()

		for _, fn := range fire {
			fn(storage.Event{Key: f.Key, Value: f.Value})
		}
	}
}

// Close disconnects from the hub.
func (c *Client) Close() error {
	select {
	case <-c.closed:
		return nil
	default:
	}
	close(c.closed)
	return c.conn.Close()
}

// Bridge wires a local store to a hub client: local changes are published to
// the hub, and other contexts' events are applied to the store. Applied
// writes go through the store's own no-self-echo path, so they reach the
// store's other local watchers without looping back to the hub.
//
// Give the bridge a context handle of its own (for Memory, a dedicated
// Open). Writes made through the bridge's handle are invisible to the
// bridge's watch and would never be relayed.
func Bridge(store storage.Store, client *Client) (stop func()) {
	log := client.log

	cancelLocal := storage.Watch(store, func(ev storage.Event) {
		if err := client.Publish(ev); err != nil {
			log.Warn().Err(err).Str("key", ev.Key).Msg("relay local change")
		}
	})

	cancelRemote := client.Watch(func(ev storage.Event) {
		ctx := context.Background()
		var err error
		if ev.Value == nil {
			err = store.Delete(ctx, ev.Key)
		} else {
			err = store.Set(ctx, ev.Key, ev.Value)
		}
		if err != nil {
			log.Warn().Err(err).Str("key", ev.Key).Msg("apply remote change")
		}
	})

	return func() {
		cancelLocal()
		cancelRemote()
	}
}
