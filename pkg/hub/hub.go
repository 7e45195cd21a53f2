// Package hub relays store change events between processes over WebSocket,
// extending cross-context synchronization to contexts that share neither a
// process nor a Redis instance. The hub assigns each connection an origin at
// connect time and never echoes a frame back to its sender, matching the
// broadcast semantics of the storage backends.
package hub

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// frame is the wire format for one change event. Value is null for
// deletions, mirroring storage.Event.
type frame struct {
	Key   string `json:"key"`
	Value []byte `json:"value,omitempty"`
}

// Hub accepts WebSocket connections and fans each received change frame out
// to every other connection.
type Hub struct {
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu     sync.Mutex
	conns  map[uint64]*hubConn
	nextID uint64
}

type hubConn struct {
	id   uint64
	send chan frame
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the hub's logger. Default: no-op.
func WithLogger(log zerolog.Logger) Option {
	return func(h *Hub) {
		h.log = log
	}
}

// New creates a hub with no connections.
func New(opts ...Option) *Hub {
	h := &Hub{
		log: zerolog.Nop(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[uint64]*hubConn),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router returns the hub's HTTP surface: the WebSocket endpoint at /ws and a
// health probe at /healthz.
func (h *Hub) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/ws", h.handleWS)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade")
		return
	}

	c := h.register()
	h.log.Debug().Uint64("conn", c.id).Msg("context connected")

	go h.writeLoop(conn, c)
	h.readLoop(conn, c)

	h.unregister(c)
	conn.Close()
	h.log.Debug().Uint64("conn", c.id).Msg("context disconnected")
}

func (h *Hub) register() *hubConn {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	c := &hubConn{id: h.nextID, send: make(chan frame, 64)}
	h.conns[c.id] = c
	return c
}

func (h *Hub) unregister(c *hubConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[c.id]; ok {
		delete(h.conns, c.id)
		close(c.send)
	}
}

func (h *Hub) readLoop(conn *websocket.Conn, c *hubConn) {
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				h.log.Warn().Err(err).Uint64("conn", c.id).Msg("read frame")
			}
			return
		}
		h.broadcast(c.id, f)
	}
}

func (h *Hub) writeLoop(conn *websocket.Conn, c *hubConn) {
	for f := range c.send {
		if err := conn.WriteJSON(f); err != nil {
			h.log.Warn().Err(err).Uint64("conn", c.id).Msg("write frame")
			return
		}
	}
}

// broadcast queues f for every connection except from. A connection whose
// send buffer is full misses the frame; it catches up on its next store
// read, the same degradation the Redis backend accepts on publish failure.
func (h *Hub) broadcast(from uint64, f frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.conns {
		if id == from {
			continue
		}
		select {
		case c.send <- f:
		default:
			h.log.Warn().Uint64("conn", id).Str("key", f.Key).Msg("slow consumer, frame dropped")
		}
	}
}

// ConnCount reports the number of connected contexts.
func (h *Hub) ConnCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}
