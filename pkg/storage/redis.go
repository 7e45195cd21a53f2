package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Redis is a Redis-backed store. Cross-context events travel over a pub/sub
// channel; every store instance carries a random origin ID so subscribers
// can drop their own echoes, since Redis delivers published messages back
// to the publisher's connection too.
type Redis struct {
	client  *redis.Client
	prefix  string
	channel string
	origin  string
	log     zerolog.Logger

	mu       sync.Mutex
	watchers map[uint64]func(Event)
	nextID   uint64

	subscribeOnce sync.Once
	pubsub        *redis.PubSub
	closed        chan struct{}
}

// redisEvent is the pub/sub wire format. Value is base64 in transit (the
// encoding/json default for []byte) and null for deletions.
type redisEvent struct {
	Origin string `json:"origin"`
	Key    string `json:"key"`
	Value  []byte `json:"value,omitempty"`
}

// RedisOption configures a Redis store.
type RedisOption func(*Redis)

// WithRedisPrefix sets the key prefix. Default: "elshaddai:kv:".
func WithRedisPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		r.prefix = prefix
	}
}

// WithRedisChannel sets the pub/sub channel name.
// Default: "elshaddai:kv:events".
func WithRedisChannel(channel string) RedisOption {
	return func(r *Redis) {
		r.channel = channel
	}
}

// WithRedisLogger sets the logger for broadcast failures. Default: no-op.
func WithRedisLogger(log zerolog.Logger) RedisOption {
	return func(r *Redis) {
		r.log = log
	}
}

// NewRedis creates a store over an existing client. The client is injected
// and may be shared; Close does not close it.
func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{
		client:   client,
		prefix:   "elshaddai:kv:",
		channel:  "elshaddai:kv:events",
		origin:   newOriginID(),
		log:      zerolog.Nop(),
		watchers: make(map[uint64]func(Event)),
		closed:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func newOriginID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func (r *Redis) key(key string) string {
	return r.prefix + key
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %q: %w", key, err)
	}
	return data, true, nil
}

// Set implements Store. The write succeeds even when the change broadcast
// fails; broadcast failures are logged and other contexts catch up on their
// next read.
func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	r.publish(ctx, redisEvent{Origin: r.origin, Key: key, Value: value})
	return nil
}

// Delete implements Store.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	r.publish(ctx, redisEvent{Origin: r.origin, Key: key})
	return nil
}

func (r *Redis) publish(ctx context.Context, ev redisEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		r.log.Warn().Err(err).Str("key", ev.Key).Msg("encode change event")
		return
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.log.Warn().Err(err).Str("key", ev.Key).Msg("broadcast change event")
	}
}

// Watch implements Watchable. The pub/sub subscription starts on first use
// and is shared by all watchers of this store instance.
func (r *Redis) Watch(fn func(Event)) (cancel func()) {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.watchers[id] = fn
	r.mu.Unlock()

	r.subscribeOnce.Do(func() {
		r.pubsub = r.client.Subscribe(context.Background(), r.channel)
		go r.receiveLoop()
	})

	return func() {
		r.mu.Lock()
		delete(r.watchers, id)
		r.mu.Unlock()
	}
}

func (r *Redis) receiveLoop() {
	ch := r.pubsub.Channel()
	for {
		select {
		case <-r.closed:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev redisEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				r.log.Warn().Err(err).Msg("decode change event")
				continue
			}
			if ev.Origin == r.origin {
				continue
			}
			r.notify(Event{Key: ev.Key, Value: ev.Value})
		}
	}
}

func (r *Redis) notify(ev Event) {
	r.mu.Lock()
	fire := make([]func(Event), 0, len(r.watchers))
	for _, fn := range r.watchers {
		fire = append(fire, fn)
	}
	r.mu.Unlock()

	for _, fn := range fire {
		fn(ev)
	}
}

// Close stops the subscription. The injected client stays open: it may be
// shared with other components, as with the session stores this mirrors.
func (r *Redis) Close() error {
	select {
	case <-r.closed:
		return nil
	default:
	}
	close(r.closed)
	if r.pubsub != nil {
		return r.pubsub.Close()
	}
	return nil
}
