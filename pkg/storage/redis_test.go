package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func openRedisPair(t *testing.T) (*Redis, *Redis) {
	t.Helper()
	mr := miniredis.RunT(t)

	newStore := func() *Redis {
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { client.Close() })
		store := NewRedis(client)
		t.Cleanup(func() { store.Close() })
		return store
	}
	return newStore(), newStore()
}

func TestRedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := openRedisPair(t)

	if _, ok, err := store.Get(ctx, "theme"); err != nil || ok {
		t.Fatalf("Get on empty store = ok %v, err %v", ok, err)
	}

	if err := store.Set(ctx, "theme", []byte(`"dark"`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	value, ok, err := store.Get(ctx, "theme")
	if err != nil || !ok || string(value) != `"dark"` {
		t.Fatalf("Get = %q, %v, %v", value, ok, err)
	}

	if err := store.Delete(ctx, "theme"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "theme"); ok {
		t.Error("entry survived Delete")
	}
}

func TestRedisKeysArePrefixed(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedis(client, WithRedisPrefix("app:settings:"))
	defer store.Close()

	if err := store.Set(ctx, "theme", []byte("1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, err := mr.Get("app:settings:theme"); err != nil || got != "1" {
		t.Errorf("raw key app:settings:theme = %q, %v", got, err)
	}
}

func TestRedisCrossContextEvents(t *testing.T) {
	ctx := context.Background()
	writer, observer := openRedisPair(t)

	events := make(chan Event, 4)
	cancel := observer.Watch(func(ev Event) { events <- ev })
	defer cancel()

	// Subscribe is asynchronous; give the pub/sub connection a moment to
	// register before publishing.
	time.Sleep(100 * time.Millisecond)

	if err := writer.Set(ctx, "count", []byte("7")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	ev := waitEvent(t, events)
	if ev.Key != "count" || string(ev.Value) != "7" {
		t.Errorf("event = %+v, want count=7", ev)
	}

	if err := writer.Delete(ctx, "count"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	ev = waitEvent(t, events)
	if ev.Key != "count" || ev.Value != nil {
		t.Errorf("delete event = %+v, want nil value", ev)
	}
}

func TestRedisWriterNotEchoed(t *testing.T) {
	ctx := context.Background()
	writer, observer := openRedisPair(t)

	selfEvents := make(chan Event, 4)
	cancelSelf := writer.Watch(func(ev Event) { selfEvents <- ev })
	defer cancelSelf()

	otherEvents := make(chan Event, 4)
	cancelOther := observer.Watch(func(ev Event) { otherEvents <- ev })
	defer cancelOther()

	time.Sleep(100 * time.Millisecond)

	if err := writer.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	waitEvent(t, otherEvents)
	expectQuiet(t, selfEvents)
}

func TestRedisWatchCancel(t *testing.T) {
	ctx := context.Background()
	writer, observer := openRedisPair(t)

	events := make(chan Event, 4)
	cancel := observer.Watch(func(ev Event) { events <- ev })
	time.Sleep(100 * time.Millisecond)
	cancel()

	if err := writer.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	expectQuiet(t, events)
}
