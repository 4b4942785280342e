package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedis(client, time.Minute)
}

type listing struct {
	IDs []int `json:"ids"`
}

func TestRedis_LookupMissThenHit(t *testing.T) {
	_, c := newTestRedis(t)
	ctx := context.Background()

	var got listing
	gen, hit := Lookup(ctx, c, "events:all", &got)
	if hit {
		t.Fatal("expected miss on empty cache")
	}
	if gen != 0 {
		t.Fatalf("expected generation 0, got %d", gen)
	}

	Store(ctx, c, gen, "events:all", listing{IDs: []int{1, 2}})

	if _, hit := Lookup(ctx, c, "events:all", &got); !hit {
		t.Fatal("expected hit after store")
	}
	if len(got.IDs) != 2 || got.IDs[1] != 2 {
		t.Errorf("unexpected cached value %+v", got)
	}
}

func TestRedis_InvalidateHidesOldEntries(t *testing.T) {
	_, c := newTestRedis(t)
	ctx := context.Background()

	Store(ctx, c, 0, "events:all", listing{IDs: []int{1}})
	Bust(ctx, c)

	var got listing
	gen, hit := Lookup(ctx, c, "events:all", &got)
	if hit {
		t.Fatal("expected miss after invalidation")
	}
	if gen != 1 {
		t.Errorf("expected generation 1, got %d", gen)
	}
}

func TestRedis_StaleFillIsUnreachable(t *testing.T) {
	_, c := newTestRedis(t)
	ctx := context.Background()

	var got listing
	gen, _ := Lookup(ctx, c, "events:all", &got)

	// A mutation commits while the reader is still querying the store.
	Bust(ctx, c)
	Store(ctx, c, gen, "events:all", listing{IDs: []int{99}})

	if _, hit := Lookup(ctx, c, "events:all", &got); hit {
		t.Fatalf("stale fill should not be visible, got %+v", got)
	}
}

func TestRedis_EntriesExpire(t *testing.T) {
	mr, c := newTestRedis(t)
	ctx := context.Background()

	Store(ctx, c, 0, "events:all", listing{IDs: []int{1}})
	mr.FastForward(2 * time.Minute)

	var got listing
	if _, hit := Lookup(ctx, c, "events:all", &got); hit {
		t.Fatal("expected entry to expire after TTL")
	}
}

func TestRedis_UnavailableIsAMiss(t *testing.T) {
	mr, c := newTestRedis(t)
	ctx := context.Background()
	mr.Close()

	var got listing
	gen, hit := Lookup(ctx, c, "events:all", &got)
	if hit || gen >= 0 {
		t.Fatalf("expected unavailable cache to miss with negative gen, got gen=%d hit=%v", gen, hit)
	}
	if err := c.Ping(ctx); err == nil {
		t.Error("expected ping to fail")
	}
	// Must not panic or block.
	Store(ctx, c, gen, "events:all", listing{})
	Bust(ctx, c)
}

func TestNoop(t *testing.T) {
	c := NewNoop()
	ctx := context.Background()
	Store(ctx, c, 0, "k", listing{IDs: []int{1}})
	var got listing
	if _, hit := Lookup(ctx, c, "k", &got); hit {
		t.Fatal("noop cache should never hit")
	}
}
