// Package cache provides the optional read-through cache for enriched event
// listings. Entries are never updated in place: every mutation bumps a
// generation counter, which makes all earlier entries unreachable at once
// and lets them expire by TTL.
//
// Readers capture the generation before querying the store and write back
// under that same generation. A fill that races with a mutation therefore
// lands in a generation nobody reads any more.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Cache stores opaque values under (generation, key).
type Cache interface {
	// Generation returns the current generation.
	Generation(ctx context.Context) (int64, error)

	// Get returns the value stored for key in gen. ok is false on a miss.
	Get(ctx context.Context, gen int64, key string) (value []byte, ok bool, err error)

	// Set stores value under key in gen.
	Set(ctx context.Context, gen int64, key string, value []byte) error

	// Invalidate starts a new generation.
	Invalidate(ctx context.Context) error

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}

// Lookup decodes the cached JSON value for key into dest. It returns the
// generation to hand to Store on a miss; gen is negative when the cache is
// unavailable, in which case Store does nothing. Cache errors and
// undecodable entries are logged and reported as a miss.
func Lookup(ctx context.Context, c Cache, key string, dest any) (gen int64, hit bool) {
	gen, err := c.Generation(ctx)
	if err != nil {
		slog.Warn("cache generation read failed", slog.Any("error", err))
		return -1, false
	}

	data, ok, err := c.Get(ctx, gen, key)
	if err != nil {
		slog.Warn("cache read failed", slog.String("key", key), slog.Any("error", err))
		return gen, false
	}
	if !ok {
		return gen, false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		slog.Warn("discarding undecodable cache entry", slog.String("key", key), slog.Any("error", err))
		return gen, false
	}
	return gen, true
}

// Store encodes value as JSON and writes it under key in gen. Failures are
// logged and otherwise ignored.
func Store(ctx context.Context, c Cache, gen int64, key string, value any) {
	if gen < 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		slog.Warn("cache encode failed", slog.String("key", key), slog.Any("error", err))
		return
	}
	if err := c.Set(ctx, gen, key, data); err != nil {
		slog.Warn("cache write failed", slog.String("key", key), slog.Any("error", err))
	}
}

// Bust invalidates c, logging rather than returning failures: a committed
// mutation must not be reported as failed because the cache is down.
func Bust(ctx context.Context, c Cache) {
	if err := c.Invalidate(ctx); err != nil {
		slog.Error("cache invalidation failed", slog.Any("error", err))
	}
}

// noop is used when no Redis URL is configured.
type noop struct{}

// NewNoop returns a Cache that never stores anything.
func NewNoop() Cache {
	return noop{}
}

func (noop) Generation(context.Context) (int64, error)               { return 0, nil }
func (noop) Get(context.Context, int64, string) ([]byte, bool, error) { return nil, false, nil }
func (noop) Set(context.Context, int64, string, []byte) error         { return nil }
func (noop) Invalidate(context.Context) error                         { return nil }
func (noop) Ping(context.Context) error                               { return nil }
