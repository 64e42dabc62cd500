package domain

import (
	"context"
	"sync/atomic"
)

type cacheHitKey struct{}

// WithCacheHitCounter attaches a per-run cache hit counter to the context.
// The orchestrator installs one per question; caching layers increment it
// so RunNotes can report hits without coupling them to a metrics backend.
func WithCacheHitCounter(ctx context.Context, counter *atomic.Int64) context.Context {
	return context.WithValue(ctx, cacheHitKey{}, counter)
}

// CacheHitCounterFrom returns the run's cache hit counter, or nil when the
// context carries none. Fetches fan out, so the counter is atomic.
func CacheHitCounterFrom(ctx context.Context) *atomic.Int64 {
	counter, _ := ctx.Value(cacheHitKey{}).(*atomic.Int64)
	return counter
}
