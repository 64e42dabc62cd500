package pagecache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/mismelpoulout/nota/internal/core/domain"
	"github.com/mismelpoulout/nota/internal/core/ports"
)

// Cache keeps cleaned page text in memory keyed by URL. Entries expire so
// updated guidance pages are eventually re-fetched.
type Cache struct {
	store *gocache.Cache
}

func New(ttl, cleanupInterval time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 30 * time.Minute
	}
	return &Cache{store: gocache.New(ttl, cleanupInterval)}
}

func (c *Cache) Get(url string) (string, bool) {
	v, ok := c.store.Get(url)
	if !ok {
		return "", false
	}
	text, ok := v.(string)
	return text, ok
}

func (c *Cache) Put(url string, text string) {
	c.store.SetDefault(url, text)
}

// CachingFetcher decorates a fetcher with the page cache. Only successful
// non-empty fetches are cached; failures stay retryable.
type CachingFetcher struct {
	inner    ports.Fetcher
	cache    ports.PageCache
	onLookup func(hit bool)
}

func NewCachingFetcher(inner ports.Fetcher, cache ports.PageCache, onLookup func(hit bool)) *CachingFetcher {
	return &CachingFetcher{inner: inner, cache: cache, onLookup: onLookup}
}

func (f *CachingFetcher) FetchAndClean(ctx context.Context, url string) (string, error) {
	if text, ok := f.cache.Get(url); ok {
		if f.onLookup != nil {
			f.onLookup(true)
		}
		if counter := domain.CacheHitCounterFrom(ctx); counter != nil {
			counter.Add(1)
		}
		return text, nil
	}
	if f.onLookup != nil {
		f.onLookup(false)
	}

	text, err := f.inner.FetchAndClean(ctx, url)
	if err != nil {
		return "", err
	}
	if text != "" {
		f.cache.Put(url, text)
	}
	return text, nil
}
