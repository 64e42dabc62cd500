package pagecache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mismelpoulout/nota/internal/core/domain"
)

type countingFetcher struct {
	calls int
	text  string
	err   error
}

func (f *countingFetcher) FetchAndClean(context.Context, string) (string, error) {
	f.calls++
	return f.text, f.err
}

func TestCachingFetcherServesSecondLookupFromCache(t *testing.T) {
	inner := &countingFetcher{text: "contenido limpio"}
	var hits, misses int
	f := NewCachingFetcher(inner, New(time.Minute, time.Minute), func(hit bool) {
		if hit {
			hits++
		} else {
			misses++
		}
	})

	for i := 0; i < 2; i++ {
		text, err := f.FetchAndClean(context.Background(), "https://example.org/guia")
		if err != nil {
			t.Fatalf("FetchAndClean() error = %v", err)
		}
		if text != "contenido limpio" {
			t.Fatalf("unexpected text %q", text)
		}
	}

	if inner.calls != 1 {
		t.Fatalf("expected 1 upstream fetch, got %d", inner.calls)
	}
	if hits != 1 || misses != 1 {
		t.Fatalf("expected 1 hit and 1 miss, got hits=%d misses=%d", hits, misses)
	}
}

func TestCachingFetcherCountsHitsOnRunCounter(t *testing.T) {
	inner := &countingFetcher{text: "contenido limpio"}
	f := NewCachingFetcher(inner, New(time.Minute, time.Minute), nil)

	counter := new(atomic.Int64)
	ctx := domain.WithCacheHitCounter(context.Background(), counter)

	for i := 0; i < 3; i++ {
		if _, err := f.FetchAndClean(ctx, "https://example.org/guia"); err != nil {
			t.Fatalf("FetchAndClean() error = %v", err)
		}
	}

	if got := counter.Load(); got != 2 {
		t.Fatalf("expected 2 counted hits, got %d", got)
	}
}

func TestCachingFetcherDoesNotCacheFailures(t *testing.T) {
	inner := &countingFetcher{err: errors.New("unreachable")}
	f := NewCachingFetcher(inner, New(time.Minute, time.Minute), nil)

	for i := 0; i < 2; i++ {
		if _, err := f.FetchAndClean(context.Background(), "https://example.org/caida"); err == nil {
			t.Fatalf("expected error")
		}
	}
	if inner.calls != 2 {
		t.Fatalf("expected failure to stay uncached, got %d calls", inner.calls)
	}
}

func TestCachingFetcherDoesNotCacheEmptyText(t *testing.T) {
	inner := &countingFetcher{text: ""}
	f := NewCachingFetcher(inner, New(time.Minute, time.Minute), nil)

	for i := 0; i < 2; i++ {
		if _, err := f.FetchAndClean(context.Background(), "https://example.org/vacia"); err != nil {
			t.Fatalf("FetchAndClean() error = %v", err)
		}
	}
	if inner.calls != 2 {
		t.Fatalf("expected empty page to stay uncached, got %d calls", inner.calls)
	}
}
