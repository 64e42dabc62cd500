package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadIncludesRetrievalDefaults(t *testing.T) {
	t.Setenv("CLASSIFIER_MODE", "")
	t.Setenv("CHUNK_SIZE", "")
	t.Setenv("PAGE_CACHE_TTL_MINUTES", "")
	t.Setenv("NATS_SUBJECT", "")

	cfg := Load()
	if cfg.ClassifierMode != "keyword" {
		t.Fatalf("expected default classifier mode keyword, got %q", cfg.ClassifierMode)
	}
	if cfg.ChunkSize != 800 {
		t.Fatalf("expected default chunk size 800, got %d", cfg.ChunkSize)
	}
	if cfg.PageCacheTTLMinutes != 360 {
		t.Fatalf("expected default page cache ttl 360, got %d", cfg.PageCacheTTLMinutes)
	}
	if cfg.NATSSubject != "documents.ingested" {
		t.Fatalf("expected default subject, got %q", cfg.NATSSubject)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("CLASSIFIER_MODE", "prototype")
	t.Setenv("EMBEDDING_ENABLED", "false")
	t.Setenv("FETCH_RATE_PER_SECOND", "2")

	cfg := Load()
	if cfg.ClassifierMode != "prototype" {
		t.Fatalf("expected classifier mode override, got %q", cfg.ClassifierMode)
	}
	if cfg.EmbeddingEnabled {
		t.Fatalf("expected embedding disabled")
	}
	if cfg.FetchRatePerSecond != 2 {
		t.Fatalf("expected fetch rate 2, got %d", cfg.FetchRatePerSecond)
	}
}

func TestLoadScoringDefaultsWithoutPath(t *testing.T) {
	scoring, err := LoadScoring("")
	if err != nil {
		t.Fatalf("LoadScoring() error = %v", err)
	}
	if scoring.MMRLambda != 0.75 {
		t.Fatalf("expected default mmr lambda 0.75, got %v", scoring.MMRLambda)
	}
	if scoring.MaxCitations != 12 {
		t.Fatalf("expected default citation cap 12, got %d", scoring.MaxCitations)
	}
}

func TestLoadScoringAppliesYAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoring.yaml")
	content := []byte("mmr_lambda: 0.6\nmax_citations: 5\npreferred_domains:\n  - who.int\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write scoring file: %v", err)
	}

	scoring, err := LoadScoring(path)
	if err != nil {
		t.Fatalf("LoadScoring() error = %v", err)
	}
	if scoring.MMRLambda != 0.6 {
		t.Fatalf("expected overridden lambda 0.6, got %v", scoring.MMRLambda)
	}
	if scoring.MaxCitations != 5 {
		t.Fatalf("expected overridden citation cap 5, got %d", scoring.MaxCitations)
	}
	if len(scoring.PreferredDomains) != 1 || scoring.PreferredDomains[0] != "who.int" {
		t.Fatalf("expected preferred domains override, got %v", scoring.PreferredDomains)
	}
}
