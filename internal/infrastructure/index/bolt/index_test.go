package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mismelpoulout/nota/internal/core/domain"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = ix.Close() })
	return ix
}

func TestIndexAndSearchRoundTrip(t *testing.T) {
	ix := openTestIndex(t)

	doc := &domain.Document{ID: "doc-1", Title: "Guía de neumonía", URL: "https://example.org/neumonia"}
	chunks := []string{
		"La neumonía adquirida en la comunidad se trata con amoxicilina.",
		"El dengue es una enfermedad viral transmitida por mosquitos.",
	}
	if err := ix.IndexDocument(doc, chunks); err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}

	out, err := ix.SearchIndex(context.Background(), "tratamiento neumonía amoxicilina", 5)
	if err != nil {
		t.Fatalf("SearchIndex() error = %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("expected results")
	}
	if out[0].Text != chunks[0] {
		t.Fatalf("expected pneumonia chunk first, got %q", out[0].Text)
	}
	if out[0].Title != doc.Title || out[0].URL != doc.URL {
		t.Fatalf("expected doc metadata on result, got %+v", out[0])
	}
}

func TestReindexDropsStaleChunks(t *testing.T) {
	ix := openTestIndex(t)

	doc := &domain.Document{ID: "doc-1", Title: "Apuntes"}
	if err := ix.IndexDocument(doc, []string{"La sarna se trata con permetrina tópica."}); err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}
	if err := ix.IndexDocument(doc, []string{"La escabiosis es una infestación cutánea."}); err != nil {
		t.Fatalf("reindex error = %v", err)
	}

	out, err := ix.SearchIndex(context.Background(), "permetrina", 5)
	if err != nil {
		t.Fatalf("SearchIndex() error = %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected stale chunk to be gone, got %d results", len(out))
	}
}

func TestSearchIndexEmptyQuery(t *testing.T) {
	ix := openTestIndex(t)

	out, err := ix.SearchIndex(context.Background(), "  ", 5)
	if err != nil {
		t.Fatalf("SearchIndex() error = %v", err)
	}
	if out != nil {
		t.Fatalf("expected nil results for empty query, got %v", out)
	}
}
