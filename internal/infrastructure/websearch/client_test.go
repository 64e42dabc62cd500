package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mismelpoulout/nota/internal/core/domain"
)

func TestSearchWebParsesResults(t *testing.T) {
	var gotQuery, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotKey = r.Header.Get("Ocp-Apim-Subscription-Key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"webPages":{"value":[
			{"name":"Neumonía - OMS","url":"https://www.who.int/neumonia","snippet":"Datos clave"},
			{"name":"sin url","url":"","snippet":"descartado"}
		]}}`))
	}))
	defer srv.Close()

	client := New("test-key", Options{Endpoint: srv.URL})
	hits, err := client.SearchWeb(context.Background(), "neumonia tratamiento", 5)
	if err != nil {
		t.Fatalf("SearchWeb() error = %v", err)
	}
	if gotQuery != "neumonia tratamiento" {
		t.Fatalf("unexpected query sent: %q", gotQuery)
	}
	if gotKey != "test-key" {
		t.Fatalf("missing subscription key header")
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit after dropping empty url, got %d", len(hits))
	}
	if hits[0].URL != "https://www.who.int/neumonia" || hits[0].Name != "Neumonía - OMS" {
		t.Fatalf("unexpected hit: %+v", hits[0])
	}
}

func TestSearchWebWrapsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	client := New("test-key", Options{Endpoint: srv.URL})
	_, err := client.SearchWeb(context.Background(), "dengue", 5)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestNopSearcherReturnsNothing(t *testing.T) {
	hits, err := Nop{}.SearchWeb(context.Background(), "dengue", 5)
	if err != nil {
		t.Fatalf("Nop.SearchWeb() error = %v", err)
	}
	if hits != nil {
		t.Fatalf("expected no hits, got %v", hits)
	}
}
