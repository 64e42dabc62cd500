package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mismelpoulout/nota/internal/core/domain"
)

const samplePage = `<!DOCTYPE html>
<html><head><title>Guía</title><style>body{color:red}</style></head>
<body>
<nav>Inicio | Contacto</nav>
<script>trackVisit();</script>
<article>
<h1>Neumonía adquirida en la comunidad</h1>
<p>El tratamiento de primera línea es amoxicilina 500 mg cada 8 horas.</p>
<p>Los síntomas incluyen fiebre, tos y dolor torácico.</p>
</article>
<footer>© 2024</footer>
</body></html>`

func TestExtractTextDropsChrome(t *testing.T) {
	text, err := ExtractText(samplePage)
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if !strings.Contains(text, "amoxicilina 500 mg cada 8 horas") {
		t.Fatalf("expected article text, got %q", text)
	}
	for _, banned := range []string{"trackVisit", "Inicio | Contacto", "© 2024", "color:red"} {
		if strings.Contains(text, banned) {
			t.Fatalf("expected %q to be stripped, got %q", banned, text)
		}
	}
}

func TestFetchAndCleanHTMLPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	f := New(Options{})
	text, err := f.FetchAndClean(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchAndClean() error = %v", err)
	}
	if !strings.Contains(text, "fiebre, tos y dolor torácico") {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestFetchAndCleanRejectsBinaryContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte{0x25, 0x50, 0x44, 0x46})
	}))
	defer srv.Close()

	f := New(Options{})
	_, err := f.FetchAndClean(context.Background(), srv.URL)
	if !domain.IsKind(err, domain.ErrMalformedSource) {
		t.Fatalf("expected ErrMalformedSource, got %v", err)
	}
}

func TestFetchAndCleanSurfacesHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	f := New(Options{})
	_, err := f.FetchAndClean(context.Background(), srv.URL)
	if !domain.IsKind(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}
