package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mismelpoulout/nota/internal/core/domain"
)

type fakeQuestionService struct {
	answer *domain.Answer
	err    error
	asked  string
}

func (f *fakeQuestionService) Ask(_ context.Context, question string) (*domain.Answer, error) {
	f.asked = question
	return f.answer, f.err
}

type fakeIngestor struct {
	doc *domain.Document
	err error
}

func (f *fakeIngestor) Upload(_ context.Context, title, mimeType string, body io.Reader) (*domain.Document, error) {
	return f.doc, f.err
}

type fakeReader struct {
	doc *domain.Document
	err error
}

func (f *fakeReader) GetByID(context.Context, string) (*domain.Document, error) {
	return f.doc, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAskReturnsAnswer(t *testing.T) {
	svc := &fakeQuestionService{answer: &domain.Answer{
		State:    domain.RunAnsweredEarly,
		Markdown: "**Pregunta:** dengue",
	}}
	router := NewRouter(svc, &fakeIngestor{}, &fakeReader{}, nil, testLogger())

	body := strings.NewReader(`{"question":"tratamiento del dengue"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/ask", body)
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.asked != "tratamiento del dengue" {
		t.Fatalf("unexpected question passed through: %q", svc.asked)
	}

	var got domain.Answer
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.State != domain.RunAnsweredEarly {
		t.Fatalf("unexpected state %q", got.State)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	router := NewRouter(&fakeQuestionService{}, &fakeIngestor{}, &fakeReader{}, nil, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"  "}`))
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAskMapsInvalidInputError(t *testing.T) {
	svc := &fakeQuestionService{err: domain.WrapError(domain.ErrInvalidInput, "ask", errors.New("empty query"))}
	router := NewRouter(svc, &fakeIngestor{}, &fakeReader{}, nil, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"x"}`))
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUploadDocumentAccepted(t *testing.T) {
	ingestor := &fakeIngestor{doc: &domain.Document{ID: "doc-1", Status: domain.StatusUploaded}}
	router := NewRouter(&fakeQuestionService{}, ingestor, &fakeReader{}, nil, testLogger())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "guia.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write([]byte("contenido"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	reader := &fakeReader{err: domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New("id missing"))}
	router := NewRouter(&fakeQuestionService{}, &fakeIngestor{}, reader, nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/missing", nil)
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	router := NewRouter(&fakeQuestionService{}, &fakeIngestor{}, &fakeReader{}, nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/ask", nil)
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
