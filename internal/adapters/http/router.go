package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mismelpoulout/nota/internal/core/ports"
	"github.com/mismelpoulout/nota/internal/observability/metrics"
)

const maxUploadBytes = 32 << 20

type Router struct {
	questions  ports.QuestionService
	ingestor   ports.DocumentIngestor
	documents  ports.DocumentReader
	apiMetrics *metrics.APIMetrics
	logger     *slog.Logger
}

func NewRouter(
	questions ports.QuestionService,
	ingestor ports.DocumentIngestor,
	documents ports.DocumentReader,
	apiMetrics *metrics.APIMetrics,
	logger *slog.Logger,
) *Router {
	return &Router{
		questions:  questions,
		ingestor:   ingestor,
		documents:  documents,
		apiMetrics: apiMetrics,
		logger:     logger,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/ask", rt.ask)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	if rt.apiMetrics != nil {
		mux.Handle("/metrics", rt.apiMetrics.Handler())
	}

	var handler http.Handler = mux
	handler = accessLogMiddleware(rt.logger, rt.apiMetrics)(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	start := time.Now()
	answer, err := rt.questions.Ask(r.Context(), req.Question)
	if err != nil {
		rt.logger.Error("ask failed",
			"request_id", requestIDFromContext(r.Context()), "error", err)
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	if rt.apiMetrics != nil {
		rt.apiMetrics.ObserveRun(string(answer.State), time.Since(start))
		rt.apiMetrics.AddTierDocuments("local", answer.Notes.LocalAdded)
		rt.apiMetrics.AddTierDocuments("index", answer.Notes.IndexAdded)
		rt.apiMetrics.AddTierDocuments("web", answer.Notes.WebAdded)
	}
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.ingestor.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		rt.logger.Error("upload failed",
			"request_id", requestIDFromContext(r.Context()), "error", err)
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.documents.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
