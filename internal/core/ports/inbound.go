package ports

import (
	"context"
	"io"

	"github.com/mismelpoulout/nota/internal/core/domain"
)

// QuestionService is the inbound contract for answering clinical questions.
type QuestionService interface {
	Ask(ctx context.Context, question string) (*domain.Answer, error)
}

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, title, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous ingestion.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// DocumentReader is the inbound read model for document metadata.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}
