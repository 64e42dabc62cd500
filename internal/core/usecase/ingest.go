package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mismelpoulout/nota/internal/core/domain"
	"github.com/mismelpoulout/nota/internal/core/ports"
)

// IngestUseCase accepts an uploaded document, stores the raw bytes and
// enqueues it for asynchronous processing. The upload returns as soon as
// the record and the event are durable.
type IngestUseCase struct {
	repo    ports.DocumentRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
	logger  *slog.Logger
	now     ports.Clock
}

func NewIngestUseCase(repo ports.DocumentRepository, storage ports.ObjectStorage, queue ports.MessageQueue, logger *slog.Logger) *IngestUseCase {
	return &IngestUseCase{repo: repo, storage: storage, queue: queue, logger: logger, now: time.Now}
}

func (uc *IngestUseCase) Upload(ctx context.Context, title, mimeType string, body io.Reader) (*domain.Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("upload: %w: empty title", domain.ErrInvalidInput)
	}
	if body == nil {
		return nil, fmt.Errorf("upload: %w: empty body", domain.ErrInvalidInput)
	}

	now := uc.now()
	doc := &domain.Document{
		ID:          uuid.NewString(),
		Title:       title,
		MimeType:    mimeType,
		StoragePath: "documents/" + uuid.NewString(),
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.storage.Save(ctx, doc.StoragePath, body); err != nil {
		return nil, fmt.Errorf("upload: save object: %w", err)
	}
	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("upload: create record: %w", err)
	}
	if err := uc.queue.PublishDocumentIngested(ctx, doc.ID); err != nil {
		// The record stays in "uploaded" so a requeue can pick it up.
		uc.logger.Error("publish failed", "document_id", doc.ID, "error", err)
		return nil, fmt.Errorf("upload: publish event: %w", err)
	}

	uc.logger.Info("document uploaded", "document_id", doc.ID, "title", title, "mime_type", mimeType)
	return doc, nil
}

// GetByID exposes the read model used by the status endpoint.
func (uc *IngestUseCase) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("get document: %w: empty id", domain.ErrInvalidInput)
	}
	return uc.repo.GetByID(ctx, id)
}
