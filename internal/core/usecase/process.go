package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mismelpoulout/nota/internal/core/domain"
	"github.com/mismelpoulout/nota/internal/core/ports"
)

// ProcessUseCase runs the worker side of ingestion: extract text, score the
// source's evidence level, split into chunks and write them to both the
// relational store and the full-text index.
type ProcessUseCase struct {
	repo      ports.DocumentRepository
	extractor ports.TextExtractor
	chunker   ports.Chunker
	indexer   ports.DocumentIndexer
	scorer    *EvidenceScorer
	logger    *slog.Logger
}

func NewProcessUseCase(
	repo ports.DocumentRepository,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	indexer ports.DocumentIndexer,
	scorer *EvidenceScorer,
	logger *slog.Logger,
) *ProcessUseCase {
	return &ProcessUseCase{
		repo:      repo,
		extractor: extractor,
		chunker:   chunker,
		indexer:   indexer,
		scorer:    scorer,
		logger:    logger,
	}
}

func (uc *ProcessUseCase) ProcessByID(ctx context.Context, documentID string) error {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("process %s: load: %w", documentID, err)
	}
	if doc.Status == domain.StatusReady {
		uc.logger.Info("document already processed", "document_id", documentID)
		return nil
	}

	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("process %s: mark processing: %w", documentID, err)
	}

	if err := uc.process(ctx, doc); err != nil {
		if stErr := uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, err.Error()); stErr != nil {
			uc.logger.Error("status update failed", "document_id", documentID, "error", stErr)
		}
		return fmt.Errorf("process %s: %w", documentID, err)
	}

	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("process %s: mark ready: %w", documentID, err)
	}
	uc.logger.Info("document processed", "document_id", documentID)
	return nil
}

func (uc *ProcessUseCase) process(ctx context.Context, doc *domain.Document) error {
	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("extract: %w: no text content", domain.ErrMalformedSource)
	}

	snippet := text
	if len(snippet) > 2000 {
		snippet = snippet[:2000]
	}
	doc.Evidence = uc.scorer.Score(snippet, doc.URL, doc.Title)

	chunks := uc.chunker.Split(text)
	if len(chunks) == 0 {
		return fmt.Errorf("chunk: %w: nothing to index", domain.ErrMalformedSource)
	}

	if err := uc.repo.SaveChunks(ctx, doc, chunks); err != nil {
		return fmt.Errorf("save chunks: %w", err)
	}
	if err := uc.indexer.IndexDocument(doc, chunks); err != nil {
		return fmt.Errorf("index: %w", err)
	}

	uc.logger.Debug("document indexed",
		"document_id", doc.ID, "chunks", len(chunks), "evidence", doc.Evidence)
	return nil
}
