package ports

import (
	"context"
	"io"
	"time"

	"github.com/mismelpoulout/nota/internal/core/domain"
)

// LocalSearcher queries the local document store (tier 1).
// Implementations return an empty slice on corruption or IO error rather
// than surfacing per-row failures to the pipeline.
type LocalSearcher interface {
	SearchLocal(ctx context.Context, query string, topK int) ([]domain.SourceDocument, error)
}

// IndexSearcher queries the on-device full-text index (tier 2).
type IndexSearcher interface {
	SearchIndex(ctx context.Context, query string, topK int) ([]domain.SourceDocument, error)
}

// WebSearcher queries a web search API (tiers 3 and 4). Returns an empty
// slice when unconfigured.
type WebSearcher interface {
	SearchWeb(ctx context.Context, query string, count int) ([]domain.WebHit, error)
}

// Fetcher downloads a page and reduces it to plain text. An empty string
// with a nil error means the page yielded no usable content.
type Fetcher interface {
	FetchAndClean(ctx context.Context, url string) (string, error)
}

// PageCache stores cleaned page text for a configured TTL.
type PageCache interface {
	Get(url string) (string, bool)
	Put(url string, text string)
}

// Embedder builds unit-normalized vectors for candidate texts and queries.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// SectionClassifier assigns each sentence to a clinical section.
type SectionClassifier interface {
	Classify(ctx context.Context, sentences []string) ([]domain.Section, error)
}

// AnswerGenerator produces a prose summary from already rendered evidence.
// It never receives raw unranked text.
type AnswerGenerator interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// DocumentRepository persists and reads ingested document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveChunks(ctx context.Context, doc *domain.Document, chunks []string) error
}

// DocumentIndexer writes ingested documents into the full-text index.
type DocumentIndexer interface {
	IndexDocument(doc *domain.Document, chunks []string) error
}

// ObjectStorage stores raw uploaded files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Chunker splits extracted text into indexable chunks.
type Chunker interface {
	Split(text string) []string
}

// Clock lets tests pin the reference time used by recency scoring.
type Clock func() time.Time
