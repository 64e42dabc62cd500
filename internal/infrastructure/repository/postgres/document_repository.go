package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mismelpoulout/nota/internal/core/domain"
)

// DocumentRepository persists ingested documents and their text chunks.
// It also serves tier-1 retrieval through Postgres full-text search over
// the chunk table.
type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	url TEXT NOT NULL DEFAULT '',
	mime_type TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	evidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	published_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS doc_chunks (
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	seq INT NOT NULL,
	content TEXT NOT NULL,
	tsv tsvector GENERATED ALWAYS AS (to_tsvector('spanish', content)) STORED,
	PRIMARY KEY (document_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_doc_chunks_tsv ON doc_chunks USING GIN (tsv);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, title, url, mime_type, storage_path, evidence, status, error_message, published_at, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`,
		doc.ID, doc.Title, doc.URL, doc.MimeType, doc.StoragePath, doc.Evidence,
		string(doc.Status), doc.Error, nullTime(doc.PublishedAt), doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, url, mime_type, storage_path, evidence, status, error_message, published_at, created_at, updated_at
FROM documents
WHERE id = $1
`, id)

	var doc domain.Document
	var status string
	var publishedAt sql.NullTime

	err := row.Scan(
		&doc.ID, &doc.Title, &doc.URL, &doc.MimeType, &doc.StoragePath, &doc.Evidence,
		&status, &doc.Error, &publishedAt, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	doc.Status = domain.DocumentStatus(status)
	if publishedAt.Valid {
		doc.PublishedAt = publishedAt.Time
	}
	return &doc, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "update document status", fmt.Errorf("id %s", id))
	}
	return nil
}

func (r *DocumentRepository) SaveChunks(ctx context.Context, doc *domain.Document, chunks []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chunks tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM doc_chunks WHERE document_id = $1`, doc.ID); err != nil {
		return fmt.Errorf("clear old chunks: %w", err)
	}
	for i, chunk := range chunks {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO doc_chunks (document_id, seq, content) VALUES ($1, $2, $3)
`, doc.ID, i, chunk); err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE documents SET evidence = $2, updated_at = $3 WHERE id = $1
`, doc.ID, doc.Evidence, time.Now().UTC()); err != nil {
		return fmt.Errorf("update document evidence: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunks tx: %w", err)
	}
	return nil
}

// SearchLocal ranks ready chunks with Spanish full-text search. One
// SourceDocument per matching chunk keeps the caller's segmentation simple.
func (r *DocumentRepository) SearchLocal(ctx context.Context, query string, topK int) ([]domain.SourceDocument, error) {
	if topK <= 0 {
		topK = 10
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT d.title, d.url, c.content, d.published_at
FROM doc_chunks c
JOIN documents d ON d.id = c.document_id
WHERE d.status = $1 AND c.tsv @@ plainto_tsquery('spanish', $2)
ORDER BY ts_rank(c.tsv, plainto_tsquery('spanish', $2)) DESC
LIMIT $3
`, string(domain.StatusReady), query, topK)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	defer rows.Close()

	var out []domain.SourceDocument
	for rows.Next() {
		var doc domain.SourceDocument
		var publishedAt sql.NullTime
		if err := rows.Scan(&doc.Title, &doc.URL, &doc.Text, &publishedAt); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if publishedAt.Valid {
			doc.PublishedAt = publishedAt.Time
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return out, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
