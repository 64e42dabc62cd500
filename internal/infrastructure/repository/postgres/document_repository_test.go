package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/mismelpoulout/nota/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DocumentRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, title, url, mime_type").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateStatusReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("missing", string(domain.StatusProcessing), "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", domain.StatusProcessing, "")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveChunksReplacesOldRows(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	doc := &domain.Document{ID: "doc-1", Evidence: 2.5}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM doc_chunks").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO doc_chunks").
		WithArgs("doc-1", 0, "primer fragmento").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO doc_chunks").
		WithArgs("doc-1", 1, "segundo fragmento").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE documents SET evidence").
		WithArgs("doc-1", 2.5, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SaveChunks(context.Background(), doc, []string{"primer fragmento", "segundo fragmento"})
	if err != nil {
		t.Fatalf("SaveChunks() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSearchLocalMapsRows(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	published := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"title", "url", "content", "published_at"}).
		AddRow("Guía de neumonía", "https://example.org/guia", "El tratamiento inicial es amoxicilina.", published).
		AddRow("Apuntes locales", "", "La neumonía se presenta con fiebre y tos.", nil)

	mock.ExpectQuery("SELECT d.title, d.url, c.content").
		WithArgs(string(domain.StatusReady), "neumonia tratamiento", 5).
		WillReturnRows(rows)

	out, err := repo.SearchLocal(context.Background(), "neumonia tratamiento", 5)
	if err != nil {
		t.Fatalf("SearchLocal() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out))
	}
	if out[0].Title != "Guía de neumonía" || !out[0].PublishedAt.Equal(published) {
		t.Fatalf("unexpected first result: %+v", out[0])
	}
	if !out[1].PublishedAt.IsZero() {
		t.Fatalf("expected zero published_at for null column, got %v", out[1].PublishedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
