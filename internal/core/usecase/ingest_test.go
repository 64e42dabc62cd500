package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/mismelpoulout/nota/internal/core/domain"
)

type fakeRepo struct {
	created  []*domain.Document
	statuses []struct {
		id     string
		status domain.DocumentStatus
		errMsg string
	}
	chunksSaved [][]string
	doc         *domain.Document
	getErr      error
	createErr   error
	saveErr     error
}

func (f *fakeRepo) Create(_ context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, doc)
	return nil
}

func (f *fakeRepo) GetByID(context.Context, string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.doc, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, errMsg string) error {
	f.statuses = append(f.statuses, struct {
		id     string
		status domain.DocumentStatus
		errMsg string
	}{id, status, errMsg})
	return nil
}

func (f *fakeRepo) SaveChunks(_ context.Context, _ *domain.Document, chunks []string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.chunksSaved = append(f.chunksSaved, chunks)
	return nil
}

type fakeStorage struct {
	saved map[string][]byte
	err   error
}

func (f *fakeStorage) Save(_ context.Context, key string, data io.Reader) error {
	if f.err != nil {
		return f.err
	}
	b, _ := io.ReadAll(data)
	if f.saved == nil {
		f.saved = map[string][]byte{}
	}
	f.saved[key] = b
	return nil
}

func (f *fakeStorage) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

type fakeQueue struct {
	published []string
	err       error
}

func (f *fakeQueue) PublishDocumentIngested(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, id)
	return nil
}

func (f *fakeQueue) SubscribeDocumentIngested(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}

func TestUploadStoresPublishesAndRecords(t *testing.T) {
	repo := &fakeRepo{}
	storage := &fakeStorage{}
	queue := &fakeQueue{}
	uc := NewIngestUseCase(repo, storage, queue, testLogger())

	doc, err := uc.Upload(context.Background(), "Guía de escabiosis", "application/pdf", bytes.NewBufferString("contenido"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if doc.ID == "" || doc.Status != domain.StatusUploaded {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if !strings.HasPrefix(doc.StoragePath, "documents/") {
		t.Fatalf("unexpected storage path: %q", doc.StoragePath)
	}
	if _, ok := storage.saved[doc.StoragePath]; !ok {
		t.Fatal("raw bytes were not stored")
	}
	if len(repo.created) != 1 || repo.created[0].ID != doc.ID {
		t.Fatalf("record not created: %+v", repo.created)
	}
	if len(queue.published) != 1 || queue.published[0] != doc.ID {
		t.Fatalf("event not published: %v", queue.published)
	}
}

func TestUploadValidatesInput(t *testing.T) {
	uc := NewIngestUseCase(&fakeRepo{}, &fakeStorage{}, &fakeQueue{}, testLogger())

	if _, err := uc.Upload(context.Background(), "  ", "text/plain", bytes.NewBufferString("x")); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty title, got %v", err)
	}
	if _, err := uc.Upload(context.Background(), "Título", "text/plain", nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for nil body, got %v", err)
	}
}

func TestUploadPublishFailureSurfaces(t *testing.T) {
	repo := &fakeRepo{}
	queue := &fakeQueue{err: errors.New("broker down")}
	uc := NewIngestUseCase(repo, &fakeStorage{}, queue, testLogger())

	_, err := uc.Upload(context.Background(), "Título", "text/plain", bytes.NewBufferString("x"))
	if err == nil {
		t.Fatal("expected error when publish fails")
	}
	// The record must survive for a later requeue.
	if len(repo.created) != 1 {
		t.Fatalf("expected record kept, got %+v", repo.created)
	}
}

func TestGetByIDValidatesID(t *testing.T) {
	uc := NewIngestUseCase(&fakeRepo{}, &fakeStorage{}, &fakeQueue{}, testLogger())
	if _, err := uc.GetByID(context.Background(), " "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
