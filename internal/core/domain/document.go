package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// Document is the metadata record of one ingested source in the local store.
type Document struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	URL         string         `json:"url,omitempty"`
	MimeType    string         `json:"mime_type"`
	StoragePath string         `json:"storage_path"`
	Evidence    float64        `json:"evidence,omitempty"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	PublishedAt time.Time      `json:"published_at,omitzero"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
