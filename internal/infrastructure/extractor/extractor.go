package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/mismelpoulout/nota/internal/core/domain"
	"github.com/mismelpoulout/nota/internal/core/ports"
)

// Extractor pulls plain text out of stored uploads. PDFs go through the
// pdf reader; everything else must already be valid UTF-8 text.
type Extractor struct {
	storage ports.ObjectStorage
}

func New(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}

	if isPDF(doc.MimeType, raw) {
		return extractPDF(raw)
	}

	if !utf8.Valid(raw) {
		return "", domain.WrapError(domain.ErrMalformedSource, "extract text",
			fmt.Errorf("unsupported binary format: %s", doc.MimeType))
	}
	return strings.TrimSpace(string(raw)), nil
}

func isPDF(mimeType string, raw []byte) bool {
	if strings.Contains(mimeType, "pdf") {
		return true
	}
	return bytes.HasPrefix(raw, []byte("%PDF-"))
}

func extractPDF(raw []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", domain.WrapError(domain.ErrMalformedSource, "parse pdf", err)
	}

	var b strings.Builder
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// One broken page should not sink the whole document.
			continue
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", domain.WrapError(domain.ErrMalformedSource, "parse pdf",
			fmt.Errorf("no extractable text"))
	}
	return out, nil
}
