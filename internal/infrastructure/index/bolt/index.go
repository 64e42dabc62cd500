package bolt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"go.etcd.io/bbolt"

	"github.com/mismelpoulout/nota/internal/core/domain"
)

var (
	bucketDocs   = []byte("docs")
	bucketChunks = []byte("chunks")
	bucketTerms  = []byte("terms")
)

// Index is an embedded inverted index over ingested chunks, used as the
// tier-2 fallback when Postgres full-text search returns nothing. Postings
// of a reindexed document go stale in place and are skipped at read time,
// so reindexing never needs a full posting sweep.
type Index struct {
	db *bbolt.DB
}

func Open(path string) (*Index, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt index: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketDocs, bucketChunks, bucketTerms} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Index{db: db}, nil
}

func (ix *Index) Close() error {
	return ix.db.Close()
}

type docMeta struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Evidence    float64 `json:"evidence"`
	PublishedAt int64   `json:"published_at,omitempty"`
	Generation  int     `json:"generation"`
}

type chunkRecord struct {
	DocID   string `json:"doc_id"`
	Content string `json:"content"`
}

func (ix *Index) IndexDocument(doc *domain.Document, chunks []string) error {
	return ix.db.Update(func(tx *bbolt.Tx) error {
		docBucket := tx.Bucket(bucketDocs)

		// Chunk keys carry a generation so postings of a replaced
		// revision never resolve to fresh content.
		meta := docMeta{Title: doc.Title, URL: doc.URL, Evidence: doc.Evidence, Generation: 1}
		if prev := docBucket.Get([]byte(doc.ID)); prev != nil {
			var old docMeta
			if err := json.Unmarshal(prev, &old); err == nil {
				meta.Generation = old.Generation + 1
			}
		}
		if !doc.PublishedAt.IsZero() {
			meta.PublishedAt = doc.PublishedAt.Unix()
		}
		metaRaw, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		if err := docBucket.Put([]byte(doc.ID), metaRaw); err != nil {
			return err
		}

		chunkBucket := tx.Bucket(bucketChunks)
		if err := deletePrefix(chunkBucket, []byte(doc.ID+"|")); err != nil {
			return err
		}

		termBucket := tx.Bucket(bucketTerms)
		for seq, content := range chunks {
			key := chunkKey(doc.ID, meta.Generation, seq)
			raw, err := json.Marshal(chunkRecord{DocID: doc.ID, Content: content})
			if err != nil {
				return err
			}
			if err := chunkBucket.Put(key, raw); err != nil {
				return err
			}

			for term, tf := range termFreq(content) {
				if err := addPosting(termBucket, term, string(key), tf); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (ix *Index) SearchIndex(ctx context.Context, query string, topK int) ([]domain.SourceDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	terms := indexTokens(query)
	if len(terms) == 0 || topK <= 0 {
		return nil, nil
	}

	type hit struct {
		key   string
		score float64
	}
	var hits []hit

	err := ix.db.View(func(tx *bbolt.Tx) error {
		chunkBucket := tx.Bucket(bucketChunks)
		termBucket := tx.Bucket(bucketTerms)
		total := float64(chunkBucket.Stats().KeyN) + 1

		scores := make(map[string]float64)
		for _, term := range terms {
			raw := termBucket.Get([]byte(term))
			if raw == nil {
				continue
			}
			var postings map[string]int
			if err := json.Unmarshal(raw, &postings); err != nil {
				return fmt.Errorf("decode postings for %q: %w", term, err)
			}
			idf := math.Log(total/float64(len(postings)+1)) + 1
			for key, tf := range postings {
				// Skip postings whose chunk was replaced by a reindex.
				if chunkBucket.Get([]byte(key)) == nil {
					continue
				}
				scores[key] += idf * (1 + math.Log(float64(tf)))
			}
		}

		hits = make([]hit, 0, len(scores))
		for key, score := range scores {
			hits = append(hits, hit{key: key, score: score})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].key < hits[j].key
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}

	out := make([]domain.SourceDocument, 0, len(hits))
	err = ix.db.View(func(tx *bbolt.Tx) error {
		chunkBucket := tx.Bucket(bucketChunks)
		docBucket := tx.Bucket(bucketDocs)
		for _, h := range hits {
			raw := chunkBucket.Get([]byte(h.key))
			if raw == nil {
				continue
			}
			var rec chunkRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				return fmt.Errorf("decode chunk %q: %w", h.key, err)
			}

			src := domain.SourceDocument{Text: rec.Content}
			if metaRaw := docBucket.Get([]byte(rec.DocID)); metaRaw != nil {
				var meta docMeta
				if err := json.Unmarshal(metaRaw, &meta); err != nil {
					return fmt.Errorf("decode doc meta %q: %w", rec.DocID, err)
				}
				src.Title = meta.Title
				src.URL = meta.URL
				if meta.PublishedAt > 0 {
					src.PublishedAt = time.Unix(meta.PublishedAt, 0).UTC()
				}
			}
			out = append(out, src)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func chunkKey(docID string, generation, seq int) []byte {
	return []byte(fmt.Sprintf("%s|%06d|%06d", docID, generation, seq))
}

func deletePrefix(b *bbolt.Bucket, prefix []byte) error {
	c := b.Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		if err := c.Delete(); err != nil {
			return err
		}
	}
	return nil
}

func addPosting(termBucket *bbolt.Bucket, term, key string, tf int) error {
	postings := make(map[string]int)
	if raw := termBucket.Get([]byte(term)); raw != nil {
		if err := json.Unmarshal(raw, &postings); err != nil {
			return fmt.Errorf("decode postings for %q: %w", term, err)
		}
	}
	postings[key] = tf

	raw, err := json.Marshal(postings)
	if err != nil {
		return err
	}
	return termBucket.Put([]byte(term), raw)
}

func termFreq(text string) map[string]int {
	freq := make(map[string]int)
	for _, tok := range indexTokens(text) {
		freq[tok]++
	}
	return freq
}

func indexTokens(text string) []string {
	var out []string
	var b strings.Builder
	flush := func() {
		if b.Len() >= 2 {
			out = append(out, b.String())
		}
		b.Reset()
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return out
}
