package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/mismelpoulout/nota/internal/core/domain"
	"github.com/mismelpoulout/nota/internal/core/ports"
)

// Engine is the ranking and selection core: it grows the evidence pool
// from source documents and, given a pool and a query, produces the
// ranked, diversified, section-bucketed selection with citations.
// All methods are deterministic for a fixed pool, query and configuration.
type Engine struct {
	cfg        Scoring
	scorer     *EvidenceScorer
	classifier ports.SectionClassifier
	embedder   ports.Embedder
	logger     *slog.Logger
	now        func() time.Time
}

// Selection is the output of one rank-and-select pass over the pool.
type Selection struct {
	Ranked    []domain.ScoredCandidate
	Picked    []domain.ScoredCandidate
	Buckets   map[domain.Section][]string
	Doses     []domain.DoseRow
	Citations []string
	Degraded  bool
}

// NewEngine builds the engine. A nil embedder selects the degraded
// single-signal fusion mode.
func NewEngine(cfg Scoring, classifier ports.SectionClassifier, embedder ports.Embedder, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:        cfg.normalize(),
		scorer:     NewEvidenceScorer(cfg),
		classifier: classifier,
		embedder:   embedder,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock pins the reference time used by recency scoring. Test hook.
func (e *Engine) WithClock(clock ports.Clock) *Engine {
	if clock != nil {
		e.now = clock
	}
	return e
}

// Degraded reports whether the engine runs without a dense backend.
func (e *Engine) Degraded() bool {
	return e.embedder == nil
}

// Extend segments each document into candidate sentences, classifies and
// scores them, and appends them to the pool. A document that yields no
// usable sentence is simply skipped; a classifier failure falls back to
// the keyword rules so one bad batch never aborts the run.
func (e *Engine) Extend(ctx context.Context, query string, pool []domain.ScoredCandidate, docs []domain.SourceDocument) []domain.ScoredCandidate {
	expected := detectSpecialties(query)

	for _, doc := range docs {
		if doc.Text == "" {
			continue
		}
		sentences := splitSentences(doc.Text)
		if len(sentences) == 0 {
			continue
		}

		snippet := doc.Text
		if len(snippet) > 2000 {
			snippet = snippet[:2000]
		}
		evidence := e.scorer.Score(snippet, doc.URL, doc.Title)
		domainWeight := e.scorer.DomainWeight(doc.URL)

		sections, err := e.classifier.Classify(ctx, sentences)
		if err != nil || len(sections) != len(sentences) {
			if err != nil {
				e.logger.Warn("section_classifier_fallback", "url", doc.URL, "error", err)
			}
			sections = make([]domain.Section, len(sentences))
			for i, s := range sentences {
				sections[i] = classifyKeywords(s)
			}
		}

		for i, sentence := range sentences {
			pool = append(pool, domain.ScoredCandidate{
				Candidate: domain.Candidate{
					Text:        sentence,
					SourceURL:   doc.URL,
					SourceTitle: doc.Title,
					Section:     sections[i],
					Negated:     isNegated(sentence),
					PublishedAt: doc.PublishedAt,
				},
				DomainWeight: domainWeight,
				Evidence:     evidence,
				Specialty:    scoreSpecialty(sentence, expected),
			})
		}
	}
	return pool
}

// Select runs the full ranking pipeline over the pool: BM25 and dense
// scoring, fusion, MMR selection, section bucketing, dose extraction and
// citation ranking. The pool itself is never mutated.
func (e *Engine) Select(ctx context.Context, query string, pool []domain.ScoredCandidate) Selection {
	if len(pool) == 0 {
		return Selection{Buckets: map[domain.Section][]string{}, Degraded: e.Degraded()}
	}

	scored := make([]domain.ScoredCandidate, len(pool))
	copy(scored, pool)

	texts := make([]string, len(scored))
	for i := range scored {
		texts[i] = scored[i].Text
	}

	lexical := newLexicalIndex(texts, e.cfg.BM25K1, e.cfg.BM25B).scores(query)
	for i := range scored {
		scored[i].Lexical = lexical[i]
	}

	fuser := &fusionRanker{cfg: e.cfg, scorer: e.scorer, now: e.now}

	degraded := e.embedder == nil
	var ranked []domain.ScoredCandidate
	if !degraded {
		dense, err := e.denseScoresFor(ctx, query, texts)
		if err != nil {
			e.logger.Warn("dense_ranker_unavailable", "error", err)
			degraded = true
		} else {
			for i := range scored {
				scored[i].Dense = dense[i]
			}
		}
	}
	if degraded {
		ranked = fuser.rankSimple(query, scored)
	} else {
		ranked = fuser.rankHybrid(scored)
	}

	picked := selectMMR(query, ranked, e.cfg.MMRLambda, e.cfg.MMRPoolSize, e.cfg.MMRSelectK)

	buckets := bucketBySection(picked)
	pickedTexts := make([]string, len(picked))
	for i := range picked {
		pickedTexts[i] = picked[i].Text
	}

	return Selection{
		Ranked:    ranked,
		Picked:    picked,
		Buckets:   buckets,
		Doses:     extractDoseTable(pickedTexts),
		Citations: rankCitations(pool, e.scorer, e.cfg.MaxCitations),
		Degraded:  degraded,
	}
}

func (e *Engine) denseScoresFor(ctx context.Context, query string, texts []string) ([]float64, error) {
	queryVec, err := e.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, domain.WrapError(domain.ErrEmbeddingUnavailable, "embed query", err)
	}
	vectors, err := e.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, domain.WrapError(domain.ErrEmbeddingUnavailable, "embed pool", err)
	}
	return denseScores(queryVec, vectors, len(texts)), nil
}

// bucketBySection groups the selected sentences by section in selection
// order, dropping negated sentences and near-duplicates.
func bucketBySection(picked []domain.ScoredCandidate) map[domain.Section][]string {
	buckets := make(map[domain.Section][]string)
	seen := make(map[string]struct{}, len(picked))
	for i := range picked {
		if picked[i].Negated {
			continue
		}
		key := dedupKey(picked[i].Text)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		buckets[picked[i].Section] = append(buckets[picked[i].Section], picked[i].Text)
	}
	return buckets
}

// coverageOK reports whether every required clinical section has at least
// one selected sentence.
func coverageOK(buckets map[domain.Section][]string) bool {
	for _, sec := range domain.RequiredSections {
		if len(buckets[sec]) == 0 {
			return false
		}
	}
	return true
}
