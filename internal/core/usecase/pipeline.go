package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/mismelpoulout/nota/internal/core/domain"
	"github.com/mismelpoulout/nota/internal/core/ports"
)

const (
	localTopK       = 12
	indexTopK       = 12
	webResultCount  = 8
	fetchConcurrent = 4
	summarySystem   = "Eres un asistente clínico. Resume la evidencia en 3-4 frases, en español, sin inventar datos."
)

// AskUseCase runs the cascading retrieval pipeline: local store, full-text
// index, preferred-domain web and general web, stopping as soon as the
// accumulated evidence covers every required section.
type AskUseCase struct {
	engine    *Engine
	local     ports.LocalSearcher
	index     ports.IndexSearcher
	web       ports.WebSearcher
	fetcher   ports.Fetcher
	generator ports.AnswerGenerator
	cfg       Scoring
	logger    *slog.Logger
}

func NewAskUseCase(
	engine *Engine,
	local ports.LocalSearcher,
	index ports.IndexSearcher,
	web ports.WebSearcher,
	fetcher ports.Fetcher,
	generator ports.AnswerGenerator,
	cfg Scoring,
	logger *slog.Logger,
) *AskUseCase {
	cfg = cfg.normalize()
	return &AskUseCase{
		engine:    engine,
		local:     local,
		index:     index,
		web:       web,
		fetcher:   fetcher,
		generator: generator,
		cfg:       cfg,
		logger:    logger,
	}
}

func (uc *AskUseCase) Ask(ctx context.Context, query string) (*domain.Answer, error) {
	query = strings.TrimSpace(query)
	notes := domain.RunNotes{Query: query, Degraded: uc.engine.Degraded()}
	if query == "" {
		// A blank question is a terminal Empty run, not a failure.
		uc.logger.Info("run finished", "state", string(domain.RunEmpty), "reason", "empty query")
		return &domain.Answer{
			State:    domain.RunEmpty,
			Markdown: renderEmpty(query),
			Notes:    notes,
		}, nil
	}
	cacheHits := new(atomic.Int64)
	ctx = domain.WithCacheHitCounter(ctx, cacheHits)

	var (
		pool    []domain.ScoredCandidate
		carried []domain.ScoredCandidate
	)

	type tier struct {
		name string
		run  func(context.Context) ([]domain.SourceDocument, error)
	}
	tiers := []tier{
		{"local", func(ctx context.Context) ([]domain.SourceDocument, error) {
			return uc.local.SearchLocal(ctx, query, localTopK)
		}},
		{"index", func(ctx context.Context) ([]domain.SourceDocument, error) {
			return uc.index.SearchIndex(ctx, query, indexTopK)
		}},
		{"web_preferred", func(ctx context.Context) ([]domain.SourceDocument, error) {
			return uc.searchAndFetch(ctx, preferredQuery(query, uc.cfg.PreferredDomains))
		}},
		{"web_general", func(ctx context.Context) ([]domain.SourceDocument, error) {
			return uc.searchAndFetch(ctx, query)
		}},
	}

	for i, t := range tiers {
		if ctx.Err() != nil {
			// Client gone: stop launching tiers and render whatever the
			// finished tiers already contributed.
			break
		}

		docs, err := t.run(ctx)
		if err != nil {
			// A failed tier never aborts the run; the cascade moves on
			// with whatever evidence it already has.
			uc.logger.Warn("tier failed", "tier", t.name, "error", err)
		}

		if len(docs) > 0 {
			before := len(pool)
			pool = uc.engine.Extend(ctx, query, pool, docs)
			added := len(pool) - before
			switch t.name {
			case "local":
				notes.LocalAdded += added
			case "index":
				notes.IndexAdded += added
			default:
				notes.WebAdded += added
			}
		}

		if len(pool) == 0 {
			continue
		}
		sel := uc.engine.Select(ctx, query, pool)
		sel = carryPicks(carried, sel)
		carried = sel.Picked
		notes.Degraded = notes.Degraded || sel.Degraded

		last := i == len(tiers)-1
		if coverageOK(sel.Buckets) || last {
			state := domain.RunAnsweredEarly
			if last {
				state = domain.RunAnsweredFinal
			}
			notes.CacheHits = int(cacheHits.Load())
			uc.logger.Info("run finished",
				"state", string(state), "tier", t.name,
				"pool", len(pool), "picked", len(sel.Picked))
			return uc.finish(ctx, query, state, sel, notes), nil
		}
	}

	if len(pool) > 0 {
		// Only a cancelled run reaches here with evidence in hand.
		sel := uc.engine.Select(ctx, query, pool)
		sel = carryPicks(carried, sel)
		notes.Degraded = notes.Degraded || sel.Degraded
		notes.CacheHits = int(cacheHits.Load())
		uc.logger.Info("run finished",
			"state", string(domain.RunAnsweredFinal), "cancelled", true,
			"pool", len(pool), "picked", len(sel.Picked))
		return uc.finish(ctx, query, domain.RunAnsweredFinal, sel, notes), nil
	}

	notes.CacheHits = int(cacheHits.Load())
	uc.logger.Info("run finished", "state", string(domain.RunEmpty), "pool", len(pool))
	return &domain.Answer{
		State:    domain.RunEmpty,
		Markdown: renderEmpty(query),
		Notes:    notes,
	}, nil
}

func (uc *AskUseCase) finish(ctx context.Context, query string, state domain.RunState, sel Selection, notes domain.RunNotes) *domain.Answer {
	answer := &domain.Answer{
		State:     state,
		Markdown:  renderAnswer(query, sel),
		Citations: sel.Citations,
		Notes:     notes,
	}
	if uc.generator != nil && len(sel.Picked) > 0 {
		answer.Summary = uc.summarize(ctx, query, sel)
	}
	return answer
}

// summarize asks the generator for a short abstract over the picked
// sentences. Failures degrade to no summary, never to a failed answer.
func (uc *AskUseCase) summarize(ctx context.Context, query string, sel Selection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pregunta: %s\n\nEvidencia:\n", query)
	limit := len(sel.Picked)
	if limit > 12 {
		limit = 12
	}
	for i := 0; i < limit; i++ {
		b.WriteString("- " + sel.Picked[i].Text + "\n")
	}
	summary, err := uc.generator.Complete(ctx, summarySystem, b.String())
	if err != nil {
		uc.logger.Warn("summary generation failed", "error", err)
		return ""
	}
	return strings.TrimSpace(summary)
}

// carryPicks merges the picks of earlier tiers into a fresh selection.
// Within one run a sentence is additive: once selected it stays selected,
// so a section that was covered can never uncover when a later tier floods
// the pool past the MMR cutoff. Earlier picks keep their first-seen order.
func carryPicks(prev []domain.ScoredCandidate, sel Selection) Selection {
	if len(prev) == 0 {
		return sel
	}

	seen := make(map[string]struct{}, len(prev)+len(sel.Picked))
	merged := make([]domain.ScoredCandidate, 0, len(prev)+len(sel.Picked))
	for _, c := range prev {
		seen[pickKey(c)] = struct{}{}
		merged = append(merged, c)
	}
	for _, c := range sel.Picked {
		key := pickKey(c)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, c)
	}

	texts := make([]string, len(merged))
	for i := range merged {
		texts[i] = merged[i].Text
	}

	sel.Picked = merged
	sel.Buckets = bucketBySection(merged)
	sel.Doses = extractDoseTable(texts)
	return sel
}

func pickKey(c domain.ScoredCandidate) string {
	return c.SourceURL + "|" + dedupKey(c.Text)
}

// searchAndFetch resolves web hits into cleaned page bodies with a bounded
// fan-out. Pages that fail to fetch are skipped.
func (uc *AskUseCase) searchAndFetch(ctx context.Context, query string) ([]domain.SourceDocument, error) {
	hits, err := uc.web.SearchWeb(ctx, query, webResultCount)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}

	docs := make([]domain.SourceDocument, len(hits))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrent)
	for i, hit := range hits {
		i, hit := i, hit
		g.Go(func() error {
			text, err := uc.fetcher.FetchAndClean(gctx, hit.URL)
			if err != nil {
				uc.logger.Debug("fetch skipped", "url", hit.URL, "error", err)
				return nil
			}
			docs[i] = domain.SourceDocument{Title: hit.Name, URL: hit.URL, Text: text}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := docs[:0]
	for _, d := range docs {
		if d.Text != "" {
			out = append(out, d)
		}
	}
	return out, nil
}

// preferredQuery restricts a web query to the trusted domain list.
func preferredQuery(query string, domains []string) string {
	if len(domains) == 0 {
		return query
	}
	limit := len(domains)
	if limit > 6 {
		limit = 6
	}
	sites := make([]string, 0, limit)
	for _, d := range domains[:limit] {
		sites = append(sites, "site:"+d)
	}
	return query + " (" + strings.Join(sites, " OR ") + ")"
}
