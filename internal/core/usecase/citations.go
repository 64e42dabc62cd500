package usecase

import (
	"sort"

	"github.com/mismelpoulout/nota/internal/core/domain"
)

// rankCitations orders the distinct source URLs of the pool by the best
// evidence-plus-domain score any of their sentences achieved, capped at
// the configured maximum. The literal URL string is the dedup key.
func rankCitations(pool []domain.ScoredCandidate, scorer *EvidenceScorer, maxCitations int) []string {
	type ranked struct {
		url   string
		score float64
		order int
	}

	best := make(map[string]*ranked, len(pool))
	for i := range pool {
		u := pool[i].SourceURL
		if u == "" {
			continue
		}
		score := pool[i].Evidence + scorer.DomainBonus(u)
		if r, ok := best[u]; ok {
			if score > r.score {
				r.score = score
			}
			continue
		}
		best[u] = &ranked{url: u, score: score, order: len(best)}
	}

	out := make([]*ranked, 0, len(best))
	for _, r := range best {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].order < out[j].order
	})

	if maxCitations > 0 && len(out) > maxCitations {
		out = out[:maxCitations]
	}
	urls := make([]string, len(out))
	for i, r := range out {
		urls[i] = r.url
	}
	return urls
}
