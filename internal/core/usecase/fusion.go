package usecase

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mismelpoulout/nota/internal/core/domain"
)

// fusionRanker combines lexical, dense, evidence, recency and domain
// signals into one ranked list. It is a pure function of the pool, the
// scoring configuration and the injected clock.
type fusionRanker struct {
	cfg    Scoring
	scorer *EvidenceScorer
	now    func() time.Time
}

// zscores returns population z-scores using the sample standard deviation.
// Pools with fewer than two members or zero variance map to all zeros so a
// lone candidate is not artificially inflated.
func zscores(xs []float64) []float64 {
	out := make([]float64, len(xs))
	if len(xs) < 2 {
		return out
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))

	var varSum float64
	for _, x := range xs {
		d := x - mean
		varSum += d * d
	}
	sd := math.Sqrt(varSum / float64(len(xs)-1))
	if sd == 0 {
		return out
	}
	for i, x := range xs {
		out[i] = (x - mean) / sd
	}
	return out
}

// rankHybrid scores and sorts the pool with the canonical hybrid formula.
// The input slice is not modified.
func (f *fusionRanker) rankHybrid(pool []domain.ScoredCandidate) []domain.ScoredCandidate {
	if len(pool) == 0 {
		return nil
	}

	lexical := make([]float64, len(pool))
	dense := make([]float64, len(pool))
	for i := range pool {
		lexical[i] = pool[i].Lexical
		dense[i] = pool[i].Dense
	}
	lexZ := zscores(lexical)
	denseZ := zscores(dense)

	now := f.now()
	out := make([]domain.ScoredCandidate, len(pool))
	copy(out, pool)
	for i := range out {
		out[i].Fused = f.cfg.WeightDense*denseZ[i] +
			f.cfg.WeightLexical*lexZ[i] +
			f.cfg.WeightEvidence*out[i].Evidence +
			f.cfg.WeightRecency*f.recency(out[i].PublishedAt, now) +
			f.scorer.DomainBonus(out[i].SourceURL)
	}

	sortByFused(out)
	return out
}

// rankSimple is the degraded single-signal mode used when no embedding
// backend is configured: term-frequency relevance plus the same additive
// evidence/specialty/domain bonuses and the same tie-break rule.
func (f *fusionRanker) rankSimple(query string, pool []domain.ScoredCandidate) []domain.ScoredCandidate {
	if len(pool) == 0 {
		return nil
	}

	terms := make(map[string]struct{})
	for _, t := range tokenize(query) {
		if utf8.RuneCountInString(t) >= 3 {
			terms[t] = struct{}{}
		}
	}

	out := make([]domain.ScoredCandidate, len(pool))
	copy(out, pool)
	for i := range out {
		lower := strings.ToLower(out[i].Text)
		var hits float64
		for t := range terms {
			if strings.Contains(lower, t) {
				hits++
			}
		}
		tf := hits / float64(1+utf8.RuneCountInString(out[i].Text))

		out[i].Fused = tf +
			f.cfg.SimpleEvidenceWeight*out[i].Evidence +
			f.cfg.SimpleSpecialtyWeight*out[i].Specialty +
			f.scorer.DomainBonus(out[i].SourceURL)
	}

	sortByFused(out)
	return out
}

func (f *fusionRanker) recency(published, now time.Time) float64 {
	if published.IsZero() {
		return 0
	}
	ageDays := now.Sub(published).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return math.Exp(-ageDays / f.cfg.RecencyTauDays)
}

// sortByFused orders descending by fused score; ties prefer the shorter
// sentence, then first-seen pool order for stability.
func sortByFused(cands []domain.ScoredCandidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Fused != cands[j].Fused {
			return cands[i].Fused > cands[j].Fused
		}
		return utf8.RuneCountInString(cands[i].Text) < utf8.RuneCountInString(cands[j].Text)
	})
}
