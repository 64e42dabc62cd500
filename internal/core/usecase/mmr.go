package usecase

import "github.com/mismelpoulout/nota/internal/core/domain"

// selectMMR greedily picks a diverse, relevant subset from candidates
// already ranked by fused score. Relevance is the cosine of each term
// vector to the query vector; the diversity penalty is the maximum cosine
// to any already selected item. Same inputs always produce the same picks,
// and no candidate is ever picked twice.
func selectMMR(query string, ranked []domain.ScoredCandidate, lambda float64, poolN, k int) []domain.ScoredCandidate {
	if len(ranked) == 0 || k <= 0 {
		return nil
	}
	if poolN > 0 && len(ranked) > poolN {
		ranked = ranked[:poolN]
	}

	queryVec := vectorize(query)
	vecs := make([]map[string]float64, len(ranked))
	rel := make([]float64, len(ranked))
	for i := range ranked {
		vecs[i] = vectorize(ranked[i].Text)
		rel[i] = cosineTF(vecs[i], queryVec)
	}

	selected := make([]domain.ScoredCandidate, 0, k)
	selectedVecs := make([]map[string]float64, 0, k)
	used := make([]bool, len(ranked))

	for len(selected) < k {
		bestIdx := -1
		bestScore := -1e9
		for i := range ranked {
			if used[i] {
				continue
			}
			maxSim := 0.0
			for _, sv := range selectedVecs {
				if sim := cosineTF(vecs[i], sv); sim > maxSim {
					maxSim = sim
				}
			}
			score := lambda*rel[i] - (1-lambda)*maxSim
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		used[bestIdx] = true
		selected = append(selected, ranked[bestIdx])
		selectedVecs = append(selectedVecs, vecs[bestIdx])
	}
	return selected
}
