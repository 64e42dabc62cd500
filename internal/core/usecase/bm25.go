package usecase

import "math"

// lexicalIndex is a small in-memory inverted index over the candidate pool.
// It is rebuilt whenever the pool grows; for a per-query pool of at most a
// few thousand sentences that is cheaper than incremental bookkeeping.
type lexicalIndex struct {
	k1, b    float64
	docs     [][]string
	df       map[string]int
	totalLen int
}

func newLexicalIndex(texts []string, k1, b float64) *lexicalIndex {
	idx := &lexicalIndex{
		k1:   k1,
		b:    b,
		docs: make([][]string, len(texts)),
		df:   make(map[string]int),
	}
	for i, t := range texts {
		tokens := tokenize(t)
		idx.docs[i] = tokens
		idx.totalLen += len(tokens)

		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			idx.df[tok]++
		}
	}
	return idx
}

// scores computes the classic BM25 score of every indexed document against
// the query. An empty pool or unseen query terms contribute zero; no input
// can make this fail.
func (idx *lexicalIndex) scores(query string) []float64 {
	out := make([]float64, len(idx.docs))
	if len(idx.docs) == 0 {
		return out
	}

	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return out
	}

	n := float64(len(idx.docs))
	avgdl := float64(idx.totalLen) / n
	if avgdl == 0 {
		avgdl = 1
	}

	for i, doc := range idx.docs {
		if len(doc) == 0 {
			continue
		}
		tf := make(map[string]float64, len(doc))
		for _, tok := range doc {
			tf[tok]++
		}
		dl := float64(len(doc))

		var score float64
		for _, term := range queryTokens {
			f, ok := tf[term]
			if !ok {
				continue
			}
			df := float64(idx.df[term])
			idf := math.Log((n-df+0.5)/(df+0.5) + 1)
			score += idf * (f * (idx.k1 + 1)) / (f + idx.k1*(1-idx.b+idx.b*dl/avgdl))
		}
		out[i] = score
	}
	return out
}
