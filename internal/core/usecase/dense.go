package usecase

import "math"

// cosine32 computes cosine similarity between two embedding vectors.
// Embedders are expected to return unit vectors, but the norm is computed
// anyway so a misbehaving backend degrades instead of distorting ranks.
func cosine32(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// denseScores computes the cosine similarity of every candidate vector to
// the query vector. A missing embedding index contributes zero to fusion.
func denseScores(queryVec []float32, candidateVecs [][]float32, n int) []float64 {
	out := make([]float64, n)
	if len(queryVec) == 0 || len(candidateVecs) == 0 {
		return out
	}
	for i := 0; i < n && i < len(candidateVecs); i++ {
		out[i] = cosine32(queryVec, candidateVecs[i])
	}
	return out
}
