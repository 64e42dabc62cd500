package usecase

import (
	"math"
	"strings"
	"unicode"
)

// tokenize splits text into lowercase alphanumeric tokens. Unicode letters
// are kept as-is (minus case), so accented Spanish terms survive intact.
// Both the relevance and the diversity paths use this tokenizer; the fused
// scores are only comparable because the term space is shared.
func tokenize(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 24)
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}

// vectorize returns the term-frequency map of a text.
func vectorize(s string) map[string]float64 {
	tokens := tokenize(s)
	if len(tokens) == 0 {
		return nil
	}
	vec := make(map[string]float64, len(tokens))
	for _, t := range tokens {
		vec[t]++
	}
	return vec
}

// cosineTF computes cosine similarity between two term-frequency maps.
func cosineTF(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	var dot float64
	for t, v := range small {
		if w, ok := large[t]; ok {
			dot += v * w
		}
	}
	if dot == 0 {
		return 0
	}
	var na, nb float64
	for _, v := range a {
		na += v * v
	}
	for _, v := range b {
		nb += v * v
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func toTokenSet(s string) map[string]struct{} {
	tokens := tokenize(s)
	out := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		out[t] = struct{}{}
	}
	return out
}
