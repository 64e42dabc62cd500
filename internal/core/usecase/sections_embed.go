package usecase

import (
	"context"
	"fmt"

	"github.com/mismelpoulout/nota/internal/core/domain"
	"github.com/mismelpoulout/nota/internal/core/ports"
)

type sectionPrototypes struct {
	section domain.Section
	phrases []string
}

// Prototype phrases for free-text clinical notes, where keyword rules miss
// the register of dictated or abbreviated prose.
var clinicalPrototypes = []sectionPrototypes{
	{domain.SectionDefinition, []string{"se define como", "es una enfermedad", "corresponde a un cuadro"}},
	{domain.SectionSymptoms, []string{"síntomas", "refiere", "presenta", "dolor", "fiebre", "tos"}},
	{domain.SectionDiagnosis, []string{"diagnóstico", "impresión diagnóstica", "examen físico", "signos vitales"}},
	{domain.SectionTreatment, []string{"plan", "tratamiento", "indicación", "terapia"}},
	{domain.SectionFollowUp, []string{"control", "seguimiento", "derivación", "alta"}},
}

// PrototypeClassifier assigns each sentence the section of its nearest
// prototype phrase by cosine similarity, arg-max over all prototypes.
// Prototype vectors are embedded once at construction.
type PrototypeClassifier struct {
	embedder ports.Embedder
	labels   []domain.Section
	vectors  [][]float32
}

func NewPrototypeClassifier(ctx context.Context, embedder ports.Embedder) (*PrototypeClassifier, error) {
	var texts []string
	var labels []domain.Section
	for _, p := range clinicalPrototypes {
		for _, phrase := range p.phrases {
			texts = append(texts, phrase)
			labels = append(labels, p.section)
		}
	}

	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed section prototypes: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embed section prototypes: got %d vectors for %d phrases", len(vectors), len(texts))
	}
	return &PrototypeClassifier{embedder: embedder, labels: labels, vectors: vectors}, nil
}

func (c *PrototypeClassifier) Classify(ctx context.Context, sentences []string) ([]domain.Section, error) {
	if len(sentences) == 0 {
		return nil, nil
	}
	vectors, err := c.embedder.Embed(ctx, sentences)
	if err != nil {
		return nil, fmt.Errorf("embed sentences: %w", err)
	}

	out := make([]domain.Section, len(sentences))
	for i := range sentences {
		out[i] = domain.SectionOther
		if i >= len(vectors) {
			continue
		}
		best := -1.0
		for j, proto := range c.vectors {
			if sim := cosine32(vectors[i], proto); sim > best {
				best = sim
				out[i] = c.labels[j]
			}
		}
	}
	return out, nil
}
