package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/mismelpoulout/nota/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type failingClassifier struct{}

func (failingClassifier) Classify(context.Context, []string) ([]domain.Section, error) {
	return nil, errors.New("backend down")
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("embedder down")
}

func (failingEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return nil, errors.New("embedder down")
}

const scabiesText = "La escabiosis es una infestación cutánea causada por el ácaro Sarcoptes scabiei. " +
	"El prurito nocturno intenso es el síntoma cardinal y afecta a todos los convivientes. " +
	"El diagnóstico se confirma con dermatoscopia o raspado de las lesiones en surcos. " +
	"El tratamiento de elección es permetrina tópica, como alternativa Ivermectina 200 mcg/kg cada 24 horas. " +
	"Control clínico a las dos semanas para confirmar la curación de todos los contactos."

func TestEngineExtendAndSelectDegraded(t *testing.T) {
	engine := NewEngine(DefaultScoring(), NewKeywordClassifier(), nil, testLogger())
	if !engine.Degraded() {
		t.Fatal("expected degraded mode without embedder")
	}

	docs := []domain.SourceDocument{{
		Title: "Escabiosis: guía de manejo",
		URL:   "https://www.who.int/fact-sheets/scabies",
		Text:  scabiesText,
	}}

	pool := engine.Extend(context.Background(), "tratamiento de la escabiosis", nil, docs)
	if len(pool) != 5 {
		t.Fatalf("expected 5 candidate sentences, got %d", len(pool))
	}
	for _, c := range pool {
		if c.SourceURL != docs[0].URL {
			t.Fatalf("candidate lost source url: %+v", c)
		}
		if c.Evidence <= 0 {
			t.Fatalf("expected positive evidence for guideline source, got %f", c.Evidence)
		}
	}

	sel := engine.Select(context.Background(), "tratamiento de la escabiosis", pool)
	if !sel.Degraded {
		t.Fatal("selection should report degraded mode")
	}
	if !coverageOK(sel.Buckets) {
		t.Fatalf("expected full section coverage, buckets: %v", sel.Buckets)
	}
	if len(sel.Doses) == 0 {
		t.Fatalf("expected dose extraction from treatment sentence")
	}
	if len(sel.Citations) != 1 || sel.Citations[0] != docs[0].URL {
		t.Fatalf("unexpected citations: %v", sel.Citations)
	}
}

func TestEngineSelectEmptyPool(t *testing.T) {
	engine := NewEngine(DefaultScoring(), NewKeywordClassifier(), nil, testLogger())
	sel := engine.Select(context.Background(), "consulta", nil)
	if len(sel.Ranked) != 0 || len(sel.Picked) != 0 || len(sel.Citations) != 0 {
		t.Fatalf("expected empty selection, got %+v", sel)
	}
	if sel.Buckets == nil {
		t.Fatal("buckets must be non-nil for the renderer")
	}
}

func TestEngineEmbedderFailureFallsBackToSimple(t *testing.T) {
	engine := NewEngine(DefaultScoring(), NewKeywordClassifier(), failingEmbedder{}, testLogger())
	if engine.Degraded() {
		t.Fatal("engine with embedder must not start degraded")
	}

	pool := engine.Extend(context.Background(), "escabiosis", nil, []domain.SourceDocument{
		{Title: "Nota", URL: "https://salud.example.com", Text: scabiesText},
	})
	sel := engine.Select(context.Background(), "escabiosis", pool)
	if !sel.Degraded {
		t.Fatal("embed failure must degrade the selection, not abort it")
	}
	if len(sel.Picked) == 0 {
		t.Fatal("expected picks from the simple ranker")
	}
}

func TestEngineExtendClassifierFallback(t *testing.T) {
	engine := NewEngine(DefaultScoring(), failingClassifier{}, nil, testLogger())
	pool := engine.Extend(context.Background(), "escabiosis", nil, []domain.SourceDocument{
		{Title: "Nota", URL: "https://salud.example.com", Text: scabiesText},
	})
	if len(pool) != 5 {
		t.Fatalf("expected keyword fallback to classify all sentences, got %d", len(pool))
	}
	var treatments int
	for _, c := range pool {
		if c.Section == domain.SectionTreatment {
			treatments++
		}
	}
	if treatments == 0 {
		t.Fatal("expected at least one treatment sentence from the fallback")
	}
}

func TestBucketBySectionDropsNegatedAndDuplicates(t *testing.T) {
	picked := []domain.ScoredCandidate{
		{Candidate: domain.Candidate{Text: "Presenta fiebre y tos productiva.", Section: domain.SectionSymptoms}},
		{Candidate: domain.Candidate{Text: "presenta fiebre y tos productiva", Section: domain.SectionSymptoms}},
		{Candidate: domain.Candidate{Text: "Niega disnea de esfuerzo.", Section: domain.SectionSymptoms, Negated: true}},
	}
	buckets := bucketBySection(picked)
	if got := buckets[domain.SectionSymptoms]; len(got) != 1 {
		t.Fatalf("expected single deduplicated sentence, got %v", got)
	}
}

func TestCoverageOK(t *testing.T) {
	full := map[domain.Section][]string{
		domain.SectionDefinition: {"a"},
		domain.SectionSymptoms:   {"b"},
		domain.SectionDiagnosis:  {"c"},
		domain.SectionTreatment:  {"d"},
	}
	if !coverageOK(full) {
		t.Fatal("expected coverage with all required sections")
	}
	delete(full, domain.SectionTreatment)
	if coverageOK(full) {
		t.Fatal("expected no coverage with a missing required section")
	}
}
