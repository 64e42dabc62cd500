package usecase

import (
	"fmt"
	"strings"

	"github.com/mismelpoulout/nota/internal/core/domain"
)

// renderAnswer turns a selection into the structured markdown answer.
// Section headings and 1-based citation numbering are the externally
// observable format contract; everything else is presentation.
func renderAnswer(query string, sel Selection) string {
	lines := []string{fmt.Sprintf("**Pregunta:** %s\n", query)}

	if b := sel.Buckets[domain.SectionDefinition]; len(b) > 0 {
		lines = append(lines, "## Definición y Epidemiología")
		lines = append(lines, summarize(b, 6)...)
	}
	if b := sel.Buckets[domain.SectionSymptoms]; len(b) > 0 {
		lines = append(lines, "\n## Síntomas")
		lines = append(lines, summarize(b, 10)...)
	}
	if b := sel.Buckets[domain.SectionDiagnosis]; len(b) > 0 {
		lines = append(lines, "\n## Diagnóstico", "**Métodos clínicos y complementarios:**")
		lines = append(lines, summarize(b, 10)...)
	}
	if b := sel.Buckets[domain.SectionTreatment]; len(b) > 0 {
		lines = append(lines, renderTreatment(b, sel)...)
	}
	if b := sel.Buckets[domain.SectionFollowUp]; len(b) > 0 {
		lines = append(lines, "\n## Conducta y Seguimiento")
		lines = append(lines, summarize(b, 8)...)
	}

	lines = append(lines, "\n## Otras sugerencias")
	for _, s := range suggestions(query) {
		lines = append(lines, "- "+s)
	}

	lines = append(lines, "\n## Referencias principales")
	if len(sel.Citations) == 0 {
		lines = append(lines, "– (sin referencias)")
	}
	for i, u := range sel.Citations {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, u))
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func renderTreatment(bucket []string, sel Selection) []string {
	lines := []string{"\n## Tratamiento"}

	conservative := filterContains(bucket, "rehab", "repos", "hidrat", "no farmac", "educac", "ejerc")
	if len(conservative) > 0 {
		lines = append(lines, "**Tratamiento conservador:**")
		lines = append(lines, summarize(conservative, 6)...)
	}

	medication := filterContains(bucket, "antib", "analg", "antiinflam", "farmac", "insulin", "metformin", "antihipert", "dosis", "mg")
	if len(medication) > 0 {
		lines = append(lines, "\n**Tratamiento medicamentoso:**")
		lines = append(lines, summarize(medication, 8)...)
	}

	if len(sel.Doses) > 0 {
		lines = append(lines, "\n**Dosis (según guías; confirmar con contexto local):**", dosesToMarkdown(sel.Doses))
	}

	if surgicalRelevant(sel.Picked) {
		surgical := filterContains(bucket, "cirug", "oper", "resecc")
		if len(surgical) > 0 {
			lines = append(lines, "\n**Tratamiento quirúrgico:**")
			lines = append(lines, summarize(surgical, 4)...)
		}
	}
	return lines
}

// summarize normalizes up to n bucket sentences into bullets, dropping
// duplicates and truncating long sentences to their first clause.
func summarize(sentences []string, n int) []string {
	seen := make(map[string]struct{}, len(sentences))
	out := make([]string, 0, n)
	for _, s := range sentences {
		s = normalizeSentence(s)
		if s == "" {
			continue
		}
		key := dedupKey(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		if len([]rune(s)) > 220 {
			if i := strings.Index(s, ". "); i > 0 {
				s = s[:i+1]
			}
		}
		out = append(out, "• "+s)
		if len(out) >= n {
			break
		}
	}
	return out
}

func filterContains(sentences []string, needles ...string) []string {
	var out []string
	for _, s := range sentences {
		lower := strings.ToLower(s)
		for _, needle := range needles {
			if strings.Contains(lower, needle) {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

func surgicalRelevant(picked []domain.ScoredCandidate) bool {
	for i := range picked {
		lower := strings.ToLower(picked[i].Text)
		for _, t := range []string{"cirug", "quirúrg", "operaci", "resecc", "injerto"} {
			if strings.Contains(lower, t) {
				return true
			}
		}
	}
	return false
}

// suggestions proposes follow-up questions. Deterministic on purpose so
// repeated runs render identically.
func suggestions(query string) []string {
	q := strings.ToLower(query)
	return []string{
		"Pronóstico y complicaciones de " + q,
		"Diferencial de " + q + " por especialidad",
		"Nuevas guías y terapias actualizadas para " + q,
	}
}

const noInformationText = "_No hay información suficiente._"

// renderEmpty is the fixed rendering of the Empty terminal state. The
// engine never fabricates sentences.
func renderEmpty(query string) string {
	return fmt.Sprintf("**Pregunta:** %s\n\n%s", query, noInformationText)
}
