package usecase

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/mismelpoulout/nota/internal/core/domain"
)

type sectionRule struct {
	section  domain.Section
	keywords []string
}

// sectionRules are checked in declaration order; the first matching section
// wins, so definition cues shadow later ones on mixed sentences.
var sectionRules = []sectionRule{
	{domain.SectionDefinition, []string{
		"definición", "definicion", "es una", "se define", "consiste",
		"etiología", "epidemiología", "prevalencia", "incidencia",
		"clasificación", "factores de riesgo",
	}},
	{domain.SectionSymptoms, []string{
		"síntoma", "sintomas", "signos", "manifestaciones", "cuadro clínico",
		"dolor", "tos", "fiebre", "disnea", "cefalea", "astenia",
		"náuseas", "vómitos",
	}},
	{domain.SectionDiagnosis, []string{
		"diagnóstico", "criterios", "diferencial", "laboratorio", "imagen",
		"ecografía", "radiografía", "tac", "rm", "pcr", "antígeno",
		"biopsia", "prueba",
	}},
	{domain.SectionTreatment, []string{
		"tratamiento", "manejo", "terapia", "farmacológico", "medicamentos",
		"rehabilitación", "no farmacológico", "antibiótico", "analgésico",
		"antiinflamatorio", "insulina", "metformina", "antihipertensivo",
		"quirúrgico", "cirugía", "operación", "resección", "injerto",
		"dosis", "mg cada", "mg/kg",
	}},
	{domain.SectionFollowUp, []string{
		"conducta", "seguimiento", "derivación", "control", "educación",
		"alta", "criterios de ingreso", "banderas rojas", "reevaluación",
		"hospitalización",
	}},
}

// KeywordClassifier is the rule-based section classifier used for
// literature text. It is pure and never fails.
type KeywordClassifier struct{}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

func (c *KeywordClassifier) Classify(_ context.Context, sentences []string) ([]domain.Section, error) {
	out := make([]domain.Section, len(sentences))
	for i, s := range sentences {
		out[i] = classifyKeywords(s)
	}
	return out, nil
}

func classifyKeywords(sentence string) domain.Section {
	s := strings.ToLower(sentence)
	// Short cues like "rm", "tac" or "tos" must match whole words, or
	// they fire inside unrelated terms ("ivermectina", "contactos").
	padded := " " + s + " "
	for _, rule := range sectionRules {
		for _, kw := range rule.keywords {
			if utf8.RuneCountInString(kw) <= 3 {
				if strings.Contains(padded, " "+kw+" ") {
					return rule.section
				}
				continue
			}
			if strings.Contains(s, kw) {
				return rule.section
			}
		}
	}
	return domain.SectionOther
}

// negationCues mark sentences that state absence of a finding. The flag is
// orthogonal to section assignment and is used downstream to discount.
var negationCues = []string{
	"niega", "no presenta", "no refiere", "sin ", "ausencia de", "no hay ",
	"denies", "no evidence of", "without ",
}

func isNegated(sentence string) bool {
	s := " " + strings.ToLower(sentence) + " "
	for _, cue := range negationCues {
		if strings.Contains(s, cue) {
			return true
		}
	}
	return false
}
