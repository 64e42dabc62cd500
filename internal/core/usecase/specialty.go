package usecase

import "strings"

var specialtyKeywords = map[string][]string{
	"pediatria": {
		"pediatr", "niño", "niña", "lactante", "adolescente", "menor de",
		"peso al nacer", "apgar", "edad gestacional", "mg/kg", "ml/kg",
	},
	"obstetricia": {
		"obstetr", "gestante", "embarazo", "puerperio", "parto", "feto",
		"placenta", "semanas de gestación",
	},
	"infectologia": {
		"antibiótico", "antiviral", "cultivo", "pcr", "antígeno",
		"resistencia", "aislamiento", "profilaxis", "zoonosis",
	},
	"neumologia": {"espirometría", "oximetría", "tos", "disnea", "infiltrado"},
	"cardiologia": {"ecg", "troponina", "insuficiencia cardiaca", "hta", "trombo"},
}

// detectSpecialties returns the specialties a query touches, by keyword.
func detectSpecialties(text string) map[string]struct{} {
	s := strings.ToLower(text)
	hits := make(map[string]struct{})
	for sp, kws := range specialtyKeywords {
		for _, kw := range kws {
			if strings.Contains(s, kw) {
				hits[sp] = struct{}{}
				break
			}
		}
	}
	return hits
}

// scoreSpecialty rewards sentences that match the specialties expected
// from the query, capped at 2.0.
func scoreSpecialty(sentence string, expected map[string]struct{}) float64 {
	if len(expected) == 0 {
		return 0
	}
	s := strings.ToLower(sentence)
	var score float64
	for sp := range expected {
		for _, kw := range specialtyKeywords[sp] {
			if strings.Contains(s, kw) {
				score++
				break
			}
		}
	}
	if score > 2 {
		score = 2
	}
	return score
}
