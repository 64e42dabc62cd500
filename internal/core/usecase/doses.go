package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mismelpoulout/nota/internal/core/domain"
)

const maxDoseRows = 16

var (
	// The drug-name group is lazy: its class admits digits, and a greedy
	// match would steal leading digits from the dose ("Amoxicilina 50", "0").
	dosePerKgRe = regexp.MustCompile(
		`(?i)(\p{L}[\p{L}\p{N} \-]{2,}?)\s*[:\-]?\s*` +
			`(\d+(?:\.\d+)?)\s*(mg|mcg|g)\s*/\s*kg` +
			`(?:\s*(?:/|cada)\s*(\d+)\s*(?:h|horas)\b)?`)

	doseFixedRe = regexp.MustCompile(
		`(?i)(\p{L}[\p{L}\p{N} \-]{2,}?)\s*[:\-]?\s*` +
			`(\d{1,4})\s*(mg|mcg|g|ml)\b` +
			`(?:\s*(?:/|cada)\s*(\d+)\s*(?:h|horas)\b)?`)

	doseAgeRe = regexp.MustCompile(
		`(?i)(?:edad|niñ[oa]s?|lactantes?|adult[oa]s?|ancian[oa]s?|` +
			`\d{1,2}\s*(?:mes(?:es)?|años?))`)

	spacesRe = regexp.MustCompile(`\s{2,}`)
)

// extractDoseTable scans selected sentences for dosing statements and
// returns deduplicated rows for the treatment table.
func extractDoseTable(sentences []string) []domain.DoseRow {
	var rows []domain.DoseRow
	push := func(drug, schema, dose, unit, freq, note string) {
		drug = strings.Trim(spacesRe.ReplaceAllString(drug, " "), " .,:;-")
		if drug == "" || dose == "" {
			return
		}
		row := domain.DoseRow{
			Drug:   drug,
			Schema: schema,
			Dose:   dose,
			Unit:   strings.ToLower(unit),
			Note:   strings.TrimSpace(note),
		}
		if freq != "" {
			if h, err := strconv.Atoi(freq); err == nil {
				row.FreqHours = h
			}
		}
		rows = append(rows, row)
	}

	for _, s := range sentences {
		note := strings.Join(doseAgeRe.FindAllString(s, -1), " ")
		if len(note) > 60 {
			note = note[:60]
		}

		for _, m := range dosePerKgRe.FindAllStringSubmatch(s, -1) {
			push(m[1], "perkg", m[2], m[3], m[4], note)
		}
		for _, idx := range doseFixedRe.FindAllStringSubmatchIndex(s, -1) {
			// A unit directly followed by /kg already matched the per-kg form.
			rest := s[idx[7]:]
			if strings.HasPrefix(strings.TrimSpace(rest), "/") && strings.Contains(rest[:min(len(rest), 6)], "kg") {
				continue
			}
			freq := ""
			if idx[8] >= 0 {
				freq = s[idx[8]:idx[9]]
			}
			push(s[idx[2]:idx[3]], "fixed", s[idx[4]:idx[5]], s[idx[6]:idx[7]], freq, note)
		}
	}

	seen := make(map[string]struct{}, len(rows))
	uniq := rows[:0]
	for _, r := range rows {
		key := strings.ToLower(r.Drug) + "|" + r.Schema + "|" + r.Dose + "|" + r.Unit + "|" + strconv.Itoa(r.FreqHours)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		uniq = append(uniq, r)
		if len(uniq) >= maxDoseRows {
			break
		}
	}
	return uniq
}

// dosesToMarkdown renders dose rows as a markdown table.
func dosesToMarkdown(rows []domain.DoseRow) string {
	if len(rows) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("| Fármaco | Esquema | Dosis | Freq. | Nota |\n|---|---|---|---|---|")
	for _, r := range rows {
		schema := "fija"
		if r.Schema == "perkg" {
			schema = "mg/kg"
		}
		freq := "—"
		if r.FreqHours > 0 {
			freq = "cada " + strconv.Itoa(r.FreqHours) + " h"
		}
		note := r.Note
		if note == "" {
			note = "—"
		}
		b.WriteString("\n| " + r.Drug + " | " + schema + " | " + r.Dose + " " + r.Unit + " | " + freq + " | " + note + " |")
	}
	return b.String()
}
