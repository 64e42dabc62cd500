package usecase

// Scoring is the full configuration of the ranking and selection engine.
// Every weight the fusion ranker and the domain scorer use lives here;
// no component keeps process-wide mutable state.
type Scoring struct {
	WeightDense    float64 `yaml:"weight_dense"`
	WeightLexical  float64 `yaml:"weight_lexical"`
	WeightEvidence float64 `yaml:"weight_evidence"`
	WeightRecency  float64 `yaml:"weight_recency"`

	// Degraded-mode weights (no embedding backend configured).
	SimpleEvidenceWeight  float64 `yaml:"simple_evidence_weight"`
	SimpleSpecialtyWeight float64 `yaml:"simple_specialty_weight"`

	PreferredBonus   float64  `yaml:"preferred_bonus"`
	DenyPenalty      float64  `yaml:"deny_penalty"`
	PreferredDomains []string `yaml:"preferred_domains"`
	DenyDomains      []string `yaml:"deny_domains"`

	EvidenceCues map[string]float64 `yaml:"evidence_cues"`
	DomainTrust  map[string]float64 `yaml:"domain_trust"`
	EvidenceMax  float64            `yaml:"evidence_max"`

	BM25K1 float64 `yaml:"bm25_k1"`
	BM25B  float64 `yaml:"bm25_b"`

	RecencyTauDays float64 `yaml:"recency_tau_days"`

	MMRLambda    float64 `yaml:"mmr_lambda"`
	MMRPoolSize  int     `yaml:"mmr_pool_size"`
	MMRSelectK   int     `yaml:"mmr_select_k"`
	MaxCitations int     `yaml:"max_citations"`
}

// DefaultScoring returns the canonical hybrid configuration. The exact
// numbers are tunable defaults, not contracts.
func DefaultScoring() Scoring {
	return Scoring{
		WeightDense:    0.55,
		WeightLexical:  0.35,
		WeightEvidence: 0.15,
		WeightRecency:  0.05,

		SimpleEvidenceWeight:  0.25,
		SimpleSpecialtyWeight: 0.15,

		PreferredBonus: 0.6,
		DenyPenalty:    -0.5,
		PreferredDomains: []string{
			"who.int", "cdc.gov", "nih.gov", "medlineplus.gov",
			"paho.org", "mayoclinic.org", "msdmanuals.com", "minsal.cl",
		},
		DenyDomains: []string{"wikipedia.org", "youtube.com", "youtu.be"},

		EvidenceCues: map[string]float64{
			"guideline":            4.0,
			"consensus":            3.5,
			"recomendación":        3.2,
			"guía":                 3.2,
			"systematic review":    3.0,
			"revisión sistemática": 3.0,
			"meta-analysis":        3.0,
			"metaanálisis":         3.0,
			"randomized":           2.6,
			"ensayo aleatorizado":  2.6,
			"cohort":               2.2,
			"case-control":         2.0,
			"observational":        1.8,
			"review":               1.4,
			"case report":          1.0,
			"serie de casos":       1.0,
			"opinión":              0.4,
			"blog":                 0.3,
		},
		DomainTrust: map[string]float64{
			"gov":              1.0,
			"edu":              0.8,
			"who.int":          1.2,
			"cdc.gov":          1.2,
			"nih.gov":          1.1,
			"nejm.org":         1.0,
			"thelancet.com":    1.0,
			"bmj.com":          0.9,
			"mayoclinic.org":   0.8,
			"merckmanuals.com": 0.7,
			"msdmanuals.com":   0.7,
			"minsal.cl":        0.9,
			"paho.org":         0.9,
			"medlineplus.gov":  0.8,
		},
		EvidenceMax: 6.0,

		BM25K1: 1.5,
		BM25B:  0.75,

		RecencyTauDays: 365 * 3,

		MMRLambda:    0.75,
		MMRPoolSize:  300,
		MMRSelectK:   40,
		MaxCitations: 12,
	}
}

func (s Scoring) normalize() Scoring {
	def := DefaultScoring()
	out := s
	if out.WeightDense == 0 && out.WeightLexical == 0 {
		out.WeightDense = def.WeightDense
		out.WeightLexical = def.WeightLexical
	}
	if out.WeightEvidence == 0 {
		out.WeightEvidence = def.WeightEvidence
	}
	if out.WeightRecency == 0 {
		out.WeightRecency = def.WeightRecency
	}
	if out.SimpleEvidenceWeight == 0 {
		out.SimpleEvidenceWeight = def.SimpleEvidenceWeight
	}
	if out.SimpleSpecialtyWeight == 0 {
		out.SimpleSpecialtyWeight = def.SimpleSpecialtyWeight
	}
	if out.PreferredBonus == 0 {
		out.PreferredBonus = def.PreferredBonus
	}
	if out.DenyPenalty == 0 {
		out.DenyPenalty = def.DenyPenalty
	}
	if len(out.PreferredDomains) == 0 {
		out.PreferredDomains = def.PreferredDomains
	}
	if len(out.DenyDomains) == 0 {
		out.DenyDomains = def.DenyDomains
	}
	if len(out.EvidenceCues) == 0 {
		out.EvidenceCues = def.EvidenceCues
	}
	if len(out.DomainTrust) == 0 {
		out.DomainTrust = def.DomainTrust
	}
	if out.EvidenceMax <= 0 {
		out.EvidenceMax = def.EvidenceMax
	}
	if out.BM25K1 <= 0 {
		out.BM25K1 = def.BM25K1
	}
	if out.BM25B <= 0 {
		out.BM25B = def.BM25B
	}
	if out.RecencyTauDays <= 0 {
		out.RecencyTauDays = def.RecencyTauDays
	}
	if out.MMRLambda <= 0 || out.MMRLambda > 1 {
		out.MMRLambda = def.MMRLambda
	}
	if out.MMRPoolSize <= 0 {
		out.MMRPoolSize = def.MMRPoolSize
	}
	if out.MMRSelectK <= 0 {
		out.MMRSelectK = def.MMRSelectK
	}
	if out.MaxCitations <= 0 {
		out.MaxCitations = def.MaxCitations
	}
	return out
}
