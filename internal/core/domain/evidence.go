package domain

import "time"

// Section is the clinical section a sentence belongs to. The values mirror
// the headings of the rendered answer, so they double as render keys.
type Section string

const (
	SectionDefinition Section = "definicion"
	SectionSymptoms   Section = "sintomas"
	SectionDiagnosis  Section = "diagnostico"
	SectionTreatment  Section = "tratamiento"
	SectionFollowUp   Section = "conducta"
	SectionOther      Section = "otros"
)

// RequiredSections must all be covered before the pipeline may stop early.
var RequiredSections = []Section{
	SectionDefinition,
	SectionSymptoms,
	SectionDiagnosis,
	SectionTreatment,
}

// SourceDocument is the cleaned text of one evidence source, produced by a
// tier searcher or the fetch-and-clean step. It lives for one query run.
type SourceDocument struct {
	Title       string
	URL         string
	Text        string
	PublishedAt time.Time
}

// WebHit is one result row from a web search collaborator.
type WebHit struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Candidate is a single sentence extracted from a source document.
// Immutable after creation.
type Candidate struct {
	Text        string
	SourceURL   string
	SourceTitle string
	Section     Section
	Negated     bool
	PublishedAt time.Time
}

// ScoredCandidate carries a candidate plus the signals the fusion ranker
// combines. Lexical, Dense and Fused are recomputed on every re-rank;
// the remaining fields are fixed at candidate creation.
type ScoredCandidate struct {
	Candidate

	Lexical      float64
	Dense        float64
	DomainWeight float64
	Evidence     float64
	Specialty    float64
	Fused        float64
}

// RunState is the terminal state of one pipeline run.
type RunState string

const (
	RunAnsweredEarly RunState = "answered_early"
	RunAnsweredFinal RunState = "answered_final"
	RunEmpty         RunState = "empty"
)

// DoseRow is one extracted dosing row for the treatment section.
type DoseRow struct {
	Drug      string `json:"drug"`
	Schema    string `json:"schema"` // "perkg" or "fixed"
	Dose      string `json:"dose"`
	Unit      string `json:"unit"`
	FreqHours int    `json:"freq_h,omitempty"`
	Note      string `json:"note,omitempty"`
}

// RunNotes collects per-tier diagnostics for one run.
type RunNotes struct {
	Query      string `json:"query_norm"`
	LocalAdded int    `json:"local_added"`
	IndexAdded int    `json:"index_added"`
	WebAdded   int    `json:"web_added"`
	CacheHits  int    `json:"cache_hits"`
	Degraded   bool   `json:"degraded"`
}

// Answer is the rendered result of one question.
type Answer struct {
	State     RunState `json:"state"`
	Markdown  string   `json:"markdown"`
	Summary   string   `json:"summary,omitempty"`
	Citations []string `json:"citations"`
	Notes     RunNotes `json:"notes"`
}
