package usecase

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// EvidenceScorer assigns trust weights to sources from their domain and
// content-quality weights from lexical study-type cues. Scores depend only
// on the configured tables and the inputs, never on pool membership.
type EvidenceScorer struct {
	cfg  Scoring
	cues []cuePattern
}

type cuePattern struct {
	re     *regexp.Regexp
	weight float64
}

func NewEvidenceScorer(cfg Scoring) *EvidenceScorer {
	cfg = cfg.normalize()

	keys := make([]string, 0, len(cfg.EvidenceCues))
	for k := range cfg.EvidenceCues {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cues := make([]cuePattern, 0, len(keys))
	for _, k := range keys {
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(k) + `\b`)
		if err != nil {
			continue
		}
		cues = append(cues, cuePattern{re: re, weight: cfg.EvidenceCues[k]})
	}
	return &EvidenceScorer{cfg: cfg, cues: cues}
}

// DomainWeight looks up the registrable domain and public suffix of a URL
// against the trust table. Unknown domains weigh zero.
func (s *EvidenceScorer) DomainWeight(rawURL string) float64 {
	host := hostOf(rawURL)
	if host == "" {
		return 0
	}

	var weight float64
	if suffix, _ := publicsuffix.PublicSuffix(host); suffix != "" {
		weight += s.cfg.DomainTrust[suffix]
	}
	if etld1, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		weight += s.cfg.DomainTrust[etld1]
	}
	return weight
}

// Score combines the strongest matched study-type cue with the domain
// weight, clamped to [0, EvidenceMax]. A single strong cue dominates, so
// cues are max-combined rather than summed.
func (s *EvidenceScorer) Score(snippet, rawURL, title string) float64 {
	blob := strings.ToLower(title + " " + snippet)

	var best float64
	for _, cue := range s.cues {
		if cue.weight > best && cue.re.MatchString(blob) {
			best = cue.weight
		}
	}

	score := best + s.DomainWeight(rawURL)
	if score < 0 {
		return 0
	}
	if score > s.cfg.EvidenceMax {
		return s.cfg.EvidenceMax
	}
	return score
}

// DomainBonus returns the configured preference adjustment for a URL:
// DenyPenalty for low-signal domains, PreferredBonus for preferred ones,
// zero otherwise. The denylist wins when a URL matches both.
func (s *EvidenceScorer) DomainBonus(rawURL string) float64 {
	u := strings.ToLower(rawURL)
	if u == "" {
		return 0
	}
	for _, bad := range s.cfg.DenyDomains {
		if strings.Contains(u, bad) {
			return s.cfg.DenyPenalty
		}
	}
	for _, pref := range s.cfg.PreferredDomains {
		if pref != "" && strings.Contains(u, strings.ToLower(pref)) {
			return s.cfg.PreferredBonus
		}
	}
	return 0
}

func hostOf(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		// Tolerate bare hosts like "who.int/topic".
		if i := strings.IndexAny(rawURL, "/?#"); i > 0 {
			return strings.ToLower(rawURL[:i])
		}
		return strings.ToLower(rawURL)
	}
	return strings.ToLower(u.Hostname())
}
