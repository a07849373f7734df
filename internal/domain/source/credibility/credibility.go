// Package credibility computes the deterministic trust score for a record.
package credibility

import (
	"strings"

	"github.com/kailas-cloud/trovex/internal/domain/source"
)

// Bonus adjustments added on top of the multiplicative base.
const (
	secureBonus    = 0.05
	premiumBonus   = 0.10
	reputableBonus = 0.05
)

// premiumDomains is the short allow-list of exceptionally high-trust hosts.
var premiumDomains = []string{
	"arxiv.org", "nature.com", "science.org", "nih.gov", "who.int",
	"ieee.org", "acm.org", "rfc-editor.org",
}

// reputableDomains is the secondary tier of reputable hosts.
var reputableDomains = []string{
	"reuters.com", "apnews.com", "bbc.com", "bbc.co.uk", "npr.org",
	"developer.mozilla.org", "w3.org", "wikipedia.org",
}

// Score combines the type base, per-item relevance, engine weight, and
// additive bonuses into a single value in [0,1].
//
// score = clamp01(base(type) * relevance * engineWeight + bonuses)
//
// The formula has no hidden inputs: two identical raw hits always score
// identically.
func Score(typ source.Type, relevance, engineWeight float64, rawURL, host string) float64 {
	s := typ.BaseScore() * relevance * engineWeight

	if strings.HasPrefix(strings.ToLower(rawURL), "https://") {
		s += secureBonus
	}
	if matches(host, premiumDomains) {
		s += premiumBonus
	} else if matches(host, reputableDomains) {
		s += reputableBonus
	}

	return clamp01(s)
}

// ScoreRecord fills rec.CredibilityScore from its already-normalized fields.
func ScoreRecord(rec *source.Record) {
	rec.CredibilityScore = Score(
		rec.SourceType, rec.Relevance, rec.EngineWeight, rec.URL, rec.Domain,
	)
}

func matches(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
