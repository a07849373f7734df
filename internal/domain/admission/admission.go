// Package admission defines eligibility and placement tiers for records
// durable enough to persist downstream.
package admission

import "github.com/kailas-cloud/trovex/internal/domain/source"

// DefaultThreshold is the minimum credibility for downstream persistence.
const DefaultThreshold = 0.75

// Tier is the discrete placement hint handed to the downstream store.
type Tier int

// Placement tiers, higher means index/surface more aggressively.
const (
	TierLow    Tier = 1
	TierMedium Tier = 2
	TierHigh   Tier = 3
)

// tierThresholds maps credibility floors to tiers, checked highest first.
var tierThresholds = []struct {
	min  float64
	tier Tier
}{
	{0.90, TierHigh},
	{0.75, TierMedium},
}

// TierFor derives the placement tier from a credibility score.
func TierFor(credibility float64) Tier {
	for _, t := range tierThresholds {
		if credibility >= t.min {
			return t.tier
		}
	}
	return TierLow
}

// Status is the per-record admission outcome.
type Status string

// Admission outcomes.
const (
	StatusAdmitted       Status = "admitted"
	StatusBelowThreshold Status = "below_threshold"
	StatusDuplicate      Status = "duplicate"
)

// Result is the admission decision for one record.
type Result struct {
	Record source.Record
	Status Status
	Tier   Tier // meaningful only when Status == StatusAdmitted
}

// Eligible reports whether a record clears the credibility threshold.
// History (already-admitted URLs) is checked separately by the service.
func Eligible(rec *source.Record, threshold float64) bool {
	return rec.CredibilityScore >= threshold
}
