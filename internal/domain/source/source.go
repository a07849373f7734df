// Package source defines retrieved-item records and their trust classification.
package source

// Type categorizes a result's origin by trust profile.
type Type string

// Source type categories, ordered by descending base trust.
const (
	Academic   Type = "academic"
	Government Type = "government"
	Reference  Type = "reference"
	News       Type = "news"
	Technical  Type = "technical"
	Wiki       Type = "wiki"
	Commercial Type = "commercial"
	Unknown    Type = "unknown"
)

// baseScores maps each source type to its fixed trust base.
var baseScores = map[Type]float64{
	Academic:   0.95,
	Government: 0.90,
	Reference:  0.85,
	News:       0.75,
	Technical:  0.75,
	Wiki:       0.70,
	Commercial: 0.50,
	Unknown:    0.35,
}

// BaseScore returns the fixed trust base for the type.
// Unrecognized types score as Unknown.
func (t Type) BaseScore() float64 {
	if s, ok := baseScores[t]; ok {
		return s
	}
	return baseScores[Unknown]
}

// IsValid reports whether t is a known source type.
func (t Type) IsValid() bool {
	_, ok := baseScores[t]
	return ok
}

// RawHit is a single result as returned by a backend, before normalization.
type RawHit struct {
	Title       string
	URL         string
	Snippet     string
	Relevance   float64 // backend-reported, 0 when absent
	PublishedAt string  // raw date string, empty when absent
}

// Record is one normalized, scored retrieved item.
type Record struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Domain  string `json:"domain"`

	SourceType   Type    `json:"source_type"`
	OriginEngine string  `json:"origin_engine"`
	EngineWeight float64 `json:"engine_weight"`

	Relevance        float64 `json:"relevance"`
	CredibilityScore float64 `json:"credibility_score"`
	FreshnessScore   float64 `json:"freshness_score"`
	CombinedScore    float64 `json:"combined_score"`

	PublishedAt string `json:"published_date,omitempty"`

	UserRating int  `json:"user_rating,omitempty"` // 1..5, 0 when unrated
	Bookmarked bool `json:"is_bookmarked"`
}
