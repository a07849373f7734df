package trovex

import (
	domadm "github.com/kailas-cloud/trovex/internal/domain/admission"
	"github.com/kailas-cloud/trovex/internal/domain/search/response"
)

// Admission outcomes for a returned source.
const (
	StatusAdmitted       = "admitted"
	StatusBelowThreshold = "below_threshold"
	StatusDuplicate      = "duplicate"
)

// Source is one ranked, scored result.
type Source struct {
	URL     string
	Title   string
	Snippet string
	Domain  string

	SourceType   string
	OriginEngine string
	EngineWeight float64

	Relevance        float64
	CredibilityScore float64
	FreshnessScore   float64
	CombinedScore    float64

	PublishedAt string

	UserRating int
	Bookmarked bool

	AdmissionStatus string
	Tier            int // 1..3, set only when admitted
}

// SearchResult is the outcome of one aggregation pass.
type SearchResult struct {
	Sources           []Source
	EnginesUsed       []string
	EngineFailures    map[string]string
	AggregatedSummary string
	OverallConfidence float64
	TotalCandidates   int
	SearchTimeMS      int64
	AdmittedIDs       []string // downstream archive IDs, parallel to admitted sources
}

// HealthReport is the aggregated component availability report.
type HealthReport struct {
	Status   string
	Checks   map[string]string
	Backends []string
}

func searchResultFromDomain(
	resp *response.Response, decisions []domadm.Result, ids []string,
) *SearchResult {
	sources := make([]Source, len(decisions))
	for i, d := range decisions {
		rec := d.Record
		sources[i] = Source{
			URL:              rec.URL,
			Title:            rec.Title,
			Snippet:          rec.Snippet,
			Domain:           rec.Domain,
			SourceType:       string(rec.SourceType),
			OriginEngine:     rec.OriginEngine,
			EngineWeight:     rec.EngineWeight,
			Relevance:        rec.Relevance,
			CredibilityScore: rec.CredibilityScore,
			FreshnessScore:   rec.FreshnessScore,
			CombinedScore:    rec.CombinedScore,
			PublishedAt:      rec.PublishedAt,
			UserRating:       rec.UserRating,
			Bookmarked:       rec.Bookmarked,
			AdmissionStatus:  string(d.Status),
		}
		if d.Status == domadm.StatusAdmitted {
			sources[i].Tier = int(d.Tier)
		}
	}

	return &SearchResult{
		Sources:           sources,
		EnginesUsed:       resp.EnginesUsed,
		EngineFailures:    resp.EngineFailures,
		AggregatedSummary: resp.AggregatedSummary,
		OverallConfidence: resp.OverallConfidence,
		TotalCandidates:   resp.TotalCandidates,
		SearchTimeMS:      resp.SearchTimeMS,
		AdmittedIDs:       ids,
	}
}
