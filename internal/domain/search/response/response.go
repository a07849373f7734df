// Package response defines the aggregated search result carrier.
package response

import "github.com/kailas-cloud/trovex/internal/domain/source"

// Response is the outcome of one aggregation pass.
type Response struct {
	Sources           []source.Record
	EnginesUsed       []string
	EngineFailures    map[string]string
	AggregatedSummary string
	OverallConfidence float64
	TotalCandidates   int // before dedup
	SearchTimeMS      int64
}
