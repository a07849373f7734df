// Package rank orders the merged result set and derives response-level
// aggregates (confidence, summary).
package rank

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/trovex/internal/domain/source"
)

// Weights for the time-sensitive blend.
const (
	credibilityWeight = 0.8
	freshnessWeight   = 0.2
)

// summaryItems bounds how many sources the synthesized summary cites.
const summaryItems = 5

// CombinedScore computes the ranking score for one record. Freshness is
// blended in only for time-sensitive requests; otherwise it is reported but
// does not affect ordering.
func CombinedScore(rec *source.Record, timeSensitive bool) float64 {
	if timeSensitive {
		return credibilityWeight*rec.CredibilityScore + freshnessWeight*rec.FreshnessScore
	}
	return rec.CredibilityScore
}

// Apply fills CombinedScore on every record.
func Apply(records []source.Record, timeSensitive bool) {
	for i := range records {
		records[i].CombinedScore = CombinedScore(&records[i], timeSensitive)
	}
}

// Sort orders records by combined score descending. Ties break by domain
// then URL, both ascending, so identical inputs always produce identical
// orderings.
func Sort(records []source.Record) {
	sort.Slice(records, func(i, j int) bool {
		return Less(&records[i], &records[j])
	})
}

// Less is the deterministic ranking order: score desc, domain asc, URL asc.
func Less(a, b *source.Record) bool {
	if a.CombinedScore != b.CombinedScore {
		return a.CombinedScore > b.CombinedScore
	}
	if a.Domain != b.Domain {
		return a.Domain < b.Domain
	}
	return a.URL < b.URL
}

// Truncate limits records to max entries.
func Truncate(records []source.Record, max int) []source.Record {
	if max > 0 && len(records) > max {
		return records[:max]
	}
	return records
}

// Confidence is the mean combined score of the retained set (0 when empty).
func Confidence(records []source.Record) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for i := range records {
		sum += records[i].CombinedScore
	}
	return sum / float64(len(records))
}

// Summary produces a deterministic synthesized summary with [n] citations
// for the top-ranked records.
func Summary(query string, records []source.Record) string {
	if len(records) == 0 {
		return fmt.Sprintf("No credible sources found for %q.", query)
	}

	n := len(records)
	if n > summaryItems {
		n = summaryItems
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Top %d sources for %q:\n", n, query)
	for i := 0; i < n; i++ {
		rec := &records[i]
		title := rec.Title
		if title == "" {
			title = rec.URL
		}
		fmt.Fprintf(&b, "[%d] %s (%s, %s, credibility %.2f)\n",
			i+1, title, rec.Domain, rec.SourceType, rec.CredibilityScore)
	}
	return strings.TrimRight(b.String(), "\n")
}
