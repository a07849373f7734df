// Package dedup collapses duplicate URLs and enforces the per-domain cap
// within one aggregated response.
package dedup

import (
	"sort"

	"github.com/kailas-cloud/trovex/internal/domain/source"
)

// DefaultDomainCap is the default maximum records per domain in one response.
const DefaultDomainCap = 2

// Collapse removes exact URL duplicates (keeping the highest-scoring
// instance) and caps records per domain, discarding the lowest-scoring
// excess. The returned slice is ordered by combined score descending with
// the domain/URL tie-break, so callers can rely on determinism before
// ranking truncation.
func Collapse(records []source.Record, domainCap int) []source.Record {
	if domainCap <= 0 {
		domainCap = DefaultDomainCap
	}

	byURL := make(map[string]source.Record, len(records))
	for _, rec := range records {
		existing, ok := byURL[rec.URL]
		if !ok || rec.CombinedScore > existing.CombinedScore {
			byURL[rec.URL] = rec
		}
	}

	unique := make([]source.Record, 0, len(byURL))
	for _, rec := range byURL {
		unique = append(unique, rec)
	}
	sortByScore(unique)

	perDomain := make(map[string]int, len(unique))
	out := unique[:0]
	for _, rec := range unique {
		if perDomain[rec.Domain] >= domainCap {
			continue
		}
		perDomain[rec.Domain]++
		out = append(out, rec)
	}
	return out
}

// sortByScore orders records by combined score descending; ties break by
// domain then URL, both ascending.
func sortByScore(records []source.Record) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.CombinedScore != b.CombinedScore {
			return a.CombinedScore > b.CombinedScore
		}
		if a.Domain != b.Domain {
			return a.Domain < b.Domain
		}
		return a.URL < b.URL
	})
}
