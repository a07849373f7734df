// Package request defines the validated aggregation query.
package request

import (
	"fmt"

	"github.com/kailas-cloud/trovex/internal/domain"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed query length.
	MaxQueryLength = 1024
	// DefaultMaxSources caps the ranked result set unless the caller narrows it.
	DefaultMaxSources = 15
	// MaxMaxSources is the hard ceiling on max_sources.
	MaxMaxSources = 50
	// DefaultMinCredibility filters out low-trust records by default.
	DefaultMinCredibility = 0.4
)

// Request is a validated aggregation query.
type Request struct {
	query          string
	maxSources     int
	minCredibility float64
	engines        []string
	timeSensitive  bool
}

// New validates and normalizes aggregation parameters.
// Defaults: maxSources=15, minCredibility=0.4. An empty engines list means
// all enabled backends. minCredibility < 0 means "not set".
func New(
	query string,
	maxSources int,
	minCredibility float64,
	engines []string,
	timeSensitive bool,
) (Request, error) {
	if query == "" {
		return Request{}, fmt.Errorf("%w: query is required", domain.ErrInvalidRequest)
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)",
			domain.ErrInvalidRequest, MaxQueryLength)
	}
	if maxSources == 0 {
		maxSources = DefaultMaxSources
	}
	if maxSources < 1 || maxSources > MaxMaxSources {
		return Request{}, fmt.Errorf("%w: max_sources must be between 1 and %d",
			domain.ErrInvalidRequest, MaxMaxSources)
	}
	if minCredibility < 0 {
		minCredibility = DefaultMinCredibility
	}
	if minCredibility > 1 {
		return Request{}, fmt.Errorf("%w: min_credibility must be between 0 and 1",
			domain.ErrInvalidRequest)
	}

	return Request{
		query:          query,
		maxSources:     maxSources,
		minCredibility: minCredibility,
		engines:        engines,
		timeSensitive:  timeSensitive,
	}, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// MaxSources returns the maximum records to retain after ranking.
func (r *Request) MaxSources() int { return r.maxSources }

// MinCredibility returns the minimum credibility threshold for inclusion.
func (r *Request) MinCredibility() float64 { return r.minCredibility }

// Engines returns the requested backend subset (nil = all enabled).
func (r *Request) Engines() []string { return r.engines }

// TimeSensitive reports whether freshness is blended into ranking.
func (r *Request) TimeSensitive() bool { return r.timeSensitive }
