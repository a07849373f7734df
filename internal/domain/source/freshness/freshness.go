// Package freshness derives a decayed recency score from a publication date.
package freshness

import "time"

// Neutral is the score assigned when no parsable date is available.
const Neutral = 0.5

// layouts are tried in order when parsing a publication date.
var layouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC1123,
	time.RFC1123Z,
}

// Score maps the age of published (relative to now) onto a monotonically
// decreasing scale. A missing or unparsable date yields Neutral rather than
// an error. Dates in the future clamp to 1.0.
func Score(published string, now time.Time) float64 {
	if published == "" {
		return Neutral
	}

	t, ok := Parse(published)
	if !ok {
		return Neutral
	}

	age := now.Sub(t)
	switch {
	case age < 7*24*time.Hour:
		return 1.0
	case age < 30*24*time.Hour:
		return 0.95
	case age < 90*24*time.Hour:
		return 0.8
	case age < 180*24*time.Hour:
		return 0.6
	case age < 365*24*time.Hour:
		return 0.4
	default:
		return 0.2
	}
}

// Parse tries each supported layout and reports whether one matched.
func Parse(published string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, published); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
