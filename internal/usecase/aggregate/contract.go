package aggregate

import (
	"context"

	"github.com/kailas-cloud/trovex/internal/domain/source"
)

// Backend is an upstream search engine adapter.
type Backend interface {
	Search(ctx context.Context, query string, maxResults int) ([]source.RawHit, error)
	Name() string
	Weight() float64
}

// Limiter gates outbound request rate for one backend.
type Limiter interface {
	Wait(ctx context.Context) error
}

// FeedbackReader supplies accumulated user feedback for relevance biasing.
type FeedbackReader interface {
	Ratings(ctx context.Context) (map[string]int, error)
	Bookmarks(ctx context.Context) ([]string, error)
}

// Summarizer synthesizes an aggregated summary over the top-ranked sources.
type Summarizer interface {
	Summarize(ctx context.Context, query string, records []source.Record) (string, error)
}
