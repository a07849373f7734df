// Package searxng is the backend adapter for a self-hosted SearXNG
// metasearch instance. Unlike the commercial backends it is keyless, so
// auth failures map onto the generic malformed-response sentinel.
package searxng

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/trovex/internal/domain"
	"github.com/kailas-cloud/trovex/internal/domain/source"
	"github.com/kailas-cloud/trovex/internal/metrics"
)

// Config holds the SearXNG backend settings. BaseURL is required since
// there is no public default instance.
type Config struct {
	BaseURL string
	Weight  float64
	Logger  *zap.Logger
}

// Backend queries a SearXNG instance's JSON search endpoint.
type Backend struct {
	baseURL string
	weight  float64
	client  *http.Client
	logger  *zap.Logger
}

// New creates a SearXNG backend adapter.
func New(cfg Config) *Backend {
	return &Backend{
		baseURL: cfg.BaseURL,
		weight:  cfg.Weight,
		client:  &http.Client{},
		logger:  cfg.Logger,
	}
}

// Name returns the engine identifier.
func (b *Backend) Name() string { return "searxng" }

// Weight returns the static trust multiplier for this engine.
func (b *Backend) Weight() float64 { return b.weight }

type searchResponse struct {
	Results []struct {
		Title         string  `json:"title"`
		URL           string  `json:"url"`
		Content       string  `json:"content"`
		Score         float64 `json:"score"`
		PublishedDate string  `json:"publishedDate"`
	} `json:"results"`
}

// Search performs a metasearch query against the instance.
func (b *Backend) Search(ctx context.Context, query string, maxResults int) ([]source.RawHit, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, b.baseURL+"/search?"+q.Encode(), nil,
	)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	resp, err := b.client.Do(req)
	duration := time.Since(start)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, b.fail("timeout", fmt.Errorf("searxng: %w", domain.ErrBackendTimeout))
		}
		return nil, b.fail("transport", fmt.Errorf("searxng: %v: %w", err, domain.ErrMalformedResponse))
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, b.fail("rate_limited",
			fmt.Errorf("searxng: status %d: %w", resp.StatusCode, domain.ErrBackendRateLimited))
	case resp.StatusCode != http.StatusOK:
		return nil, b.fail("http_status",
			fmt.Errorf("searxng: status %d: %w", resp.StatusCode, domain.ErrMalformedResponse))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, b.fail("decode", fmt.Errorf("decode response: %w", domain.ErrMalformedResponse))
	}

	metrics.BackendRequestsTotal.WithLabelValues(b.Name(), "success").Inc()
	metrics.BackendRequestDuration.WithLabelValues(b.Name()).Observe(duration.Seconds())

	if len(parsed.Results) > maxResults {
		parsed.Results = parsed.Results[:maxResults]
	}

	hits := make([]source.RawHit, 0, len(parsed.Results))
	for rank, r := range parsed.Results {
		relevance := normalizeScore(r.Score)
		if relevance == 0 {
			// Some instances omit scores; fall back to rank decay.
			relevance = rankRelevance(rank)
		}
		hits = append(hits, source.RawHit{
			Title:       r.Title,
			URL:         r.URL,
			Snippet:     r.Content,
			Relevance:   relevance,
			PublishedAt: r.PublishedDate,
		})
	}
	return hits, nil
}

// normalizeScore maps SearXNG's unbounded result score into [0, 1].
// Scores above 10 are pinned to full relevance.
func normalizeScore(score float64) float64 {
	if score <= 0 {
		return 0
	}
	if score >= 10 {
		return 1
	}
	return score / 10
}

func rankRelevance(rank int) float64 {
	r := 1.0 - 0.05*float64(rank)
	if r < 0.3 {
		return 0.3
	}
	return r
}

func (b *Backend) fail(errType string, err error) error {
	metrics.BackendRequestsTotal.WithLabelValues(b.Name(), "error").Inc()
	metrics.BackendErrorsTotal.WithLabelValues(b.Name(), errType).Inc()
	return err
}
