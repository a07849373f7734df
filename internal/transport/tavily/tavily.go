// Package tavily is the Tavily search API backend adapter.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/trovex/internal/domain"
	"github.com/kailas-cloud/trovex/internal/domain/source"
	"github.com/kailas-cloud/trovex/internal/metrics"
)

const defaultBaseURL = "https://api.tavily.com"

// Config holds the Tavily backend settings.
type Config struct {
	APIKey  string
	BaseURL string
	Weight  float64
	Logger  *zap.Logger
}

// Backend queries the Tavily search API.
type Backend struct {
	apiKey  string
	baseURL string
	weight  float64
	client  *http.Client
	logger  *zap.Logger
}

// New creates a Tavily backend adapter.
func New(cfg Config) *Backend {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Backend{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		weight:  cfg.Weight,
		client:  &http.Client{},
		logger:  cfg.Logger,
	}
}

// Name returns the engine identifier.
func (b *Backend) Name() string { return "tavily" }

// Weight returns the static trust multiplier for this engine.
func (b *Backend) Weight() float64 { return b.weight }

type searchRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
	MaxResults    int    `json:"max_results"`
}

type searchResponse struct {
	Results []struct {
		Title     string  `json:"title"`
		URL       string  `json:"url"`
		Content   string  `json:"content"`
		Score     float64 `json:"score"`
		Published string  `json:"published_date,omitempty"`
	} `json:"results"`
}

// Search performs a web search, mapping failures onto the backend sentinel
// taxonomy.
func (b *Backend) Search(ctx context.Context, query string, maxResults int) ([]source.RawHit, error) {
	body, err := json.Marshal(searchRequest{
		APIKey:      b.apiKey,
		Query:       query,
		SearchDepth: "basic",
		MaxResults:  maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, b.baseURL+"/search", bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := b.client.Do(req)
	duration := time.Since(start)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, b.fail("timeout", fmt.Errorf("tavily: %w", domain.ErrBackendTimeout))
		}
		return nil, b.fail("transport", fmt.Errorf("tavily: %v: %w", err, domain.ErrMalformedResponse))
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, b.fail("auth", fmt.Errorf("tavily: status %d: %w", resp.StatusCode, domain.ErrBackendAuth))
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, b.fail("rate_limited",
			fmt.Errorf("tavily: status %d: %w", resp.StatusCode, domain.ErrBackendRateLimited))
	case resp.StatusCode != http.StatusOK:
		return nil, b.fail("http_status",
			fmt.Errorf("tavily: status %d: %w", resp.StatusCode, domain.ErrMalformedResponse))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, b.fail("decode", fmt.Errorf("decode response: %w", domain.ErrMalformedResponse))
	}

	metrics.BackendRequestsTotal.WithLabelValues(b.Name(), "success").Inc()
	metrics.BackendRequestDuration.WithLabelValues(b.Name()).Observe(duration.Seconds())

	hits := make([]source.RawHit, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		hits = append(hits, source.RawHit{
			Title:       r.Title,
			URL:         r.URL,
			Snippet:     r.Content,
			Relevance:   clamp01(r.Score),
			PublishedAt: r.Published,
		})
	}
	return hits, nil
}

func (b *Backend) fail(errType string, err error) error {
	metrics.BackendRequestsTotal.WithLabelValues(b.Name(), "error").Inc()
	metrics.BackendErrorsTotal.WithLabelValues(b.Name(), errType).Inc()
	return err
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
