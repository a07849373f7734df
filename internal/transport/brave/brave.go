// Package brave is the Brave Search API backend adapter.
package brave

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/trovex/internal/domain"
	"github.com/kailas-cloud/trovex/internal/domain/source"
	"github.com/kailas-cloud/trovex/internal/metrics"
)

const defaultBaseURL = "https://api.search.brave.com/res/v1"

// Config holds the Brave backend settings.
type Config struct {
	APIKey  string
	BaseURL string
	Weight  float64
	Logger  *zap.Logger
}

// Backend queries the Brave web search API.
type Backend struct {
	apiKey  string
	baseURL string
	weight  float64
	client  *http.Client
	logger  *zap.Logger
}

// New creates a Brave backend adapter.
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
func (b *Backend) Name() string { return "brave" }

// Weight returns the static trust multiplier for this engine.
func (b *Backend) Weight() float64 { return b.weight }

// braveResponse is the subset of the Brave API payload we consume.
type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
			PageAge     string `json:"page_age"`
		} `json:"results"`
	} `json:"web"`
}

// Search performs a web search. Errors are mapped to the backend sentinel
// taxonomy so the dispatcher can exclude this engine without failing the
// request.
func (b *Backend) Search(ctx context.Context, query string, maxResults int) ([]source.RawHit, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("count", strconv.Itoa(maxResults))

	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, b.baseURL+"/web/search?"+q.Encode(), http.NoBody,
	)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	start := time.Now()
	resp, err := b.client.Do(req)
	duration := time.Since(start)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, b.fail("timeout", fmt.Errorf("brave: %w", domain.ErrBackendTimeout))
		}
		return nil, b.fail("transport", fmt.Errorf("brave: %v: %w", err, domain.ErrMalformedResponse))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, b.fail(statusErrorType(resp.StatusCode), statusError(resp.StatusCode))
	}

	var parsed braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, b.fail("decode", fmt.Errorf("decode response: %w", domain.ErrMalformedResponse))
	}

	metrics.BackendRequestsTotal.WithLabelValues(b.Name(), "success").Inc()
	metrics.BackendRequestDuration.WithLabelValues(b.Name()).Observe(duration.Seconds())

	hits := make([]source.RawHit, 0, len(parsed.Web.Results))
	for i, r := range parsed.Web.Results {
		hits = append(hits, source.RawHit{
			Title:       r.Title,
			URL:         r.URL,
			Snippet:     r.Description,
			Relevance:   rankRelevance(i),
			PublishedAt: r.PageAge,
		})
	}
	return hits, nil
}

func (b *Backend) fail(errType string, err error) error {
	metrics.BackendRequestsTotal.WithLabelValues(b.Name(), "error").Inc()
	metrics.BackendErrorsTotal.WithLabelValues(b.Name(), errType).Inc()
	return err
}

// rankRelevance derives a relevance value from result position for engines
// that report no per-item score.
func rankRelevance(rank int) float64 {
	rel := 1.0 - 0.05*float64(rank)
	if rel < 0.3 {
		return 0.3
	}
	return rel
}

func statusErrorType(status int) string {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return "auth"
	case http.StatusTooManyRequests:
		return "rate_limited"
	default:
		return "http_status"
	}
}

func statusError(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("brave: status %d: %w", status, domain.ErrBackendAuth)
	case http.StatusTooManyRequests:
		return fmt.Errorf("brave: status %d: %w", status, domain.ErrBackendRateLimited)
	default:
		return fmt.Errorf("brave: status %d: %w", status, domain.ErrMalformedResponse)
	}
}
