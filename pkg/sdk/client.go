// Package trovex is the embedded SDK: it wires the aggregation services
// against a database directly, without running the HTTP server.
package trovex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/trovex/internal/db"
	dbMemory "github.com/kailas-cloud/trovex/internal/db/memory"
	dbRedis "github.com/kailas-cloud/trovex/internal/db/redis"
	"github.com/kailas-cloud/trovex/internal/domain/search/request"
	"github.com/kailas-cloud/trovex/internal/ratelimit"
	archiverepo "github.com/kailas-cloud/trovex/internal/repository/archive"
	deduprepo "github.com/kailas-cloud/trovex/internal/repository/dedup"
	feedbackrepo "github.com/kailas-cloud/trovex/internal/repository/feedback"
	"github.com/kailas-cloud/trovex/internal/transport/brave"
	"github.com/kailas-cloud/trovex/internal/transport/searxng"
	"github.com/kailas-cloud/trovex/internal/transport/tavily"
	admissionuc "github.com/kailas-cloud/trovex/internal/usecase/admission"
	aggregateuc "github.com/kailas-cloud/trovex/internal/usecase/aggregate"
	feedbackuc "github.com/kailas-cloud/trovex/internal/usecase/feedback"
	healthuc "github.com/kailas-cloud/trovex/internal/usecase/health"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the trovex SDK entry point.
type Client struct {
	store  db.Store
	agg    *aggregateuc.Service
	adm    *admissionuc.Service
	fb     *feedbackuc.Service
	health *healthuc.Service
}

// New creates a trovex Client and connects to the database.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		driver:    "memory",
		threshold: 0.75,
		logger:    zap.NewNop(),
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	backends, limiters := buildBackends(cfg)
	if len(backends) == 0 {
		return nil, errors.New("trovex: at least one backend required (use WithBrave, WithTavily, or WithSearXNG)")
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("trovex: database not ready: %w", err)
	}

	return wireClient(store, cfg, backends, limiters), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "memory":
		return dbMemory.NewStore(), nil
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("trovex: create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("trovex: unknown driver %q", cfg.driver)
	}
}

func buildBackends(cfg *clientConfig) ([]aggregateuc.Backend, map[string]aggregateuc.Limiter) {
	var backends []aggregateuc.Backend
	limiters := make(map[string]aggregateuc.Limiter)

	add := func(b aggregateuc.Backend, rate float64, burst int) {
		backends = append(backends, b)
		if rate > 0 {
			limiters[b.Name()] = ratelimit.NewBucket(rate, burst)
		}
	}

	if cfg.braveKey != "" {
		add(brave.New(brave.Config{
			APIKey: cfg.braveKey, Weight: 1.0, Logger: cfg.logger,
		}), cfg.ratePerSec, cfg.burst)
	}
	if cfg.tavilyKey != "" {
		add(tavily.New(tavily.Config{
			APIKey: cfg.tavilyKey, Weight: 0.9, Logger: cfg.logger,
		}), cfg.ratePerSec, cfg.burst)
	}
	if cfg.searxngURL != "" {
		add(searxng.New(searxng.Config{
			BaseURL: cfg.searxngURL, Weight: 0.7, Logger: cfg.logger,
		}), cfg.ratePerSec, cfg.burst)
	}
	for _, b := range cfg.customBackends {
		add(b, cfg.ratePerSec, cfg.burst)
	}

	return backends, limiters
}

func wireClient(
	store db.Store,
	cfg *clientConfig,
	backends []aggregateuc.Backend,
	limiters map[string]aggregateuc.Limiter,
) *Client {
	feedbackRepo := feedbackrepo.New(store)

	agg := aggregateuc.New(backends, limiters, feedbackRepo, cfg.summarizer,
		aggregateuc.Config{
			Timeout:   cfg.timeout,
			DomainCap: cfg.domainCap,
		}, cfg.logger)
	adm := admissionuc.New(
		deduprepo.New(store), archiverepo.New(store), cfg.threshold, cfg.logger,
	)
	fb := feedbackuc.New(feedbackRepo)

	names := make([]string, 0, len(backends))
	for _, b := range backends {
		names = append(names, b.Name())
	}
	health := healthuc.New(store, nil, names)

	return &Client{store: store, agg: agg, adm: adm, fb: fb, health: health}
}

// Search aggregates results for a query across the configured backends and
// runs the admission filter over the ranked set.
func (c *Client) Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResult, error) {
	sc := &searchConfig{minCredibility: -1}
	for _, o := range opts {
		o(sc)
	}

	req, err := request.New(query, sc.maxSources, sc.minCredibility, sc.engines, sc.timeSensitive)
	if err != nil {
		return nil, err
	}

	resp, err := c.agg.Search(ctx, &req)
	if err != nil {
		return nil, err
	}

	decisions, ids, err := c.adm.Admit(ctx, resp.Sources)
	if err != nil {
		return nil, err
	}

	return searchResultFromDomain(resp, decisions, ids), nil
}

// Rate stores a 1..5 rating for a source URL.
func (c *Client) Rate(ctx context.Context, url string, rating int) error {
	return c.fb.Rate(ctx, url, rating)
}

// Bookmark sets or clears the bookmark flag for a source URL.
func (c *Client) Bookmark(ctx context.Context, url string, bookmarked bool) error {
	return c.fb.Bookmark(ctx, url, bookmarked)
}

// Ratings returns all stored ratings keyed by URL.
func (c *Client) Ratings(ctx context.Context) (map[string]int, error) {
	return c.fb.Ratings(ctx)
}

// Bookmarks returns all bookmarked URLs.
func (c *Client) Bookmarks(ctx context.Context) ([]string, error) {
	return c.fb.Bookmarks(ctx)
}

// Health reports component availability.
func (c *Client) Health(ctx context.Context) HealthReport {
	report := c.health.Check(ctx)

	checks := make(map[string]string, len(report.Checks))
	for name, result := range report.Checks {
		checks[name] = string(result)
	}
	return HealthReport{
		Status:   string(report.Status),
		Checks:   checks,
		Backends: report.Backends,
	}
}

// Close releases the database connection.
func (c *Client) Close() {
	c.store.Close()
}
