package trovex

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/trovex/internal/domain/source"
	openaiSum "github.com/kailas-cloud/trovex/internal/transport/openai"
	aggregateuc "github.com/kailas-cloud/trovex/internal/usecase/aggregate"
)

type clientConfig struct {
	driver   string
	addrs    []string
	password string

	braveKey       string
	tavilyKey      string
	searxngURL     string
	customBackends []aggregateuc.Backend

	summarizer aggregateuc.Summarizer

	timeout    time.Duration
	domainCap  int
	threshold  float64
	ratePerSec float64
	burst      int

	logger *zap.Logger
}

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

type optionFunc func(*clientConfig)

func (f optionFunc) apply(cfg *clientConfig) { f(cfg) }

// WithRedis connects to Redis at the given addresses.
func WithRedis(addrs []string, password string) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.driver = "redis"
		cfg.addrs = addrs
		cfg.password = password
	})
}

// WithMemory uses the in-process store (default). State is lost on exit.
func WithMemory() Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.driver = "memory"
	})
}

// WithBrave enables the Brave Search backend.
func WithBrave(apiKey string) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.braveKey = apiKey
	})
}

// WithTavily enables the Tavily backend.
func WithTavily(apiKey string) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.tavilyKey = apiKey
	})
}

// WithSearXNG enables a self-hosted SearXNG backend.
func WithSearXNG(baseURL string) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.searxngURL = baseURL
	})
}

// Hit is a single raw result produced by a custom backend.
type Hit struct {
	Title       string
	URL         string
	Snippet     string
	Relevance   float64
	PublishedAt string
}

// Backend is a custom search engine plugged into the aggregation fan-out.
type Backend interface {
	Search(ctx context.Context, query string, maxResults int) ([]Hit, error)
	Name() string
	Weight() float64
}

// WithBackend registers a custom search backend.
func WithBackend(b Backend) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.customBackends = append(cfg.customBackends, &backendAdapter{inner: b})
	})
}

// WithOpenAISummary enables LLM summaries via an OpenAI-compatible API.
// An empty baseURL uses the OpenAI default.
func WithOpenAISummary(apiKey, baseURL, model string) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.summarizer = openaiSum.NewSummarizer(&openaiSum.Config{
			APIKey:   apiKey,
			BaseURL:  baseURL,
			Model:    model,
			Provider: "openai",
			Logger:   zap.NewNop(),
		})
	})
}

// WithTimeout bounds one full aggregation pass.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.timeout = d
	})
}

// WithDomainCap limits results kept per domain.
func WithDomainCap(n int) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.domainCap = n
	})
}

// WithAdmissionThreshold sets the credibility floor for downstream persistence.
func WithAdmissionThreshold(t float64) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.threshold = t
	})
}

// WithRateLimit throttles every backend to rate requests per second.
func WithRateLimit(ratePerSec float64, burst int) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.ratePerSec = ratePerSec
		cfg.burst = burst
	})
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.logger = logger
	})
}

// backendAdapter bridges the public Backend interface to the internal one.
type backendAdapter struct {
	inner Backend
}

func (a *backendAdapter) Search(ctx context.Context, query string, maxResults int) ([]source.RawHit, error) {
	hits, err := a.inner.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	out := make([]source.RawHit, len(hits))
	for i, h := range hits {
		out[i] = source.RawHit{
			Title:       h.Title,
			URL:         h.URL,
			Snippet:     h.Snippet,
			Relevance:   h.Relevance,
			PublishedAt: h.PublishedAt,
		}
	}
	return out, nil
}

func (a *backendAdapter) Name() string    { return a.inner.Name() }
func (a *backendAdapter) Weight() float64 { return a.inner.Weight() }

// --- Search options ---

type searchConfig struct {
	maxSources     int
	minCredibility float64
	engines        []string
	timeSensitive  bool
}

// SearchOption tunes one Search call.
type SearchOption func(*searchConfig)

// MaxSources caps the ranked result set.
func MaxSources(n int) SearchOption {
	return func(sc *searchConfig) { sc.maxSources = n }
}

// MinCredibility filters out records below the given score.
func MinCredibility(score float64) SearchOption {
	return func(sc *searchConfig) { sc.minCredibility = score }
}

// Engines restricts the query to a backend subset.
func Engines(names ...string) SearchOption {
	return func(sc *searchConfig) { sc.engines = names }
}

// TimeSensitive blends freshness into the ranking.
func TimeSensitive() SearchOption {
	return func(sc *searchConfig) { sc.timeSensitive = true }
}
