// Package aggregate fans a query out to the configured search backends,
// normalizes and scores the settled results, and ranks them into a single
// credibility-ordered response.
package aggregate

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/trovex/internal/domain"
	"github.com/kailas-cloud/trovex/internal/domain/search/dedup"
	"github.com/kailas-cloud/trovex/internal/domain/search/rank"
	"github.com/kailas-cloud/trovex/internal/domain/search/request"
	"github.com/kailas-cloud/trovex/internal/domain/search/response"
	"github.com/kailas-cloud/trovex/internal/domain/source"
	"github.com/kailas-cloud/trovex/internal/domain/source/credibility"
	"github.com/kailas-cloud/trovex/internal/domain/source/freshness"
	"github.com/kailas-cloud/trovex/internal/metrics"
)

// DefaultTimeout bounds one full aggregation pass.
const DefaultTimeout = 10 * time.Second

// Feedback bias applied to backend relevance before credibility scoring.
const (
	bookmarkBonus   = 0.05
	ratingStepBonus = 0.025 // per rating point away from neutral (3)
)

// Config holds aggregation tuning knobs.
type Config struct {
	Timeout           time.Duration
	DomainCap         int
	PerBackendResults int
}

// Service aggregates results from multiple search backends.
type Service struct {
	backends   map[string]Backend
	limiters   map[string]Limiter
	feedback   FeedbackReader
	summarizer Summarizer // nil disables LLM summaries
	cfg        Config
	logger     *zap.Logger
}

// New creates an aggregation service. Limiters are keyed by backend name;
// a backend without a limiter is not throttled.
func New(
	backends []Backend,
	limiters map[string]Limiter,
	feedback FeedbackReader,
	summarizer Summarizer,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.DomainCap <= 0 {
		cfg.DomainCap = dedup.DefaultDomainCap
	}
	if cfg.PerBackendResults <= 0 {
		cfg.PerBackendResults = request.DefaultMaxSources
	}

	byName := make(map[string]Backend, len(backends))
	for _, b := range backends {
		byName[b.Name()] = b
	}

	return &Service{
		backends:   byName,
		limiters:   limiters,
		feedback:   feedback,
		summarizer: summarizer,
		cfg:        cfg,
		logger:     logger,
	}
}

// settled is one backend's outcome, success or failure.
type settled struct {
	engine string
	hits   []source.RawHit
	weight float64
	err    error
}

// Search runs the full aggregation pipeline for one query.
func (s *Service) Search(ctx context.Context, req *request.Request) (*response.Response, error) {
	start := time.Now()

	engines, err := s.selectEngines(req.Engines())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	results := s.fanOut(ctx, engines, req.Query())

	var (
		records     []source.Record
		enginesUsed []string
		failures    = make(map[string]error)
	)
	for _, r := range results {
		if r.err != nil {
			s.logger.Warn("backend failed",
				zap.String("engine", r.engine), zap.Error(r.err))
			failures[r.engine] = r.err
			continue
		}
		enginesUsed = append(enginesUsed, r.engine)
		records = append(records, s.normalize(r)...)
	}

	if len(enginesUsed) == 0 {
		return nil, domain.NewAllBackendsFailed(failures)
	}
	sort.Strings(enginesUsed)

	total := len(records)
	metrics.SearchCandidatesTotal.WithLabelValues("fetched").Add(float64(total))

	s.applyFeedback(ctx, records)

	now := time.Now()
	kept := records[:0]
	for i := range records {
		credibility.ScoreRecord(&records[i])
		records[i].FreshnessScore = freshness.Score(records[i].PublishedAt, now)
		if records[i].CredibilityScore >= req.MinCredibility() {
			kept = append(kept, records[i])
		}
	}
	records = kept

	rank.Apply(records, req.TimeSensitive())
	records = dedup.Collapse(records, s.cfg.DomainCap)
	metrics.SearchCandidatesTotal.WithLabelValues("deduped").Add(float64(len(records)))

	rank.Sort(records)
	records = rank.Truncate(records, req.MaxSources())
	metrics.SearchCandidatesTotal.WithLabelValues("returned").Add(float64(len(records)))

	resp := &response.Response{
		Sources:           records,
		EnginesUsed:       enginesUsed,
		EngineFailures:    failureMessages(failures),
		AggregatedSummary: s.summarize(ctx, req.Query(), records),
		OverallConfidence: rank.Confidence(records),
		TotalCandidates:   total,
		SearchTimeMS:      time.Since(start).Milliseconds(),
	}
	return resp, nil
}

// selectEngines resolves the requested engine subset against the registry.
// An empty subset means all configured backends.
func (s *Service) selectEngines(names []string) ([]Backend, error) {
	if len(names) == 0 {
		engines := make([]Backend, 0, len(s.backends))
		for _, b := range s.backends {
			engines = append(engines, b)
		}
		return engines, nil
	}

	engines := make([]Backend, 0, len(names))
	for _, name := range names {
		b, ok := s.backends[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown engine %q", domain.ErrInvalidRequest, name)
		}
		engines = append(engines, b)
	}
	return engines, nil
}

// fanOut queries every engine concurrently and collects settled outcomes.
// Backends still in flight when the context expires are abandoned and
// recorded as timed out.
func (s *Service) fanOut(ctx context.Context, engines []Backend, query string) []settled {
	ch := make(chan settled, len(engines))
	for _, b := range engines {
		go func(b Backend) {
			if limiter, ok := s.limiters[b.Name()]; ok {
				if err := limiter.Wait(ctx); err != nil {
					ch <- settled{engine: b.Name(), err: fmt.Errorf("rate limiter: %w", domain.ErrBackendTimeout)}
					return
				}
			}
			hits, err := b.Search(ctx, query, s.cfg.PerBackendResults)
			ch <- settled{engine: b.Name(), hits: hits, weight: b.Weight(), err: err}
		}(b)
	}

	results := make([]settled, 0, len(engines))
	arrived := make(map[string]bool, len(engines))
	for range engines {
		select {
		case r := <-ch:
			arrived[r.engine] = true
			results = append(results, r)
		case <-ctx.Done():
			for _, b := range engines {
				if !arrived[b.Name()] {
					results = append(results, settled{
						engine: b.Name(),
						err:    fmt.Errorf("%s: %w", b.Name(), domain.ErrBackendTimeout),
					})
				}
			}
			return results
		}
	}
	return results
}

// normalize converts one engine's raw hits into scored-record skeletons.
// Hits whose URL cannot be classified at all are dropped.
func (s *Service) normalize(r settled) []source.Record {
	records := make([]source.Record, 0, len(r.hits))
	for _, hit := range r.hits {
		if hit.URL == "" {
			continue
		}
		typ, host := source.Classify(hit.URL)
		records = append(records, source.Record{
			URL:          hit.URL,
			Title:        hit.Title,
			Snippet:      hit.Snippet,
			Domain:       host,
			SourceType:   typ,
			OriginEngine: r.engine,
			EngineWeight: r.weight,
			Relevance:    hit.Relevance,
			PublishedAt:  hit.PublishedAt,
		})
	}
	return records
}

// applyFeedback biases relevance by accumulated user signals. Feedback is
// advisory: a read failure logs and leaves the records unbiased.
func (s *Service) applyFeedback(ctx context.Context, records []source.Record) {
	if s.feedback == nil || len(records) == 0 {
		return
	}

	ratings, err := s.feedback.Ratings(ctx)
	if err != nil {
		s.logger.Warn("read ratings", zap.Error(err))
		ratings = nil
	}
	bookmarkList, err := s.feedback.Bookmarks(ctx)
	if err != nil {
		s.logger.Warn("read bookmarks", zap.Error(err))
		bookmarkList = nil
	}
	bookmarks := make(map[string]bool, len(bookmarkList))
	for _, url := range bookmarkList {
		bookmarks[url] = true
	}

	for i := range records {
		rec := &records[i]
		if rating, ok := ratings[rec.URL]; ok {
			rec.UserRating = rating
			rec.Relevance += float64(rating-3) * ratingStepBonus
		}
		if bookmarks[rec.URL] {
			rec.Bookmarked = true
			rec.Relevance += bookmarkBonus
		}
		if rec.Relevance < 0 {
			rec.Relevance = 0
		}
		if rec.Relevance > 1 {
			rec.Relevance = 1
		}
	}
}

// summarize prefers the LLM provider and falls back to the deterministic
// citation template when it is absent or fails.
func (s *Service) summarize(ctx context.Context, query string, records []source.Record) string {
	if len(records) == 0 {
		return ""
	}
	if s.summarizer != nil {
		summary, err := s.summarizer.Summarize(ctx, query, records)
		if err == nil {
			return summary
		}
		s.logger.Warn("summary provider failed, using template", zap.Error(err))
	}
	return rank.Summary(query, records)
}

func failureMessages(failures map[string]error) map[string]string {
	if len(failures) == 0 {
		return nil
	}
	msgs := make(map[string]string, len(failures))
	for engine, err := range failures {
		msgs[engine] = err.Error()
	}
	return msgs
}
