package aggregate

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/trovex/internal/domain"
	"github.com/kailas-cloud/trovex/internal/domain/search/request"
	"github.com/kailas-cloud/trovex/internal/domain/source"
)

// --- Mocks ---

type mockBackend struct {
	name   string
	weight float64
	hits   []source.RawHit
	err    error
	delay  time.Duration
	called bool
}

func (m *mockBackend) Search(ctx context.Context, _ string, _ int) ([]source.RawHit, error) {
	m.called = true
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", m.name, domain.ErrBackendTimeout)
		}
	}
	return m.hits, m.err
}

func (m *mockBackend) Name() string    { return m.name }
func (m *mockBackend) Weight() float64 { return m.weight }

type mockFeedback struct {
	ratings   map[string]int
	bookmarks []string
	err       error
}

func (m *mockFeedback) Ratings(_ context.Context) (map[string]int, error) {
	return m.ratings, m.err
}

func (m *mockFeedback) Bookmarks(_ context.Context) ([]string, error) {
	return m.bookmarks, m.err
}

type mockSummarizer struct {
	summary string
	err     error
	called  bool
}

func (m *mockSummarizer) Summarize(_ context.Context, _ string, _ []source.Record) (string, error) {
	m.called = true
	return m.summary, m.err
}

func makeRequest(t *testing.T, engines []string) *request.Request {
	t.Helper()
	r, err := request.New("go concurrency patterns", 10, -1, engines, false)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return &r
}

func newService(backends []Backend, feedback FeedbackReader, summarizer Summarizer) *Service {
	return New(backends, nil, feedback, summarizer, Config{}, zap.NewNop())
}

func academicHit(path string) source.RawHit {
	return source.RawHit{
		Title:     "paper",
		URL:       "https://arxiv.org/abs/" + path,
		Snippet:   "abstract",
		Relevance: 0.8,
	}
}

// --- Tests ---

func TestSearch_MergesBackends(t *testing.T) {
	b1 := &mockBackend{name: "brave", weight: 1.0, hits: []source.RawHit{
		{Title: "ref", URL: "https://go.dev/ref/mem", Relevance: 0.9},
	}}
	b2 := &mockBackend{name: "tavily", weight: 0.9, hits: []source.RawHit{
		academicHit("2301.0001"),
	}}
	svc := newService([]Backend{b1, b2}, nil, nil)

	resp, err := svc.Search(context.Background(), makeRequest(t, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(resp.Sources))
	}
	if !b1.called || !b2.called {
		t.Error("expected both backends to be queried")
	}
	if len(resp.EnginesUsed) != 2 || resp.EnginesUsed[0] != "brave" || resp.EnginesUsed[1] != "tavily" {
		t.Errorf("EnginesUsed = %v, want [brave tavily]", resp.EnginesUsed)
	}
	if resp.TotalCandidates != 2 {
		t.Errorf("TotalCandidates = %d, want 2", resp.TotalCandidates)
	}
	if resp.OverallConfidence <= 0 {
		t.Errorf("OverallConfidence = %v, want > 0", resp.OverallConfidence)
	}
}

func TestSearch_OverlappingURLsCollapsed(t *testing.T) {
	eduHit := func(host string) source.RawHit {
		return source.RawHit{
			Title:     "lecture",
			URL:       "https://" + host + "/notes",
			Snippet:   "notes",
			Relevance: 0.8,
		}
	}
	shared := []source.RawHit{eduHit("c.edu"), eduHit("d.edu"), eduHit("e.edu")}

	b1 := &mockBackend{name: "brave", weight: 1.0, hits: append([]source.RawHit{
		eduHit("a.edu"), eduHit("b.edu"),
	}, shared...)}
	b2 := &mockBackend{name: "tavily", weight: 0.9, hits: append([]source.RawHit{
		eduHit("f.edu"), eduHit("g.edu"),
	}, shared...)}
	svc := newService([]Backend{b1, b2}, nil, nil)

	resp, err := svc.Search(context.Background(), makeRequest(t, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.TotalCandidates != 10 {
		t.Errorf("TotalCandidates = %d, want 10", resp.TotalCandidates)
	}
	if len(resp.Sources) != 7 {
		t.Fatalf("expected 7 unique sources, got %d", len(resp.Sources))
	}
	seen := make(map[string]bool, len(resp.Sources))
	for _, rec := range resp.Sources {
		if seen[rec.URL] {
			t.Errorf("URL %s appears twice in the response", rec.URL)
		}
		seen[rec.URL] = true
	}
	// The overlapping URLs must keep the higher-weight engine's record.
	for _, rec := range resp.Sources {
		if rec.Domain == "c.edu" && rec.OriginEngine != "brave" {
			t.Errorf("shared URL kept engine %q, want brave", rec.OriginEngine)
		}
	}
}

func TestSearch_PartialFailure(t *testing.T) {
	ok := &mockBackend{name: "brave", weight: 1.0, hits: []source.RawHit{
		academicHit("2301.0002"),
	}}
	bad := &mockBackend{name: "searxng", weight: 0.7, err: domain.ErrBackendAuth}
	svc := newService([]Backend{ok, bad}, nil, nil)

	resp, err := svc.Search(context.Background(), makeRequest(t, nil))
	if err != nil {
		t.Fatalf("partial failure should still succeed: %v", err)
	}
	if len(resp.EnginesUsed) != 1 || resp.EnginesUsed[0] != "brave" {
		t.Errorf("EnginesUsed = %v, want [brave]", resp.EnginesUsed)
	}
	if _, ok := resp.EngineFailures["searxng"]; !ok {
		t.Errorf("EngineFailures = %v, want searxng entry", resp.EngineFailures)
	}
}

func TestSearch_AllBackendsFailed(t *testing.T) {
	b1 := &mockBackend{name: "brave", err: domain.ErrBackendAuth}
	b2 := &mockBackend{name: "tavily", err: domain.ErrBackendRateLimited}
	svc := newService([]Backend{b1, b2}, nil, nil)

	_, err := svc.Search(context.Background(), makeRequest(t, nil))
	if !errors.Is(err, domain.ErrAllBackendsFailed) {
		t.Fatalf("error = %v, want ErrAllBackendsFailed", err)
	}

	var agg *domain.AllBackendsFailedError
	if !errors.As(err, &agg) {
		t.Fatalf("error does not carry per-engine reasons: %v", err)
	}
	if len(agg.Reasons) != 2 {
		t.Errorf("Reasons = %v, want 2 entries", agg.Reasons)
	}
}

func TestSearch_EmptySuccessCountsAsUsed(t *testing.T) {
	empty := &mockBackend{name: "brave", weight: 1.0}
	svc := newService([]Backend{empty}, nil, nil)

	resp, err := svc.Search(context.Background(), makeRequest(t, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.EnginesUsed) != 1 {
		t.Errorf("EnginesUsed = %v, want [brave]", resp.EnginesUsed)
	}
	if len(resp.Sources) != 0 {
		t.Errorf("Sources = %v, want empty", resp.Sources)
	}
	if resp.AggregatedSummary != "" {
		t.Errorf("summary for empty results = %q, want empty", resp.AggregatedSummary)
	}
}

func TestSearch_UnknownEngine(t *testing.T) {
	svc := newService([]Backend{&mockBackend{name: "brave"}}, nil, nil)

	_, err := svc.Search(context.Background(), makeRequest(t, []string{"altavista"}))
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("error = %v, want ErrInvalidRequest", err)
	}
}

func TestSearch_EngineSubset(t *testing.T) {
	b1 := &mockBackend{name: "brave", weight: 1.0, hits: []source.RawHit{academicHit("1")}}
	b2 := &mockBackend{name: "tavily", weight: 0.9, hits: []source.RawHit{academicHit("2")}}
	svc := newService([]Backend{b1, b2}, nil, nil)

	resp, err := svc.Search(context.Background(), makeRequest(t, []string{"tavily"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b1.called {
		t.Error("brave should not be queried when subset excludes it")
	}
	if len(resp.EnginesUsed) != 1 || resp.EnginesUsed[0] != "tavily" {
		t.Errorf("EnginesUsed = %v, want [tavily]", resp.EnginesUsed)
	}
}

func TestSearch_StragglersAbandoned(t *testing.T) {
	fast := &mockBackend{name: "brave", weight: 1.0, hits: []source.RawHit{academicHit("3")}}
	slow := &mockBackend{name: "tavily", weight: 0.9, delay: 5 * time.Second,
		hits: []source.RawHit{academicHit("4")}}

	svc := New([]Backend{fast, slow}, nil, nil, nil,
		Config{Timeout: 100 * time.Millisecond}, zap.NewNop())

	start := time.Now()
	resp, err := svc.Search(context.Background(), makeRequest(t, nil))
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed > 2*time.Second {
		t.Fatalf("search did not respect timeout, took %v", elapsed)
	}
	if len(resp.EnginesUsed) != 1 || resp.EnginesUsed[0] != "brave" {
		t.Errorf("EnginesUsed = %v, want [brave]", resp.EnginesUsed)
	}
	if msg, ok := resp.EngineFailures["tavily"]; !ok || msg == "" {
		t.Errorf("EngineFailures = %v, want tavily timeout entry", resp.EngineFailures)
	}
}

func TestSearch_MinCredibilityFilters(t *testing.T) {
	b := &mockBackend{name: "brave", weight: 1.0, hits: []source.RawHit{
		academicHit("5"),
		{Title: "shop", URL: "https://cheap-stuff.shop/item", Relevance: 0.2},
	}}
	svc := newService([]Backend{b}, nil, nil)

	r, err := request.New("q", 10, 0.5, nil, false)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	resp, err := svc.Search(context.Background(), &r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, rec := range resp.Sources {
		if rec.CredibilityScore < 0.5 {
			t.Errorf("record %s below threshold: %v", rec.URL, rec.CredibilityScore)
		}
	}
	if len(resp.Sources) != 1 {
		t.Errorf("len(Sources) = %d, want 1", len(resp.Sources))
	}
}

func TestSearch_FeedbackBias(t *testing.T) {
	url := "https://arxiv.org/abs/2301.0006"
	hits := []source.RawHit{{Title: "paper", URL: url, Relevance: 0.5}}

	base := newService([]Backend{&mockBackend{name: "brave", weight: 1.0, hits: hits}}, nil, nil)
	baseResp, err := base.Search(context.Background(), makeRequest(t, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fb := &mockFeedback{ratings: map[string]int{url: 5}, bookmarks: []string{url}}
	biased := newService([]Backend{&mockBackend{name: "brave", weight: 1.0, hits: hits}}, fb, nil)
	biasedResp, err := biased.Search(context.Background(), makeRequest(t, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if biasedResp.Sources[0].CredibilityScore <= baseResp.Sources[0].CredibilityScore {
		t.Errorf("feedback should raise credibility: %v <= %v",
			biasedResp.Sources[0].CredibilityScore, baseResp.Sources[0].CredibilityScore)
	}
	if biasedResp.Sources[0].UserRating != 5 {
		t.Errorf("UserRating = %d, want 5", biasedResp.Sources[0].UserRating)
	}
	if !biasedResp.Sources[0].Bookmarked {
		t.Error("Bookmarked not set on response record")
	}
}

func TestSearch_FeedbackReadFailureIsAdvisory(t *testing.T) {
	b := &mockBackend{name: "brave", weight: 1.0, hits: []source.RawHit{academicHit("7")}}
	fb := &mockFeedback{err: errors.New("store down")}
	svc := newService([]Backend{b}, fb, nil)

	resp, err := svc.Search(context.Background(), makeRequest(t, nil))
	if err != nil {
		t.Fatalf("feedback failure must not fail the search: %v", err)
	}
	if len(resp.Sources) != 1 {
		t.Errorf("len(Sources) = %d, want 1", len(resp.Sources))
	}
}

func TestSearch_SummarizerFallback(t *testing.T) {
	b := &mockBackend{name: "brave", weight: 1.0, hits: []source.RawHit{academicHit("8")}}
	sum := &mockSummarizer{err: domain.ErrSummaryProviderError}
	svc := newService([]Backend{b}, nil, sum)

	resp, err := svc.Search(context.Background(), makeRequest(t, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sum.called {
		t.Error("summarizer should be attempted")
	}
	if resp.AggregatedSummary == "" {
		t.Error("expected template fallback summary")
	}
}

func TestSearch_SummarizerUsedWhenHealthy(t *testing.T) {
	b := &mockBackend{name: "brave", weight: 1.0, hits: []source.RawHit{academicHit("9")}}
	sum := &mockSummarizer{summary: "LLM synthesis [1]."}
	svc := newService([]Backend{b}, nil, sum)

	resp, err := svc.Search(context.Background(), makeRequest(t, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.AggregatedSummary != "LLM synthesis [1]." {
		t.Errorf("AggregatedSummary = %q", resp.AggregatedSummary)
	}
}

func TestSearch_DomainCapApplied(t *testing.T) {
	hits := make([]source.RawHit, 0, 4)
	for i := 0; i < 4; i++ {
		hits = append(hits, source.RawHit{
			Title:     "paper",
			URL:       fmt.Sprintf("https://arxiv.org/abs/2301.%04d", i),
			Relevance: 0.8,
		})
	}
	b := &mockBackend{name: "brave", weight: 1.0, hits: hits}
	svc := New([]Backend{b}, nil, nil, nil, Config{DomainCap: 2}, zap.NewNop())

	resp, err := svc.Search(context.Background(), makeRequest(t, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Sources) != 2 {
		t.Errorf("len(Sources) = %d, want domain cap of 2", len(resp.Sources))
	}
}
