package tavily

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/trovex/internal/domain"
	"github.com/kailas-cloud/trovex/internal/metrics"
)

func init() {
	metrics.RegisterBackendMetrics()
}

func TestSearchParsesResults(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"results": [
				{"title": "Go memory model", "url": "https://go.dev/ref/mem", "content": "The Go memory model.", "score": 0.93, "published_date": "2023-06-01"},
				{"title": "Rust forum post", "url": "https://example.com/post", "content": "Unrelated.", "score": 1.4}
			]
		}`))
	}))
	defer srv.Close()

	b := New(Config{APIKey: "tvly-key", BaseURL: srv.URL, Weight: 0.9, Logger: zap.NewNop()})

	hits, err := b.Search(context.Background(), "go memory model", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if gotBody["api_key"] != "tvly-key" {
		t.Errorf("api_key in body = %v, want tvly-key", gotBody["api_key"])
	}
	if gotBody["query"] != "go memory model" {
		t.Errorf("query in body = %v", gotBody["query"])
	}
	if gotBody["max_results"] != float64(5) {
		t.Errorf("max_results in body = %v, want 5", gotBody["max_results"])
	}

	if len(hits) != 2 {
		t.Fatalf("len(hits) = %d, want 2", len(hits))
	}
	if hits[0].URL != "https://go.dev/ref/mem" {
		t.Errorf("hits[0].URL = %q", hits[0].URL)
	}
	if hits[0].Relevance != 0.93 {
		t.Errorf("hits[0].Relevance = %v, want 0.93", hits[0].Relevance)
	}
	if hits[0].PublishedAt != "2023-06-01" {
		t.Errorf("hits[0].PublishedAt = %q", hits[0].PublishedAt)
	}
	if hits[1].Relevance != 1.0 {
		t.Errorf("out-of-range score not clamped: %v", hits[1].Relevance)
	}
}

func TestSearchStatusErrors(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, domain.ErrBackendAuth},
		{http.StatusForbidden, domain.ErrBackendAuth},
		{http.StatusTooManyRequests, domain.ErrBackendRateLimited},
		{http.StatusInternalServerError, domain.ErrMalformedResponse},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
		}))
		b := New(Config{APIKey: "k", BaseURL: srv.URL, Weight: 1, Logger: zap.NewNop()})

		_, err := b.Search(context.Background(), "q", 3)
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: error = %v, want %v", tc.status, err, tc.want)
		}
		srv.Close()
	}
}

func TestSearchMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results": [`))
	}))
	defer srv.Close()

	b := New(Config{APIKey: "k", BaseURL: srv.URL, Weight: 1, Logger: zap.NewNop()})

	_, err := b.Search(context.Background(), "q", 3)
	if !errors.Is(err, domain.ErrMalformedResponse) {
		t.Errorf("error = %v, want ErrMalformedResponse", err)
	}
}

func TestSearchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	b := New(Config{APIKey: "k", BaseURL: srv.URL, Weight: 1, Logger: zap.NewNop()})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := b.Search(ctx, "q", 3)
	if !errors.Is(err, domain.ErrBackendTimeout) {
		t.Errorf("error = %v, want ErrBackendTimeout", err)
	}
}
