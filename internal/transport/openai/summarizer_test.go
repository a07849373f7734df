package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/trovex/internal/domain"
	"github.com/kailas-cloud/trovex/internal/domain/source"
	"github.com/kailas-cloud/trovex/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterBackendMetrics()
	os.Exit(m.Run())
}

// chatCompletionResponse mirrors the OpenAI-compatible chat completion response.
type chatCompletionResponse struct {
	Object  string `json:"object"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func completionWith(content string) chatCompletionResponse {
	resp := chatCompletionResponse{Object: "chat.completion", Model: "test-model"}
	resp.Choices = append(resp.Choices, struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	}{
		Message: struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		}{Role: "assistant", Content: content},
		FinishReason: "stop",
	})
	return resp
}

func testRecords() []source.Record {
	return []source.Record{
		{Title: "Go memory model", URL: "https://go.dev/ref/mem", Domain: "go.dev", Snippet: "The memory model."},
		{Title: "Data races", URL: "https://go.dev/doc/articles/race_detector", Domain: "go.dev", Snippet: "Race detector."},
	}
}

func TestSummarizer_Summarize(t *testing.T) {
	var gotPrompt string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(req.Messages))
		}
		gotPrompt = req.Messages[1].Content

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionWith("The Go memory model defines happens-before [1]."))
	}))
	defer server.Close()

	s := NewSummarizer(&Config{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Model:    "test-model",
		Provider: "test",
		Logger:   zap.NewNop(),
	})

	summary, err := s.Summarize(context.Background(), "go memory model", testRecords())
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if summary != "The Go memory model defines happens-before [1]." {
		t.Errorf("summary = %q", summary)
	}
	if !strings.Contains(gotPrompt, "Query: go memory model") {
		t.Errorf("prompt missing query: %q", gotPrompt)
	}
	if !strings.Contains(gotPrompt, "[1] Go memory model (go.dev)") {
		t.Errorf("prompt missing numbered source: %q", gotPrompt)
	}
	if !strings.Contains(gotPrompt, "[2] Data races (go.dev)") {
		t.Errorf("prompt missing second source: %q", gotPrompt)
	}
}

func TestSummarizer_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletionResponse{Object: "chat.completion"})
	}))
	defer server.Close()

	s := NewSummarizer(&Config{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Model:    "test-model",
		Provider: "test",
		Logger:   zap.NewNop(),
	})

	_, err := s.Summarize(context.Background(), "q", testRecords())
	if !errors.Is(err, domain.ErrSummaryProviderError) {
		t.Errorf("error = %v, want ErrSummaryProviderError", err)
	}
}

func TestSummarizer_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"message": "rate limit exceeded",
				"type":    "rate_limit_error",
			},
		})
	}))
	defer server.Close()

	s := NewSummarizer(&Config{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Model:    "test-model",
		Provider: "test",
		Logger:   zap.NewNop(),
	})

	_, err := s.Summarize(context.Background(), "q", testRecords())
	if !errors.Is(err, domain.ErrSummaryProviderError) {
		t.Errorf("error = %v, want ErrSummaryProviderError", err)
	}
}

func TestBuildPromptTruncatesSources(t *testing.T) {
	records := make([]source.Record, 8)
	for i := range records {
		records[i] = source.Record{Title: "t", Domain: "d.example", Snippet: "s"}
	}
	prompt := buildPrompt("q", records)
	if strings.Contains(prompt, "[6]") {
		t.Errorf("prompt should only include top %d sources:\n%s", maxSummarySources, prompt)
	}
	if !strings.Contains(prompt, "[5]") {
		t.Errorf("prompt missing fifth source:\n%s", prompt)
	}
}
