package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/trovex/internal/domain"
	"github.com/kailas-cloud/trovex/internal/domain/source"
	"github.com/kailas-cloud/trovex/internal/metrics"
)

const (
	maxSummarySources = 5
	maxSnippetLength  = 400
)

const systemPrompt = "You summarize web search results. Given a query and " +
	"numbered source snippets, write a two to three sentence synthesis citing " +
	"sources by their bracketed numbers. Do not invent facts absent from the snippets."

// Summarizer produces aggregated summaries using an OpenAI-compatible
// chat API (e.g. Nebius).
type Summarizer struct {
	client   *openai.Client
	model    string
	provider string
	logger   *zap.Logger
}

// Config holds the summary provider settings.
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	Provider string
	Logger   *zap.Logger
}

// NewSummarizer creates an OpenAI-compatible summary provider.
func NewSummarizer(cfg *Config) *Summarizer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Summarizer{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// Summarize synthesizes the top-ranked sources into a short cited answer.
func (s *Summarizer) Summarize(ctx context.Context, query string, records []source.Record) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(query, records)},
		},
	}

	start := time.Now()

	resp, err := s.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.SummaryRequestsTotal.WithLabelValues(s.provider, s.model, "error").Inc()
		return "", parseAPIError(err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		metrics.SummaryRequestsTotal.WithLabelValues(s.provider, s.model, "error").Inc()
		return "", fmt.Errorf("empty completion response: %w", domain.ErrSummaryProviderError)
	}

	metrics.SummaryRequestsTotal.WithLabelValues(s.provider, s.model, "success").Inc()
	metrics.SummaryRequestDuration.WithLabelValues(s.provider, s.model).Observe(duration.Seconds())

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (s *Summarizer) HealthCheck(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// buildPrompt renders the query and the top sources as numbered snippets.
func buildPrompt(query string, records []source.Record) string {
	if len(records) > maxSummarySources {
		records = records[:maxSummarySources]
	}

	var sb strings.Builder
	sb.WriteString("Query: ")
	sb.WriteString(query)
	sb.WriteString("\n\nSources:\n")
	for i, rec := range records {
		snippet := rec.Snippet
		if len(snippet) > maxSnippetLength {
			snippet = snippet[:maxSnippetLength]
		}
		fmt.Fprintf(&sb, "[%d] %s (%s)\n%s\n\n", i+1, rec.Title, rec.Domain, snippet)
	}
	return sb.String()
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrSummaryProviderError so callers can
// fall back to the template summary.
func parseAPIError(err error) error {
	wrap := domain.ErrSummaryProviderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("summary API error %d: %s: %w",
				reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("summary API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("summary API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("summary request failed: %w", wrap)
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
