package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/trovex/internal/domain"
	domadm "github.com/kailas-cloud/trovex/internal/domain/admission"
	"github.com/kailas-cloud/trovex/internal/domain/search/request"
	"github.com/kailas-cloud/trovex/internal/domain/source"
	admissionuc "github.com/kailas-cloud/trovex/internal/usecase/admission"
	aggregateuc "github.com/kailas-cloud/trovex/internal/usecase/aggregate"
	feedbackuc "github.com/kailas-cloud/trovex/internal/usecase/feedback"
	healthuc "github.com/kailas-cloud/trovex/internal/usecase/health"
)

// Error codes returned in JSON error bodies.
const (
	codeBadRequest        = "bad_request"
	codeValidationFailed  = "validation_failed"
	codeNotFound          = "not_found"
	codeAllBackendsFailed = "all_backends_failed"
	codeSummaryProvider   = "summary_provider_error"
	codeInternalError     = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Defaults are the configured request defaults applied when a search
// request leaves max_sources or min_credibility unset.
type Defaults struct {
	MaxSources     int
	MinCredibility float64
}

// Server is the HTTP API surface over the aggregation services.
type Server struct {
	aggregate     *aggregateuc.Service
	admission     *admissionuc.Service
	feedback      *feedbackuc.Service
	health        *healthuc.Service
	defaults      Defaults
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. Zero-value defaults fall back to
// the request package constants.
func NewServer(
	aggregate *aggregateuc.Service,
	admission *admissionuc.Service,
	feedback *feedbackuc.Service,
	health *healthuc.Service,
	defaults Defaults,
	logger *zap.Logger,
) *Server {
	if defaults.MaxSources <= 0 {
		defaults.MaxSources = request.DefaultMaxSources
	}
	if defaults.MinCredibility <= 0 {
		defaults.MinCredibility = request.DefaultMinCredibility
	}
	s := &Server{
		aggregate: aggregate,
		admission: admission,
		feedback:  feedback,
		health:    health,
		defaults:  defaults,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		allBackendsFailedHandler,
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrSummaryProviderError, http.StatusBadGateway, codeSummaryProvider),
	}
	return s
}

// Mount registers all routes on the router.
func (s *Server) Mount(r gochi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/api/v1", func(r gochi.Router) {
		r.Post("/search", s.Search)
		r.Route("/sources", func(r gochi.Router) {
			r.Post("/rate", s.RateSource)
			r.Post("/bookmark", s.BookmarkSource)
			r.Get("/ratings", s.ListRatings)
			r.Get("/bookmarks", s.ListBookmarks)
		})
	})
}

// --- Wire types ---

type searchRequest struct {
	Query          string   `json:"query"`
	MaxSources     int      `json:"max_sources,omitempty"`
	MinCredibility *float64 `json:"min_credibility,omitempty"`
	Engines        []string `json:"engines,omitempty"`
	TimeSensitive  bool     `json:"time_sensitive,omitempty"`
}

type sourceItem struct {
	source.Record
	AdmissionStatus domadm.Status `json:"admission_status"`
	Tier            int           `json:"tier,omitempty"`
}

type searchResponse struct {
	Sources           []sourceItem      `json:"sources"`
	EnginesUsed       []string          `json:"engines_used"`
	EngineFailures    map[string]string `json:"engine_failures,omitempty"`
	AggregatedSummary string            `json:"aggregated_summary,omitempty"`
	OverallConfidence float64           `json:"overall_confidence"`
	TotalCandidates   int               `json:"total_candidates"`
	SearchTimeMS      int64             `json:"search_time_ms"`
	AdmittedCount     int               `json:"admitted_count"`
}

type rateRequest struct {
	URL    string `json:"url"`
	Rating int    `json:"rating"`
}

type bookmarkRequest struct {
	URL        string `json:"url"`
	Bookmarked bool   `json:"bookmarked"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- Handlers ---

// Search handles POST /api/v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	maxSources := req.MaxSources
	if maxSources == 0 {
		maxSources = s.defaults.MaxSources
	}
	minCredibility := s.defaults.MinCredibility
	if req.MinCredibility != nil {
		minCredibility = *req.MinCredibility
	}

	aggReq, err := request.New(req.Query, maxSources, minCredibility, req.Engines, req.TimeSensitive)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp, err := s.aggregate.Search(r.Context(), &aggReq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	decisions, _, err := s.admission.Admit(r.Context(), resp.Sources)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]sourceItem, len(decisions))
	admitted := 0
	for i, d := range decisions {
		items[i] = sourceItem{Record: d.Record, AdmissionStatus: d.Status}
		if d.Status == domadm.StatusAdmitted {
			items[i].Tier = int(d.Tier)
			admitted++
		}
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Sources:           items,
		EnginesUsed:       resp.EnginesUsed,
		EngineFailures:    resp.EngineFailures,
		AggregatedSummary: resp.AggregatedSummary,
		OverallConfidence: resp.OverallConfidence,
		TotalCandidates:   resp.TotalCandidates,
		SearchTimeMS:      resp.SearchTimeMS,
		AdmittedCount:     admitted,
	})
}

// RateSource handles POST /api/v1/sources/rate.
func (s *Server) RateSource(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := s.feedback.Rate(r.Context(), req.URL, req.Rating); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BookmarkSource handles POST /api/v1/sources/bookmark.
func (s *Server) BookmarkSource(w http.ResponseWriter, r *http.Request) {
	var req bookmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := s.feedback.Bookmark(r.Context(), req.URL, req.Bookmarked); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListRatings handles GET /api/v1/sources/ratings.
func (s *Server) ListRatings(w http.ResponseWriter, r *http.Request) {
	ratings, err := s.feedback.Ratings(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if ratings == nil {
		ratings = map[string]int{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"ratings": ratings})
}

// ListBookmarks handles GET /api/v1/sources/bookmarks.
func (s *Server) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	bookmarks, err := s.feedback.Bookmarks(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if bookmarks == nil {
		bookmarks = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"bookmarks": bookmarks})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":   report.Status,
		"checks":   report.Checks,
		"backends": report.Backends,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// --- Error plumbing ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidRequest,
		domain.ErrNotFound,
		domain.ErrAllBackendsFailed,
		domain.ErrSummaryProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// allBackendsFailedHandler handles ErrAllBackendsFailed with per-engine reasons.
func allBackendsFailedHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrAllBackendsFailed) {
		return false
	}
	var abf *domain.AllBackendsFailedError
	if errors.As(err, &abf) {
		engines := make(map[string]string, len(abf.Reasons))
		for engine, reason := range abf.Reasons {
			engines[engine] = reason.Error()
		}
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"code":    codeAllBackendsFailed,
			"message": msg,
			"engines": engines,
		})
		return true
	}
	writeError(w, http.StatusServiceUnavailable, codeAllBackendsFailed, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
