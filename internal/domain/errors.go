package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidRequest signals a malformed or out-of-range client request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")

	// ErrBackendTimeout signals a backend that missed its deadline.
	ErrBackendTimeout = errors.New("backend timeout")
	// ErrBackendAuth signals rejected backend credentials.
	ErrBackendAuth = errors.New("backend auth error")
	// ErrBackendRateLimited signals a backend quota hit.
	ErrBackendRateLimited = errors.New("backend rate limited")
	// ErrMalformedResponse signals an undecodable backend payload.
	ErrMalformedResponse = errors.New("malformed backend response")

	// ErrAllBackendsFailed signals that no backend produced results.
	ErrAllBackendsFailed = errors.New("all backends failed")

	// ErrSummaryProviderError signals a summary LLM failure.
	ErrSummaryProviderError = errors.New("summary provider error")
)

// AllBackendsFailedError wraps ErrAllBackendsFailed with per-engine reasons.
type AllBackendsFailedError struct {
	Reasons map[string]error
}

func (e *AllBackendsFailedError) Error() string {
	names := make([]string, 0, len(e.Reasons))
	for name := range e.Reasons {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %v", name, e.Reasons[name]))
	}
	return ErrAllBackendsFailed.Error() + ": " + strings.Join(parts, "; ")
}

func (e *AllBackendsFailedError) Unwrap() error { return ErrAllBackendsFailed }

// NewAllBackendsFailed creates an aggregate failure error from settled engine errors.
func NewAllBackendsFailed(reasons map[string]error) error {
	return &AllBackendsFailedError{Reasons: reasons}
}
