package trovex

import "github.com/kailas-cloud/trovex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidRequest       = domain.ErrInvalidRequest
	ErrNotFound             = domain.ErrNotFound
	ErrBackendTimeout       = domain.ErrBackendTimeout
	ErrBackendAuth          = domain.ErrBackendAuth
	ErrBackendRateLimited   = domain.ErrBackendRateLimited
	ErrMalformedResponse    = domain.ErrMalformedResponse
	ErrAllBackendsFailed    = domain.ErrAllBackendsFailed
	ErrSummaryProviderError = domain.ErrSummaryProviderError
)
