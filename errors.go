package searchbridge

import (
	"github.com/kailas-cloud/searchbridge/internal/domain"
	"github.com/kailas-cloud/searchbridge/internal/provider"
)

// Sentinel errors re-exported from the internal layers.
// Use errors.Is() to check.
var (
	ErrNotInitialized       = provider.ErrNotInitialized
	ErrInvalidProvider      = provider.ErrInvalidProvider
	ErrInitFailed           = provider.ErrInitFailed
	ErrBackend              = provider.ErrBackend
	ErrUnsupportedOperation = provider.ErrUnsupportedOperation

	ErrInvalidParams     = domain.ErrInvalidParams
	ErrInvalidConfig     = domain.ErrInvalidConfig
	ErrConflictingRoles  = domain.ErrConflictingRoles
	ErrInvalidSynonym    = domain.ErrInvalidSynonym
	ErrNotRepresentable  = domain.ErrNotRepresentable
	ErrInvalidFilter     = domain.ErrInvalidFilter
	ErrMissingPrimaryKey = domain.ErrMissingPrimaryKey
)

// Structured errors. Use errors.As() to inspect.
type (
	InvalidProviderError      = provider.InvalidProviderError
	InitError                 = provider.InitError
	BackendError              = provider.BackendError
	UnsupportedOperationError = provider.UnsupportedOperationError
)
