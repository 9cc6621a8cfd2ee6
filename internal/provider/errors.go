package provider

import (
	"errors"
	"fmt"
)

// Sentinel errors of the provider taxonomy.
var (
	ErrNotInitialized       = errors.New("search client not initialized")
	ErrInvalidProvider      = errors.New("invalid provider")
	ErrInitFailed           = errors.New("provider init failed")
	ErrBackend              = errors.New("backend error")
	ErrUnsupportedOperation = errors.New("operation not supported by provider")
)

// Op names used in errors, logs and metric labels.
const (
	OpInit            = "init"
	OpPing            = "ping"
	OpSearch          = "search"
	OpAddDocuments    = "add_documents"
	OpDeleteDocuments = "delete_documents"
	OpConfigureIndex  = "configure_index"
	OpDeleteIndex     = "delete_index"
	OpSaveSynonyms    = "save_synonyms"
	OpSearchSynonyms  = "search_synonyms"
	OpDeleteSynonym   = "delete_synonym"
)

// InvalidProviderError reports an unknown or incomplete provider config.
type InvalidProviderError struct {
	Type   string
	Reason string
}

func (e *InvalidProviderError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid provider %q: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("invalid provider %q", e.Type)
}

func (e *InvalidProviderError) Unwrap() error { return ErrInvalidProvider }

// InitError reports a failed Init; it matches both ErrInitFailed and the cause.
type InitError struct {
	Provider string
	Err      error
}

func (e *InitError) Error() string {
	return e.Provider + ": init failed: " + e.Err.Error()
}

func (e *InitError) Unwrap() []error { return []error{ErrInitFailed, e.Err} }

// BackendError wraps an error surfaced by a backend SDK, keeping the cause.
type BackendError struct {
	Provider string
	Op       string
	Err      error
}

func (e *BackendError) Error() string {
	return e.Provider + ": " + e.Op + ": " + e.Err.Error()
}

func (e *BackendError) Unwrap() []error { return []error{ErrBackend, e.Err} }

// UnsupportedOperationError reports an operation the backend cannot perform.
type UnsupportedOperationError struct {
	Provider string
	Op       string
	Reason   string
}

func (e *UnsupportedOperationError) Error() string {
	msg := e.Provider + ": " + e.Op + " is not supported"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *UnsupportedOperationError) Unwrap() error { return ErrUnsupportedOperation }

// Backend wraps err as a *BackendError; nil stays nil and errors that
// already carry a BackendError are returned as is.
func Backend(provider, op string, err error) error {
	if err == nil {
		return nil
	}
	var be *BackendError
	if errors.As(err, &be) {
		return err
	}
	return &BackendError{Provider: provider, Op: op, Err: err}
}

// Unsupported builds an UnsupportedOperationError.
func Unsupported(provider, op, reason string) error {
	return &UnsupportedOperationError{Provider: provider, Op: op, Reason: reason}
}

// IsUnsupported reports whether err is an UnsupportedOperationError.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupportedOperation)
}
