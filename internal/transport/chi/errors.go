package chi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchbridge"
	logpkg "github.com/kailas-cloud/searchbridge/internal/logger"
)

// errorCode is the machine-readable code of an error response.
type errorCode string

const (
	codeBadRequest       errorCode = "bad_request"
	codeUnauthorized     errorCode = "unauthorized"
	codeValidationFailed errorCode = "validation_failed"
	codeInvalidFilter    errorCode = "invalid_filter"
	codeUnsupported      errorCode = "unsupported_operation"
	codeNotInitialized   errorCode = "not_initialized"
	codeInitFailed       errorCode = "init_failed"
	codeBackendError     errorCode = "backend_error"
	codeInternalError    errorCode = "internal_error"
)

type errorResponse struct {
	Code     errorCode `json:"code"`
	Message  string    `json:"message"`
	Provider string    `json:"provider,omitempty"`
}

// errorHandler tries to handle a facade error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(searchbridge.ErrNotInitialized, http.StatusServiceUnavailable, codeNotInitialized),
		sentinelHandler(searchbridge.ErrInitFailed, http.StatusServiceUnavailable, codeInitFailed),
		sentinelHandler(searchbridge.ErrInvalidFilter, http.StatusBadRequest, codeInvalidFilter),
		sentinelHandler(searchbridge.ErrInvalidParams, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(searchbridge.ErrInvalidConfig, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(searchbridge.ErrConflictingRoles, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(searchbridge.ErrInvalidSynonym, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(searchbridge.ErrNotRepresentable, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(searchbridge.ErrMissingPrimaryKey, http.StatusBadRequest, codeValidationFailed),
		unsupportedHandler,
		backendHandler,
	}
}

// sentinelHandler maps a validation sentinel to a status. The wrapped
// message only carries caller input, so it is returned as is.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

func unsupportedHandler(w http.ResponseWriter, err error) bool {
	var ue *searchbridge.UnsupportedOperationError
	if !errors.As(err, &ue) {
		return false
	}
	writeJSON(w, http.StatusNotImplemented, errorResponse{
		Code:     codeUnsupported,
		Message:  ue.Error(),
		Provider: ue.Provider,
	})
	return true
}

// backendHandler hides the SDK message: it may carry hosts or keys.
func backendHandler(w http.ResponseWriter, err error) bool {
	var be *searchbridge.BackendError
	if !errors.As(err, &be) {
		return false
	}
	writeJSON(w, http.StatusBadGateway, errorResponse{
		Code:     codeBackendError,
		Message:  be.Op + " failed on backend",
		Provider: be.Provider,
	})
	return true
}

func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContextOr(r.Context(), s.logger)
	log.Warn("search facade error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}
