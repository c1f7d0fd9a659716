// Package backends holds the concrete text generation backends and the
// registry that resolves a backend id to one of them.
package backends

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/upb/climate-action-ai/services/orchestrator"
)

// Backend is one independently invokable generation service, usually a
// single model of a provider.
type Backend interface {
	// Name returns the identifier the backend is registered under
	// (e.g., "gemini-2.5-flash", "openai/gpt-4o-mini").
	Name() string

	// Generate sends prompt to the model and returns the generated text.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds common configuration for backends
type Config struct {
	// APIKey for authentication
	APIKey string

	// BaseURL for the API (optional override)
	BaseURL string

	// Timeout for a single generation call
	Timeout time.Duration

	// Additional headers
	Headers map[string]string
}

// Failure codes shared by all backends.
const (
	CodeRequest       = "REQUEST_ERROR"
	CodeTransport     = "HTTP_ERROR"
	CodeReadBody      = "READ_ERROR"
	CodeDecode        = "UNMARSHAL_ERROR"
	CodeEmptyResponse = "EMPTY_RESPONSE"
	CodeNotRegistered = "NOT_REGISTERED"
	CodeAPI           = "API_ERROR"
)

// BackendError represents an error from a backend
type BackendError struct {
	// Backend that generated the error
	Backend string

	// Code is the error code
	Code string

	// Message is the error message
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *BackendError) Error() string {
	if e.Cause != nil {
		return e.Backend + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Backend + ": " + e.Message
}

// Unwrap implements error unwrapping
func (e *BackendError) Unwrap() error {
	return e.Cause
}

// NewBackendError creates a new backend error
func NewBackendError(backend, code, message string, statusCode int, cause error) *BackendError {
	return &BackendError{
		Backend:    backend,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

// Failure reasons reported to API clients.
const (
	ReasonTimeout       = "timeout"
	ReasonCanceled      = "canceled"
	ReasonRateLimited   = "rate_limited"
	ReasonUnavailable   = "unavailable"
	ReasonRejected      = "rejected"
	ReasonEmptyResponse = "empty_response"
	ReasonNotRegistered = "not_registered"
	ReasonFailed        = "failed"
)

// Classify reduces a backend failure to a short reason that is safe to show
// to end users. The raw error stays in the logs.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	if errors.Is(err, context.Canceled) {
		return ReasonCanceled
	}
	if errors.Is(err, orchestrator.ErrEmptyResponse) {
		return ReasonEmptyResponse
	}
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return ReasonTimeout
	}

	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		return ReasonFailed
	}

	switch backendErr.Code {
	case CodeEmptyResponse:
		return ReasonEmptyResponse
	case CodeNotRegistered:
		return ReasonNotRegistered
	}

	switch {
	case backendErr.StatusCode == http.StatusTooManyRequests:
		return ReasonRateLimited
	case backendErr.StatusCode == http.StatusRequestTimeout || backendErr.StatusCode == http.StatusGatewayTimeout:
		return ReasonTimeout
	case backendErr.StatusCode >= 500:
		return ReasonUnavailable
	case backendErr.StatusCode >= 400:
		return ReasonRejected
	case backendErr.Code == CodeTransport:
		return ReasonUnavailable
	}
	return ReasonFailed
}
