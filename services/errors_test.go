package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDomainError(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeNotFound, "city not found", baseErr)

	assert.Equal(t, ErrorTypeNotFound, domainErr.Type)
	assert.Equal(t, "city not found", domainErr.Message)
	assert.Equal(t, baseErr, domainErr.Err)
	assert.NotNil(t, domainErr.Details)
}

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name: "error with wrapped error",
			err: &DomainError{
				Type:    ErrorTypeUnavailable,
				Message: "all model backends failed",
				Err:     errors.New("3 attempts"),
			},
			wantMsg: "unavailable: all model backends failed (3 attempts)",
		},
		{
			name: "error without wrapped error",
			err: &DomainError{
				Type:    ErrorTypeValidation,
				Message: "invalid input",
			},
			wantMsg: "validation: invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeInternal, "internal error", baseErr)

	assert.Equal(t, baseErr, errors.Unwrap(domainErr))
}

func TestDomainError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"same error type", NewDomainError(ErrorTypeUnavailable, "exhausted", nil), ErrBackendsExhausted, true},
		{"different error type", NewDomainError(ErrorTypeValidation, "validation", nil), ErrBackendsExhausted, false},
		{"not a domain error", NewDomainError(ErrorTypeNotFound, "not found", nil), errors.New("regular error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestDomainError_WithDetail(t *testing.T) {
	err := NewDomainError(ErrorTypeUnavailable, "exhausted", nil)

	err.WithDetail("attempts", 3).WithDetail("endpoint", "ai-assistant")

	assert.Equal(t, 3, err.Details["attempts"])
	assert.Equal(t, "ai-assistant", err.Details["endpoint"])
}

func TestTypeHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"not found", ErrCityNotFound, IsNotFoundError, true},
		{"wrapped validation", fmt.Errorf("wrapped: %w", ErrEmptyQuestion), IsValidationError, true},
		{"empty priority is validation", ErrEmptyPriority, IsValidationError, true},
		{"rate limit", ErrRateLimitExceeded, IsRateLimitError, true},
		{"internal", WrapInternal("boom", errors.New("x")), IsInternalError, true},
		{"unavailable", WrapUnavailable("exhausted", nil), IsUnavailableError, true},
		{"validation is not unavailable", ErrInvalidInput, IsUnavailableError, false},
		{"regular error", errors.New("regular"), IsNotFoundError, false},
		{"nil error", nil, IsInternalError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, ErrorTypeUnavailable, GetErrorType(fmt.Errorf("ctx: %w", ErrBackendsExhausted)))
	assert.Equal(t, ErrorType(""), GetErrorType(errors.New("plain")))
}

func TestGetErrorDetails(t *testing.T) {
	err := WrapUnavailable("exhausted", nil).WithDetail("attempts", []string{"a"})

	details := GetErrorDetails(fmt.Errorf("wrapped: %w", err))
	require.NotNil(t, details)
	assert.Equal(t, []string{"a"}, details["attempts"])

	assert.Nil(t, GetErrorDetails(errors.New("plain")))
}
