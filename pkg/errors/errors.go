package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a request that carries no usable input
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeUpstreamQuery indicates the store data service RPC failed
	ErrorTypeUpstreamQuery ErrorType = "UPSTREAM_QUERY"

	// ErrorTypeEnrichmentUpstream indicates the metered places API failed
	// and no cached value existed to fall back to
	ErrorTypeEnrichmentUpstream ErrorType = "ENRICHMENT_UPSTREAM"

	// ErrorTypeBudgetExceeded indicates the monthly spend ceiling blocked a
	// billable call and no cached value existed to fall back to
	ErrorTypeBudgetExceeded ErrorType = "BUDGET_EXCEEDED"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// IsType reports whether err is an AppError of the given type
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewUpstreamQueryError creates an error for a failed data service RPC
func NewUpstreamQueryError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeUpstreamQuery,
		Message: message,
		Err:     err,
	}
}

// NewEnrichmentUpstreamError creates an error for a failed places API call
func NewEnrichmentUpstreamError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeEnrichmentUpstream,
		Message: message,
		Err:     err,
	}
}

// NewBudgetExceededError creates an error for a refused billable call
func NewBudgetExceededError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeBudgetExceeded,
		Message: message,
	}
}
