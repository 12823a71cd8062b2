package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Error codes
const (
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeUpstream            = "UPSTREAM_ERROR"
	ErrCodeDatabaseUnavailable = "DATABASE_UNAVAILABLE"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// Error constructors

// NewNotFoundError creates a new not found error. Ownership mismatches are
// reported with the same code so callers cannot probe for records that exist
// but belong to someone else.
func NewNotFoundError(resource string) error {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewValidationError creates a new validation error
func NewValidationError(msg string) error {
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: msg,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(msg string) error {
	if msg == "" {
		msg = "Authentication required"
	}
	return &DomainError{
		Code:    ErrCodeUnauthorized,
		Message: msg,
	}
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(msg string) error {
	return &DomainError{
		Code:    ErrCodeForbidden,
		Message: msg,
	}
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(msg string) error {
	return &DomainError{
		Code:    ErrCodeBadRequest,
		Message: msg,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(msg string) error {
	return &DomainError{
		Code:    ErrCodeConflict,
		Message: msg,
	}
}

// NewUpstreamError wraps a failure from an external provider
func NewUpstreamError(provider string, err error) error {
	return &DomainError{
		Code:    ErrCodeUpstream,
		Message: fmt.Sprintf("%s request failed", provider),
		Err:     err,
	}
}

// NewDatabaseUnavailableError reports an unreachable persistence layer,
// distinct from a missing record.
func NewDatabaseUnavailableError(err error) error {
	return &DomainError{
		Code:    ErrCodeDatabaseUnavailable,
		Message: "Database unavailable",
		Err:     err,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(err error) error {
	return &DomainError{
		Code:    ErrCodeInternal,
		Message: "An internal error occurred",
		Err:     err,
	}
}

// Helper functions to check error types

func asDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	de, ok := asDomainError(err)
	return ok && de.Code == ErrCodeNotFound
}

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool {
	de, ok := asDomainError(err)
	return ok && de.Code == ErrCodeValidation
}

// IsUnauthorized checks if the error is an unauthorized error
func IsUnauthorized(err error) bool {
	de, ok := asDomainError(err)
	return ok && de.Code == ErrCodeUnauthorized
}

// IsForbidden checks if the error is a forbidden error
func IsForbidden(err error) bool {
	de, ok := asDomainError(err)
	return ok && de.Code == ErrCodeForbidden
}

// IsUpstream checks if the error is an upstream provider error
func IsUpstream(err error) bool {
	de, ok := asDomainError(err)
	return ok && de.Code == ErrCodeUpstream
}

// IsDatabaseUnavailable checks if the error reports an unreachable store
func IsDatabaseUnavailable(err error) bool {
	de, ok := asDomainError(err)
	return ok && de.Code == ErrCodeDatabaseUnavailable
}

// GetErrorCode extracts the error code from a domain error
func GetErrorCode(err error) string {
	if de, ok := asDomainError(err); ok {
		return de.Code
	}
	return ErrCodeInternal
}

// HTTPStatus maps a domain error to the HTTP status handlers should return.
func HTTPStatus(err error) int {
	switch GetErrorCode(err) {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeValidation, ErrCodeBadRequest:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeUpstream:
		return http.StatusBadGateway
	case ErrCodeDatabaseUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to surface to API callers. Internal
// and database failures are reported generically, without the wrapped detail.
func PublicMessage(err error) string {
	de, ok := asDomainError(err)
	if !ok {
		return "An internal error occurred"
	}
	switch de.Code {
	case ErrCodeInternal:
		return "An internal error occurred"
	case ErrCodeDatabaseUnavailable:
		return "Service temporarily unavailable"
	default:
		return de.Message
	}
}
