// Package errors provides standardized error handling for API routes and upstream calls.
package errors

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrCodeUpstreamMalformed   ErrorCode = "UPSTREAM_MALFORMED"
	ErrCodeUpstreamTimeout     ErrorCode = "UPSTREAM_TIMEOUT"
	ErrCodeUpstreamTooLarge    ErrorCode = "UPSTREAM_BODY_TOO_LARGE"

	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"

	ErrCodeAuthentication ErrorCode = "AUTHENTICATION_ERROR"
	ErrCodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	ErrCodeDuplicateUser  ErrorCode = "DUPLICATE_USER"
	ErrCodeSessionFailed  ErrorCode = "SESSION_STORE_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"

	ErrCodeSearchDisabled    ErrorCode = "SEARCH_DISABLED"
	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeIndexingFailed    ErrorCode = "INDEXING_FAILED"

	ErrCodeResourceNotFound ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// MetaHTTPStatus overrides the status derived from the code.
const MetaHTTPStatus = "httpStatus"

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata returns the error with an extra metadata entry.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 2. Error Constructors
// ==========================

// NewUpstreamUnavailableError reports a non-OK status from an upstream. status 0 means a transport failure.
func NewUpstreamUnavailableError(service string, status int, details string) *StandardError {
	msg := fmt.Sprintf("Error fetching %s", service)
	if status > 0 {
		msg = fmt.Sprintf("Failed to fetch %s: %d %s", service, status, http.StatusText(status))
	}
	e := newError(ErrCodeUpstreamUnavailable, msg, details, true)
	if status > 0 {
		e.WithMetadata(MetaHTTPStatus, status)
	}
	return e
}

// NewUpstreamMalformedError reports an upstream body that failed shape validation.
func NewUpstreamMalformedError(service, details string) *StandardError {
	return newError(ErrCodeUpstreamMalformed, "Unexpected API response format", fmt.Sprintf("%s: %s", service, details), false)
}

func NewUpstreamTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeUpstreamTimeout, fmt.Sprintf("Service '%s' timeout", service), err.Error(), true)
}

func NewUpstreamBodyTooLargeError(service string, limit int64) *StandardError {
	return newError(ErrCodeUpstreamTooLarge, "Upstream response too large",
		fmt.Sprintf("%s: body exceeds %d bytes", service, limit), false)
}

func NewValidationError(message, details string) *StandardError {
	return newError(ErrCodeValidationFailed, message, details, false)
}

func NewInvalidInputError(message string) *StandardError {
	return newError(ErrCodeInvalidInput, message, "", false)
}

func NewAuthenticationError(details string) *StandardError {
	return newError(ErrCodeAuthentication, "Authentication failed", details, false)
}

func NewUnauthorizedError() *StandardError {
	return newError(ErrCodeUnauthorized, "Unauthorized", "", false)
}

func NewDuplicateUserError(email string) *StandardError {
	return newError(ErrCodeDuplicateUser, "A user with this email already exists", fmt.Sprintf("email: %s", email), false)
}

func NewSessionStoreError(err error) *StandardError {
	return newError(ErrCodeSessionFailed, "Session store error", err.Error(), true)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert error", err.Error(), true)
}

func NewSearchDisabledError() *StandardError {
	return newError(ErrCodeSearchDisabled, "Organization search is not enabled", "", false)
}

func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Search query failed", fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

func NewIndexingFailedError(index string, err error) *StandardError {
	return newError(ErrCodeIndexingFailed, "Indexing failed", fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

func NewResourceNotFoundError(resource, details string) *StandardError {
	return newError(ErrCodeResourceNotFound, fmt.Sprintf("%s not found", resource), details, false)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Internal server error", err.Error(), false)
}

// ==========================
// 3. Utility Functions
// ==========================

var statusByCode = map[ErrorCode]int{
	ErrCodeUpstreamUnavailable:      http.StatusBadGateway,
	ErrCodeUpstreamMalformed:        http.StatusInternalServerError,
	ErrCodeUpstreamTimeout:          http.StatusGatewayTimeout,
	ErrCodeUpstreamTooLarge:         http.StatusBadGateway,
	ErrCodeValidationFailed:         http.StatusBadRequest,
	ErrCodeInvalidInput:             http.StatusBadRequest,
	ErrCodeAuthentication:           http.StatusUnauthorized,
	ErrCodeUnauthorized:             http.StatusUnauthorized,
	ErrCodeDuplicateUser:            http.StatusConflict,
	ErrCodeSessionFailed:            http.StatusServiceUnavailable,
	ErrCodeDatabaseConnectionFailed: http.StatusServiceUnavailable,
	ErrCodeQueryExecutionFailed:     http.StatusInternalServerError,
	ErrCodeDatabaseInsertFailed:     http.StatusInternalServerError,
	ErrCodeSearchDisabled:           http.StatusServiceUnavailable,
	ErrCodeSearchQueryFailed:        http.StatusBadGateway,
	ErrCodeIndexingFailed:           http.StatusBadGateway,
	ErrCodeResourceNotFound:         http.StatusNotFound,
	ErrCodeInternal:                 http.StatusInternalServerError,
}

// HTTPStatus returns the response status for an error, honoring a metadata override.
func HTTPStatus(e *StandardError) int {
	if e.Metadata != nil {
		if s, ok := e.Metadata[MetaHTTPStatus].(int); ok && s >= 400 && s <= 599 {
			return s
		}
	}
	if s, ok := statusByCode[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "UPSTREAM"):
		return "UPSTREAM"
	case strings.Contains(codeStr, "AUTH") || strings.Contains(codeStr, "SESSION") || code == ErrCodeDuplicateUser:
		return "AUTH"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY_EXECUTION"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
