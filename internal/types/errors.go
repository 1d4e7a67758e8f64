package types

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Error code constants. Handlers and components use these constants instead
// of hardcoded strings so that HTTP mapping and log filtering stay uniform.
const (
	// Validation (400)
	ErrCodeValidationMissingField ErrorCode = "validation_missing_required_field"
	ErrCodeValidationBadEvent     ErrorCode = "validation_unknown_event"
	ErrCodeValidationBadPayload   ErrorCode = "validation_malformed_payload"

	// Auth (401)
	ErrCodeAuthTokenMissing ErrorCode = "auth_token_missing"
	ErrCodeAuthTokenInvalid ErrorCode = "auth_token_invalid"

	// Not Found (404)
	ErrCodeNotFoundCase     ErrorCode = "not_found_case"
	ErrCodeNotFoundDocument ErrorCode = "not_found_document"
	ErrCodeNotFoundTemplate ErrorCode = "not_found_template"

	// Internal/Upstream (500/502)
	ErrCodeInternalDB          ErrorCode = "internal_database_error"
	ErrCodeInternalConfig      ErrorCode = "internal_config_error"
	ErrCodeInternalUnexpected  ErrorCode = "internal_unexpected_error"
	ErrCodeUpstreamScheduler   ErrorCode = "upstream_scheduler_unavailable"
	ErrCodeUpstreamDocuments   ErrorCode = "upstream_document_store_unavailable"
	ErrCodeUpstreamPDF         ErrorCode = "upstream_pdf_service_unavailable"
	ErrCodeUpstreamUnavailable ErrorCode = "upstream_unavailable"
	ErrCodeUpstreamRateLimited ErrorCode = "upstream_rate_limited"

	// Dispatch engine
	ErrCodeNotifyOutage   ErrorCode = "notify_provider_unreachable"
	ErrCodeNotifyRejected ErrorCode = "notify_provider_rejected"
	ErrCodeBundleEmpty    ErrorCode = "letter_bundle_empty_document"
)

// HTTPStatus maps an ErrorCode to its corresponding HTTP status code.
// Returns 500 for unrecognized codes as a safe default.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest
	case strings.HasPrefix(s, "auth_"):
		return http.StatusUnauthorized
	case strings.HasPrefix(s, "not_found_"):
		return http.StatusNotFound
	case strings.HasPrefix(s, "upstream_"), s == string(ErrCodeNotifyOutage):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the standard application error type. All domain errors are
// expressed as AppError to enable consistent formatting, HTTP status mapping,
// and error chain support.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code corresponding to this error's code.
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetail attaches a key/value pair to the error's details map and returns
// the error for chaining.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// NewAppError creates a new AppError with the given code, message, and
// optional underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ProviderError is a rejection from the outbound notification provider,
// carrying the HTTP-like status code the provider returned. The retry policy
// classifies failures by this status: 4xx-class rejections are never retried,
// 5xx-class and unclassified failures are rescheduled up to a ceiling.
type ProviderError struct {
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider rejected send (status %d): %s", e.StatusCode, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a ProviderError for the given status code.
func NewProviderError(status int, message string, err error) *ProviderError {
	return &ProviderError{StatusCode: status, Message: message, Err: err}
}

// IsOutage reports whether the error chain indicates a connectivity failure
// to the provider (DNS resolution, refused or dropped connections). Outages
// are hard runtime faults: they surface immediately and are never handed to
// the retry policy, since they indicate the provider is unreachable rather
// than the content being rejected.
func IsOutage(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// ErrArtifactNotReady is returned by the correspondence store when the sent
// artifact has not yet materialized in the case record. This is an expected
// transient condition; the saver retries on its own schedule.
var ErrArtifactNotReady = errors.New("correspondence artifact not ready")
