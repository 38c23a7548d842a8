// Package errors defines AppError, the error type shared by the stream
// client, the simulator's HTTP API and the command-line tools. Every
// AppError carries a code, and the code fixes its HTTP status and whether
// a retry can help.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// AppError is a classified failure. Build one with New or a constructor
// below; HTTPStatus and Retryable then follow from Code.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	Details    map[string]any `json:"details,omitempty"`
	HTTPStatus int            `json:"-"`
	Cause      error          `json:"-"`
}

// Error renders "CODE: message", followed by the cause when there is one.
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, " (cause: %v)", e.Cause)
	}
	return b.String()
}

func (e *AppError) Unwrap() error { return e.Cause }

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

func New(code ErrorCode, message string) *AppError {
	info := lookup(code)
	return &AppError{Code: code, Message: message, HTTPStatus: info.status, Retryable: info.retryable}
}

func newf(code ErrorCode, format string, args ...any) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// AsAppError returns the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := stderrors.As(err, &appErr)
	return appErr, ok
}

func IsCode(err error, code ErrorCode) bool {
	e, ok := AsAppError(err)
	return ok && e.Code == code
}

func IsRetryable(err error) bool {
	e, ok := AsAppError(err)
	return ok && e.Retryable
}

// Upstream availability.

func ServiceUnavailable(service string) *AppError {
	return newf(ErrCodeServiceUnavailable, "The %s is temporarily unavailable. Please try again.", service).
		WithDetail("service", service)
}

func ConnectionFailed(service string) *AppError {
	return newf(ErrCodeConnectionFailed, "Unable to connect to %s.", service).WithDetail("service", service)
}

func Timeout(operation string) *AppError {
	return newf(ErrCodeTimeout, "The %s took too long.", operation).WithDetail("operation", operation)
}

func RateLimited() *AppError {
	return New(ErrCodeRateLimited, "Too many requests. Please wait a moment and try again.")
}

func ExternalServiceError(service string, cause error) *AppError {
	return newf(ErrCodeExternalService, "The %s service encountered an error.", service).
		WithDetail("service", service).
		WithCause(cause)
}

// Stream failures.

// StreamInterrupted wraps a read failure on an established stream.
func StreamInterrupted(cause error) *AppError {
	return New(ErrCodeStreamInterrupted, "The event stream was interrupted.").WithCause(cause)
}

// ProtocolViolation reports a peer that broke the wire protocol.
func ProtocolViolation(reason string) *AppError {
	return New(ErrCodeProtocolViolation, reason)
}

// Request errors.

// NotFound names the missing resource; id is optional.
func NotFound(resource, id string) *AppError {
	e := newf(ErrCodeNotFound, "The requested %s was not found.", resource).WithDetail("resource", resource)
	if id != "" {
		e.WithDetail("id", id)
	}
	return e
}

// InvalidInput rejects one field; field may be empty.
func InvalidInput(field, reason string) *AppError {
	e := New(ErrCodeInvalidInput, "Invalid input: "+reason)
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

// Validation is an INVALID_INPUT error carrying message as is.
func Validation(message string) *AppError { return New(ErrCodeInvalidInput, message) }

func MissingField(field string) *AppError {
	return New(ErrCodeMissingField, "Missing required field: "+field).WithDetail("field", field)
}

func Unauthorized(reason string) *AppError {
	return New(ErrCodeUnauthorized, orDefault(reason, "Authentication required."))
}

func Forbidden(reason string) *AppError {
	return New(ErrCodeForbidden, orDefault(reason, "You don't have permission to perform this action."))
}

func InvalidToken() *AppError { return New(ErrCodeInvalidToken, "Invalid authentication token.") }

func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "An unexpected error occurred.").WithCause(cause)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
