package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrorCode classifies HTTP client errors.
type ErrorCode int

const (
	ErrCodeTimeout ErrorCode = iota
	// ErrCodeConnection covers refused connections, DNS failures and broken reads.
	ErrCodeConnection
	// ErrCodeAuth is a 401 or 403 answer.
	ErrCodeAuth
	ErrCodeNotFound
	// ErrCodeRateLimit is a 429 answer.
	ErrCodeRateLimit
	// ErrCodeValidation is a request the client or server rejected as malformed.
	ErrCodeValidation
	// ErrCodeServer is a 5xx answer.
	ErrCodeServer
	ErrCodeCanceled
	// ErrCodeProtocol means the peer answered outside the expected protocol.
	ErrCodeProtocol
)

type codeInfo struct {
	name      string
	retryable bool
}

var codes = [...]codeInfo{
	ErrCodeTimeout:    {"timeout", true},
	ErrCodeConnection: {"connection", true},
	ErrCodeAuth:       {"auth", false},
	ErrCodeNotFound:   {"not_found", false},
	ErrCodeRateLimit:  {"rate_limit", true},
	ErrCodeValidation: {"validation", false},
	ErrCodeServer:     {"server", true},
	ErrCodeCanceled:   {"canceled", false},
	ErrCodeProtocol:   {"protocol", false},
}

func (c ErrorCode) String() string {
	if c < 0 || int(c) >= len(codes) {
		return "unknown"
	}
	return codes[c].name
}

// Error is a classified transport or status failure.
type Error struct {
	// StatusCode is zero for failures below HTTP.
	StatusCode int
	Code       ErrorCode
	Message    string
	Retryable  bool
	// RetryAfter is the server's Retry-After hint, zero when absent.
	RetryAfter time.Duration
	// Body holds the response body of status failures.
	Body []byte
	Err  error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code ErrorCode, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, Retryable: codes[code].retryable, Err: cause}
}

func statusError(code ErrorCode, status int, body []byte) *Error {
	e := newError(code, fmt.Sprintf("HTTP %d", status), nil)
	e.StatusCode, e.Body = status, body
	return e
}

func NewTimeoutError(err error) *Error    { return newError(ErrCodeTimeout, err.Error(), err) }
func NewConnectionError(err error) *Error { return newError(ErrCodeConnection, err.Error(), err) }
func NewCanceledError(err error) *Error   { return newError(ErrCodeCanceled, err.Error(), err) }
func NewProtocolError(msg string) *Error  { return newError(ErrCodeProtocol, msg, nil) }
func NewValidationError(msg string) *Error {
	return newError(ErrCodeValidation, msg, nil)
}

// NewAuthError reports a 401 or 403 answer.
func NewAuthError(statusCode int, body []byte) *Error {
	return statusError(ErrCodeAuth, statusCode, body)
}

func NewNotFoundError(body []byte) *Error {
	return statusError(ErrCodeNotFound, http.StatusNotFound, body)
}

func NewRateLimitError(body []byte) *Error {
	return statusError(ErrCodeRateLimit, http.StatusTooManyRequests, body)
}

func NewServerError(statusCode int, body []byte) *Error {
	return statusError(ErrCodeServer, statusCode, body)
}

// ClassifyStatusCode maps a non-2xx status to an *Error and returns nil for
// 2xx. Statuses outside 200-599 count as non-retryable server errors.
func ClassifyStatusCode(statusCode int, body []byte) *Error {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return NewAuthError(statusCode, body)
	case statusCode == http.StatusNotFound:
		return NewNotFoundError(body)
	case statusCode == http.StatusTooManyRequests:
		return NewRateLimitError(body)
	case statusCode >= 400 && statusCode < 500:
		return statusError(ErrCodeValidation, statusCode, body)
	case statusCode >= 500 && statusCode < 600:
		return NewServerError(statusCode, body)
	default:
		e := statusError(ErrCodeServer, statusCode, body)
		e.Retryable = false
		return e
	}
}

// classifyResponse is ClassifyStatusCode plus the Retry-After header.
func classifyResponse(resp *http.Response, body []byte, now time.Time) *Error {
	e := ClassifyStatusCode(resp.StatusCode, body)
	if e != nil {
		e.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"), now)
	}
	return e
}

// parseRetryAfter reads delay-seconds or an HTTP date. Invalid or past
// values yield zero.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}

// RetryAfter returns the Retry-After hint carried by err, if any.
func RetryAfter(err error) time.Duration {
	var e *Error
	if errors.As(err, &e) {
		return e.RetryAfter
	}
	return 0
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

func IsTimeout(err error) bool     { return hasCode(err, ErrCodeTimeout) }
func IsConnection(err error) bool  { return hasCode(err, ErrCodeConnection) }
func IsCanceled(err error) bool    { return hasCode(err, ErrCodeCanceled) }
func IsProtocol(err error) bool    { return hasCode(err, ErrCodeProtocol) }
func IsAuth(err error) bool        { return hasCode(err, ErrCodeAuth) }
func IsNotFound(err error) bool    { return hasCode(err, ErrCodeNotFound) }
func IsRateLimit(err error) bool   { return hasCode(err, ErrCodeRateLimit) }
func IsServerError(err error) bool { return hasCode(err, ErrCodeServer) }

// IsRetryable reports whether err is an *Error marked retryable.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}
