package errors

import "net/http"

// ErrorCode is the machine-readable kind of an AppError.
type ErrorCode string

// Availability. All retryable.
const (
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeConnectionFailed   ErrorCode = "CONNECTION_FAILED"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"
)

// Stream failures after or during the handshake.
const (
	// ErrCodeStreamInterrupted is an established stream that broke mid-read.
	ErrCodeStreamInterrupted ErrorCode = "STREAM_INTERRUPTED"
	// ErrCodeProtocolViolation is a peer that did not speak the expected wire protocol.
	ErrCodeProtocolViolation ErrorCode = "PROTOCOL_VIOLATION"
)

// Request errors.
const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"
)

// Internal and upstream failures.
const (
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

type codeInfo struct {
	status    int
	retryable bool
}

var codeTable = map[ErrorCode]codeInfo{
	ErrCodeServiceUnavailable: {http.StatusServiceUnavailable, true},
	ErrCodeConnectionFailed:   {http.StatusServiceUnavailable, true},
	ErrCodeTimeout:            {http.StatusGatewayTimeout, true},
	ErrCodeRateLimited:        {http.StatusTooManyRequests, true},
	ErrCodeStreamInterrupted:  {http.StatusBadGateway, true},
	ErrCodeProtocolViolation:  {http.StatusBadGateway, false},
	ErrCodeNotFound:           {http.StatusNotFound, false},
	ErrCodeInvalidInput:       {http.StatusBadRequest, false},
	ErrCodeMissingField:       {http.StatusBadRequest, false},
	ErrCodeUnauthorized:       {http.StatusUnauthorized, false},
	ErrCodeForbidden:          {http.StatusForbidden, false},
	ErrCodeInvalidToken:       {http.StatusUnauthorized, false},
	ErrCodeInternal:           {http.StatusInternalServerError, false},
	ErrCodeExternalService:    {http.StatusBadGateway, true},
}

// lookup falls back to a non-retryable 500 for unknown codes.
func lookup(c ErrorCode) codeInfo {
	if info, ok := codeTable[c]; ok {
		return info
	}
	return codeInfo{status: http.StatusInternalServerError}
}

// HTTPStatus is the status a server answers with for c.
func (c ErrorCode) HTTPStatus() int { return lookup(c).status }

// IsRetryableCode reports whether failures with code are worth retrying.
func IsRetryableCode(code ErrorCode) bool { return lookup(code).retryable }
