package stream

import (
	stderrors "errors"
	"fmt"

	apperrors "github.com/kbukum/invstream/errors"
	"github.com/kbukum/invstream/httpclient"
	"github.com/kbukum/invstream/httpclient/sse"
	"github.com/kbukum/invstream/resilience"
)

const serviceName = "inventory stream"

// connectError maps a failed handshake to a terminal AppError. The
// transport error stays in the cause chain.
func connectError(err error) *apperrors.AppError {
	if stderrors.Is(err, resilience.ErrCircuitOpen) {
		return apperrors.ServiceUnavailable(serviceName).WithCause(err)
	}

	var he *httpclient.Error
	if !stderrors.As(err, &he) {
		return apperrors.ConnectionFailed(serviceName).WithCause(err)
	}

	var appErr *apperrors.AppError
	switch he.Code {
	case httpclient.ErrCodeTimeout:
		appErr = apperrors.Timeout("stream connect")
	case httpclient.ErrCodeAuth:
		if he.StatusCode == 403 {
			appErr = apperrors.Forbidden("stream access denied")
		} else {
			appErr = apperrors.Unauthorized("stream rejected the bearer token")
		}
	case httpclient.ErrCodeNotFound:
		appErr = apperrors.NotFound("stream endpoint", "")
	case httpclient.ErrCodeRateLimit:
		appErr = apperrors.RateLimited()
	case httpclient.ErrCodeServer:
		appErr = apperrors.ExternalServiceError(serviceName, nil)
	case httpclient.ErrCodeProtocol:
		appErr = apperrors.ProtocolViolation(he.Message)
	case httpclient.ErrCodeValidation:
		appErr = apperrors.InvalidInput("", he.Message)
	default:
		appErr = apperrors.ConnectionFailed(serviceName)
	}
	if he.StatusCode != 0 {
		appErr = appErr.WithDetail("status", he.StatusCode)
	}
	return appErr.WithCause(he)
}

// readError maps a failed read on an open stream.
func readError(err error) *apperrors.AppError {
	if stderrors.Is(err, sse.ErrEventTooLarge) {
		return apperrors.ProtocolViolation("frame exceeds maximum size").WithCause(err)
	}
	return apperrors.StreamInterrupted(err)
}

// contentTypeError is the failure for a 2xx response that is not an event stream.
func contentTypeError(contentType string) *apperrors.AppError {
	if contentType == "" {
		contentType = "none"
	}
	return apperrors.ProtocolViolation(fmt.Sprintf("unexpected content type %q", contentType)).
		WithDetail("content_type", contentType)
}

// errorCode returns the AppError code of err, or "unknown".
func errorCode(err error) string {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return string(appErr.Code)
	}
	return "unknown"
}
