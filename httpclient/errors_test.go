package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestError_Format(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"status", NewNotFoundError(nil), "httpclient: not_found (HTTP 404): HTTP 404"},
		{"status 5xx", NewServerError(503, nil), "httpclient: server (HTTP 503): HTTP 503"},
		{"transport", NewConnectionError(cause), "httpclient: connection: dial tcp: connection refused"},
		{"protocol", NewProtocolError("bad content type"), "httpclient: protocol: bad content type"},
		{"unknown code", &Error{Code: ErrorCode(42), Message: "?"}, "httpclient: unknown: ?"},
		{"negative code", &Error{Code: ErrorCode(-1), Message: "?"}, "httpclient: unknown: ?"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("%s: Error() = %q, want %q", tt.name, got, tt.want)
		}
	}

	if !errors.Is(NewTimeoutError(cause), cause) {
		t.Error("cause not reachable through Unwrap")
	}
	wrapped := fmt.Errorf("open stream: %w", NewRateLimitError(nil))
	if !IsRateLimit(wrapped) || !IsRetryable(wrapped) {
		t.Error("classification lost through wrapping")
	}
}

func TestClassifyStatusCode(t *testing.T) {
	tests := []struct {
		status    int
		want      ErrorCode
		retryable bool
	}{
		{400, ErrCodeValidation, false},
		{401, ErrCodeAuth, false},
		{403, ErrCodeAuth, false},
		{404, ErrCodeNotFound, false},
		{409, ErrCodeValidation, false},
		{429, ErrCodeRateLimit, true},
		{500, ErrCodeServer, true},
		{502, ErrCodeServer, true},
		{503, ErrCodeServer, true},
		{302, ErrCodeServer, false},
		{600, ErrCodeServer, false},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			e := ClassifyStatusCode(tt.status, []byte("body"))
			if e == nil {
				t.Fatalf("ClassifyStatusCode(%d) = nil", tt.status)
			}
			if e.Code != tt.want || e.Retryable != tt.retryable || e.StatusCode != tt.status || string(e.Body) != "body" {
				t.Errorf("ClassifyStatusCode(%d) = %+v", tt.status, e)
			}
		})
	}
	for _, status := range []int{200, 201, 204} {
		if e := ClassifyStatusCode(status, nil); e != nil {
			t.Errorf("ClassifyStatusCode(%d) = %v, want nil", status, e)
		}
	}
}

func TestPredicates(t *testing.T) {
	cause := errors.New("boom")
	predicates := map[string]func(error) bool{
		"timeout":    IsTimeout,
		"connection": IsConnection,
		"canceled":   IsCanceled,
		"protocol":   IsProtocol,
		"auth":       IsAuth,
		"not_found":  IsNotFound,
		"rate_limit": IsRateLimit,
		"server":     IsServerError,
	}
	tests := []struct {
		err       error
		match     string
		retryable bool
		breaker   bool
	}{
		{NewTimeoutError(cause), "timeout", true, true},
		{NewConnectionError(cause), "connection", true, true},
		{NewCanceledError(cause), "canceled", false, false},
		{NewProtocolError("text/html"), "protocol", false, false},
		{NewAuthError(401, nil), "auth", false, false},
		{NewNotFoundError(nil), "not_found", false, false},
		{NewRateLimitError(nil), "rate_limit", true, false},
		{NewServerError(502, nil), "server", true, true},
		{NewValidationError("bad"), "", false, false},
		{cause, "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("open stream: %w", tt.err)
			for name, is := range predicates {
				if got := is(wrapped); got != (name == tt.match) {
					t.Errorf("Is %s = %v", name, got)
				}
			}
			if IsRetryable(wrapped) != tt.retryable {
				t.Errorf("IsRetryable = %v", !tt.retryable)
			}
			if IsBreakerFailure(wrapped) != tt.breaker {
				t.Errorf("IsBreakerFailure = %v", !tt.breaker)
			}
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 0},
		{"5", 5 * time.Second},
		{" 120 ", 2 * time.Minute},
		{"0", 0},
		{"-3", 0},
		{"soon", 0},
		{now.Add(90 * time.Second).Format(http.TimeFormat), 90 * time.Second},
		{now.Add(-time.Minute).Format(http.TimeFormat), 0},
	}
	for _, tt := range tests {
		if got := parseRetryAfter(tt.value, now); got != tt.want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestClassifyResponse_RetryAfter(t *testing.T) {
	resp := &http.Response{StatusCode: http.StatusServiceUnavailable, Header: http.Header{"Retry-After": {"3"}}}
	e := classifyResponse(resp, nil, time.Now())
	if e == nil || e.RetryAfter != 3*time.Second {
		t.Fatalf("classifyResponse = %+v", e)
	}
	if got := RetryAfter(fmt.Errorf("open: %w", e)); got != 3*time.Second {
		t.Errorf("RetryAfter through wrapping = %v", got)
	}
	if RetryAfter(fmt.Errorf("plain")) != 0 {
		t.Error("RetryAfter on a foreign error should be zero")
	}

	ok := &http.Response{StatusCode: http.StatusOK, Header: http.Header{"Retry-After": {"3"}}}
	if e := classifyResponse(ok, nil, time.Now()); e != nil {
		t.Errorf("2xx classified as %v", e)
	}
}
