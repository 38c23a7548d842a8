package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeTimeout, "timed out")
	if !err.Retryable {
		t.Error("TIMEOUT should be retryable")
	}
	if err.HTTPStatus != http.StatusGatewayTimeout {
		t.Errorf("expected 504, got %d", err.HTTPStatus)
	}

	err = New(ErrCodeNotFound, "missing")
	if err.Retryable {
		t.Error("NOT_FOUND should not be retryable")
	}
}

func TestAppError_Error_Format(t *testing.T) {
	err := Unauthorized("bad token")
	if err.Error() != "UNAUTHORIZED: bad token" {
		t.Errorf("unexpected format: %q", err.Error())
	}

	wrapped := StreamInterrupted(fmt.Errorf("connection reset"))
	if !strings.Contains(wrapped.Error(), "(cause: connection reset)") {
		t.Errorf("expected cause in message, got %q", wrapped.Error())
	}
}

func TestAppError_Unwrap_Chain(t *testing.T) {
	root := stderrors.New("read tcp: reset")
	err := StreamInterrupted(root)
	if !stderrors.Is(err, root) {
		t.Error("expected errors.Is to reach root cause")
	}

	outer := fmt.Errorf("session: %w", err)
	appErr, ok := AsAppError(outer)
	if !ok {
		t.Fatal("expected AsAppError to find wrapped AppError")
	}
	if appErr.Code != ErrCodeStreamInterrupted {
		t.Errorf("unexpected code %s", appErr.Code)
	}
}

func TestAppError_WithDetail(t *testing.T) {
	err := ProtocolViolation("unexpected content type").WithDetail("content_type", "text/html")
	if err.Details["content_type"] != "text/html" {
		t.Errorf("detail not set: %v", err.Details)
	}
}

func TestAppError_Constructors_Table(t *testing.T) {
	tests := []struct {
		name      string
		err       *AppError
		code      ErrorCode
		status    int
		retryable bool
	}{
		{"ServiceUnavailable", ServiceUnavailable("inventory"), ErrCodeServiceUnavailable, http.StatusServiceUnavailable, true},
		{"ConnectionFailed", ConnectionFailed("inventory"), ErrCodeConnectionFailed, http.StatusServiceUnavailable, true},
		{"Timeout", Timeout("connect"), ErrCodeTimeout, http.StatusGatewayTimeout, true},
		{"RateLimited", RateLimited(), ErrCodeRateLimited, http.StatusTooManyRequests, true},
		{"NotFound", NotFound("stream", ""), ErrCodeNotFound, http.StatusNotFound, false},
		{"InvalidInput", InvalidInput("endpoint", "bad url"), ErrCodeInvalidInput, http.StatusBadRequest, false},
		{"Validation", Validation("bad"), ErrCodeInvalidInput, http.StatusBadRequest, false},
		{"MissingField", MissingField("productId"), ErrCodeMissingField, http.StatusBadRequest, false},
		{"Unauthorized", Unauthorized(""), ErrCodeUnauthorized, http.StatusUnauthorized, false},
		{"Forbidden", Forbidden(""), ErrCodeForbidden, http.StatusForbidden, false},
		{"InvalidToken", InvalidToken(), ErrCodeInvalidToken, http.StatusUnauthorized, false},
		{"StreamInterrupted", StreamInterrupted(nil), ErrCodeStreamInterrupted, http.StatusBadGateway, true},
		{"ProtocolViolation", ProtocolViolation("x"), ErrCodeProtocolViolation, http.StatusBadGateway, false},
		{"Internal", Internal(nil), ErrCodeInternal, http.StatusInternalServerError, false},
		{"ExternalServiceError", ExternalServiceError("inventory", nil), ErrCodeExternalService, http.StatusBadGateway, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.HTTPStatus != tt.status {
				t.Errorf("status = %d, want %d", tt.err.HTTPStatus, tt.status)
			}
			if tt.err.Retryable != tt.retryable {
				t.Errorf("retryable = %v, want %v", tt.err.Retryable, tt.retryable)
			}
		})
	}
}

func TestIsCodeAndIsRetryable(t *testing.T) {
	err := fmt.Errorf("wrap: %w", Timeout("connect"))
	if !IsCode(err, ErrCodeTimeout) {
		t.Error("expected IsCode to match TIMEOUT")
	}
	if IsCode(err, ErrCodeUnauthorized) {
		t.Error("IsCode matched wrong code")
	}
	if !IsRetryable(err) {
		t.Error("expected timeout to be retryable")
	}
	if IsRetryable(Unauthorized("")) {
		t.Error("unauthorized must not be retryable")
	}
	if IsRetryable(stderrors.New("plain")) {
		t.Error("plain errors are not retryable")
	}
}

func TestAppError_ToResponse(t *testing.T) {
	err := InvalidInput("productId", "is required")
	resp := err.ToResponse()
	if resp.Error.Code != ErrCodeInvalidInput {
		t.Errorf("unexpected code %s", resp.Error.Code)
	}
	if resp.Error.Details["field"] != "productId" {
		t.Errorf("unexpected details %v", resp.Error.Details)
	}
	if _, ok := AsAppError(err); !ok {
		t.Error("expected AsAppError to match")
	}
	if _, ok := AsAppError(stderrors.New("plain")); ok {
		t.Error("AsAppError matched a plain error")
	}
}

func TestErrorCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeInvalidToken, http.StatusUnauthorized},
		{ErrCodeProtocolViolation, http.StatusBadGateway},
		{ErrorCode("SOMETHING_ELSE"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.code.HTTPStatus(); got != tt.want {
			t.Errorf("%s.HTTPStatus() = %d, want %d", tt.code, got, tt.want)
		}
	}
	if IsRetryableCode(ErrorCode("SOMETHING_ELSE")) {
		t.Error("unknown codes must not be retryable")
	}
}
