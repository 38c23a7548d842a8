package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/kbukum/invstream/errors"
	"github.com/kbukum/invstream/inventory"
	"github.com/kbukum/invstream/resilience"
)

var errStop = errors.New("stop")

func fastFollow(maxAttempts int) FollowConfig {
	return FollowConfig{Retry: resilience.RetryConfig{
		MaxAttempts:    maxAttempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}}
}

func newTestClient(t *testing.T, endpoint string) *Client {
	t.Helper()
	c, err := NewClient(Config{Endpoint: endpoint})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

func followCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestFollow_ResumesAfterServerClose(t *testing.T) {
	var calls atomic.Int32
	resumeFrom := make(chan string, 4)
	auth := make(chan string, 4)
	srv := httptestServer(t, func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		resumeFrom <- r.Header.Get("Last-Event-ID")
		auth <- r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if n == 1 {
			_, _ = io.WriteString(w, frame("1", "inventory", `{"productId":"P1","totalAvailable":4,"totalReserved":0,"lots":[]}`))
			return
		}
		_, _ = io.WriteString(w, frame("2", "update", `{"productId":"P1","totalAvailable":3,"totalReserved":1,"lots":[]}`))
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	})

	var tokens atomic.Int32
	source := TokenFunc(func(context.Context) (string, error) {
		return fmt.Sprintf("tkn-%d", tokens.Add(1)), nil
	})

	var got []inventory.Event
	err := newTestClient(t, srv.URL).Follow(followCtx(t), source, fastFollow(0), func(_ context.Context, ev inventory.Event) error {
		got = append(got, ev)
		if ev.Kind() == inventory.KindUpdate {
			return errStop
		}
		return nil
	})
	if !errors.Is(err, errStop) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if len(got) != 2 || got[0].FrameID() != "1" || got[1].FrameID() != "2" {
		t.Fatalf("unexpected events %v", got)
	}
	if first, second := <-resumeFrom, <-resumeFrom; first != "" || second != "1" {
		t.Errorf("Last-Event-ID sequence %q, %q", first, second)
	}
	if first, second := <-auth, <-auth; first != "Bearer tkn-1" || second != "Bearer tkn-2" {
		t.Errorf("expected a fresh token per session, got %q, %q", first, second)
	}
}

func TestFollow_StopsOnAuthFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	err := newTestClient(t, srv.URL).Follow(followCtx(t), StaticToken("expired"), fastFollow(0),
		func(context.Context, inventory.Event) error { return nil })
	if !apperrors.IsCode(err, apperrors.ErrCodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single attempt, got %d", calls.Load())
	}
}

func TestFollow_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	cfg := fastFollow(3)
	var retries []int
	cfg.Retry.OnRetry = func(attempt int, err error, _ time.Duration) {
		retries = append(retries, attempt)
	}

	err := newTestClient(t, srv.URL).Follow(followCtx(t), StaticToken("tkn"), cfg,
		func(context.Context, inventory.Event) error { return nil })
	if !errors.Is(err, ErrReconnectsExhausted) {
		t.Fatalf("expected exhausted, got %v", err)
	}
	if !apperrors.IsCode(err, apperrors.ErrCodeExternalService) {
		t.Errorf("last session error missing from %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
	if len(retries) != 2 || retries[0] != 1 || retries[1] != 2 {
		t.Errorf("unexpected retry attempts %v", retries)
	}
}

func TestFollow_EmptySessionsCountAsFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
	})

	err := newTestClient(t, srv.URL).Follow(followCtx(t), StaticToken("tkn"), fastFollow(2),
		func(context.Context, inventory.Event) error { return nil })
	if !errors.Is(err, ErrReconnectsExhausted) {
		t.Fatalf("expected exhausted, got %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestFollow_ContextEndsBackoff(t *testing.T) {
	srv := httptestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	cfg := FollowConfig{Retry: resilience.RetryConfig{InitialBackoff: time.Hour, MaxBackoff: time.Hour}}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := newTestClient(t, srv.URL).Follow(ctx, StaticToken("tkn"), cfg,
		func(context.Context, inventory.Event) error { return nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestFollow_HonorsRetryAfter(t *testing.T) {
	srv := httptestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	ctx, cancel := context.WithCancel(followCtx(t))
	cfg := fastFollow(0)
	var delay time.Duration
	cfg.Retry.OnRetry = func(_ int, _ error, d time.Duration) {
		delay = d
		cancel()
	}

	err := newTestClient(t, srv.URL).Follow(ctx, StaticToken("tkn"), cfg,
		func(context.Context, inventory.Event) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	if delay != 7*time.Second {
		t.Fatalf("delay = %v, want the 7s Retry-After", delay)
	}
}

func TestFollow_TokenError(t *testing.T) {
	srv := httptestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without a token")
	})
	boom := errors.New("token store offline")

	err := newTestClient(t, srv.URL).Follow(followCtx(t),
		TokenFunc(func(context.Context) (string, error) { return "", boom }),
		fastFollow(0),
		func(context.Context, inventory.Event) error { return nil })
	if !errors.Is(err, boom) {
		t.Fatalf("expected token error, got %v", err)
	}
}

func TestDefaultFollowConfig(t *testing.T) {
	cfg := DefaultFollowConfig()
	if cfg.Retry.MaxAttempts != 0 || cfg.Retry.InitialBackoff != 500*time.Millisecond || cfg.Retry.MaxBackoff != 30*time.Second {
		t.Errorf("unexpected defaults %+v", cfg.Retry)
	}
	if cfg.Retry.RetryIf(apperrors.Unauthorized("x")) {
		t.Error("auth failures must not be retried")
	}
	if !cfg.Retry.RetryIf(apperrors.StreamInterrupted(io.ErrUnexpectedEOF)) {
		t.Error("interrupted streams must be retried")
	}
}
