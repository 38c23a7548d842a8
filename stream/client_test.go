package stream

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/kbukum/invstream/errors"
	"github.com/kbukum/invstream/inventory"
	"github.com/kbukum/invstream/provider"
	"github.com/kbukum/invstream/resilience"
)

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing endpoint", Config{}},
		{"bad scheme", Config{Endpoint: "ws://inventory.test/stream"}},
		{"negative frame limit", Config{Endpoint: "http://inventory.test", MaxFrameBytes: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewClient(tt.cfg); !apperrors.IsCode(err, apperrors.ErrCodeInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
		})
	}
}

func TestClient_ExecuteDrains(t *testing.T) {
	srv, reqs, _ := sseServer(t, false,
		frame("1", "inventory", `{"productId":"P1","totalAvailable":1,"totalReserved":0,"lots":[]}`),
		frame("2", "heartbeat", ""))

	c := newTestClient(t, srv.URL)
	if c.Name() != "invstream" || !c.IsAvailable(context.Background()) {
		t.Fatalf("unexpected client %s", c.Name())
	}

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	var p provider.Stream[Subscription, inventory.Event] = c
	it, err := p.Execute(ctx, Subscription{Token: "tkn", LastEventID: "0"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	events, err := provider.Drain(ctx, it)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(events) != 2 || events[0].Kind() != inventory.KindSnapshot || events[1].Kind() != inventory.KindHeartbeat {
		t.Fatalf("unexpected events %v", events)
	}
	if got := (<-reqs).Header.Get("Last-Event-ID"); got != "0" {
		t.Errorf("Last-Event-ID = %q", got)
	}
}

func TestClient_SessionsAreIndependent(t *testing.T) {
	srv, _, gone := sseServer(t, true, frame("", "heartbeat", ""))
	c := newTestClient(t, srv.URL)

	a, err := c.Connect(context.Background(), "tkn-a")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer a.Close()
	b, err := c.Connect(context.Background(), "tkn-b")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer b.Close()

	next(t, a)
	next(t, b)
	if a.ID() == b.ID() {
		t.Fatal("sessions share an id")
	}

	_ = a.Close()
	waitFor(t, gone, "first session to disconnect")
	if b.State() != StateOpen {
		t.Fatalf("closing one session affected another: %s", b.State())
	}
	select {
	case <-gone:
		t.Fatal("second session disconnected")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestClient_BreakerFailsFast(t *testing.T) {
	var hits atomic.Int32
	srv := httptestServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	c, err := NewClient(Config{
		Endpoint: srv.URL,
		Breaker:  &resilience.BreakerConfig{MaxFailures: 2, OpenTimeout: time.Minute},
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = c.Close(context.Background()) })

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	connectErr := func() error {
		t.Helper()
		h, err := c.Connect(ctx, "tkn")
		if err != nil {
			t.Fatalf("Connect: %v", err)
		}
		defer h.Close()
		_, ok, err := h.Next(ctx)
		if ok || err == nil {
			t.Fatalf("expected a failed handshake, ok=%v err=%v", ok, err)
		}
		return err
	}

	for i := 0; i < 2; i++ {
		if err := connectErr(); !apperrors.IsCode(err, apperrors.ErrCodeExternalService) {
			t.Fatalf("attempt %d: expected external service error, got %v", i, err)
		}
	}
	if c.IsAvailable(ctx) {
		t.Fatal("client should be unavailable once the breaker opens")
	}
	if err := connectErr(); !apperrors.IsCode(err, apperrors.ErrCodeServiceUnavailable) {
		t.Fatalf("expected service unavailable, got %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("server hit %d times, want 2", got)
	}
}
