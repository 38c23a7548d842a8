package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/invstream/auth"
	"github.com/kbukum/invstream/inventory"
	"github.com/kbukum/invstream/logger"
	"github.com/kbukum/invstream/sse"
)

const waitTimeout = 2 * time.Second

type backend struct {
	api   *API
	hub   *sse.Hub
	store *Store
	auth  *auth.Service
	srv   *httptest.Server
}

func newBackend(t *testing.T, cfg Config, seed ...inventory.State) *backend {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg.ApplyDefaults()
	tokens, err := auth.NewService(auth.Config{Secret: "0123456789abcdef0123456789abcdef"})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	hub := sse.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	store := NewStore(seed...)
	api := NewAPI(cfg, store, hub, tokens, logger.NewNop())
	engine := gin.New()
	api.Register(engine)

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return &backend{api: api, hub: hub, store: store, auth: tokens, srv: srv}
}

func (b *backend) token(t *testing.T, subject string, scopes ...string) string {
	t.Helper()
	tok, _, err := b.auth.Mint(subject, time.Minute, scopes...)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	return tok
}

func (b *backend) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, b.srv.URL+path, r)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

// waitClients blocks until the hub has n registered clients.
func waitClients(t *testing.T, hub *sse.Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want %d", hub.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func product(id string, available int64) inventory.State {
	return inventory.State{
		ProductID:      id,
		TotalAvailable: available,
		Lots:           []inventory.LotInfo{{LotID: id + "-lot-1", Quantity: available}},
	}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	t.Cleanup(cancel)
	return ctx
}
