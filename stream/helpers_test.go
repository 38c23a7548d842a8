package stream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/invstream/httpclient"
	"github.com/kbukum/invstream/inventory"
)

const waitTimeout = 2 * time.Second

func frame(id, eventType, data string) string {
	var b strings.Builder
	if id != "" {
		fmt.Fprintf(&b, "id: %s\n", id)
	}
	if eventType != "" {
		fmt.Fprintf(&b, "event: %s\n", eventType)
	}
	fmt.Fprintf(&b, "data: %s\n\n", data)
	return b.String()
}

// sseServer serves frames on every request. With hold set the response
// stays open until the client disconnects, which is reported on gone.
func sseServer(t *testing.T, hold bool, frames ...string) (srv *httptest.Server, reqs <-chan *http.Request, gone <-chan struct{}) {
	t.Helper()
	reqCh := make(chan *http.Request, 16)
	goneCh := make(chan struct{}, 16)
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqCh <- r.Clone(context.Background())
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		for _, f := range frames {
			_, _ = io.WriteString(w, f)
		}
		w.(http.Flusher).Flush()
		if hold {
			<-r.Context().Done()
			goneCh <- struct{}{}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, reqCh, goneCh
}

func statusServer(t *testing.T, status int, contentType string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, "nope")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func mustConnect(t *testing.T, endpoint, token string, opts ...Option) *Handle {
	t.Helper()
	h, err := Connect(context.Background(), endpoint, token, opts...)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h
}

// drain ranges over Events until the stream ends.
func drain(t *testing.T, h *Handle) ([]inventory.Event, error) {
	t.Helper()
	type result struct {
		events []inventory.Event
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		var r result
		for ev, err := range h.Events() {
			if err != nil {
				r.err = err
				continue
			}
			r.events = append(r.events, ev)
		}
		ch <- r
	}()
	select {
	case r := <-ch:
		return r.events, r.err
	case <-time.After(waitTimeout):
		t.Fatal("stream did not end")
		return nil, nil
	}
}

func next(t *testing.T, h *Handle) inventory.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	ev, ok, err := h.Next(ctx)
	if err != nil || !ok {
		t.Fatalf("Next: ok=%v err=%v", ok, err)
	}
	return ev
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for %s", what)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// failingBody returns err once its content is exhausted.
type failingBody struct {
	r      io.Reader
	err    error
	closed atomic.Bool
}

func (b *failingBody) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err == io.EOF {
		return n, b.err
	}
	return n, err
}

func (b *failingBody) Close() error {
	b.closed.Store(true)
	return nil
}

func fakeAdapter(t *testing.T, rt http.RoundTripper) *httpclient.Adapter {
	t.Helper()
	a, err := httpclient.New(httpclient.Config{Name: "fake", ConnectTimeout: time.Second}, httpclient.WithTransport(rt))
	if err != nil {
		t.Fatalf("httpclient.New: %v", err)
	}
	return a
}

func eventStream(req *http.Request, body io.ReadCloser) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": {"text/event-stream"}},
		Body:       body,
		Request:    req,
	}
}

func httptestServer(t *testing.T, fn http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(fn)
	t.Cleanup(srv.Close)
	return srv
}
