package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"time"

	"github.com/kbukum/invstream/httpclient/sse"
	"github.com/kbukum/invstream/resilience"
)

const ContentTypeEventStream = "text/event-stream"

// maxErrorBody caps the body kept on a failed stream handshake.
const maxErrorBody = 4 << 10

var errHandshakeTimeout = errors.New("stream handshake timed out")

// Adapter sends requests with the configured auth, TLS, retry and breaker.
// Do is bounded by Config.Timeout. DoStream bounds only the handshake, by
// Config.ConnectTimeout, and never the body.
type Adapter struct {
	cfg     Config
	calls   *http.Client
	streams *http.Client
	breaker *resilience.Breaker
}

type Option func(*Adapter)

// WithTransport replaces the round tripper of both clients.
func WithTransport(rt http.RoundTripper) Option {
	return func(a *Adapter) {
		a.calls.Transport = rt
		a.streams.Transport = rt
	}
}

// WithBreaker shares b instead of building a breaker from Config.Breaker.
func WithBreaker(b *resilience.Breaker) Option {
	return func(a *Adapter) { a.breaker = b }
}

func New(cfg Config, opts ...Option) (*Adapter, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	transport, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}

	a := &Adapter{
		cfg:   cfg,
		calls: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		// a client timeout would also cut off the stream body
		streams: &http.Client{Transport: transport},
	}
	if cfg.Breaker != nil {
		a.breaker = resilience.NewBreaker(*cfg.Breaker)
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func newTransport(cfg Config) (*http.Transport, error) {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DialContext = (&net.Dialer{Timeout: cfg.ConnectTimeout, KeepAlive: 30 * time.Second}).DialContext
	t.TLSHandshakeTimeout = cfg.ConnectTimeout
	t.ResponseHeaderTimeout = cfg.ConnectTimeout
	if cfg.TLS == nil {
		return t, nil
	}
	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return nil, err
	}
	if tlsCfg != nil {
		t.TLSClientConfig = tlsCfg
	}
	return t, nil
}

// Do sends req and reads the whole response, retrying per Config.Retry.
// Non-2xx answers return the response together with an *Error.
func (a *Adapter) Do(ctx context.Context, req Request) (*Response, error) {
	if a.cfg.Retry == nil {
		return a.guarded(ctx, req)
	}
	return resilience.Retry(ctx, *a.cfg.Retry, func() (*Response, error) {
		return a.guarded(ctx, req)
	})
}

func (a *Adapter) guarded(ctx context.Context, req Request) (*Response, error) {
	if a.breaker == nil {
		return a.roundTrip(ctx, req)
	}
	var resp *Response
	err := a.breaker.Execute(func() error {
		var err error
		resp, err = a.roundTrip(ctx, req)
		return err
	})
	return resp, err
}

func (a *Adapter) roundTrip(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := a.cfg.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	raw, err := a.calls.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer raw.Body.Close()

	body, err := io.ReadAll(raw.Body)
	if err != nil {
		return nil, NewConnectionError(fmt.Errorf("read response body: %w", err))
	}
	resp := &Response{StatusCode: raw.StatusCode, Header: raw.Header, Body: body}
	if e := classifyResponse(raw, body, time.Now()); e != nil {
		return resp, e
	}
	return resp, nil
}

// DoStream opens a long-lived response and returns once headers arrive.
// 2xx answers become a StreamResponse the caller must Close; anything else
// is an *Error. Retry does not apply; the breaker does.
func (a *Adapter) DoStream(ctx context.Context, req Request) (*StreamResponse, error) {
	if a.breaker == nil {
		return a.openStream(ctx, req)
	}
	done, err := a.breaker.Allow()
	if err != nil {
		return nil, err
	}
	resp, err := a.openStream(ctx, req)
	done(err)
	return resp, err
}

func (a *Adapter) openStream(ctx context.Context, req Request) (*StreamResponse, error) {
	streamCtx, cancel := context.WithCancelCause(ctx)
	fail := func(err error) (*StreamResponse, error) {
		cancel(err)
		return nil, err
	}

	httpReq, err := a.cfg.newRequest(streamCtx, req)
	if err != nil {
		return fail(err)
	}

	handshake := time.AfterFunc(a.cfg.ConnectTimeout, func() { cancel(errHandshakeTimeout) })
	raw, err := a.streams.Do(httpReq)
	if !handshake.Stop() {
		// fired: even a response that made it through is already canceled
		if raw != nil {
			raw.Body.Close()
		}
		return fail(NewTimeoutError(fmt.Errorf("%w after %s", errHandshakeTimeout, a.cfg.ConnectTimeout)))
	}
	if err != nil {
		return fail(transportError(ctx, err))
	}

	if raw.StatusCode < 200 || raw.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(raw.Body, maxErrorBody))
		raw.Body.Close()
		return fail(classifyResponse(raw, body, time.Now()))
	}

	mediaType, _, _ := mime.ParseMediaType(raw.Header.Get("Content-Type"))
	out := &StreamResponse{
		StatusCode:  raw.StatusCode,
		Header:      raw.Header,
		ContentType: mediaType,
		Body:        raw.Body,
		cancel:      func() { cancel(context.Canceled) },
	}
	if mediaType == ContentTypeEventStream {
		out.SSE = sse.NewReader(raw.Body, sse.WithMaxEventBytes(a.cfg.MaxEventBytes))
	}
	return out, nil
}

// transportError classifies a failed round trip, preferring the caller's
// context state over the error text.
func transportError(ctx context.Context, err error) *Error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return NewTimeoutError(err)
		}
		return NewCanceledError(err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return NewTimeoutError(err)
	}
	return NewConnectionError(err)
}

func (a *Adapter) Name() string { return a.cfg.Name }

// IsAvailable is false while the breaker is open.
func (a *Adapter) IsAvailable(context.Context) bool {
	return a.breaker == nil || a.breaker.State() != resilience.BreakerOpen
}

// Execute is Do.
func (a *Adapter) Execute(ctx context.Context, req Request) (*Response, error) {
	return a.Do(ctx, req)
}

// Close drops idle connections. Open streams belong to their
// StreamResponse and are left alone.
func (a *Adapter) Close(context.Context) error {
	a.calls.CloseIdleConnections()
	a.streams.CloseIdleConnections()
	return nil
}
