package stream

import (
	"context"

	"github.com/kbukum/invstream/httpclient"
	"github.com/kbukum/invstream/inventory"
	"github.com/kbukum/invstream/provider"
	"github.com/kbukum/invstream/validation"
)

// Connect opens a session to endpoint authenticated with token and returns
// its handle right away. The handshake runs in the background; its outcome
// shows up as the first event, the end of the sequence or a terminal error.
// Cancelling ctx ends the session like Close.
func Connect(ctx context.Context, endpoint, token string, opts ...Option) (*Handle, error) {
	return connect(ctx, endpoint, token, newOptions(opts))
}

func connect(ctx context.Context, endpoint, token string, o *options) (*Handle, error) {
	if appErr := validation.New().
		URL("endpoint", endpoint, "http", "https").
		Required("token", token).
		Validate(); appErr != nil {
		return nil, appErr
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}

	adapter, owns := o.adapter, false
	if adapter == nil {
		a, err := httpclient.New(o.cfg.adapterConfig())
		if err != nil {
			return nil, err
		}
		adapter, owns = a, true
	}

	s := newSession(ctx, endpoint, o, adapter, owns)
	s.start(token)
	return newHandle(s), nil
}

// Subscription is the input of Client.Execute.
type Subscription struct {
	Token       string
	LastEventID string
}

// Client opens sessions against one configured endpoint and shares a
// connection pool between them.
type Client struct {
	opts *options
}

var _ provider.Stream[Subscription, inventory.Event] = (*Client)(nil)

// NewClient creates a client for cfg.Endpoint.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	o := newOptions(append([]Option{WithConfig(cfg)}, opts...))
	v := validation.New().Required("endpoint", o.cfg.Endpoint)
	if appErr := v.Validate(); appErr != nil {
		return nil, appErr
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	if o.adapter == nil {
		a, err := httpclient.New(o.cfg.adapterConfig())
		if err != nil {
			return nil, err
		}
		o.adapter = a
	}
	return &Client{opts: o}, nil
}

// Connect opens a session with the client's configuration. opts apply to
// this session only.
func (c *Client) Connect(ctx context.Context, token string, opts ...Option) (*Handle, error) {
	o := *c.opts
	for _, opt := range opts {
		opt(&o)
	}
	return connect(ctx, o.cfg.Endpoint, token, &o)
}

// Execute opens a session for sub. The returned iterator is the session handle.
func (c *Client) Execute(ctx context.Context, sub Subscription) (provider.Iterator[inventory.Event], error) {
	return c.Connect(ctx, sub.Token, WithLastEventID(sub.LastEventID))
}

// Name returns the client name.
func (c *Client) Name() string { return c.opts.adapter.Name() }

// IsAvailable reports whether new sessions can be attempted.
func (c *Client) IsAvailable(ctx context.Context) bool {
	return c.opts.adapter.IsAvailable(ctx)
}

// Close releases idle pooled connections. Open sessions are unaffected.
func (c *Client) Close(ctx context.Context) error {
	return c.opts.adapter.Close(ctx)
}
