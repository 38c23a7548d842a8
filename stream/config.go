package stream

import (
	"time"

	"github.com/kbukum/invstream/httpclient"
	"github.com/kbukum/invstream/logger"
	"github.com/kbukum/invstream/observability"
	"github.com/kbukum/invstream/resilience"
	"github.com/kbukum/invstream/security"
	"github.com/kbukum/invstream/validation"
)

const (
	DefaultBufferSize     = 64
	DefaultConnectTimeout = 10 * time.Second
)

// Config configures stream sessions.
type Config struct {
	// Endpoint is the stream URL used by Client.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`

	// ConnectTimeout bounds dial, TLS and response headers. Reads are unbounded.
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`

	// BufferSize is the number of classified events queued ahead of the consumer.
	BufferSize int `yaml:"buffer_size" mapstructure:"buffer_size"`

	// MaxFrameBytes caps one SSE frame; larger frames fail the session.
	MaxFrameBytes int `yaml:"max_frame_bytes" mapstructure:"max_frame_bytes"`

	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls"`

	// Headers are sent with every stream request.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// Breaker fails handshakes fast after repeated server-side failures.
	// Nil disables it. Auth and client errors never count.
	Breaker *resilience.BreakerConfig `yaml:"breaker" mapstructure:"breaker"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBufferSize
	}
}

// Validate checks the configuration. The endpoint is optional here because
// Connect receives it explicitly.
func (c *Config) Validate() error {
	v := validation.New().
		Min("buffer_size", c.BufferSize, 1).
		Min("max_frame_bytes", c.MaxFrameBytes, 0)
	if c.Endpoint != "" {
		v.URL("endpoint", c.Endpoint, "http", "https")
	}
	if err := c.TLS.Validate(); err != nil {
		v.AddError("tls", err.Error())
	}
	if b := c.Breaker; b != nil {
		v.Min("breaker.max_failures", b.MaxFailures, 0).
			Min("breaker.half_open_probes", b.HalfOpenProbes, 0).
			MinDuration("breaker.open_timeout", b.OpenTimeout, 0)
	}
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

func (c *Config) adapterConfig() httpclient.Config {
	ac := httpclient.Config{
		Name:           "invstream",
		ConnectTimeout: c.ConnectTimeout,
		TLS:            c.TLS,
		Headers:        c.Headers,
		MaxEventBytes:  c.MaxFrameBytes,
	}
	if c.Breaker != nil {
		b := *c.Breaker
		if b.Name == "" {
			b.Name = ac.Name
		}
		if b.IsFailure == nil {
			b.IsFailure = httpclient.IsBreakerFailure
		}
		ac.Breaker = &b
	}
	return ac
}

// Option customizes Connect and Client.
type Option func(*options)

type options struct {
	cfg         Config
	adapter     *httpclient.Adapter
	log         *logger.Logger
	metrics     *observability.StreamMetrics
	lastEventID string
	onState     func(from, to State)
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	o.cfg.ApplyDefaults()
	if o.log == nil {
		o.log = logger.NewNop()
	}
	return o
}

// WithConfig replaces the session configuration.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithBufferSize overrides Config.BufferSize.
func WithBufferSize(n int) Option {
	return func(o *options) { o.cfg.BufferSize = n }
}

// WithConnectTimeout overrides Config.ConnectTimeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) { o.cfg.ConnectTimeout = d }
}

// WithAdapter shares an HTTP adapter between sessions. The adapter's own
// connect timeout then applies.
func WithAdapter(a *httpclient.Adapter) Option {
	return func(o *options) { o.adapter = a }
}

// WithLogger sets the logger sessions write to.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics records session metrics.
func WithMetrics(m *observability.StreamMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithLastEventID resumes after the given frame id via the Last-Event-ID header.
func WithLastEventID(id string) Option {
	return func(o *options) { o.lastEventID = id }
}

// WithStateHook calls fn on every session state change. fn runs while the
// session lock is held and must not call back into the session.
func WithStateHook(fn func(from, to State)) Option {
	return func(o *options) { o.onState = fn }
}
