package httpclient

import (
	"time"

	"github.com/kbukum/invstream/resilience"
	"github.com/kbukum/invstream/validation"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultConnectTimeout = 10 * time.Second
)

// Config is the adapter configuration. Durations and TLS load from config
// files; Auth and Retry are set in code.
type Config struct {
	// Name labels the adapter and its breaker.
	Name string `yaml:"name" mapstructure:"name"`

	// BaseURL prefixes relative Request paths.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds a whole Do round trip. Defaults to 30s. Streams ignore it.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// ConnectTimeout bounds dial, TLS handshake and response headers.
	// For DoStream it is the whole handshake budget. Defaults to 10s.
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`

	// Auth decorates every request unless the Request sets its own.
	Auth Auth `yaml:"-" mapstructure:"-"`

	TLS *TLSConfig `yaml:"tls" mapstructure:"tls"`

	// Headers go on every request; Request.Headers win.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// MaxEventBytes caps a single SSE event. Zero uses sse.DefaultMaxEventBytes.
	MaxEventBytes int `yaml:"max_event_bytes" mapstructure:"max_event_bytes"`

	// Retry configures retry behavior for Do. Nil disables retry.
	Retry *resilience.RetryConfig `yaml:"-" mapstructure:"-"`

	// Breaker guards Do and the DoStream handshake. Nil disables it.
	Breaker *resilience.BreakerConfig `yaml:"breaker" mapstructure:"breaker"`
}

// ApplyDefaults names the adapter "httpclient" and fills both timeouts.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "httpclient"
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
}

func (c *Config) Validate() error {
	v := validation.New().
		MinDuration("timeout", c.Timeout, time.Nanosecond).
		MinDuration("connect_timeout", c.ConnectTimeout, time.Nanosecond).
		Min("max_event_bytes", c.MaxEventBytes, 0)
	if c.BaseURL != "" {
		v.URL("base_url", c.BaseURL, "http", "https")
	}
	if err := c.TLS.Validate(); err != nil {
		v.AddError("tls", err.Error())
	}
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// DefaultRetryConfig retries IsRetryable errors and honors Retry-After.
func DefaultRetryConfig() *resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.RetryIf = IsRetryable
	cfg.HintFrom = RetryAfter
	return &cfg
}

// DefaultBreakerConfig returns a breaker config counting only failures the
// server is responsible for.
func DefaultBreakerConfig(name string) *resilience.BreakerConfig {
	cfg := resilience.DefaultBreakerConfig(name)
	cfg.IsFailure = IsBreakerFailure
	return &cfg
}

// IsBreakerFailure reports whether err should count against a breaker:
// connection failures, timeouts and 5xx responses. Auth and client errors
// do not.
func IsBreakerFailure(err error) bool {
	return IsConnection(err) || IsTimeout(err) || IsServerError(err)
}
