package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

const (
	defaultInitialBackoff = 100 * time.Millisecond
	defaultMaxBackoff     = 10 * time.Second
	defaultBackoffFactor  = 2.0
	defaultRetryAttempts  = 3
)

// RetryConfig paces retries and reconnects.
type RetryConfig struct {
	// MaxAttempts counts the first attempt. Retry treats <= 0 as 3;
	// reconnect loops treat it as unlimited.
	MaxAttempts    int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
	BackoffFactor  float64       `yaml:"backoff_factor" mapstructure:"backoff_factor"`
	// Jitter spreads each delay by up to this fraction either way, 0 to 1.
	Jitter float64 `yaml:"jitter" mapstructure:"jitter"`

	RetryIf func(error) bool `yaml:"-" mapstructure:"-"`
	// HintFrom extracts a server-requested minimum delay from an error.
	// The hint is not capped by MaxBackoff.
	HintFrom func(error) time.Duration `yaml:"-" mapstructure:"-"`
	// OnRetry runs before each pause.
	OnRetry func(attempt int, err error, delay time.Duration) `yaml:"-" mapstructure:"-"`
}

// DefaultRetryConfig makes 3 attempts starting at 100ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    defaultRetryAttempts,
		InitialBackoff: defaultInitialBackoff,
		MaxBackoff:     defaultMaxBackoff,
		BackoffFactor:  defaultBackoffFactor,
		Jitter:         0.1,
		RetryIf:        DefaultRetryIf,
	}
}

// DefaultRetryIf retries everything but context cancellation and expiry.
func DefaultRetryIf(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// ApplyDefaults fills the pacing fields. MaxAttempts is left alone.
func (c *RetryConfig) ApplyDefaults() {
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = defaultInitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = defaultMaxBackoff
	}
	c.MaxBackoff = max(c.MaxBackoff, c.InitialBackoff)
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = defaultBackoffFactor
	}
	c.Jitter = min(max(c.Jitter, 0), 1)
	if c.RetryIf == nil {
		c.RetryIf = DefaultRetryIf
	}
}

// Retry calls fn until it succeeds, returns an error RetryIf rejects, or
// MaxAttempts is used up. The last error is returned.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultRetryAttempts
	}
	cfg.ApplyDefaults()

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if !cfg.RetryIf(err) || attempt >= cfg.MaxAttempts {
			return zero, err
		}

		delay := cfg.Delay(attempt, err)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}
		if err := Sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
}

// Delay is the pause after failed attempt: Backoff raised to the error's
// hint when HintFrom is set.
func (c RetryConfig) Delay(attempt int, err error) time.Duration {
	d := Backoff(attempt, c)
	if c.HintFrom != nil && err != nil {
		d = max(d, c.HintFrom(err))
	}
	return d
}

// Backoff is InitialBackoff * BackoffFactor^(attempt-1) with jitter,
// capped at MaxBackoff. Attempts are 1-based.
func Backoff(attempt int, cfg RetryConfig) time.Duration {
	attempt = max(attempt, 1)
	d := float64(cfg.InitialBackoff) * math.Pow(cfg.BackoffFactor, float64(attempt-1))
	if cfg.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * d * cfg.Jitter
	}
	d = min(d, float64(cfg.MaxBackoff))
	if d < 0 {
		return cfg.InitialBackoff
	}
	return time.Duration(d)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
