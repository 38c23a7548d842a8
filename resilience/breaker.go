package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned instead of calling through an open breaker.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerState is the position of a Breaker.
type BreakerState int32

const (
	// BreakerClosed lets every call through.
	BreakerClosed BreakerState = iota
	// BreakerOpen rejects calls until OpenTimeout has passed.
	BreakerOpen
	// BreakerHalfOpen lets HalfOpenProbes calls through to test recovery.
	BreakerHalfOpen
)

var breakerStateNames = [...]string{"closed", "open", "half-open"}

func (s BreakerState) String() string {
	if s < 0 || int(s) >= len(breakerStateNames) {
		return "unknown"
	}
	return breakerStateNames[s]
}

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	Name string `yaml:"-" mapstructure:"-"`
	// MaxFailures is the run of consecutive failures that opens the breaker.
	MaxFailures int `yaml:"max_failures" mapstructure:"max_failures"`
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration `yaml:"open_timeout" mapstructure:"open_timeout"`
	// HalfOpenProbes is the number of calls let through while half-open;
	// all of them must succeed to close the breaker.
	HalfOpenProbes int `yaml:"half_open_probes" mapstructure:"half_open_probes"`

	// IsFailure decides which errors count. Nil counts every non-nil error.
	IsFailure func(error) bool `yaml:"-" mapstructure:"-"`
	// OnStateChange is called with the breaker's lock held; it must not
	// call back into the breaker.
	OnStateChange func(name string, from, to BreakerState) `yaml:"-" mapstructure:"-"`
	// Now defaults to time.Now.
	Now func() time.Time `yaml:"-" mapstructure:"-"`
}

// DefaultBreakerConfig opens after 5 consecutive failures and probes once
// after 30s.
func DefaultBreakerConfig(name string) BreakerConfig {
	cfg := BreakerConfig{Name: name}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero values.
func (c *BreakerConfig) ApplyDefaults() {
	if c.MaxFailures <= 0 {
		c.MaxFailures = 5
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 30 * time.Second
	}
	if c.HalfOpenProbes <= 0 {
		c.HalfOpenProbes = 1
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Breaker fails fast while a dependency keeps failing. It is safe for
// concurrent use.
type Breaker struct {
	cfg BreakerConfig

	mu       sync.Mutex
	state    BreakerState
	failures int
	openedAt time.Time
	// probes in flight or finished during the current half-open period
	probes    int
	succeeded int
}

// NewBreaker returns a closed breaker.
func NewBreaker(cfg BreakerConfig) *Breaker {
	cfg.ApplyDefaults()
	return &Breaker{cfg: cfg}
}

// Allow reserves a call. It returns ErrCircuitOpen when the call must not
// be made; otherwise the caller reports the call's outcome through done
// exactly once.
func (b *Breaker) Allow() (done func(err error), err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.advance() {
	case BreakerOpen:
		return nil, ErrCircuitOpen
	case BreakerHalfOpen:
		if b.probes >= b.cfg.HalfOpenProbes {
			return nil, ErrCircuitOpen
		}
		b.probes++
	}

	var once sync.Once
	return func(err error) {
		once.Do(func() { b.record(err) })
	}, nil
}

// Execute calls fn when the breaker allows it and records the result.
func (b *Breaker) Execute(fn func() error) error {
	done, err := b.Allow()
	if err != nil {
		return err
	}
	err = fn()
	done(err)
	return err
}

// State returns the current state, moving an expired open breaker to
// half-open.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.advance()
}

// Failures returns the current run of consecutive failures.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Reset closes the breaker and clears its counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transition(BreakerClosed)
	b.failures = 0
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	failed := err != nil && (b.cfg.IsFailure == nil || b.cfg.IsFailure(err))
	state := b.advance()
	if !failed {
		b.failures = 0
		if state == BreakerHalfOpen {
			b.succeeded++
			if b.succeeded >= b.cfg.HalfOpenProbes {
				b.transition(BreakerClosed)
			}
		}
		return
	}

	b.failures++
	if state == BreakerHalfOpen || (state == BreakerClosed && b.failures >= b.cfg.MaxFailures) {
		b.openedAt = b.cfg.Now()
		b.transition(BreakerOpen)
	}
}

// advance applies the open timeout. Callers hold b.mu.
func (b *Breaker) advance() BreakerState {
	if b.state == BreakerOpen && b.cfg.Now().Sub(b.openedAt) >= b.cfg.OpenTimeout {
		b.transition(BreakerHalfOpen)
	}
	return b.state
}

// transition moves to state to and resets the probe counters. Callers hold b.mu.
func (b *Breaker) transition(to BreakerState) {
	from := b.state
	b.probes, b.succeeded = 0, 0
	if from == to {
		return
	}
	b.state = to
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.cfg.Name, from, to)
	}
}
