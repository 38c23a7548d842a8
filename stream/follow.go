package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/kbukum/invstream/errors"
	"github.com/kbukum/invstream/httpclient"
	"github.com/kbukum/invstream/inventory"
	"github.com/kbukum/invstream/logger"
	"github.com/kbukum/invstream/resilience"
)

// ErrReconnectsExhausted is returned by Follow once FollowConfig.Retry.MaxAttempts
// consecutive sessions ended without delivering an event.
var ErrReconnectsExhausted = errors.New("stream: reconnect attempts exhausted")

// TokenSource supplies the bearer token for each new session.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

// Token returns t.
func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

// Token calls f.
func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// Handler processes one event. A non-nil error stops Follow and is returned.
type Handler func(ctx context.Context, ev inventory.Event) error

// FollowConfig paces reconnects.
type FollowConfig struct {
	// Retry.MaxAttempts <= 0 reconnects forever. RetryIf defaults to
	// errors.IsRetryable, so auth failures stop the loop.
	Retry resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// DefaultFollowConfig reconnects forever with backoff between 500ms and 30s.
func DefaultFollowConfig() FollowConfig {
	return FollowConfig{
		Retry: resilience.RetryConfig{
			InitialBackoff: 500 * time.Millisecond,
			MaxBackoff:     30 * time.Second,
			BackoffFactor:  2,
			Jitter:         0.2,
			RetryIf:        apperrors.IsRetryable,
		},
	}
}

// Follow keeps a session open and passes every event to handle until ctx
// ends, handle fails, or a session fails with a non-retryable error.
//
// Each reconnect reads a fresh token and resumes after the last event
// handled. Delivery is at-least-once: an event may be seen again after a
// reconnect. The backoff counter resets whenever a session delivered an event
// and the server's retry hint, or a Retry-After header on a refused
// handshake, is used as a lower bound for the delay.
func (c *Client) Follow(ctx context.Context, tokens TokenSource, cfg FollowConfig, handle Handler) error {
	retry := cfg.Retry
	if retry.RetryIf == nil {
		retry.RetryIf = apperrors.IsRetryable
	}
	if retry.HintFrom == nil {
		retry.HintFrom = httpclient.RetryAfter
	}
	retry.ApplyDefaults()

	log := c.opts.log.WithComponent("stream.follow")
	var lastID string
	failures := 0

	for {
		token, err := tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("stream token: %w", err)
		}

		h, err := c.Connect(ctx, token, WithLastEventID(lastID))
		if err != nil {
			return err
		}
		delivered, sessionErr, handlerErr := consume(ctx, h, handle, &lastID)
		hint := h.RetryHint()
		_ = h.Close()

		if handlerErr != nil {
			return handlerErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if sessionErr != nil && !retry.RetryIf(sessionErr) {
			return sessionErr
		}

		if delivered {
			failures = 0
		} else {
			failures++
			if retry.MaxAttempts > 0 && failures >= retry.MaxAttempts {
				if sessionErr != nil {
					return fmt.Errorf("%w: %w", ErrReconnectsExhausted, sessionErr)
				}
				return ErrReconnectsExhausted
			}
		}

		attempt := max(failures, 1)
		delay := max(retry.Delay(attempt, sessionErr), hint)
		if retry.OnRetry != nil {
			retry.OnRetry(attempt, sessionErr, delay)
		}
		c.opts.metrics.Reconnecting(ctx)

		fields := logger.Fields(
			logger.FieldAttempt, attempt,
			logger.FieldDuration, delay.Milliseconds(),
			logger.FieldEventID, lastID,
		)
		if sessionErr != nil {
			fields[logger.FieldError] = sessionErr.Error()
		}
		log.Warn("reconnecting", fields)

		if err := resilience.Sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// consume drains one session. lastID advances only after handle accepted
// the event.
func consume(ctx context.Context, h *Handle, handle Handler, lastID *string) (delivered bool, sessionErr, handlerErr error) {
	for ev, err := range h.Events() {
		if err != nil {
			return delivered, err, nil
		}
		delivered = true
		if err := handle(ctx, ev); err != nil {
			return delivered, nil, err
		}
		if id := ev.FrameID(); id != "" {
			*lastID = id
		}
	}
	return delivered, nil, nil
}
