package bootstrap

import (
	"time"

	"github.com/kbukum/invstream/logger"
)

// Option configures NewApp for any config type.
type Option func(*options)

type options struct {
	logger *logger.Logger
	grace  time.Duration
}

// WithLogger replaces the logger NewApp builds from the config.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithGracefulTimeout bounds stopping. Non-positive values are ignored.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.grace = d
		}
	}
}
