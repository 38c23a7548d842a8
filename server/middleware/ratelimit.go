package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"

	apperrors "github.com/kbukum/invstream/errors"
)

const (
	rateWindow      = time.Minute
	defaultPerMin   = 60
	defaultRateKeys = 4096
)

// RateLimitConfig limits requests per key over a sliding one-minute window.
type RateLimitConfig struct {
	RequestsPerMinute int
	// MaxKeys bounds the tracked keys; the least recently seen is forgotten.
	MaxKeys int
	// KeyFunc defaults to the client IP.
	KeyFunc func(*gin.Context) string
	Now     func() time.Time
}

// RateLimit rejects requests over the limit with 429 RATE_LIMITED and a
// Retry-After telling the client when its oldest request leaves the window.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = defaultPerMin
	}
	if cfg.MaxKeys <= 0 {
		cfg.MaxKeys = defaultRateKeys
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	w := &window{limit: cfg.RequestsPerMinute, seen: expirable.NewLRU[string, []time.Time](cfg.MaxKeys, nil, rateWindow)}

	return func(c *gin.Context) {
		if wait := w.take(cfg.KeyFunc(c), cfg.Now()); wait > 0 {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			abort(c, apperrors.RateLimited())
			return
		}
		c.Next()
	}
}

// window keeps each key's request times inside the last minute. Keys idle
// for a full window expire from the LRU.
type window struct {
	mu    sync.Mutex
	limit int
	seen  *expirable.LRU[string, []time.Time]
}

// take records a request at now and returns zero, or returns how long the
// caller must wait.
func (w *window) take(key string, now time.Time) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	times, _ := w.seen.Get(key)
	cutoff := now.Add(-rateWindow)
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	times = times[i:]
	if len(times) >= w.limit {
		w.seen.Add(key, times)
		return times[0].Sub(cutoff)
	}
	w.seen.Add(key, append(times, now))
	return 0
}
