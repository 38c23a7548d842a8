package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/invstream/logger"
)

// RequestLogger returns middleware that logs every request with method,
// path, status and duration once the handler returns. Probe paths are
// skipped. Streaming requests are logged when the stream ends.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isProbe(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			fields := logger.Fields(
				"method", r.Method,
				"path", r.URL.Path,
				logger.FieldStatus, sw.status,
				logger.FieldDuration, time.Since(start).Milliseconds(),
				"bytes", sw.bytes,
			)
			if id := r.Header.Get(HeaderRequestID); id != "" {
				fields[logger.FieldRequestID] = id
			}

			switch {
			case sw.status >= 500:
				log.Error("request completed", fields)
			case sw.status >= 400:
				log.Warn("request completed", fields)
			default:
				log.Debug("request completed", fields)
			}
		})
	}
}

func isProbe(path string) bool {
	switch strings.TrimPrefix(path, "/api") {
	case "/health", "/healthz", "/livez", "/readyz":
		return true
	}
	return false
}
