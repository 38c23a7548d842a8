package sse

import (
	"net/http"
	"strconv"
	"time"

	"github.com/kbukum/invstream/logger"
)

// DefaultKeepAlive is the comment ping interval. It stays below common
// proxy idle timeouts.
const DefaultKeepAlive = 30 * time.Second

// ServeOption configures ServeSSE.
type ServeOption func(*serveConfig)

type serveConfig struct {
	clientOpts     []ClientOption
	initial        func() []Frame
	keepAlive      time.Duration
	heartbeat      time.Duration
	heartbeatEvent string
	retry          time.Duration
}

// WithClientOptions applies opts to the registered client.
func WithClientOptions(opts ...ClientOption) ServeOption {
	return func(c *serveConfig) { c.clientOpts = append(c.clientOpts, opts...) }
}

// WithInitial writes the frames returned by fn before any broadcast frame.
// fn runs after the client is registered, so no broadcast is missed in
// between; a frame may then be delivered twice.
func WithInitial(fn func() []Frame) ServeOption {
	return func(c *serveConfig) { c.initial = fn }
}

// WithKeepAlive overrides DefaultKeepAlive. Zero or negative disables pings.
func WithKeepAlive(d time.Duration) ServeOption {
	return func(c *serveConfig) { c.keepAlive = d }
}

// WithHeartbeat sends an empty frame of the given event type every interval.
func WithHeartbeat(interval time.Duration, event string) ServeOption {
	return func(c *serveConfig) {
		c.heartbeat = interval
		c.heartbeatEvent = event
	}
}

// WithRetry advertises the reconnect delay on the first frame written.
func WithRetry(d time.Duration) ServeOption {
	return func(c *serveConfig) { c.retry = d }
}

// ServeSSE streams hub frames to one client until the request ends or the
// hub drops the client.
func ServeSSE(hub *Hub, w http.ResponseWriter, r *http.Request, clientID string, opts ...ServeOption) {
	cfg := serveConfig{keepAlive: DefaultKeepAlive}
	for _, opt := range opts {
		opt(&cfg)
	}
	log := hub.log.WithFields(logger.Fields("client_id", clientID))

	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Error("streaming not supported")
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// SSE connections outlive the server's WriteTimeout.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Debug("could not disable write deadline", logger.Fields(logger.FieldError, err.Error()))
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	client := NewClient(clientID, cfg.clientOpts...)
	hub.Register(client)
	defer hub.Unregister(client)

	log.Debug("client connected", logger.Fields(
		"remote_addr", r.RemoteAddr,
		"last_event_id", r.Header.Get("Last-Event-ID"),
	))

	retry := cfg.retry
	write := func(f Frame) bool {
		if retry > 0 {
			f.Retry, retry = retry, 0
		}
		if _, err := f.WriteTo(w); err != nil {
			log.Debug("write failed", logger.Fields(logger.FieldError, err.Error()))
			return false
		}
		return true
	}

	if cfg.initial != nil {
		for _, f := range cfg.initial() {
			if !write(f) {
				return
			}
		}
		flusher.Flush()
	}

	keepAlive := ticker(cfg.keepAlive)
	defer keepAlive.Stop()
	heartbeat := ticker(cfg.heartbeat)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			log.Debug("client disconnected", logger.Fields("reason", ctx.Err().Error()))
			return

		case f, ok := <-client.Events():
			if !ok {
				log.Debug("events channel closed")
				return
			}
			if !write(f) {
				return
			}
			flusher.Flush()

		case <-heartbeat.C:
			if !write(Frame{Event: cfg.heartbeatEvent}) {
				return
			}
			flusher.Flush()

		case <-keepAlive.C:
			if _, err := w.Write(Comment("keepalive " + strconv.FormatInt(time.Now().Unix(), 10))); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// ticker returns a ticker that never fires when d is not positive.
func ticker(d time.Duration) *time.Ticker {
	if d <= 0 {
		t := time.NewTicker(time.Hour)
		t.Stop()
		return t
	}
	return time.NewTicker(d)
}
