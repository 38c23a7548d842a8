package stream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/invstream/httpclient"
	"github.com/kbukum/invstream/inventory"
	"github.com/kbukum/invstream/logger"
	"github.com/kbukum/invstream/observability"
)

// Session is one connection to the inventory stream. It owns the transport
// and a reader goroutine that decodes, classifies and queues frames in
// arrival order. A session never reconnects; a failure is terminal.
type Session struct {
	id          string
	endpoint    string
	lastEventID string
	adapter     *httpclient.Adapter
	ownsAdapter bool
	log         *logger.Logger
	metrics     *observability.StreamMetrics
	onState     func(from, to State)

	// ctx bounds the transport; cancel is Close. telemetry outlives both.
	ctx       context.Context
	cancel    context.CancelFunc
	telemetry context.Context

	events chan inventory.Event
	done   chan struct{}

	mu        sync.Mutex
	state     State
	err       error
	resp      *httpclient.StreamResponse
	opened    bool
	lastID    string
	retryHint time.Duration

	closeOnce sync.Once
}

func newSession(ctx context.Context, endpoint string, o *options, adapter *httpclient.Adapter, ownsAdapter bool) *Session {
	id := uuid.NewString()
	sctx, cancel := context.WithCancel(ctx)
	return &Session{
		id:          id,
		endpoint:    endpoint,
		lastEventID: o.lastEventID,
		adapter:     adapter,
		ownsAdapter: ownsAdapter,
		log: o.log.WithComponent("stream").WithFields(logger.Fields(
			logger.FieldSessionID, id,
			logger.FieldEndpoint, endpoint,
		)),
		metrics:   o.metrics,
		onState:   o.onState,
		ctx:       sctx,
		cancel:    cancel,
		telemetry: context.WithoutCancel(ctx),
		events:    make(chan inventory.Event, o.cfg.BufferSize),
		done:      make(chan struct{}),
		state:     StateIdle,
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the terminal failure, or nil while running, after a graceful
// end, or after Close.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// LastEventID returns the id of the last frame read that carried one.
func (s *Session) LastEventID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastID
}

// RetryHint returns the reconnect delay last requested by the server.
func (s *Session) RetryHint() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retryHint
}

// Done is closed once the reader goroutine exited and the transport is released.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close stops the session and waits until the transport is released.
// It is idempotent and safe to call from any goroutine.
func (s *Session) Close() error {
	s.shutdown()
	<-s.done
	return nil
}

// shutdown cancels the session without waiting.
func (s *Session) shutdown() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		if s.state == StateConnecting || s.state == StateOpen {
			s.setState(StateClosing)
		}
		resp := s.resp
		s.mu.Unlock()

		s.cancel()
		if resp != nil {
			_ = resp.Close()
		}
	})
}

func (s *Session) start(token string) {
	s.mu.Lock()
	s.setState(StateConnecting)
	s.mu.Unlock()
	go s.run(token)
}

func (s *Session) run(token string) {
	defer close(s.done)
	defer close(s.events)
	if s.ownsAdapter {
		defer func() { _ = s.adapter.Close(s.telemetry) }()
	}

	resp, err := s.connect(token)
	if err != nil {
		s.finish(err)
		return
	}
	defer func() { _ = resp.Close() }()
	s.read(resp)
}

func (s *Session) connect(token string) (*httpclient.StreamResponse, error) {
	start := time.Now()
	ctx, span := observability.StartSpan(s.ctx, observability.SpanStreamConnect, trace.WithAttributes(
		attribute.String(observability.AttrSessionID, s.id),
		attribute.String(observability.AttrEndpoint, s.endpoint),
	))

	headers := map[string]string{
		"Accept":        httpclient.ContentTypeEventStream,
		"Cache-Control": "no-cache",
	}
	if s.lastEventID != "" {
		headers["Last-Event-ID"] = s.lastEventID
	}
	observability.InjectHeaders(ctx, headers)

	s.log.Info("connecting", logger.Fields("resume_from", s.lastEventID))

	resp, err := s.adapter.DoStream(ctx, httpclient.Request{
		Method:  http.MethodGet,
		Path:    s.endpoint,
		Headers: headers,
		Auth:    httpclient.BearerAuth(token),
	})

	var failure error
	switch {
	case err != nil:
		failure = connectError(err)
	case !resp.IsSSE():
		failure = contentTypeError(resp.ContentType)
		_ = resp.Close()
	case !s.markOpen(resp):
		// Close won the race with the handshake
		_ = resp.Close()
		failure = context.Canceled
	}

	elapsed := time.Since(start)
	if failure != nil {
		observability.EndSpan(span, failure)
		if s.ctx.Err() == nil {
			s.metrics.Connected(s.telemetry, observability.OutcomeFailed, elapsed)
		}
		return nil, failure
	}

	span.SetAttributes(attribute.Int(observability.AttrStatus, resp.StatusCode))
	observability.EndSpan(span, nil)
	s.metrics.Connected(s.telemetry, observability.OutcomeOpened, elapsed)
	s.log.Info("stream open", logger.DurationFields("connect", elapsed))
	return resp, nil
}

func (s *Session) markOpen(resp *httpclient.StreamResponse) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnecting {
		return false
	}
	s.resp = resp
	s.opened = true
	s.setState(StateOpen)
	return true
}

func (s *Session) read(resp *httpclient.StreamResponse) {
	for {
		raw, err := resp.SSE.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.finish(nil)
			} else {
				s.finish(readError(err))
			}
			return
		}

		frame := inventory.FromSSE(raw)
		event := inventory.Classify(frame)
		s.observe(frame, event, raw.Retry)

		// a full queue blocks here, which stops reading from the socket
		select {
		case s.events <- event:
		case <-s.ctx.Done():
			s.finish(nil)
			return
		}
	}
}

func (s *Session) observe(frame inventory.RawFrame, event inventory.Event, retry time.Duration) {
	s.mu.Lock()
	if frame.ID != "" {
		s.lastID = frame.ID
	}
	if retry > 0 {
		s.retryHint = retry
	}
	s.mu.Unlock()

	s.metrics.FrameReceived(s.telemetry, string(event.Kind()))
	if de, ok := event.(inventory.DecodeError); ok {
		s.metrics.DecodeFailed(s.telemetry, de.RawType)
		s.log.Warn("frame decode failed", logger.Fields(
			logger.FieldEventType, de.RawType,
			logger.FieldEventID, de.ID,
			logger.FieldError, de.Cause,
		))
		return
	}
	fields := logger.Fields(logger.FieldEventType, string(event.Kind()), logger.FieldEventID, frame.ID)
	if state, ok := inventory.StateOf(event); ok {
		fields[logger.FieldProductID] = state.ProductID
	}
	s.log.Debug("frame received", fields)
}

// finish moves the session to its terminal state. A cause observed after
// Close or cancellation is not a failure.
func (s *Session) finish(cause error) {
	s.mu.Lock()
	switch {
	case s.state == StateClosing:
		s.setState(StateClosed)
	case s.ctx.Err() != nil:
		s.setState(StateClosing)
		s.setState(StateClosed)
	case cause == nil:
		s.setState(StateClosed)
	default:
		s.err = cause
		s.setState(StateFailed)
	}
	state, failure, opened := s.state, s.err, s.opened
	s.resp = nil
	s.mu.Unlock()

	outcome, code := observability.OutcomeClosed, ""
	if state == StateFailed {
		outcome, code = observability.OutcomeFailed, errorCode(failure)
		s.log.Error("stream failed", logger.Fields(
			logger.FieldError, failure.Error(),
			logger.FieldStatus, code,
		))
	} else {
		s.log.Info("stream closed")
	}
	s.metrics.SessionEnded(s.telemetry, outcome, code, opened)
}

// setState applies a legal transition. Callers hold s.mu.
func (s *Session) setState(to State) {
	from := s.state
	if !CanTransition(from, to) {
		s.log.Debug("ignored state transition", logger.Fields("from", from.String(), "to", to.String()))
		return
	}
	s.state = to
	if s.onState != nil {
		s.onState(from, to)
	}
}
