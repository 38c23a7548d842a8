package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Stream session outcomes.
const (
	OutcomeOpened = "opened"
	OutcomeClosed = "closed"
	OutcomeFailed = "failed"
)

// StreamMetrics holds the instruments recorded by stream sessions.
// All methods are safe on a nil receiver.
type StreamMetrics struct {
	framesTotal     metric.Int64Counter
	decodeErrors    metric.Int64Counter
	sessionsActive  metric.Int64UpDownCounter
	sessionsTotal   metric.Int64Counter
	connectDuration metric.Float64Histogram
	reconnects      metric.Int64Counter
}

// NewStreamMetrics creates the stream instruments on the given meter.
func NewStreamMetrics(meter metric.Meter) (*StreamMetrics, error) {
	framesTotal, err := meter.Int64Counter("invstream.frames.total",
		metric.WithDescription("Frames received by event kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating invstream.frames.total counter: %w", err)
	}

	decodeErrors, err := meter.Int64Counter("invstream.decode_errors.total",
		metric.WithDescription("Frames that failed classification, by raw event type"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating invstream.decode_errors.total counter: %w", err)
	}

	sessionsActive, err := meter.Int64UpDownCounter("invstream.sessions.active",
		metric.WithDescription("Sessions currently open"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating invstream.sessions.active gauge: %w", err)
	}

	sessionsTotal, err := meter.Int64Counter("invstream.sessions.total",
		metric.WithDescription("Session terminal outcomes"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating invstream.sessions.total counter: %w", err)
	}

	connectDuration, err := meter.Float64Histogram("invstream.connect.duration",
		metric.WithDescription("Time from connect to open or failure"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating invstream.connect.duration histogram: %w", err)
	}

	reconnects, err := meter.Int64Counter("invstream.reconnects.total",
		metric.WithDescription("Reconnect attempts made by a follower"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating invstream.reconnects.total counter: %w", err)
	}

	return &StreamMetrics{
		framesTotal:     framesTotal,
		decodeErrors:    decodeErrors,
		sessionsActive:  sessionsActive,
		sessionsTotal:   sessionsTotal,
		connectDuration: connectDuration,
		reconnects:      reconnects,
	}, nil
}

// FrameReceived counts one classified frame.
func (m *StreamMetrics) FrameReceived(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.framesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// DecodeFailed counts one frame that became a decode error.
func (m *StreamMetrics) DecodeFailed(ctx context.Context, rawType string) {
	if m == nil {
		return
	}
	if rawType == "" {
		rawType = "absent"
	}
	m.decodeErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("raw_type", rawType)))
}

// Connected records the handshake duration and outcome. An "opened"
// outcome also marks the session active.
func (m *StreamMetrics) Connected(ctx context.Context, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.connectDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("outcome", outcome)))
	if outcome == OutcomeOpened {
		m.sessionsActive.Add(ctx, 1)
	}
}

// SessionEnded records a terminal outcome. wasOpen releases the active slot
// taken by Connected.
func (m *StreamMetrics) SessionEnded(ctx context.Context, outcome, code string, wasOpen bool) {
	if m == nil {
		return
	}
	if wasOpen {
		m.sessionsActive.Add(ctx, -1)
	}
	attrs := []attribute.KeyValue{attribute.String("outcome", outcome)}
	if code != "" {
		attrs = append(attrs, attribute.String("code", code))
	}
	m.sessionsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// Reconnecting counts one reconnect attempt.
func (m *StreamMetrics) Reconnecting(ctx context.Context) {
	if m == nil {
		return
	}
	m.reconnects.Add(ctx, 1)
}
