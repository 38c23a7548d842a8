package stream

import (
	"context"
	"iter"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/kbukum/invstream/inventory"
	"github.com/kbukum/invstream/provider"
)

// Handle is the caller's view of one session. Events and Next share one
// queue and are meant for a single consumer.
//
// A handle that becomes unreachable without Close still has its session
// shut down by the runtime.
type Handle struct {
	s        *Session
	reported atomic.Bool
}

var _ provider.Iterator[inventory.Event] = (*Handle)(nil)

func newHandle(s *Session) *Handle {
	h := &Handle{s: s}
	runtime.AddCleanup(h, func(s *Session) { s.shutdown() }, s)
	return h
}

// Events returns the session's events in arrival order. The sequence ends
// when the session closes; a terminal failure is yielded once as (nil, err).
// Ranging again after the end yields nothing.
func (h *Handle) Events() iter.Seq2[inventory.Event, error] {
	return provider.All[inventory.Event](context.Background(), h)
}

// Next blocks for the next event. It returns false once the stream has
// ended, together with the terminal failure the first time it is observed.
// Cancelling ctx returns ctx.Err() and leaves the session running.
func (h *Handle) Next(ctx context.Context) (inventory.Event, bool, error) {
	select {
	case ev, ok := <-h.s.events:
		if ok {
			return ev, true, nil
		}
		return nil, false, h.terminal()
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// terminal returns the session failure once across Events and Next.
func (h *Handle) terminal() error {
	err := h.s.Err()
	if err == nil || !h.reported.CompareAndSwap(false, true) {
		return nil
	}
	return err
}

// Close stops the session and releases the connection. Idempotent.
func (h *Handle) Close() error {
	return h.s.Close()
}

// Err returns the terminal failure. It is nil while the stream runs, after
// the server ended it and after Close.
func (h *Handle) Err() error { return h.s.Err() }

// State returns the session state.
func (h *Handle) State() State { return h.s.State() }

// ID returns the session id.
func (h *Handle) ID() string { return h.s.ID() }

// Done is closed when the session reached a terminal state and released
// its connection.
func (h *Handle) Done() <-chan struct{} { return h.s.Done() }

// LastEventID returns the id of the last frame read that carried one.
func (h *Handle) LastEventID() string { return h.s.LastEventID() }

// RetryHint returns the reconnect delay last requested by the server, or 0.
func (h *Handle) RetryHint() time.Duration { return h.s.RetryHint() }
