// Package sse decodes Server-Sent Events framing from a response body.
package sse

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"
)

// DefaultMaxEventBytes bounds one event, all of its lines together.
const DefaultMaxEventBytes = 1 << 20

var ErrEventTooLarge = errors.New("sse: event exceeds maximum size")

// Event is one dispatched message. Event is empty when the server sent no
// type and Retry is zero when it sent no valid reconnect hint.
type Event struct {
	Event string
	Data  string
	ID    string
	Retry time.Duration
}

// Reader yields events until the body ends with io.EOF.
type Reader interface {
	Next() (*Event, error)
	Close() error
}

type Option func(*reader)

// WithMaxEventBytes overrides DefaultMaxEventBytes. Non-positive values
// are ignored.
func WithMaxEventBytes(n int) Option {
	return func(r *reader) {
		if n > 0 {
			r.limit = n
		}
	}
}

type reader struct {
	body  io.ReadCloser
	lines *bufio.Scanner
	limit int

	// state of the event being assembled
	cur     Event
	data    strings.Builder
	hasData bool
	size    int
}

func NewReader(body io.ReadCloser, opts ...Option) Reader {
	r := &reader{body: body, limit: DefaultMaxEventBytes}
	for _, opt := range opts {
		opt(r)
	}
	r.lines = bufio.NewScanner(body)
	r.lines.Buffer(make([]byte, 0, min(4<<10, r.limit)), r.limit)
	return r
}

// Next dispatches at each blank line that ends an event carrying data or a
// type. Comment lines and blocks with neither are skipped. A trailing event
// without its blank line is dropped at EOF.
func (r *reader) Next() (*Event, error) {
	for r.lines.Scan() {
		line := r.lines.Text()
		if line == "" {
			if ev, ok := r.dispatch(); ok {
				return ev, nil
			}
			continue
		}
		if line[0] == ':' {
			continue
		}
		if r.size += len(line); r.size > r.limit {
			r.reset()
			return nil, ErrEventTooLarge
		}
		r.field(splitField(line))
	}

	err := r.lines.Err()
	switch {
	case err == nil:
		return nil, io.EOF
	case errors.Is(err, bufio.ErrTooLong):
		return nil, ErrEventTooLarge
	default:
		return nil, err
	}
}

func (r *reader) Close() error { return r.body.Close() }

func (r *reader) field(name, value string) {
	switch name {
	case "data":
		if r.hasData {
			r.data.WriteByte('\n')
		}
		r.data.WriteString(value)
		r.hasData = true
	case "event":
		r.cur.Event = value
	case "id":
		// ids containing NUL are ignored
		if strings.IndexByte(value, 0) < 0 {
			r.cur.ID = value
		}
	case "retry":
		if ms, err := strconv.ParseUint(value, 10, 32); err == nil {
			r.cur.Retry = time.Duration(ms) * time.Millisecond
		}
	}
}

func (r *reader) dispatch() (*Event, bool) {
	if !r.hasData && r.cur.Event == "" {
		r.reset()
		return nil, false
	}
	ev := r.cur
	ev.Data = r.data.String()
	r.reset()
	return &ev, true
}

func (r *reader) reset() {
	r.cur = Event{}
	r.data.Reset()
	r.hasData = false
	r.size = 0
}

// splitField splits "name: value" dropping one leading space from value.
// A line without a colon is a field name with an empty value.
func splitField(line string) (name, value string) {
	name, value, _ = strings.Cut(line, ":")
	value, _ = strings.CutPrefix(value, " ")
	return name, value
}
