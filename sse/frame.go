package sse

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"
)

// Frame is one Server-Sent Events message.
type Frame struct {
	ID    string
	Event string
	Data  []byte
	// Retry asks the client to wait this long before reconnecting. Zero omits it.
	Retry time.Duration
}

// WriteTo encodes f in text/event-stream format. Multi-line data is split
// across data fields; a frame always ends with a blank line.
func (f Frame) WriteTo(w io.Writer) (int64, error) {
	var b bytes.Buffer
	if f.Retry > 0 {
		fmt.Fprintf(&b, "retry: %d\n", f.Retry.Milliseconds())
	}
	if f.ID != "" {
		fmt.Fprintf(&b, "id: %s\n", singleLine(f.ID))
	}
	if f.Event != "" {
		fmt.Fprintf(&b, "event: %s\n", singleLine(f.Event))
	}
	for _, line := range strings.Split(string(f.Data), "\n") {
		fmt.Fprintf(&b, "data: %s\n", strings.TrimSuffix(line, "\r"))
	}
	b.WriteByte('\n')
	n, err := w.Write(b.Bytes())
	return int64(n), err
}

// Comment encodes an SSE comment line. Clients ignore it.
func Comment(text string) []byte {
	return []byte(": " + singleLine(text) + "\n\n")
}

func singleLine(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}
