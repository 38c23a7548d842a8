package inventory

import "github.com/kbukum/invstream/httpclient/sse"

// Wire event type tags.
const (
	TypeInventory = "inventory"
	TypeUpdate    = "update"
	TypeHeartbeat = "heartbeat"
)

// RawFrame is one SSE frame as received. An empty EventType means the
// frame carried no "event:" field.
type RawFrame struct {
	ID        string
	EventType string
	Data      string
}

// HasType reports whether the frame carried an event type.
func (f RawFrame) HasType() bool {
	return f.EventType != ""
}

// Decode builds a RawFrame from the transport's fields. It never fails and
// does not interpret the payload.
func Decode(id, eventType, data string) RawFrame {
	return RawFrame{ID: id, EventType: eventType, Data: data}
}

// FromSSE adapts a frame read by the SSE reader.
func FromSSE(ev *sse.Event) RawFrame {
	if ev == nil {
		return RawFrame{}
	}
	return Decode(ev.ID, ev.Event, ev.Data)
}
