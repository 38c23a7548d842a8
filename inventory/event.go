package inventory

// Kind identifies an Event variant.
type Kind string

const (
	KindSnapshot    Kind = "snapshot"
	KindUpdate      Kind = "update"
	KindHeartbeat   Kind = "heartbeat"
	KindDecodeError Kind = "decode_error"
)

// Event is a classified inventory frame. The set of variants is closed:
// Snapshot, Update, Heartbeat and DecodeError.
type Event interface {
	Kind() Kind
	// FrameID is the SSE id of the originating frame, empty when absent.
	FrameID() string
	isEvent()
}

// Snapshot carries the full state of one product.
type Snapshot struct {
	ID    string
	State State
}

// Update carries the new state of one product after a change.
type Update struct {
	ID    string
	State State
}

// Heartbeat proves the connection is alive. It has no payload.
type Heartbeat struct {
	ID string
}

// DecodeError reports a frame that could not be classified or parsed.
// It is informational and never ends the stream.
type DecodeError struct {
	ID      string
	RawType string
	RawData string
	Cause   string
}

func (Snapshot) Kind() Kind    { return KindSnapshot }
func (Update) Kind() Kind      { return KindUpdate }
func (Heartbeat) Kind() Kind   { return KindHeartbeat }
func (DecodeError) Kind() Kind { return KindDecodeError }

func (e Snapshot) FrameID() string    { return e.ID }
func (e Update) FrameID() string      { return e.ID }
func (e Heartbeat) FrameID() string   { return e.ID }
func (e DecodeError) FrameID() string { return e.ID }

func (Snapshot) isEvent()    {}
func (Update) isEvent()      {}
func (Heartbeat) isEvent()   {}
func (DecodeError) isEvent() {}

// StateOf returns the product state carried by e, if any.
func StateOf(e Event) (State, bool) {
	switch ev := e.(type) {
	case Snapshot:
		return ev.State, true
	case Update:
		return ev.State, true
	default:
		return State{}, false
	}
}
