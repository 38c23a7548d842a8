package stream

import "fmt"

// State is the lifecycle state of a session.
//
//	Idle -> Connecting -> Open -> Closing -> Closed
//	Connecting|Open -> Failed
//	Open -> Closed (server ended the stream)
//
// Closed and Failed are terminal.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosing
	StateClosed
	StateFailed
)

var stateNames = [...]string{"idle", "connecting", "open", "closing", "closed", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int32(s))
	}
	return stateNames[s]
}

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	return s == StateClosed || s == StateFailed
}

var transitions = map[State][]State{
	StateIdle:       {StateConnecting},
	StateConnecting: {StateOpen, StateClosing, StateFailed},
	StateOpen:       {StateClosing, StateClosed, StateFailed},
	StateClosing:    {StateClosed},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
