package stream

import "testing"

func TestState_String(t *testing.T) {
	tests := map[State]string{
		StateIdle:       "idle",
		StateConnecting: "connecting",
		StateOpen:       "open",
		StateClosing:    "closing",
		StateClosed:     "closed",
		StateFailed:     "failed",
		State(42):       "state(42)",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", int32(s), s.String(), want)
		}
	}
}

func TestState_Transitions(t *testing.T) {
	tests := []struct {
		from, to State
		ok       bool
	}{
		{StateIdle, StateConnecting, true},
		{StateConnecting, StateOpen, true},
		{StateConnecting, StateClosing, true},
		{StateConnecting, StateFailed, true},
		{StateOpen, StateClosing, true},
		{StateOpen, StateClosed, true},
		{StateOpen, StateFailed, true},
		{StateClosing, StateClosed, true},

		{StateIdle, StateOpen, false},
		{StateConnecting, StateClosed, false},
		{StateClosing, StateFailed, false},
		{StateClosing, StateOpen, false},
		{StateClosed, StateConnecting, false},
		{StateFailed, StateClosed, false},
		{StateFailed, StateConnecting, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.ok {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.ok)
		}
	}
}

func TestState_IsTerminal(t *testing.T) {
	for _, s := range []State{StateIdle, StateConnecting, StateOpen, StateClosing, StateClosed, StateFailed} {
		want := s == StateClosed || s == StateFailed
		if s.IsTerminal() != want {
			t.Errorf("%s.IsTerminal() = %v", s, s.IsTerminal())
		}
	}
}
