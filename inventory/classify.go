package inventory

import "fmt"

// CauseUnknownType is the DecodeError cause for frames of an unrecognized
// or absent event type.
const CauseUnknownType = "unknown event type"

// Classify maps a frame to its domain event. It never panics: any failure,
// including a panic while decoding, becomes a DecodeError.
func Classify(f RawFrame) (ev Event) {
	defer func() {
		if r := recover(); r != nil {
			ev = decodeError(f, fmt.Sprintf("panic while decoding: %v", r))
		}
	}()

	switch f.EventType {
	case TypeInventory:
		state, err := DecodeState(f.Data)
		if err != nil {
			return decodeError(f, err.Error())
		}
		return Snapshot{ID: f.ID, State: state}
	case TypeUpdate:
		state, err := DecodeState(f.Data)
		if err != nil {
			return decodeError(f, err.Error())
		}
		return Update{ID: f.ID, State: state}
	case TypeHeartbeat:
		return Heartbeat{ID: f.ID}
	default:
		return decodeError(f, CauseUnknownType)
	}
}

func decodeError(f RawFrame, cause string) DecodeError {
	return DecodeError{ID: f.ID, RawType: f.EventType, RawData: f.Data, Cause: cause}
}
