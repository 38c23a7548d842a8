// Package inventory turns raw Server-Sent Events frames from the inventory
// backend into typed domain events.
//
// Decode normalizes a frame; Classify maps it to one of Snapshot, Update,
// Heartbeat or DecodeError. Both are pure and safe for concurrent use.
// Classify never panics and never returns a Go error: a malformed or unknown
// frame becomes a DecodeError value so one bad frame cannot end a stream.
//
//	frame := inventory.Decode("42", "update", `{"productId":"P1",...}`)
//	switch ev := inventory.Classify(frame).(type) {
//	case inventory.Snapshot:
//	case inventory.Update:
//	case inventory.Heartbeat:
//	case inventory.DecodeError:
//	}
package inventory
