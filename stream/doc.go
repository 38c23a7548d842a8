// Package stream consumes the inventory event stream.
//
// Connect opens one SSE session and returns a Handle. Frames are decoded and
// classified in a reader goroutine and handed to the consumer in arrival order
// through a bounded queue; a full queue stops reading from the socket.
//
//	h, err := stream.Connect(ctx, "https://api.example.com/v1/inventory/stream", token)
//	if err != nil {
//		return err
//	}
//	defer h.Close()
//	for ev, err := range h.Events() {
//		if err != nil {
//			return err // terminal, reported once
//		}
//		switch ev := ev.(type) {
//		case inventory.Snapshot:
//			apply(ev.State)
//		case inventory.Update:
//			apply(ev.State)
//		case inventory.DecodeError:
//			// the session keeps running
//		}
//	}
//
// A session never reconnects. Client.Follow wraps repeated sessions with
// backoff and Last-Event-ID resumption.
package stream
