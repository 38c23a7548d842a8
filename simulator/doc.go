// Package simulator is an in-memory inventory backend that speaks the same
// stream protocol the client consumes. It serves:
//
//	GET  /v1/inventory/stream      inventory frames, then update and heartbeat frames
//	GET  /v1/inventory             current records
//	GET  /v1/inventory/:productId  one record
//	POST /v1/inventory             publish a full product state
//	POST /v1/streams/disconnect    end open streams so clients reconnect
//	POST /v1/tokens                mint development tokens (opt-in)
//
// Frame ids are store sequence numbers. A stream opened with a Last-Event-ID
// the store knows starts with the products changed after it.
package simulator
