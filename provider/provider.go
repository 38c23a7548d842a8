package provider

import "context"

// Provider is anything that can be asked for data by name.
type Provider interface {
	Name() string
	// IsAvailable is a cheap local check; it must not do network I/O.
	IsAvailable(ctx context.Context) bool
}

// RequestResponse answers one input with one output: token minting, REST
// calls.
type RequestResponse[I, O any] interface {
	Provider
	Execute(ctx context.Context, input I) (O, error)
}

// Stream answers one input with a sequence of outputs: SSE subscriptions.
type Stream[I, O any] interface {
	Provider
	Execute(ctx context.Context, input I) (Iterator[O], error)
}

// Closeable providers hold pooled resources released by Close.
type Closeable interface {
	Close(ctx context.Context) error
}
