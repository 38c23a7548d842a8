package provider

import (
	"context"
	"iter"
)

// Iterator is a pull cursor. Next returns (zero, false, nil) once the
// sequence is exhausted and (zero, false, err) when it failed. Callers
// must Close it.
type Iterator[T any] interface {
	Next(ctx context.Context) (T, bool, error)
	Close() error
}

// All adapts it to a range-over-func sequence. A failure is yielded once as
// (zero, err) and ends the sequence. All does not close it.
func All[T any](ctx context.Context, it Iterator[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			v, more, err := it.Next(ctx)
			switch {
			case err != nil:
				yield(v, err)
				return
			case !more:
				return
			case !yield(v, nil):
				return
			}
		}
	}
}

// Drain reads it to the end and closes it. On failure the values read so
// far are returned with the error.
func Drain[T any](ctx context.Context, it Iterator[T]) (out []T, err error) {
	defer func() { _ = it.Close() }()
	for v, err := range All(ctx, it) {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}
