// Package peek implements the Peekable Receiver: a thin
// wrapper around a bounded channel that lets a consumer look at the next
// element without removing it, so the Send Loop can ask "how big is the
// next block" before committing to consume it.
package peek

import (
	"context"
	"errors"
)

// ErrClosed is returned by Peek (and by Next when nothing was peeked and
// nothing further is coming) once the underlying channel has closed with no
// buffered element left to hand out.
var ErrClosed = errors.New("peek: channel closed")

// Receiver wraps a receive-only channel of T, buffering at most one
// peeked-but-not-yet-consumed element. It is intended for single-consumer
// use (one Send Loop per cache), matching the channel's own single-consumer
// contract; concurrent callers must supply their own serialization.
type Receiver[T any] struct {
	ch      <-chan T
	peeked  *T
	hasPeek bool
}

// New wraps ch in a Receiver.
func New[T any](ch <-chan T) *Receiver[T] {
	return &Receiver[T]{ch: ch}
}

// Peek returns the next element without removing it. Repeated calls to Peek
// (with no intervening Next) return the identical element — no reordering,
// no re-draw from the channel. Returns ErrClosed if the channel has closed
// and nothing was or could be buffered.
func (r *Receiver[T]) Peek(ctx context.Context) (T, error) {
	var zero T
	if r.hasPeek {
		return *r.peeked, nil
	}
	select {
	case v, ok := <-r.ch:
		if !ok {
			return zero, ErrClosed
		}
		r.peeked = &v
		r.hasPeek = true
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Next consumes the previously-peeked element if one is buffered, otherwise
// waits for and consumes the next incoming element directly. A Peek
// followed by any number of further Peeks followed by one Next always
// yields the same element Peek returned.
func (r *Receiver[T]) Next(ctx context.Context) (T, error) {
	var zero T
	if r.hasPeek {
		v := *r.peeked
		r.peeked = nil
		r.hasPeek = false
		return v, nil
	}
	select {
	case v, ok := <-r.ch:
		if !ok {
			return zero, ErrClosed
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
