package xrtc

import (
	"context"
	"iter"
)

// ItemExchange is the operation surface shared by [Session] and
// [ConcurrentSession]. Code that only exchanges items can accept this
// interface and stay agnostic of the concurrency variant.
type ItemExchange interface {
	// SetItems submits a batch of items in one round trip.
	SetItems(ctx context.Context, items []Item) error

	// GetItems polls the given portals and returns a lazy item sequence.
	GetItems(ctx context.Context, portals []Portal, opts ...GetOption) iter.Seq2[Item, error]

	// Close releases the session. Idempotent.
	Close() error
}

var (
	_ ItemExchange = (*Session)(nil)
	_ ItemExchange = (*ConcurrentSession)(nil)
)

// With opens a [Session], runs fn with it, and closes the session on
// every exit path, including a panic inside fn. The session must not be
// retained beyond fn.
//
// Example:
//
//	err := xrtc.With(ctx, func(sess *xrtc.Session) error {
//	    return sess.SetItems(ctx, items)
//	})
func With(ctx context.Context, fn func(*Session) error, opts ...Option) error {
	sess, err := Open(ctx, opts...)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()
	return fn(sess)
}

// WithConcurrent opens a [ConcurrentSession], runs fn with it, and
// closes the session on every exit path, including a panic inside fn.
// Closing cancels any requests fn left in flight.
func WithConcurrent(ctx context.Context, fn func(*ConcurrentSession) error, opts ...Option) error {
	sess, err := OpenConcurrent(ctx, opts...)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()
	return fn(sess)
}
