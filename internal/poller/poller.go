package poller

import (
	"context"
	"iter"
	"time"
)

// DefaultBackoff is the wait between empty polling rounds when the
// caller does not configure one.
const DefaultBackoff = 250 * time.Millisecond

// Mode selects how rounds are repeated within one sequence.
type Mode int

const (
	// Probe performs exactly one round and ends the sequence.
	Probe Mode = iota

	// Watch repeats rounds until at least one item survives filtering,
	// then ends the sequence.
	Watch

	// Stream repeats rounds until the consumer stops pulling.
	Stream
)

// Item is the poller-internal item representation.
//
// This mirrors the public xrtc.Item type, avoiding a circular dependency
// between this package and the main package.
type Item struct {
	// PortalID identifies the portal the item was exchanged on.
	PortalID string

	// Payload is the opaque application data.
	Payload string

	// ServerTimestamp is the service-assigned timestamp in milliseconds.
	ServerTimestamp int64
}

// RoundFunc performs one wire round trip and returns the items the
// service released for the requested portals. An empty batch is a
// normal outcome, not an error.
type RoundFunc func(ctx context.Context) ([]Item, error)

// Config holds the polling parameters for one sequence.
type Config struct {
	// Mode selects the repetition behavior.
	Mode Mode

	// Cutoff is the maximum item age. Items whose age exceeds the cutoff
	// are discarded; age exactly equal to the cutoff is kept. A negative
	// value disables filtering entirely.
	Cutoff time.Duration

	// Backoff is the wait between rounds that produced no items.
	// Zero or negative selects [DefaultBackoff]. Rounds that produced
	// items are never delayed.
	Backoff time.Duration

	// Now supplies the current time for staleness filtering.
	// Defaults to time.Now. Tests substitute a fixed clock.
	Now func() time.Time
}

// Seq returns the pull-driven item sequence for one get call.
//
// The sequence is lazy: no round trip happens until the consumer pulls,
// and ceasing to pull stops all further requests. Each pull performs at
// most one round trip. Items from one response batch are yielded in
// server order before the next round begins.
//
// Any round error, and any context error during a backoff wait, is
// yielded once and ends the sequence. Callers restart by obtaining a
// fresh sequence.
func Seq(ctx context.Context, round RoundFunc, cfg Config) iter.Seq2[Item, error] {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}

	return func(yield func(Item, error) bool) {
		for {
			if err := ctx.Err(); err != nil {
				yield(Item{}, err)
				return
			}

			batch, err := round(ctx)
			if err != nil {
				yield(Item{}, err)
				return
			}

			kept := filterStale(batch, cfg.Cutoff, now())
			for _, item := range kept {
				if !yield(item, nil) {
					return
				}
			}

			switch cfg.Mode {
			case Probe:
				return
			case Watch:
				if len(kept) > 0 {
					return
				}
			case Stream:
				// rounds continue until the consumer stops pulling
			}

			// empty results are re-polled after a bounded wait,
			// never returned as terminal
			if len(kept) == 0 {
				if err := wait(ctx, backoff); err != nil {
					yield(Item{}, err)
					return
				}
			}
		}
	}
}

// filterStale drops items older than the cutoff relative to now.
// A negative cutoff disables filtering.
func filterStale(items []Item, cutoff time.Duration, now time.Time) []Item {
	if cutoff < 0 || len(items) == 0 {
		return items
	}

	nowMillis := now.UnixMilli()
	maxAge := cutoff.Milliseconds()

	kept := make([]Item, 0, len(items))
	for _, item := range items {
		if nowMillis-item.ServerTimestamp > maxAge {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

// wait sleeps for d or until the context is cancelled.
func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
