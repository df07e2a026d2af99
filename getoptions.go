package xrtc

import (
	"fmt"
	"time"
)

// getConfig holds the per-call polling parameters of a get.
type getConfig struct {
	mode     Mode
	cutoff   time.Duration // negative disables staleness filtering
	schedule Schedule
}

// newGetConfig returns the defaults every get call starts from:
// a single probe, no cutoff, LIFO drain order.
func newGetConfig() getConfig {
	return getConfig{
		mode:     ModeProbe,
		cutoff:   -1,
		schedule: ScheduleLIFO,
	}
}

// GetOption is a function that configures a single GetItems or Stream
// call. Options return an error if validation fails; the error is
// yielded on the first pull of the returned sequence.
type GetOption func(*getConfig) error

// WithMode selects the polling mode for this call. Defaults to
// [ModeProbe].
//
// Example:
//
//	for item, err := range sess.GetItems(ctx, portals, xrtc.WithMode(xrtc.ModeWatch)) {
//	    ...
//	}
//
// Returns an error if the mode is not one of the defined constants.
func WithMode(m Mode) GetOption {
	return func(cfg *getConfig) error {
		if !m.valid() {
			return fmt.Errorf("unknown mode %q", m)
		}
		cfg.mode = m
		return nil
	}
}

// WithCutoff discards items older than the given age. An item is
// discarded when, at the moment its response lands, now minus the
// item's server timestamp exceeds the cutoff; an age exactly equal to
// the cutoff is kept. Filtering applies in every mode, and in watch
// mode the call keeps polling until an item survives it.
//
// Wire timestamps carry millisecond granularity, so cutoffs finer than
// a millisecond are not meaningful. Without this option, arbitrarily
// old buffered items may be returned.
//
// Returns an error if the duration is negative.
func WithCutoff(d time.Duration) GetOption {
	return func(cfg *getConfig) error {
		if d < 0 {
			return fmt.Errorf("cutoff cannot be negative, got %s", d)
		}
		cfg.cutoff = d
		return nil
	}
}

// WithSchedule selects the order in which the service drains buffered
// items on each polled portal. Defaults to [ScheduleLIFO].
//
// Returns an error if the schedule is not one of the defined constants.
func WithSchedule(s Schedule) GetOption {
	return func(cfg *getConfig) error {
		if !s.valid() {
			return fmt.Errorf("unknown schedule %q", s)
		}
		cfg.schedule = s
		return nil
	}
}
