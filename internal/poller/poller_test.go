package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// collect drains a sequence into items and errors, stopping after limit
// items when limit > 0.
func collect(t *testing.T, seq func(func(Item, error) bool), limit int) ([]Item, []error) {
	t.Helper()
	var items []Item
	var errs []error
	seq(func(item Item, err error) bool {
		if err != nil {
			errs = append(errs, err)
			return true
		}
		items = append(items, item)
		return limit <= 0 || len(items) < limit
	})
	return items, errs
}

// TestProbeSingleRound verifies probe performs exactly one round and
// yields its batch in order.
func TestProbeSingleRound(t *testing.T) {
	var rounds atomic.Int32
	round := func(ctx context.Context) ([]Item, error) {
		rounds.Add(1)
		return []Item{
			{PortalID: "a", Payload: "one"},
			{PortalID: "a", Payload: "two"},
		}, nil
	}

	seq := Seq(context.Background(), round, Config{Mode: Probe, Cutoff: -1})
	items, errs := collect(t, seq, 0)

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if got := rounds.Load(); got != 1 {
		t.Errorf("expected 1 round, got %d", got)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Payload != "one" || items[1].Payload != "two" {
		t.Errorf("items out of order: %+v", items)
	}
}

// TestProbeEmptyIsNotAnError verifies an empty probe yields nothing and
// terminates without error.
func TestProbeEmptyIsNotAnError(t *testing.T) {
	round := func(ctx context.Context) ([]Item, error) { return nil, nil }

	seq := Seq(context.Background(), round, Config{Mode: Probe, Cutoff: -1})
	items, errs := collect(t, seq, 0)

	if len(items) != 0 {
		t.Errorf("expected no items, got %v", items)
	}
	if len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
}

// TestWatchRepollsUntilNonEmpty verifies watch re-polls through empty
// rounds with a backoff wait and completes on the first non-empty batch.
func TestWatchRepollsUntilNonEmpty(t *testing.T) {
	const backoff = 20 * time.Millisecond
	var rounds atomic.Int32
	round := func(ctx context.Context) ([]Item, error) {
		if rounds.Add(1) < 3 {
			return nil, nil
		}
		return []Item{{PortalID: "a", Payload: "fresh"}}, nil
	}

	start := time.Now()
	seq := Seq(context.Background(), round, Config{Mode: Watch, Cutoff: -1, Backoff: backoff})
	items, errs := collect(t, seq, 0)
	elapsed := time.Since(start)

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if got := rounds.Load(); got != 3 {
		t.Errorf("expected 3 rounds, got %d", got)
	}
	if len(items) != 1 || items[0].Payload != "fresh" {
		t.Fatalf("expected the fresh item, got %v", items)
	}
	// two empty rounds means two backoff waits
	if elapsed < 2*backoff {
		t.Errorf("expected at least %s of backoff, elapsed %s", 2*backoff, elapsed)
	}
}

// TestWatchReturnsImmediatelyWhenNonEmpty verifies watch with data on
// the first round performs no extra rounds and no wait.
func TestWatchReturnsImmediatelyWhenNonEmpty(t *testing.T) {
	var rounds atomic.Int32
	round := func(ctx context.Context) ([]Item, error) {
		rounds.Add(1)
		return []Item{{PortalID: "a", Payload: "x"}}, nil
	}

	start := time.Now()
	seq := Seq(context.Background(), round, Config{Mode: Watch, Cutoff: -1, Backoff: time.Second})
	items, _ := collect(t, seq, 0)

	if got := rounds.Load(); got != 1 {
		t.Errorf("expected 1 round, got %d", got)
	}
	if len(items) != 1 {
		t.Errorf("expected 1 item, got %d", len(items))
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("watch should not wait after a non-empty round, took %s", elapsed)
	}
}

// TestStreamYieldsAcrossRounds verifies stream keeps polling past
// non-empty batches and re-polls immediately after them.
func TestStreamYieldsAcrossRounds(t *testing.T) {
	var rounds atomic.Int32
	round := func(ctx context.Context) ([]Item, error) {
		n := rounds.Add(1)
		return []Item{{PortalID: "a", Payload: string(rune('0' + n))}}, nil
	}

	start := time.Now()
	// huge backoff: non-empty rounds must not wait
	seq := Seq(context.Background(), round, Config{Mode: Stream, Cutoff: -1, Backoff: 10 * time.Second})
	items, errs := collect(t, seq, 3)

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("stream waited after non-empty rounds, took %s", elapsed)
	}
}

// TestStreamStopsWhenConsumerStopsPulling verifies abandonment: once the
// consumer breaks, no further rounds are issued.
func TestStreamStopsWhenConsumerStopsPulling(t *testing.T) {
	var rounds atomic.Int32
	round := func(ctx context.Context) ([]Item, error) {
		rounds.Add(1)
		return []Item{{PortalID: "a", Payload: "x"}, {PortalID: "a", Payload: "y"}}, nil
	}

	seq := Seq(context.Background(), round, Config{Mode: Stream, Cutoff: -1, Backoff: time.Millisecond})
	// stop mid-batch on the first item
	items, _ := collect(t, seq, 1)

	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	after := rounds.Load()
	time.Sleep(50 * time.Millisecond)
	if got := rounds.Load(); got != after {
		t.Errorf("rounds continued after consumer stopped: %d then %d", after, got)
	}
	if after != 1 {
		t.Errorf("expected exactly 1 round, got %d", after)
	}
}

// TestSeqIsLazy verifies no round trip happens until the sequence is pulled.
func TestSeqIsLazy(t *testing.T) {
	var rounds atomic.Int32
	round := func(ctx context.Context) ([]Item, error) {
		rounds.Add(1)
		return nil, nil
	}

	_ = Seq(context.Background(), round, Config{Mode: Probe, Cutoff: -1})

	time.Sleep(20 * time.Millisecond)
	if got := rounds.Load(); got != 0 {
		t.Errorf("expected no rounds before first pull, got %d", got)
	}
}

// TestCutoffFiltering verifies the staleness boundary: age greater than
// the cutoff is discarded, age equal to the cutoff is kept, and a
// negative cutoff disables filtering.
func TestCutoffFiltering(t *testing.T) {
	now := time.UnixMilli(10_000)
	batch := []Item{
		{PortalID: "a", Payload: "aged-400ms", ServerTimestamp: 9_600},
		{PortalID: "a", Payload: "aged-500ms", ServerTimestamp: 9_500},
		{PortalID: "a", Payload: "aged-600ms", ServerTimestamp: 9_400},
	}

	tests := []struct {
		name   string
		cutoff time.Duration
		want   []string
	}{
		{
			name:   "500ms cutoff keeps boundary and fresher",
			cutoff: 500 * time.Millisecond,
			want:   []string{"aged-400ms", "aged-500ms"},
		},
		{
			name:   "negative cutoff disables filtering",
			cutoff: -1,
			want:   []string{"aged-400ms", "aged-500ms", "aged-600ms"},
		},
		{
			name:   "zero cutoff keeps only age zero",
			cutoff: 0,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			round := func(ctx context.Context) ([]Item, error) { return batch, nil }
			cfg := Config{Mode: Probe, Cutoff: tt.cutoff, Now: func() time.Time { return now }}

			items, errs := collect(t, Seq(context.Background(), round, cfg), 0)
			if len(errs) != 0 {
				t.Fatalf("unexpected errors: %v", errs)
			}
			if len(items) != len(tt.want) {
				t.Fatalf("got %d items, want %d: %v", len(items), len(tt.want), items)
			}
			for i, want := range tt.want {
				if items[i].Payload != want {
					t.Errorf("items[%d].Payload = %q, want %q", i, items[i].Payload, want)
				}
			}
		})
	}
}

// TestWatchWaitsForFreshItem verifies watch treats a fully filtered
// batch as empty and keeps polling for a fresh item.
func TestWatchWaitsForFreshItem(t *testing.T) {
	now := time.UnixMilli(10_000)
	var rounds atomic.Int32
	round := func(ctx context.Context) ([]Item, error) {
		if rounds.Add(1) == 1 {
			// stale leftover only
			return []Item{{PortalID: "a", Payload: "stale", ServerTimestamp: 1_000}}, nil
		}
		return []Item{{PortalID: "a", Payload: "fresh", ServerTimestamp: 9_900}}, nil
	}

	cfg := Config{
		Mode:    Watch,
		Cutoff:  500 * time.Millisecond,
		Backoff: time.Millisecond,
		Now:     func() time.Time { return now },
	}
	items, errs := collect(t, Seq(context.Background(), round, cfg), 0)

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if got := rounds.Load(); got != 2 {
		t.Errorf("expected 2 rounds, got %d", got)
	}
	if len(items) != 1 || items[0].Payload != "fresh" {
		t.Fatalf("expected only the fresh item, got %v", items)
	}
}

// TestRoundErrorEndsSequence verifies a round error is yielded exactly
// once and terminates the sequence, even in stream mode.
func TestRoundErrorEndsSequence(t *testing.T) {
	boom := errors.New("boom")
	var rounds atomic.Int32
	round := func(ctx context.Context) ([]Item, error) {
		rounds.Add(1)
		return nil, boom
	}

	seq := Seq(context.Background(), round, Config{Mode: Stream, Cutoff: -1, Backoff: time.Millisecond})
	items, errs := collect(t, seq, 0)

	if len(items) != 0 {
		t.Errorf("expected no items, got %v", items)
	}
	if len(errs) != 1 || !errors.Is(errs[0], boom) {
		t.Fatalf("expected single boom error, got %v", errs)
	}
	if got := rounds.Load(); got != 1 {
		t.Errorf("expected no retry after error, got %d rounds", got)
	}
}

// TestContextCancelDuringBackoff verifies cancellation interrupts the
// wait between rounds and surfaces the context error.
func TestContextCancelDuringBackoff(t *testing.T) {
	round := func(ctx context.Context) ([]Item, error) { return nil, nil }

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	seq := Seq(ctx, round, Config{Mode: Watch, Cutoff: -1, Backoff: 10 * time.Second})
	_, errs := collect(t, seq, 0)

	if len(errs) != 1 || !errors.Is(errs[0], context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", errs)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("cancellation did not interrupt backoff, took %s", elapsed)
	}
}

// TestCancelledContextYieldsImmediately verifies a dead context produces
// its error without any round trip.
func TestCancelledContextYieldsImmediately(t *testing.T) {
	var rounds atomic.Int32
	round := func(ctx context.Context) ([]Item, error) {
		rounds.Add(1)
		return nil, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, errs := collect(t, Seq(ctx, round, Config{Mode: Probe, Cutoff: -1}), 0)

	if len(errs) != 1 || !errors.Is(errs[0], context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", errs)
	}
	if got := rounds.Load(); got != 0 {
		t.Errorf("expected no rounds, got %d", got)
	}
}
