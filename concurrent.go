package xrtc

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/xrtc-org/xrtc-go/internal/poller"
)

// ConcurrentSession is the concurrent variant of an item-exchange
// session, safe for use from multiple goroutines.
//
// Every round trip is a natural suspension point: a producer goroutine
// calling [ConcurrentSession.SetItems] and a consumer goroutine ranging
// [ConcurrentSession.Stream] interleave on the scheduler while requests
// are in flight. A semaphore caps simultaneous round trips (default 6,
// see [WithMaxInflight]), and a session-scoped context cancels all
// in-flight requests on [ConcurrentSession.Close].
//
// Requests issued by a single goroutine complete in issuance order;
// ordering across goroutines is not defined.
type ConcurrentSession struct {
	sess  *Session
	slots chan struct{}

	// lifecycle context, cancelled on Close
	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
}

// OpenConcurrent resolves credentials, performs the login round trip,
// and returns an authenticated [ConcurrentSession].
//
// Configuration, credential resolution, and failure modes match [Open].
// The request timeout default is 20 seconds, covering whole round trips
// under concurrent load.
//
// Example:
//
//	sess, err := xrtc.OpenConcurrent(ctx, xrtc.WithMaxInflight(2))
//	if err != nil {
//	    return err
//	}
//	defer sess.Close()
//
//	go producer(ctx, sess)
//	items, errs := sess.Stream(ctx, portals, xrtc.WithMode(xrtc.ModeStream))
func OpenConcurrent(ctx context.Context, opts ...Option) (*ConcurrentSession, error) {
	sess, cfg, err := openSession(ctx, opts, defaultConcurrentRequestTimeout)
	if err != nil {
		return nil, err
	}

	lifecycle, cancel := context.WithCancel(context.Background())
	return &ConcurrentSession{
		sess:   sess,
		slots:  make(chan struct{}, cfg.maxInflight),
		ctx:    lifecycle,
		cancel: cancel,
	}, nil
}

// LoginTime returns the service clock at the moment the session was
// established. See [Session.LoginTime].
func (c *ConcurrentSession) LoginTime() time.Time {
	return c.sess.LoginTime()
}

// SetItems submits a batch of items in one round trip. Semantics match
// [Session.SetItems]; calls from multiple goroutines are safe and are
// serialized by the in-flight semaphore.
func (c *ConcurrentSession) SetItems(ctx context.Context, items []Item) error {
	release, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	opCtx, done := c.scoped(ctx)
	defer done()
	return c.sess.SetItems(opCtx, items)
}

// GetItems polls the given portals and returns a lazy item sequence.
// Semantics match [Session.GetItems]; each polling round holds one
// in-flight slot for its duration, so a long watch does not starve
// concurrent producers of the session.
//
// The returned sequence itself must be consumed by a single goroutine;
// obtain one sequence per consumer.
func (c *ConcurrentSession) GetItems(ctx context.Context, portals []Portal, opts ...GetOption) iter.Seq2[Item, error] {
	cfg, round, err := c.sess.buildGetRound(portals, opts)
	if err != nil {
		return errSeq(err)
	}

	guarded := func(roundCtx context.Context) ([]poller.Item, error) {
		release, err := c.acquire(roundCtx)
		if err != nil {
			return nil, err
		}
		defer release()

		opCtx, done := c.scoped(roundCtx)
		defer done()
		return round(opCtx)
	}

	return convertSeq(poller.Seq(ctx, guarded, cfg))
}

// Stream runs a get in a background goroutine and delivers its items on
// a channel, for consumers that select over several sources.
//
// The items channel is unbuffered: the polling goroutine never runs
// ahead of the consumer, and abandoning the consumer stops further
// requests once the context is cancelled or the session is closed. On
// any failure, the error is delivered on the second channel and both
// channels are closed. The channels are closed when the underlying
// sequence ends.
//
// Example:
//
//	items, errs := sess.Stream(ctx, portals,
//	    xrtc.WithMode(xrtc.ModeStream),
//	    xrtc.WithCutoff(time.Second),
//	)
//	for {
//	    select {
//	    case item, ok := <-items:
//	        if !ok {
//	            return <-errs
//	        }
//	        process(item)
//	    case <-ctx.Done():
//	        return ctx.Err()
//	    }
//	}
func (c *ConcurrentSession) Stream(ctx context.Context, portals []Portal, opts ...GetOption) (<-chan Item, <-chan error) {
	items := make(chan Item)
	errs := make(chan error, 1)

	go func() {
		defer close(items)
		defer close(errs)

		for item, err := range c.GetItems(ctx, portals, opts...) {
			if err != nil {
				errs <- err
				return
			}
			select {
			case items <- item:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			case <-c.ctx.Done():
				errs <- ErrSessionClosed
				return
			}
		}
	}()

	return items, errs
}

// Close cancels all in-flight requests and releases the session's
// connections. Close is idempotent and safe to call concurrently with
// running operations; any operation after Close fails with
// [ErrSessionClosed].
func (c *ConcurrentSession) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		_ = c.sess.Close()
	})
	return nil
}

// acquire takes an in-flight slot, honoring both the caller's context
// and session teardown.
func (c *ConcurrentSession) acquire(ctx context.Context) (release func(), err error) {
	if err := c.sess.active(); err != nil {
		return nil, err
	}
	select {
	case c.slots <- struct{}{}:
		return func() { <-c.slots }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.ctx.Done():
		return nil, ErrSessionClosed
	}
}

// scoped derives a request context that is additionally cancelled by
// session teardown, so Close interrupts in-flight round trips.
func (c *ConcurrentSession) scoped(ctx context.Context) (context.Context, context.CancelFunc) {
	opCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.ctx, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}
}
