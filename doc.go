// Package xrtc provides the client SDK for the XRTC item-exchange
// service: producers push opaque payloads tagged with a portal
// identifier, and consumers pull them back with latency-sensitive
// polling semantics.
//
// The SDK is session-oriented. A session authenticates once via the
// login endpoint and rides the resulting session cookie for all item
// traffic. Two variants cover the two concurrency models: [Session]
// blocks the calling goroutine per operation, and [ConcurrentSession]
// is safe for concurrent producers and consumers sharing one session.
//
// # Quick Start
//
// Credentials resolve from explicit options, a credentials file, or the
// ACCOUNT_ID and API_KEY environment variables, in that order:
//
//	sess, err := xrtc.Open(ctx)
//	if err != nil {
//	    slog.Error("failed to open session", "error", err)
//	    os.Exit(1)
//	}
//	defer sess.Close()
//
//	err = sess.SetItems(ctx, []xrtc.Item{
//	    {PortalID: "telemetry", Payload: `{"sensor":42}`},
//	})
//
// Receiving is a lazy pull: GetItems returns an iterator that performs
// at most one round trip per pull, and breaking out of the loop stops
// all further requests:
//
//	portals := []xrtc.Portal{{ID: "telemetry"}}
//	for item, err := range sess.GetItems(ctx, portals) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(item.Payload)
//	}
//
// # Polling Modes
//
// A get call runs in one of three modes, selected with [WithMode]:
//
//   - [ModeProbe] (default): one round trip, returning whatever items
//     the service released, possibly none.
//   - [ModeWatch]: re-polls with a bounded backoff until at least one
//     item arrives, for wait-for-fresh consumers.
//   - [ModeStream]: re-polls indefinitely, yielding items as they
//     arrive, until the consumer stops pulling.
//
// [WithCutoff] bounds item staleness: items whose age exceeds the
// cutoff are discarded client-side, and a watch keeps waiting until a
// fresh item survives. [WithSchedule] selects the service's drain order
// (LIFO by default, suited to latency-sensitive consumers).
//
// # Resource Scoping
//
// [With] and [WithConcurrent] bound a session to a function, closing it
// on every exit path:
//
//	err := xrtc.With(ctx, func(sess *xrtc.Session) error {
//	    return sess.SetItems(ctx, items)
//	})
//
// # Errors
//
// Failures are discriminated with errors.Is and errors.As:
//
//   - [ErrMissingCredentials]: no credential source produced a value
//   - [ErrSessionClosed]: operation on a closed session
//   - [ValidationError]: request rejected before any network activity
//   - [TransportError]: network failure, timeout, or non-200 status;
//     wraps an [APIError] when the service returned a structured body
//   - [DecodeError]: a 200 response whose body was unreadable, distinct
//     from an empty result
//
// The SDK never retries silently: watch and stream re-poll only on
// empty results, never on errors, so persistent failures surface
// immediately.
//
// # Architecture
//
// The package is organized around two internal packages:
//
//   - internal/poller: the polling state machine (mode loops, backoff,
//     staleness filtering) behind GetItems
//   - internal/dotenv: the KEY=VALUE credentials file reader
//
// The internal packages are not part of the public API and may change
// without notice. The cmd/xrtc binary wraps the SDK for shell use, and
// example/ contains a runnable demo against an in-process mock service.
package xrtc
