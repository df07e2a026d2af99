// Package poller implements the polling state machine behind GetItems.
//
// This package is internal to the xrtc client and owns the per-call
// polling semantics: how many wire round trips a get performs, when it
// waits between rounds, and which items survive staleness filtering.
// The actual round trip (encode, POST, decode) is supplied by the caller
// as a [RoundFunc], keeping this package free of HTTP and wire-format
// concerns.
//
// The main components are:
//
//   - [Seq]: produces the pull-driven item sequence for one get call
//   - [Config]: mode, cutoff, and backoff for a sequence
//   - [Item]: the poller-internal item representation
//
// Users of the xrtc library should not need to interact with this
// package directly. Polling is configured through GetItems options in
// the main xrtc package.
package poller
