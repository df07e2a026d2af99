// Package store provides the per-portal item buffers behind the mock
// exchange service.
//
// This package is internal and backs internal/server: set requests append
// to a portal's queue, get requests drain it. The real service owns this
// buffering in production; the in-memory rendition exists so demos and
// manual tests can run without network access.
//
// The main components are:
//
//   - [Store]: Interface defining the append and drain operations
//   - [MemoryStore]: In-memory implementation of Store
//   - [Item]: Storage representation of one buffered item
//
// The store is designed for concurrent access with proper synchronization.
// Drain order follows the service's schedule semantics: newest-first for
// LIFO consumers, arrival order for FIFO.
//
// Users of the xrtc library should not need to interact with this package
// directly.
package store
