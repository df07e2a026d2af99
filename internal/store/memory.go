package store

import (
	"sync"
)

// MemoryStore is an in-memory implementation of [Store].
//
// MemoryStore keeps one queue per portal. Appends go to the tail, so a
// queue holds items in arrival order; Drain empties whole queues in the
// requested delivery order. All methods are safe for concurrent use.
type MemoryStore struct {
	mu     sync.Mutex
	queues map[string][]Item
}

// NewMemoryStore creates a new in-memory [Store] implementation.
//
// The store is immediately ready for use. No cleanup is required when done.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		queues: make(map[string][]Item),
	}
}

// Append buffers items at the tail of their portals' queues.
//
// Items land in batch order, so arrival order within a portal matches
// submission order. A batch may span portals.
func (m *MemoryStore) Append(items []Item) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, item := range items {
		m.queues[item.PortalID] = append(m.queues[item.PortalID], item)
	}
}

// Drain removes and returns all items buffered on the given portals.
//
// Portals drain in argument order. Within one portal, newestFirst yields
// the most recently appended item first; otherwise items keep arrival
// order. Draining an unknown or empty portal contributes nothing, and a
// drain with nothing buffered anywhere returns nil.
func (m *MemoryStore) Drain(portalIDs []string, newestFirst bool) []Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	var drained []Item
	for _, id := range portalIDs {
		queue := m.queues[id]
		if len(queue) == 0 {
			continue
		}
		delete(m.queues, id)

		if newestFirst {
			for i := len(queue) - 1; i >= 0; i-- {
				drained = append(drained, queue[i])
			}
		} else {
			drained = append(drained, queue...)
		}
	}
	return drained
}

// Len reports how many items are buffered on one portal.
func (m *MemoryStore) Len(portalID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.queues[portalID])
}
