package store

// Item is the storage representation of one buffered item.
//
// Item carries the wire field names directly so the mock service can
// serialize get responses without a translation layer. It is decoupled
// from the client's public types to allow independent evolution.
type Item struct {
	// PortalID identifies the portal the item is buffered on.
	PortalID string `json:"portalid"`

	// Payload is the opaque application data.
	Payload string `json:"payload"`

	// ServerTimestamp is the acceptance time in milliseconds, assigned
	// when the item enters the buffer.
	ServerTimestamp int64 `json:"servertimestamp"`
}

// Store defines the interface for buffering items between set and get
// calls.
//
// Store implementations must be safe for concurrent access: the mock
// service appends and drains from whatever goroutines the HTTP server
// dispatches.
type Store interface {
	// Append buffers items at the tail of their portals' queues, in
	// batch order.
	Append(items []Item)

	// Drain removes and returns everything buffered on the given
	// portals. Portals drain in argument order; within one portal,
	// newestFirst selects between newest-first and arrival order.
	// Unknown portals contribute nothing.
	Drain(portalIDs []string, newestFirst bool) []Item

	// Len reports how many items are buffered on one portal.
	Len(portalID string) int
}
