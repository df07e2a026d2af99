package xrtc

// Mode selects the polling behavior of a get call.
//
// Mode is a string type that can hold one of three predefined values:
// [ModeProbe], [ModeWatch], or [ModeStream]. Using a string type keeps
// logging and configuration files human-readable while maintaining type
// safety through the defined constants.
type Mode string

const (
	// ModeProbe performs a single round trip and returns whatever items
	// the service released, possibly none. This is the default.
	ModeProbe Mode = "probe"

	// ModeWatch re-polls until at least one item survives staleness
	// filtering, waiting a bounded backoff between empty rounds.
	ModeWatch Mode = "watch"

	// ModeStream re-polls indefinitely, yielding every item from every
	// response, until the consumer stops pulling.
	ModeStream Mode = "stream"
)

// String returns the string representation of the mode.
// This implements the fmt.Stringer interface.
func (m Mode) String() string {
	return string(m)
}

// valid reports whether the mode is one of the defined constants.
func (m Mode) valid() bool {
	switch m {
	case ModeProbe, ModeWatch, ModeStream:
		return true
	}
	return false
}

// Schedule selects the order in which the service drains items buffered
// on a portal.
type Schedule string

const (
	// ScheduleLIFO drains the freshest items first. This is the default
	// and suits latency-sensitive consumers that pair it with a cutoff.
	ScheduleLIFO Schedule = "LIFO"

	// ScheduleFIFO drains items in arrival order.
	ScheduleFIFO Schedule = "FIFO"
)

// String returns the string representation of the schedule.
// This implements the fmt.Stringer interface.
func (s Schedule) String() string {
	return string(s)
}

// valid reports whether the schedule is one of the defined constants.
func (s Schedule) valid() bool {
	switch s {
	case ScheduleLIFO, ScheduleFIFO:
		return true
	}
	return false
}

// Portal identifies a logical channel that items are exchanged on.
// Portal identifiers are opaque to the client; the service defines
// their namespace.
type Portal struct {
	// ID is the portal identifier. Must be non-empty.
	ID string `json:"portalid"`
}

// Item is one opaque payload exchanged on a portal.
//
// Items submitted with SetItems carry only PortalID and Payload.
// Items returned by GetItems additionally carry the service-assigned
// ServerTimestamp, which the staleness cutoff filters on.
type Item struct {
	// PortalID identifies the portal the item travels on. Must be
	// non-empty when submitting.
	PortalID string `json:"portalid"`

	// Payload is the opaque application data. The client never
	// interprets it.
	Payload string `json:"payload"`

	// ServerTimestamp is the moment the service accepted the item, in
	// milliseconds, monotonic per portal. Assigned by the service;
	// ignored on submission.
	ServerTimestamp int64 `json:"servertimestamp"`
}

// Age returns the item's age in milliseconds relative to the given
// reference time in milliseconds. Negative when the reference lags the
// service clock.
func (i Item) Age(nowMillis int64) int64 {
	return nowMillis - i.ServerTimestamp
}
