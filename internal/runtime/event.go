package runtime

import (
	"fmt"
	"time"
)

// AnonymousName is the sentinel display name for connections that report
// themselves as anonymous. Anonymous channels still record events but are
// excluded from the published recordable list.
const AnonymousName = "anonymous"

// Middleware is the capability a channel owner must expose so the store can
// replay a recorded session back into it.
type Middleware interface {
	// StartPlayback is called before the first replayed value is delivered.
	// Owners typically pause live propagation here.
	StartPlayback()

	// StopPlayback is called after the last replayed value (or on
	// cancellation). Owners typically resume live propagation here.
	StopPlayback()

	// Replay delivers one recorded value back into the owner.
	Replay(value any)
}

// Connection identifies one data stream owned by a middleware.
type Connection interface {
	// Name is the display name used in the recordable list.
	Name() string

	// Anonymous reports whether the connection should be hidden from the
	// recordable list.
	Anonymous() bool
}

// Key is the composite identity of a channel: the middleware instance plus
// its connection. Two registrations address the same channel iff both
// components are identical. Key is used as a map key, so Middleware and
// Connection implementations must be comparable (pointer types are).
type Key struct {
	Middleware Middleware
	Connection Connection
}

// RecordKey is the externally addressable projection of a channel: an opaque
// id plus the connection's display name.
type RecordKey struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Payload is the value carried by an Event: either a real recorded value or
// the end-of-session marker. The zero Payload is an end-of-session marker.
type Payload struct {
	value any
	real  bool
}

// Value wraps a recorded value into a Payload.
func Value(v any) Payload {
	return Payload{value: v, real: true}
}

// EndOfSession returns the payload marking the end of a channel's recorded
// session. At replay time it is resolved to the channel's last observed
// value.
func EndOfSession() Payload {
	return Payload{}
}

// Value returns the recorded value and true, or nil and false for an
// end-of-session payload.
func (p Payload) Value() (any, bool) {
	if !p.real {
		return nil, false
	}
	return p.value, true
}

// IsEnd reports whether the payload marks the end of a session.
func (p Payload) IsEnd() bool {
	return !p.real
}

func (p Payload) String() string {
	if p.IsEnd() {
		return "EndOfSession"
	}
	return fmt.Sprintf("Value(%v)", p.value)
}

// Event is one recorded occurrence on a channel: how long after the session
// base timestamp it happened, and what was observed.
type Event struct {
	Delay   time.Duration
	Payload Payload
}
