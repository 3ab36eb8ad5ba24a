package session

import "context"

// Outbound event names, as seen by clients.
const (
	EventInit             = "init"
	EventChatMessage      = "chat message"
	EventUserJoined       = "user joined"
	EventUserLeft         = "user left"
	EventUserCount        = "user count"
	EventUserTyping       = "user typing"
	EventUserRenamed      = "user renamed"
	EventUserColorChanged = "user color changed"
	EventClearChat        = "clear chat"
	EventMessageReaction  = "message reaction"
	EventRejected         = "rejected"
)

// Scope selects which connections receive an envelope.
type Scope int

const (
	// ScopeAll delivers to every connection.
	ScopeAll Scope = iota
	// ScopeOthers delivers to every connection except Audience.ConnID.
	ScopeOthers
	// ScopeOnly delivers to Audience.ConnID alone.
	ScopeOnly
)

func (s Scope) String() string {
	switch s {
	case ScopeAll:
		return "all"
	case ScopeOthers:
		return "others"
	case ScopeOnly:
		return "only"
	default:
		return "unknown"
	}
}

// ParseScope is the inverse of Scope.String.
func ParseScope(s string) (Scope, bool) {
	switch s {
	case "all":
		return ScopeAll, true
	case "others":
		return ScopeOthers, true
	case "only":
		return ScopeOnly, true
	default:
		return 0, false
	}
}

// Audience is the set of connections an envelope is for.
type Audience struct {
	Scope  Scope
	ConnID string
}

// Everyone addresses all connections.
func Everyone() Audience { return Audience{Scope: ScopeAll} }

// AllExcept addresses all connections but connID.
func AllExcept(connID string) Audience { return Audience{Scope: ScopeOthers, ConnID: connID} }

// Only addresses connID alone.
func Only(connID string) Audience { return Audience{Scope: ScopeOnly, ConnID: connID} }

// Includes reports whether connID is part of the audience.
func (a Audience) Includes(connID string) bool {
	switch a.Scope {
	case ScopeAll:
		return true
	case ScopeOthers:
		return connID != a.ConnID
	case ScopeOnly:
		return connID == a.ConnID
	default:
		return false
	}
}

// Envelope is one outbound event with its positional arguments.
type Envelope struct {
	Event string
	Args  []any
	To    Audience
}

// Dispatcher delivers envelopes to connections. Delivery is best effort: the
// engine logs a returned error and moves on.
type Dispatcher interface {
	Dispatch(ctx context.Context, env Envelope) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, env Envelope) error

// Dispatch calls f.
func (f DispatcherFunc) Dispatch(ctx context.Context, env Envelope) error {
	return f(ctx, env)
}

// Rejection is the payload of the opt-in "rejected" event.
type Rejection struct {
	Reason string `json:"reason"`
	Input  string `json:"input,omitempty"`
}

// Rejection reasons.
const (
	ReasonInvalidName    = "invalid_name"
	ReasonTooLong        = "message_too_long"
	ReasonEmpty          = "empty_message"
	ReasonUnknownMessage = "unknown_message"
)
