package websocket

import (
	"slices"

	"github.com/nfrund/huddle/internal/protocol"
)

// eventWhitelist holds the inbound event names clients are allowed to send.
// It is fixed at construction and safe for concurrent reads.
type eventWhitelist struct {
	events []string
}

func newEventWhitelist(events ...string) *eventWhitelist {
	valid := make([]string, 0, len(events))
	for _, ev := range events {
		if ev != "" && !slices.Contains(valid, ev) {
			valid = append(valid, ev)
		}
	}
	return &eventWhitelist{events: valid}
}

// defaultEventWhitelist allows every event the chat protocol defines.
func defaultEventWhitelist() *eventWhitelist {
	return newEventWhitelist(
		protocol.InChatMessage,
		protocol.InTyping,
		protocol.InStopTyping,
		protocol.InMessageReaction,
	)
}

// IsAllowed reports whether clients may send event.
func (w *eventWhitelist) IsAllowed(event string) bool {
	return event != "" && slices.Contains(w.events, event)
}
