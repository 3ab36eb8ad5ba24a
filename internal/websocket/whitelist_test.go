package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nfrund/huddle/internal/protocol"
)

func TestEventWhitelist_IsAllowed(t *testing.T) {
	tests := []struct {
		name     string
		events   []string
		event    string
		expected bool
	}{
		{"empty whitelist", []string{}, protocol.InChatMessage, false},
		{"event exists", []string{protocol.InChatMessage, protocol.InTyping}, protocol.InChatMessage, true},
		{"event does not exist", []string{protocol.InChatMessage}, "init", false},
		{"empty event", []string{protocol.InChatMessage}, "", false},
		{"empty names filtered", []string{"", protocol.InTyping}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wl := newEventWhitelist(tt.events...)
			assert.Equal(t, tt.expected, wl.IsAllowed(tt.event))
		})
	}
}

func TestEventWhitelist_Default(t *testing.T) {
	wl := defaultEventWhitelist()
	for _, ev := range []string{protocol.InChatMessage, protocol.InTyping, protocol.InStopTyping, protocol.InMessageReaction} {
		assert.True(t, wl.IsAllowed(ev), ev)
	}
	assert.False(t, wl.IsAllowed("user joined"), "server-only events must not be accepted")
	assert.Len(t, newEventWhitelist(protocol.InTyping, protocol.InTyping).events, 1)
}
