package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/huddle/internal/domain"
	"github.com/nfrund/huddle/internal/session"
)

func TestEncode(t *testing.T) {
	data, err := Encode(session.EventUserLeft, "alice", []domain.Identity{{ConnID: "secret", Name: "bob", Color: "#fff"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"user left","args":["alice",[{"name":"bob","color":"#fff"}]]}`, string(data))
	assert.NotContains(t, string(data), "secret", "connection ids never leave the server")
}

func TestEncode_NoArgs(t *testing.T) {
	data, err := EncodeEnvelope(session.Envelope{Event: session.EventClearChat, To: session.Only("a")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"clear chat","args":[]}`, string(data))
}

func TestEncode_Message(t *testing.T) {
	msg := domain.Message{
		ID:        42,
		User:      domain.Author{Name: "alice", Color: "#e57373"},
		Text:      "hi",
		Reactions: map[string]domain.ReactionSet{"👍": {"bob": {}}},
	}
	data, err := Encode(session.EventChatMessage, msg)
	require.NoError(t, err)

	var f Frame
	require.NoError(t, json.Unmarshal(data, &f))
	require.Len(t, f.Args, 1)

	var got map[string]any
	require.NoError(t, json.Unmarshal(f.Args[0], &got))
	assert.EqualValues(t, 42, got["id"])
	assert.Equal(t, map[string]any{"name": "alice", "color": "#e57373"}, got["user"])
	assert.Equal(t, map[string]any{"👍": []any{"bob"}}, got["reactions"])
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want session.Event
	}{
		{"chat", `{"event":"chat message","args":["hello"]}`, session.ChatInput{ConnID: "c", Text: "hello"}},
		{"typing", `{"event":"typing"}`, session.TypingStart{ConnID: "c"}},
		{"stop typing", `{"event":"stop typing","args":[]}`, session.TypingStop{ConnID: "c"}},
		{"reaction", `{"event":"message reaction","args":[1714564800000,"👍"]}`, session.React{ConnID: "c", MessageID: 1714564800000, Symbol: "👍"}},
		{"reaction string id", `{"event":"message reaction","args":["17","❤️"]}`, session.React{ConnID: "c", MessageID: 17, Symbol: "❤️"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode("c", []byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"not json", `hello`, ErrMalformedFrame},
		{"no event", `{"args":[]}`, ErrMalformedFrame},
		{"missing text", `{"event":"chat message"}`, ErrMalformedFrame},
		{"text not string", `{"event":"chat message","args":[5]}`, ErrMalformedFrame},
		{"bad id", `{"event":"message reaction","args":["abc","👍"]}`, ErrMalformedFrame},
		{"missing symbol", `{"event":"message reaction","args":[1]}`, ErrMalformedFrame},
		{"unknown", `{"event":"init","args":[]}`, ErrUnknownEvent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode("c", []byte(tt.raw))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
