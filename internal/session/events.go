package session

import "github.com/nfrund/huddle/internal/domain"

// Event is an inbound occurrence on one connection, processed by the engine
// loop one at a time.
type Event interface {
	ConnectionID() string
}

// Connect asks the engine to admit a connection. The outcome is delivered on
// reply; see Engine.Connect.
type Connect struct {
	ConnID   string
	Username string
	reply    chan connectResult
}

type connectResult struct {
	identity domain.Identity
	err      error
}

// Disconnect reports that the transport lost a connection.
type Disconnect struct{ ConnID string }

// ChatInput is a "chat message" submission; it may turn out to be a command.
type ChatInput struct {
	ConnID string
	Text   string
}

// TypingStart is the "typing" signal.
type TypingStart struct{ ConnID string }

// TypingStop is the "stop typing" signal.
type TypingStop struct{ ConnID string }

// React toggles the sender's reaction on a message.
type React struct {
	ConnID    string
	MessageID int64
	Symbol    string
}

func (e Connect) ConnectionID() string     { return e.ConnID }
func (e Disconnect) ConnectionID() string  { return e.ConnID }
func (e ChatInput) ConnectionID() string   { return e.ConnID }
func (e TypingStart) ConnectionID() string { return e.ConnID }
func (e TypingStop) ConnectionID() string  { return e.ConnID }
func (e React) ConnectionID() string       { return e.ConnID }
