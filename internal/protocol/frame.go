// Package protocol defines the JSON frames exchanged over a websocket. Each
// frame names an event and carries positional arguments, so one socket message
// maps to one emitted event on either side.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/nfrund/huddle/internal/session"
)

// Inbound event names.
const (
	InChatMessage     = "chat message"
	InTyping          = "typing"
	InStopTyping      = "stop typing"
	InMessageReaction = "message reaction"
)

var (
	// ErrMalformedFrame is returned for frames that are not valid JSON or whose
	// arguments do not match the event.
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrUnknownEvent is returned for event names the server does not accept.
	ErrUnknownEvent = errors.New("unknown event")
)

// Frame is the wire representation of one event.
type Frame struct {
	Event string            `json:"event"`
	Args  []json.RawMessage `json:"args"`
}

// Encode marshals an event and its arguments into a frame.
func Encode(event string, args ...any) ([]byte, error) {
	f := Frame{Event: event, Args: make([]json.RawMessage, 0, len(args))}
	for i, arg := range args {
		raw, err := json.Marshal(arg)
		if err != nil {
			return nil, fmt.Errorf("encode %q arg %d: %w", event, i, err)
		}
		f.Args = append(f.Args, raw)
	}
	return json.Marshal(f)
}

// EncodeEnvelope marshals an engine envelope.
func EncodeEnvelope(env session.Envelope) ([]byte, error) {
	return Encode(env.Event, env.Args...)
}

// DecodeFrame parses raw bytes into a frame.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if f.Event == "" {
		return Frame{}, fmt.Errorf("%w: missing event name", ErrMalformedFrame)
	}
	return f, nil
}

// Decode turns a client frame into the engine event for connID.
func Decode(connID string, data []byte) (session.Event, error) {
	f, err := DecodeFrame(data)
	if err != nil {
		return nil, err
	}

	switch f.Event {
	case InChatMessage:
		var text string
		if err := f.arg(0, &text); err != nil {
			return nil, err
		}
		return session.ChatInput{ConnID: connID, Text: text}, nil

	case InTyping:
		return session.TypingStart{ConnID: connID}, nil

	case InStopTyping:
		return session.TypingStop{ConnID: connID}, nil

	case InMessageReaction:
		id, err := f.messageID(0)
		if err != nil {
			return nil, err
		}
		var symbol string
		if err := f.arg(1, &symbol); err != nil {
			return nil, err
		}
		return session.React{ConnID: connID, MessageID: id, Symbol: symbol}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, f.Event)
	}
}

func (f Frame) arg(i int, v any) error {
	if i >= len(f.Args) {
		return fmt.Errorf("%w: %q needs argument %d", ErrMalformedFrame, f.Event, i)
	}
	if err := json.Unmarshal(f.Args[i], v); err != nil {
		return fmt.Errorf("%w: %q argument %d: %v", ErrMalformedFrame, f.Event, i, err)
	}
	return nil
}

// messageID accepts the id as a JSON number or as a numeric string, since
// browser clients often read it back from a data attribute.
func (f Frame) messageID(i int) (int64, error) {
	if i >= len(f.Args) {
		return 0, fmt.Errorf("%w: %q needs a message id", ErrMalformedFrame, f.Event)
	}
	raw := bytes.TrimSpace(f.Args[i])
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("%w: message id: %v", ErrMalformedFrame, err)
		}
		raw = []byte(s)
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: message id %q", ErrMalformedFrame, raw)
	}
	return id, nil
}
