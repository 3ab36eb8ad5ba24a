package pubsub

import (
	"context"
	"errors"
	"fmt"

	"github.com/nfrund/huddle/internal/protocol"
	"github.com/nfrund/huddle/internal/session"
)

// TopicRoomOutbound carries every encoded frame the session engine emits.
// All scopes share one topic so that a subscriber sees unicast and broadcast
// frames in the order the engine produced them.
const TopicRoomOutbound = "room.outbound"

const (
	// MetaKeyScope holds the session.Scope name of an outbound frame.
	MetaKeyScope = "scope"
	// MetaKeyEvent holds the event name of an outbound frame.
	MetaKeyEvent = "event"
)

// ErrUnknownScope is returned when an outbound message carries no valid scope.
var ErrUnknownScope = errors.New("unknown delivery scope")

// Outbox is a session.Dispatcher that encodes envelopes into frames and
// publishes them on TopicRoomOutbound.
type Outbox struct {
	publisher Publisher
	topic     string
}

// NewOutbox creates an outbox that publishes through p.
func NewOutbox(p Publisher) *Outbox {
	return &Outbox{publisher: p, topic: TopicRoomOutbound}
}

// Dispatch implements session.Dispatcher.
func (o *Outbox) Dispatch(ctx context.Context, env session.Envelope) error {
	frame, err := protocol.EncodeEnvelope(env)
	if err != nil {
		return err
	}

	return o.publisher.Publish(ctx, Message{
		Topic:   o.topic,
		ConnID:  env.To.ConnID,
		Payload: frame,
		Metadata: map[string]string{
			MetaKeyScope: env.To.Scope.String(),
			MetaKeyEvent: env.Event,
		},
	})
}

// AudienceOf reconstructs the delivery audience of a message published by an
// Outbox.
func AudienceOf(msg Message) (session.Audience, error) {
	scope, ok := session.ParseScope(msg.Metadata[MetaKeyScope])
	if !ok {
		return session.Audience{}, fmt.Errorf("%w: %q on %s", ErrUnknownScope, msg.Metadata[MetaKeyScope], msg.Topic)
	}
	return session.Audience{Scope: scope, ConnID: msg.ConnID}, nil
}
