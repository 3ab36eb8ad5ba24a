package websocket

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/huddle/internal/protocol"
	"github.com/nfrund/huddle/internal/pubsub"
	"github.com/nfrund/huddle/internal/session"
)

// capturePublisher keeps what an Outbox publishes so it can be fed to deliver.
type capturePublisher struct{ msgs []pubsub.Message }

func (p *capturePublisher) Publish(_ context.Context, msg pubsub.Message) error {
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func drain(c *Client) []string {
	var events []string
	for {
		select {
		case frame := <-c.send:
			f, err := protocol.DecodeFrame(frame)
			if err != nil {
				return append(events, "!"+err.Error())
			}
			events = append(events, f.Event)
		default:
			return events
		}
	}
}

func TestBridge_DeliverHoldsFramesUntilInit(t *testing.T) {
	ctx := context.Background()
	pub := &capturePublisher{}
	out := pubsub.NewOutbox(pub)

	b := NewBridge(nil)
	early := newClient("early", nil, 8)
	late := newClient("late", nil, 8)
	b.register(early)
	b.register(late)
	early.admit(session.EventInit)

	// A broadcast lands after late is registered but before its connect is handled.
	require.NoError(t, out.Dispatch(ctx, session.Envelope{Event: session.EventChatMessage, Args: []any{"hi"}, To: session.Everyone()}))
	require.NoError(t, out.Dispatch(ctx, session.Envelope{Event: session.EventInit, Args: []any{[]any{}, []any{}}, To: session.Only("late")}))
	require.NoError(t, out.Dispatch(ctx, session.Envelope{Event: session.EventUserCount, Args: []any{2}, To: session.Everyone()}))

	for _, msg := range pub.msgs {
		require.NoError(t, b.deliver(ctx, msg))
	}

	assert.Equal(t, []string{session.EventInit, session.EventUserCount}, drain(late))
	assert.Equal(t, []string{session.EventChatMessage, session.EventUserCount}, drain(early))
}
