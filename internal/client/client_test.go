package client_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/huddle/internal/client"
	"github.com/nfrund/huddle/internal/domain"
	"github.com/nfrund/huddle/internal/protocol"
	"github.com/nfrund/huddle/internal/pubsub"
	"github.com/nfrund/huddle/internal/session"
	"github.com/nfrund/huddle/internal/websocket"
)

func startRoom(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	bus := pubsub.NewWatermillBridge()
	engine := session.New(pubsub.NewOutbox(bus), session.Config{})
	bridge := websocket.NewBridge(engine)
	require.NoError(t, bridge.Start(ctx, bus))
	go engine.Run(ctx)

	e := echo.New()
	e.GET("/ws", bridge.Handler())
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		bridge.Close()
		srv.Close()
		cancel()
		_ = bus.Close()
	})
	return srv.URL
}

func waitFor(t *testing.T, c *client.Client, event string) protocol.Frame {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case f, ok := <-c.Frames():
			require.True(t, ok, "connection closed: %v", c.Err())
			if f.Event == event {
				return f
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %q", event)
		}
	}
}

func TestSocketURL(t *testing.T) {
	tests := []struct {
		server, want string
	}{
		{"http://localhost:3000", "ws://localhost:3000/ws?username=al+ice"},
		{"https://chat.example.com/", "wss://chat.example.com/ws?username=al+ice"},
		{"ws://localhost:3000/custom", "ws://localhost:3000/custom?username=al+ice"},
	}
	for _, tt := range tests {
		got, err := client.SocketURL(tt.server, "al ice")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := client.SocketURL("ftp://example.com", "a")
	assert.Error(t, err)
	_, err = client.SocketURL("http://", "a")
	assert.Error(t, err)
}

func TestClient_Conversation(t *testing.T) {
	url := startRoom(t)
	ctx := context.Background()

	alice, err := client.Dial(ctx, url, "alice")
	require.NoError(t, err)
	defer alice.Close()
	waitFor(t, alice, session.EventInit)

	bob, err := client.Dial(ctx, url, "bob")
	require.NoError(t, err)
	defer bob.Close()
	waitFor(t, bob, session.EventInit)

	require.NoError(t, bob.Typing())
	typing := waitFor(t, alice, session.EventUserTyping)
	assert.JSONEq(t, `["bob"]`, string(typing.Args[0]))

	require.NoError(t, bob.Say("hello"))
	f := waitFor(t, alice, session.EventChatMessage)
	lines := client.Describe(f)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "bob: hello")

	var msg domain.Message
	require.NoError(t, json.Unmarshal(f.Args[0], &msg))
	require.NoError(t, alice.React(msg.ID, "🎉"))
	reaction := waitFor(t, bob, session.EventMessageReaction)
	assert.JSONEq(t, `{"🎉":["alice"]}`, string(reaction.Args[1]))
}

func TestClient_RefusedName(t *testing.T) {
	url := startRoom(t)

	c, err := client.Dial(context.Background(), url, "")
	require.NoError(t, err)
	defer c.Close()

	select {
	case _, ok := <-c.Frames():
		assert.False(t, ok, "no frames expected for a refused name")
	case <-time.After(2 * time.Second):
		t.Fatal("connection was not closed")
	}
	assert.True(t, client.IsRefused(c.Err()), "got %v", c.Err())
}

func TestClient_SendAfterClose(t *testing.T) {
	url := startRoom(t)
	c, err := client.Dial(context.Background(), url, "alice")
	require.NoError(t, err)

	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Say("late"), client.ErrClosed)
}
