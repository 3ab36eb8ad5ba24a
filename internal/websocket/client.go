package websocket

import (
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"

	"github.com/nfrund/huddle/internal/session"
)

// Client represents a single connected WebSocket client.
type Client struct {
	// ID is the server-assigned connection id. It never leaves the server.
	ID   string
	conn *websocket.Conn
	send chan []byte
	mu   sync.RWMutex

	joined atomic.Bool
}

func newClient(id string, conn *websocket.Conn, buffer int) *Client {
	return &Client{
		ID:   id,
		conn: conn,
		send: make(chan []byte, buffer),
	}
}

// admit reports whether a frame for event may be queued. Until the client's
// init frame has passed every other frame is held back.
func (c *Client) admit(event string) bool {
	if c.joined.Load() {
		return true
	}
	if event != session.EventInit {
		return false
	}
	c.joined.Store(true)
	return true
}

// enqueue hands a frame to the write pump without blocking. It reports false
// when the client is closed or its buffer is full.
func (c *Client) enqueue(frame []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.send == nil {
		return false
	}

	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Close closes the client's send channel, which stops its write pump.
// It is safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.send != nil {
		close(c.send)
		c.send = nil
	}
}

// outbound returns the channel the write pump drains.
func (c *Client) outbound() <-chan []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.send
}
