// Package client is a small websocket client for the chat room, used by the
// command line tool.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nfrund/huddle/internal/protocol"
)

const writeWait = 10 * time.Second

// ErrClosed is returned when sending on a closed client.
var ErrClosed = errors.New("client closed")

// Client is one participant's connection to the room.
type Client struct {
	conn   *websocket.Conn
	frames chan protocol.Frame

	writeMu sync.Mutex
	errMu   sync.Mutex
	err     error
	closed  chan struct{}
	once    sync.Once
}

// SocketURL turns a server base URL such as http://localhost:3000 into the
// websocket endpoint for username.
func SocketURL(server, username string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws", "":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("server url %q has no host", server)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	q := u.Query()
	q.Set("username", username)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Dial connects to server as username.
func Dial(ctx context.Context, server, username string) (*Client, error) {
	endpoint, err := SocketURL(server, username)
	if err != nil {
		return nil, err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("dial %s: rate limited", endpoint)
		}
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	c := &Client{
		conn:   conn,
		frames: make(chan protocol.Frame, 64),
		closed: make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Frames delivers every frame the server sends. It is closed when the
// connection ends; Err then reports why.
func (c *Client) Frames() <-chan protocol.Frame {
	return c.frames
}

// Err returns the error that ended the connection, if any.
func (c *Client) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

func (c *Client) readLoop() {
	defer close(c.frames)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.errMu.Lock()
				c.err = err
				c.errMu.Unlock()
			}
			return
		}
		f, err := protocol.DecodeFrame(data)
		if err != nil {
			continue
		}
		select {
		case c.frames <- f:
		case <-c.closed:
			return
		}
	}
}

func (c *Client) emit(event string, args ...any) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}

	data, err := protocol.Encode(event, args...)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Say sends a line of chat input. Slash commands are interpreted by the server.
func (c *Client) Say(text string) error {
	return c.emit(protocol.InChatMessage, text)
}

// Typing announces that the user started typing.
func (c *Client) Typing() error {
	return c.emit(protocol.InTyping)
}

// StopTyping announces that the user stopped typing.
func (c *Client) StopTyping() error {
	return c.emit(protocol.InStopTyping)
}

// React toggles the user's reaction on a message.
func (c *Client) React(messageID int64, symbol string) error {
	return c.emit(protocol.InMessageReaction, messageID, symbol)
}

// Close says goodbye and closes the connection.
func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		close(c.closed)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

// IsRefused reports whether err means the server turned the username down.
func IsRefused(err error) bool {
	return websocket.IsCloseError(err, websocket.ClosePolicyViolation)
}
