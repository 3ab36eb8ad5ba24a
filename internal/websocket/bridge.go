// Package websocket connects browser and CLI sockets to the session engine.
// Inbound frames are decoded and submitted to the engine; outbound frames
// arrive on the pub/sub bus and are routed to clients by audience.
package websocket

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/huddle/internal/domain"
	"github.com/nfrund/huddle/internal/metrics"
	"github.com/nfrund/huddle/internal/protocol"
	"github.com/nfrund/huddle/internal/pubsub"
	"github.com/nfrund/huddle/internal/session"
)

const (
	defaultClientBuffer = 256
	defaultPingInterval = 30 * time.Second
	defaultWriteTimeout = 10 * time.Second
	connectTimeout      = 5 * time.Second
	disconnectTimeout   = 5 * time.Second

	// UsernameParam is the query parameter carrying the requested display name.
	UsernameParam = "username"
)

// Engine is the part of the session engine the bridge drives.
type Engine interface {
	Connect(ctx context.Context, connID, username string) (domain.Identity, error)
	Submit(ctx context.Context, ev session.Event) error
}

// Bridge owns every live socket. It is safe for concurrent use.
type Bridge struct {
	engine    Engine
	whitelist *eventWhitelist

	clientBuffer   int
	pingInterval   time.Duration
	writeTimeout   time.Duration
	originPatterns []string

	mu      sync.RWMutex
	clients map[string]*Client
	logger  *slog.Logger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithClientBuffer sets how many frames may queue for a slow client before
// further frames to it are dropped.
func WithClientBuffer(n int) Option {
	return func(b *Bridge) {
		if n > 0 {
			b.clientBuffer = n
		}
	}
}

// WithPingInterval sets the keepalive interval. Zero disables pings.
func WithPingInterval(d time.Duration) Option {
	return func(b *Bridge) { b.pingInterval = d }
}

// WithWriteTimeout bounds each socket write.
func WithWriteTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.writeTimeout = d
		}
	}
}

// WithOriginPatterns restricts which origins may open a socket. With no
// patterns every origin is accepted.
func WithOriginPatterns(patterns ...string) Option {
	return func(b *Bridge) { b.originPatterns = patterns }
}

// NewBridge creates a bridge that feeds engine.
func NewBridge(engine Engine, opts ...Option) *Bridge {
	b := &Bridge{
		engine:       engine,
		whitelist:    defaultEventWhitelist(),
		clientBuffer: defaultClientBuffer,
		pingInterval: defaultPingInterval,
		writeTimeout: defaultWriteTimeout,
		clients:      make(map[string]*Client),
		logger:       slog.Default().With("component", "websocket_bridge"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start subscribes the bridge to the engine's outbound frames.
func (b *Bridge) Start(ctx context.Context, sub pubsub.Subscriber) error {
	if err := sub.Subscribe(ctx, pubsub.TopicRoomOutbound, b.deliver); err != nil {
		return err
	}
	b.logger.Info("WebSocket bridge started", "topic", pubsub.TopicRoomOutbound)
	return nil
}

// deliver routes one outbound frame to every client in its audience.
func (b *Bridge) deliver(_ context.Context, msg pubsub.Message) error {
	aud, err := pubsub.AudienceOf(msg)
	if err != nil {
		return err
	}
	event := msg.Metadata[pubsub.MetaKeyEvent]

	b.mu.RLock()
	defer b.mu.RUnlock()

	if aud.Scope == session.ScopeOnly {
		if c, ok := b.clients[aud.ConnID]; ok {
			b.push(c, event, msg.Payload)
		}
		return nil
	}
	for id, c := range b.clients {
		if aud.Includes(id) {
			b.push(c, event, msg.Payload)
		}
	}
	return nil
}

func (b *Bridge) push(c *Client, event string, frame []byte) {
	if !c.admit(event) {
		return
	}
	if !c.enqueue(frame) {
		metrics.FramesDropped.WithLabelValues(event).Inc()
		b.logger.Warn("Client send buffer full, dropping frame", "conn_id", c.ID, "event", event)
	}
}

func (b *Bridge) register(c *Client) {
	b.mu.Lock()
	b.clients[c.ID] = c
	b.mu.Unlock()
}

func (b *Bridge) unregister(c *Client) {
	b.mu.Lock()
	if b.clients[c.ID] == c {
		delete(b.clients, c.ID)
	}
	b.mu.Unlock()
	c.Close()
}

// ClientCount returns the number of open sockets.
func (b *Bridge) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Close closes every open socket with a going-away status.
func (b *Bridge) Close() {
	b.mu.Lock()
	clients := make([]*Client, 0, len(b.clients))
	for _, c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.Unlock()

	for _, c := range clients {
		c.conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

// Handler returns an echo.HandlerFunc that upgrades the request and serves
// the socket until it closes. The display name comes from the "username"
// query parameter; an invalid name closes the socket right after the upgrade
// with a policy violation status.
//
// The client is registered before the engine handles the connect, so
// broadcasts published in between are routed to it. Those frames describe
// state that init already carries, so nothing reaches the socket before init.
func (b *Bridge) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		username := c.QueryParam(UsernameParam)

		conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
			InsecureSkipVerify: len(b.originPatterns) == 0,
			OriginPatterns:     b.originPatterns,
		})
		if err != nil {
			b.logger.Error("Failed to upgrade connection to WebSocket", "error", err)
			return nil
		}

		client := newClient(uuid.NewString(), conn, b.clientBuffer)
		b.register(client)

		ctx := c.Request().Context()
		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		id, err := b.engine.Connect(connectCtx, client.ID, username)
		cancel()
		if err != nil {
			b.unregister(client)
			// A connect that timed out may still be handled later; make sure
			// it does not leave the name in the roster.
			b.submitDisconnect(client.ID)
			reason := "connect failed"
			if errors.Is(err, domain.ErrInvalidIdentity) {
				reason = "invalid username"
			}
			conn.Close(websocket.StatusPolicyViolation, reason)
			b.logger.Info("Refused WebSocket connection", "conn_id", client.ID, "error", err)
			return nil
		}

		b.logger.Info("Client connected", "conn_id", client.ID, "name", id.Name)
		go b.writePump(ctx, client)
		b.readPump(ctx, client)
		return nil
	}
}

// readPump decodes frames from the socket and submits them to the engine.
// When the socket closes, the engine is told the connection is gone.
func (b *Bridge) readPump(ctx context.Context, c *Client) {
	defer func() {
		b.unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
		b.submitDisconnect(c.ID)
	}()

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			switch {
			case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
				b.logger.Info("WebSocket closed by client", "conn_id", c.ID)
			case errors.Is(err, io.EOF) || errors.Is(err, context.Canceled):
				b.logger.Debug("WebSocket read ended", "conn_id", c.ID)
			default:
				b.logger.Warn("WebSocket read error", "conn_id", c.ID, "error", err)
			}
			return
		}

		ev, err := b.decode(c.ID, data)
		if err != nil {
			b.logger.Debug("Dropping inbound frame", "conn_id", c.ID, "error", err)
			continue
		}
		if err := b.engine.Submit(ctx, ev); err != nil {
			b.logger.Warn("Failed to submit event", "conn_id", c.ID, "error", err)
			return
		}
	}
}

// submitDisconnect tells the engine connID is gone. It outlives the request
// context, which is usually done by now.
func (b *Bridge) submitDisconnect(connID string) {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	if err := b.engine.Submit(ctx, session.Disconnect{ConnID: connID}); err != nil {
		b.logger.Error("Failed to submit disconnect", "conn_id", connID, "error", err)
	}
}

func (b *Bridge) decode(connID string, data []byte) (session.Event, error) {
	frame, err := protocol.DecodeFrame(data)
	if err != nil {
		metrics.InputsDropped.WithLabelValues("malformed_frame").Inc()
		return nil, err
	}
	if !b.whitelist.IsAllowed(frame.Event) {
		metrics.InputsDropped.WithLabelValues("event_not_allowed").Inc()
		return nil, protocol.ErrUnknownEvent
	}
	ev, err := protocol.Decode(connID, data)
	if err != nil {
		metrics.InputsDropped.WithLabelValues("malformed_frame").Inc()
		return nil, err
	}
	return ev, nil
}

// writePump drains the client's queue onto the socket and sends keepalive
// pings. A failed ping or write closes the socket, which ends readPump.
func (b *Bridge) writePump(ctx context.Context, c *Client) {
	var tick <-chan time.Time
	if b.pingInterval > 0 {
		ticker := time.NewTicker(b.pingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}
	send := c.outbound()

	for {
		select {
		case frame, ok := <-send:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, b.writeTimeout)
			err := c.conn.Write(wctx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				b.logger.Warn("WebSocket write error", "conn_id", c.ID, "error", err)
				c.conn.Close(websocket.StatusInternalError, "write failed")
				return
			}

		case <-tick:
			pctx, cancel := context.WithTimeout(ctx, b.writeTimeout)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				b.logger.Info("Keepalive ping failed", "conn_id", c.ID, "error", err)
				c.conn.Close(websocket.StatusPolicyViolation, "keepalive timeout")
				return
			}

		case <-ctx.Done():
			return
		}
	}
}
