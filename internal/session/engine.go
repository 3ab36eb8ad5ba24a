// Package session is the authoritative model of the chat room. One Engine owns
// the identity registry, the typing tracker and the message history, and turns
// inbound connection events into state changes and outbound broadcasts.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/nfrund/huddle/internal/domain"
	"github.com/nfrund/huddle/internal/history"
	"github.com/nfrund/huddle/internal/identity"
	"github.com/nfrund/huddle/internal/metrics"
	"github.com/nfrund/huddle/internal/typing"
)

// Config tunes an Engine. Zero values fall back to the package defaults.
type Config struct {
	HistoryCapacity  int
	MaxNameLength    int
	MaxMessageLength int
	// NotifyRejections sends a private "rejected" event to the sender of an
	// input that was declined. When false, declined inputs are dropped silently.
	NotifyRejections bool
	// QueueSize is the buffer of the inbound event channel.
	QueueSize int
}

// Engine processes room events strictly one at a time on the goroutine running
// Run. Because of that, none of the stores it owns needs locking.
type Engine struct {
	identities *identity.Registry
	typing     *typing.Tracker
	history    *history.Store
	dispatcher Dispatcher
	events     chan Event
	cfg        Config
	logger     *slog.Logger
}

// New creates an engine that delivers its broadcasts through d.
func New(d Dispatcher, cfg Config) *Engine {
	if cfg.HistoryCapacity <= 0 {
		cfg.HistoryCapacity = history.DefaultCapacity
	}
	if cfg.MaxNameLength <= 0 {
		cfg.MaxNameLength = identity.DefaultMaxNameLength
	}
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = history.DefaultMaxMessageLength
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}

	return &Engine{
		identities: identity.NewRegistry(identity.WithMaxNameLength(cfg.MaxNameLength)),
		typing:     typing.NewTracker(),
		history: history.NewStore(
			history.WithCapacity(cfg.HistoryCapacity),
			history.WithMaxMessageLength(cfg.MaxMessageLength),
		),
		dispatcher: d,
		events:     make(chan Event, cfg.QueueSize),
		cfg:        cfg,
		logger:     slog.Default().With("component", "session_engine"),
	}
}

// Run processes events until ctx is cancelled. It must be called exactly once.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("Session engine started", "history_capacity", e.cfg.HistoryCapacity)
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Session engine stopped")
			return ctx.Err()
		case ev := <-e.events:
			e.handle(ctx, ev)
		}
	}
}

// Connect admits a connection and blocks until the engine has processed it.
// An invalid username is reported as domain.ErrInvalidIdentity and leaves no
// state behind; the caller is expected to close the connection.
func (e *Engine) Connect(ctx context.Context, connID, username string) (domain.Identity, error) {
	reply := make(chan connectResult, 1)
	if err := e.Submit(ctx, Connect{ConnID: connID, Username: username, reply: reply}); err != nil {
		return domain.Identity{}, err
	}
	select {
	case res := <-reply:
		return res.identity, res.err
	case <-ctx.Done():
		return domain.Identity{}, ctx.Err()
	}
}

// Submit enqueues an event for the engine loop.
func (e *Engine) Submit(ctx context.Context, ev Event) error {
	select {
	case e.events <- ev:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("submit %T for %s: %w", ev, ev.ConnectionID(), ctx.Err())
	}
}

func (e *Engine) handle(ctx context.Context, ev Event) {
	switch ev := ev.(type) {
	case Connect:
		id, err := e.connect(ctx, ev.ConnID, ev.Username)
		if ev.reply != nil {
			ev.reply <- connectResult{identity: id, err: err}
		}
	case Disconnect:
		e.disconnect(ctx, ev.ConnID)
	case ChatInput:
		e.chatInput(ctx, ev.ConnID, ev.Text)
	case TypingStart:
		e.setTyping(ctx, ev.ConnID, true)
	case TypingStop:
		e.setTyping(ctx, ev.ConnID, false)
	case React:
		e.react(ctx, ev)
	default:
		e.logger.Warn("Ignoring unknown event", "type", fmt.Sprintf("%T", ev))
	}
}

func (e *Engine) connect(ctx context.Context, connID, username string) (domain.Identity, error) {
	id, err := e.identities.Register(connID, username)
	if err != nil {
		metrics.ConnectionsTotal.WithLabelValues("rejected").Inc()
		e.logger.Info("Rejected connection", "conn_id", connID, "error", err)
		return domain.Identity{}, err
	}
	metrics.ConnectionsTotal.WithLabelValues("accepted").Inc()
	metrics.ConnectionsActive.Set(float64(e.identities.Count()))

	roster := e.identities.Roster()
	e.dispatch(ctx, Only(connID), EventInit, e.history.Recent(e.cfg.HistoryCapacity), roster)
	e.dispatch(ctx, AllExcept(connID), EventUserJoined, id, roster)
	e.dispatch(ctx, Everyone(), EventUserCount, e.identities.Count())

	e.logger.Info("User joined", "conn_id", connID, "name", id.Name, "online", e.identities.Count())
	return id, nil
}

func (e *Engine) disconnect(ctx context.Context, connID string) {
	id, err := e.identities.Unregister(connID)
	if err != nil {
		e.logger.Debug("Disconnect for unknown connection", "conn_id", connID)
		return
	}
	e.typing.ClearAll(id.Name)
	metrics.ConnectionsActive.Set(float64(e.identities.Count()))

	e.dispatch(ctx, Everyone(), EventUserLeft, id.Name, e.identities.Roster())
	e.dispatch(ctx, Everyone(), EventUserCount, e.identities.Count())
	e.dispatch(ctx, Everyone(), EventUserTyping, e.typing.Snapshot())

	e.logger.Info("User left", "conn_id", connID, "name", id.Name, "online", e.identities.Count())
}

func (e *Engine) chatInput(ctx context.Context, connID, text string) {
	sender, err := e.identities.Lookup(connID)
	if err != nil {
		e.logger.Debug("Chat input from unknown connection", "conn_id", connID)
		return
	}

	switch in := ParseInput(text).(type) {
	case ClearView:
		metrics.CommandsHandled.WithLabelValues("clear").Inc()
		e.dispatch(ctx, Only(connID), EventClearChat)

	case Recolor:
		metrics.CommandsHandled.WithLabelValues("color").Inc()
		id, err := e.identities.Recolor(connID)
		if err != nil {
			return
		}
		e.dispatch(ctx, Everyone(), EventUserColorChanged, id, e.identities.Roster())

	case Rename:
		metrics.CommandsHandled.WithLabelValues("nick").Inc()
		e.rename(ctx, sender, in.Name)

	case SendMessage:
		msg, err := e.history.Append(sender.Snapshot(), in.Text)
		if err != nil {
			e.decline(ctx, connID, err, "")
			return
		}
		metrics.MessagesPosted.Inc()
		e.dispatch(ctx, Everyone(), EventChatMessage, msg)
	}
}

func (e *Engine) rename(ctx context.Context, sender domain.Identity, name string) {
	id, err := e.identities.Rename(sender.ConnID, name)
	if err != nil {
		e.decline(ctx, sender.ConnID, err, name)
		return
	}

	roster := e.identities.Roster()
	e.dispatch(ctx, Everyone(), EventUserRenamed, sender.Name, id, roster)
	e.dispatch(ctx, Everyone(), EventUserCount, e.identities.Count())
	if e.typing.Rename(sender.Name, id.Name) {
		e.dispatch(ctx, AllExcept(sender.ConnID), EventUserTyping, e.typing.Snapshot())
	}

	e.logger.Info("User renamed", "conn_id", sender.ConnID, "old_name", sender.Name, "new_name", id.Name)
}

func (e *Engine) setTyping(ctx context.Context, connID string, typing bool) {
	id, err := e.identities.Lookup(connID)
	if err != nil {
		return
	}
	if typing {
		e.typing.MarkTyping(id.Name)
	} else {
		e.typing.ClearTyping(id.Name)
	}
	e.dispatch(ctx, AllExcept(connID), EventUserTyping, e.typing.Snapshot())
}

func (e *Engine) react(ctx context.Context, ev React) {
	id, err := e.identities.Lookup(ev.ConnID)
	if err != nil {
		return
	}
	reactions, err := e.history.ToggleReaction(ev.MessageID, ev.Symbol, id.Name)
	if err != nil {
		e.decline(ctx, ev.ConnID, err, strconv.FormatInt(ev.MessageID, 10))
		return
	}
	metrics.ReactionsToggled.Inc()
	e.dispatch(ctx, Everyone(), EventMessageReaction, ev.MessageID, reactions)
}

// decline records a rejected input and, when enabled, tells the sender why.
func (e *Engine) decline(ctx context.Context, connID string, err error, input string) {
	reason := rejectionReason(err)
	metrics.InputsDropped.WithLabelValues(reason).Inc()
	e.logger.Debug("Declined input", "conn_id", connID, "reason", reason, "error", err)

	if e.cfg.NotifyRejections {
		e.dispatch(ctx, Only(connID), EventRejected, Rejection{Reason: reason, Input: input})
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidIdentity):
		return ReasonInvalidName
	case errors.Is(err, domain.ErrOversizedMessage):
		return ReasonTooLong
	case errors.Is(err, domain.ErrEmptyMessage):
		return ReasonEmpty
	case errors.Is(err, domain.ErrUnknownMessage):
		return ReasonUnknownMessage
	default:
		return "unknown"
	}
}

func (e *Engine) dispatch(ctx context.Context, to Audience, event string, args ...any) {
	start := time.Now()
	err := e.dispatcher.Dispatch(ctx, Envelope{Event: event, Args: args, To: to})
	metrics.DispatchLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		e.logger.Warn("Failed to dispatch event", "event", event, "scope", to.Scope.String(), "error", err)
	}
}
