// Package history keeps the bounded, chronological log of chat messages and the
// reactions attached to them.
package history

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nfrund/huddle/internal/domain"
	"github.com/nfrund/huddle/internal/format"
)

const (
	// DefaultCapacity is how many messages the room remembers.
	DefaultCapacity = 50
	// DefaultMaxMessageLength is the longest accepted raw body, in characters.
	DefaultMaxMessageLength = 500
)

// Store is an append-only log capped at a fixed capacity; the oldest message is
// evicted when an append overflows it. It is owned by the session engine
// goroutine and is not safe for concurrent use.
type Store struct {
	messages  []domain.Message
	capacity  int
	maxLength int
	pipeline  format.Pipeline
	now       func() time.Time
	lastID    int64
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithCapacity overrides DefaultCapacity.
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithMaxMessageLength overrides DefaultMaxMessageLength.
func WithMaxMessageLength(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxLength = n
		}
	}
}

// WithPipeline replaces the body transform pipeline.
func WithPipeline(p format.Pipeline) Option {
	return func(s *Store) {
		s.pipeline = p
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		capacity:  DefaultCapacity,
		maxLength: DefaultMaxMessageLength,
		pipeline:  format.Default(),
		now:       time.Now,
		logger:    slog.Default().With("component", "history_store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.messages = make([]domain.Message, 0, s.capacity+1)
	return s
}

// Append validates raw, formats it and stores a new message authored by author.
// Nothing is stored when validation fails.
func (s *Store) Append(author domain.Author, raw string) (domain.Message, error) {
	if strings.TrimSpace(raw) == "" {
		return domain.Message{}, domain.ErrEmptyMessage
	}
	if n := utf8.RuneCountInString(raw); n > s.maxLength {
		return domain.Message{}, fmt.Errorf("%w: %d > %d characters", domain.ErrOversizedMessage, n, s.maxLength)
	}

	now := s.now()
	msg := domain.Message{
		ID:        s.nextID(now),
		User:      author,
		Text:      s.pipeline.Apply(raw),
		Timestamp: now.UTC(),
		Reactions: make(map[string]domain.ReactionSet),
	}

	s.messages = append(s.messages, msg)
	if len(s.messages) > s.capacity {
		evicted := s.messages[0]
		s.messages = append(s.messages[:0], s.messages[1:]...)
		s.logger.Debug("Evicted oldest message", "message_id", evicted.ID)
	}

	return msg.Clone(), nil
}

// nextID derives the id from the creation time in milliseconds and bumps it on
// ties so ids strictly increase in insertion order.
func (s *Store) nextID(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// ToggleReaction adds name to the symbol's set on the message, or removes it if
// already present, and returns the message's full reaction snapshot. A message
// that was evicted is reported as domain.ErrUnknownMessage.
func (s *Store) ToggleReaction(messageID int64, symbol, name string) (map[string][]string, error) {
	i := s.indexOf(messageID)
	if i < 0 {
		return nil, fmt.Errorf("toggle reaction on %d: %w", messageID, domain.ErrUnknownMessage)
	}

	msg := &s.messages[i]
	set := domain.Toggle(msg.Reactions[symbol], name)
	if len(set) == 0 {
		delete(msg.Reactions, symbol)
	} else {
		msg.Reactions[symbol] = set
	}
	return msg.ReactionSnapshot(), nil
}

// indexOf finds a message by id. Ids are sorted, so this is a binary search.
func (s *Store) indexOf(id int64) int {
	lo, hi := 0, len(s.messages)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if s.messages[mid].ID < id {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(s.messages) && s.messages[lo].ID == id {
		return lo
	}
	return -1
}

// Recent returns up to n of the newest messages, oldest first. A non-positive
// n returns everything.
func (s *Store) Recent(n int) []domain.Message {
	if n <= 0 || n > len(s.messages) {
		n = len(s.messages)
	}
	tail := s.messages[len(s.messages)-n:]
	out := make([]domain.Message, len(tail))
	for i, m := range tail {
		out[i] = m.Clone()
	}
	return out
}

// Len returns the number of stored messages.
func (s *Store) Len() int {
	return len(s.messages)
}

// Capacity returns the maximum number of stored messages.
func (s *Store) Capacity() int {
	return s.capacity
}
