package domain

import (
	"maps"
	"time"
)

// Message is a single chat message held in the bounded history.
type Message struct {
	ID        int64                  `json:"id"`
	User      Author                 `json:"user"`
	Text      string                 `json:"text"`
	Timestamp time.Time              `json:"timestamp"`
	Reactions map[string]ReactionSet `json:"reactions"`
}

// Clone returns a deep copy so readers outside the engine never share the
// reaction sets that the store keeps mutating.
func (m Message) Clone() Message {
	out := m
	out.Reactions = make(map[string]ReactionSet, len(m.Reactions))
	for sym, set := range m.Reactions {
		out.Reactions[sym] = maps.Clone(set)
	}
	return out
}

// ReactionSnapshot flattens the reaction map into symbol -> sorted names.
// Symbols with no remaining names are omitted.
func (m Message) ReactionSnapshot() map[string][]string {
	out := make(map[string][]string, len(m.Reactions))
	for sym, set := range m.Reactions {
		if len(set) == 0 {
			continue
		}
		out[sym] = set.Names()
	}
	return out
}
