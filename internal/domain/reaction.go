package domain

import (
	"encoding/json"
	"maps"
	"slices"
)

// DefaultReactions is the palette offered by the web and terminal clients. The
// engine accepts any symbol.
var DefaultReactions = []string{"👍", "👎", "😄", "😢", "😮", "❤️"}

// ReactionSet is the set of display names that applied one symbol to one message.
type ReactionSet map[string]struct{}

// Toggle returns a new set with name removed if it was present, added otherwise.
// The input set is never modified, so Toggle(Toggle(s, n), n) equals s.
func Toggle(set ReactionSet, name string) ReactionSet {
	out := maps.Clone(set)
	if out == nil {
		out = make(ReactionSet)
	}
	if _, ok := out[name]; ok {
		delete(out, name)
	} else {
		out[name] = struct{}{}
	}
	return out
}

// Has reports whether name is in the set.
func (s ReactionSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the members in sorted order.
func (s ReactionSet) Names() []string {
	return slices.Sorted(maps.Keys(s))
}

// MarshalJSON encodes the set as a sorted array; the web client counts entries.
func (s ReactionSet) MarshalJSON() ([]byte, error) {
	names := s.Names()
	if names == nil {
		names = []string{}
	}
	return json.Marshal(names)
}

// UnmarshalJSON decodes an array of names.
func (s *ReactionSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	set := make(ReactionSet, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	*s = set
	return nil
}
