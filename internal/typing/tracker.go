// Package typing tracks which participants are currently composing a message.
package typing

import (
	"log/slog"
	"slices"
)

// Tracker holds the set of display names flagged as typing. Entries are added
// and removed by explicit events only; clients are expected to send a stop
// signal after their own idle timeout, so nothing here expires on a timer.
//
// A Tracker is owned by the session engine goroutine and is not safe for
// concurrent use.
type Tracker struct {
	names  []string // first-typed order, each name at most once
	logger *slog.Logger
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		logger: slog.Default().With("component", "typing_tracker"),
	}
}

// MarkTyping adds name to the set. It reports whether the set changed.
func (t *Tracker) MarkTyping(name string) bool {
	if slices.Contains(t.names, name) {
		return false
	}
	t.names = append(t.names, name)
	return true
}

// ClearTyping removes name from the set. It reports whether the set changed.
func (t *Tracker) ClearTyping(name string) bool {
	i := slices.Index(t.names, name)
	if i < 0 {
		return false
	}
	t.names = slices.Delete(t.names, i, i+1)
	return true
}

// ClearAll guarantees no entry for name survives. It is called on disconnect.
func (t *Tracker) ClearAll(name string) bool {
	before := len(t.names)
	t.names = slices.DeleteFunc(t.names, func(n string) bool { return n == name })
	if removed := before - len(t.names); removed > 0 {
		t.logger.Debug("Cleared typing state", "name", name, "entries", removed)
		return true
	}
	return false
}

// Rename moves an entry from oldName to newName, keeping its position. It
// reports whether oldName was typing.
func (t *Tracker) Rename(oldName, newName string) bool {
	i := slices.Index(t.names, oldName)
	if i < 0 {
		return false
	}
	if slices.Contains(t.names, newName) {
		t.names = slices.Delete(t.names, i, i+1)
		return true
	}
	t.names[i] = newName
	return true
}

// Snapshot returns a copy of the current set in first-typed order.
func (t *Tracker) Snapshot() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}
