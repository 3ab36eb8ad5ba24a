package domain

// Identity is the mutable (name, color) pair representing a live participant.
// ConnID keys the identity in the registry and is never sent to clients.
type Identity struct {
	ConnID string `json:"-"`
	Name   string `json:"name"`
	Color  string `json:"color"`
}

// Author is the by-value snapshot of an identity taken when a message is posted.
// It never changes after the message is created, even if the author renames.
type Author struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Snapshot copies the identity's current display fields.
func (i Identity) Snapshot() Author {
	return Author{Name: i.Name, Color: i.Color}
}
