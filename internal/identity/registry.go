// Package identity maps live connections to display identities.
package identity

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"

	"github.com/nfrund/huddle/internal/domain"
)

// DefaultMaxNameLength is the longest display name accepted, in characters.
const DefaultMaxNameLength = 30

// Palette is the set of display colors handed out to participants.
var Palette = []string{
	"#e57373", "#f06292", "#ba68c8", "#9575cd",
	"#7986cb", "#64b5f6", "#4fc3f7", "#4dd0e1",
	"#4db6ac", "#81c784", "#aed581", "#ff8a65",
	"#ffb74d", "#a1887f", "#90a4ae", "#dce775",
}

// Registry holds the identity of every live connection. It is owned by a single
// session engine goroutine and does no locking of its own.
type Registry struct {
	identities map[string]domain.Identity
	order      []string // connection ids in registration order
	validate   *validator.Validate
	maxRule    string
	pick       func(n int) int
	logger     *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithMaxNameLength overrides DefaultMaxNameLength.
func WithMaxNameLength(n int) Option {
	return func(r *Registry) {
		r.maxRule = fmt.Sprintf("max=%d", n)
	}
}

// WithColorPicker replaces the random palette index source. Tests use it to make
// color assignment deterministic.
func WithColorPicker(pick func(n int) int) Option {
	return func(r *Registry) {
		r.pick = pick
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		identities: make(map[string]domain.Identity),
		validate:   validator.New(),
		maxRule:    fmt.Sprintf("max=%d", DefaultMaxNameLength),
		pick:       rand.IntN,
		logger:     slog.Default().With("component", "identity_registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// checkName converts name to NFC so that visually identical names count the
// same way. The length limit applies to the name as sent, surrounding
// whitespace included; the stored name is trimmed and must not be empty.
func (r *Registry) checkName(name string) (string, error) {
	raw := norm.NFC.String(name)
	if err := r.validate.Var(raw, r.maxRule); err != nil {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidIdentity, raw)
	}
	trimmed := strings.TrimSpace(raw)
	if err := r.validate.Var(trimmed, "required"); err != nil {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidIdentity, raw)
	}
	return trimmed, nil
}

// Register creates the identity for a newly accepted connection.
func (r *Registry) Register(connID, name string) (domain.Identity, error) {
	name, err := r.checkName(name)
	if err != nil {
		return domain.Identity{}, err
	}

	if _, exists := r.identities[connID]; !exists {
		r.order = append(r.order, connID)
	}
	id := domain.Identity{ConnID: connID, Name: name, Color: r.randomColor("")}
	r.identities[connID] = id

	r.logger.Debug("Identity registered", "conn_id", connID, "name", name, "color", id.Color)
	return id, nil
}

// Rename changes the display name of a connection. The color is kept. On
// failure the registry is left untouched.
func (r *Registry) Rename(connID, name string) (domain.Identity, error) {
	id, ok := r.identities[connID]
	if !ok {
		return domain.Identity{}, fmt.Errorf("rename %s: %w", connID, domain.ErrNotFound)
	}
	name, err := r.checkName(name)
	if err != nil {
		return domain.Identity{}, err
	}

	id.Name = name
	r.identities[connID] = id
	return id, nil
}

// Recolor assigns a new palette color, different from the current one.
func (r *Registry) Recolor(connID string) (domain.Identity, error) {
	id, ok := r.identities[connID]
	if !ok {
		return domain.Identity{}, fmt.Errorf("recolor %s: %w", connID, domain.ErrNotFound)
	}

	id.Color = r.randomColor(id.Color)
	r.identities[connID] = id
	return id, nil
}

// Unregister removes a connection and returns the identity it had.
func (r *Registry) Unregister(connID string) (domain.Identity, error) {
	id, ok := r.identities[connID]
	if !ok {
		return domain.Identity{}, fmt.Errorf("unregister %s: %w", connID, domain.ErrNotFound)
	}

	delete(r.identities, connID)
	if i := slices.Index(r.order, connID); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	return id, nil
}

// Lookup returns the current identity of a connection.
func (r *Registry) Lookup(connID string) (domain.Identity, error) {
	id, ok := r.identities[connID]
	if !ok {
		return domain.Identity{}, fmt.Errorf("lookup %s: %w", connID, domain.ErrNotFound)
	}
	return id, nil
}

// Roster returns every live identity in registration order.
func (r *Registry) Roster() []domain.Identity {
	roster := make([]domain.Identity, 0, len(r.order))
	for _, connID := range r.order {
		roster = append(roster, r.identities[connID])
	}
	return roster
}

// Count returns the number of live identities.
func (r *Registry) Count() int {
	return len(r.identities)
}

// randomColor picks a palette entry, avoiding current when possible.
func (r *Registry) randomColor(current string) string {
	candidates := Palette
	if current != "" && len(Palette) > 1 {
		candidates = slices.DeleteFunc(slices.Clone(Palette), func(c string) bool { return c == current })
	}
	return candidates[r.pick(len(candidates))]
}
