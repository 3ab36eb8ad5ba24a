package client

import (
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"slices"
	"strings"

	"github.com/nfrund/huddle/internal/domain"
	"github.com/nfrund/huddle/internal/protocol"
	"github.com/nfrund/huddle/internal/session"
)

var tagPattern = regexp.MustCompile(`</?(strong|em|del)>`)

// plain strips the emphasis markup the server adds and undoes HTML escaping,
// for display in a terminal.
func plain(text string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(text, ""))
}

func names(ids []domain.Identity) string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Name)
	}
	return strings.Join(out, ", ")
}

func formatReactions(r map[string][]string) string {
	syms := make([]string, 0, len(r))
	for sym := range r {
		syms = append(syms, sym)
	}
	slices.Sort(syms)

	parts := make([]string, 0, len(syms))
	for _, sym := range syms {
		parts = append(parts, fmt.Sprintf("%s %d", sym, len(r[sym])))
	}
	return strings.Join(parts, "  ")
}

func trimArgs(f protocol.Frame) string {
	parts := make([]string, 0, len(f.Args))
	for _, a := range f.Args {
		parts = append(parts, string(a))
	}
	return strings.Join(parts, " ")
}

// FormatMessage renders one chat message as a terminal line.
func FormatMessage(m domain.Message) string {
	line := fmt.Sprintf("[%d] %s %s: %s",
		m.ID, m.Timestamp.Local().Format("15:04"), m.User.Name, plain(m.Text))
	if r := m.ReactionSnapshot(); len(r) > 0 {
		line += "  (" + formatReactions(r) + ")"
	}
	return line
}

// Describe renders a server frame as human readable lines. Frames with
// nothing to show yield no lines.
func Describe(f protocol.Frame) []string {
	arg := func(i int, v any) bool {
		return i < len(f.Args) && json.Unmarshal(f.Args[i], v) == nil
	}

	switch f.Event {
	case session.EventInit:
		var history []domain.Message
		var roster []domain.Identity
		arg(0, &history)
		arg(1, &roster)
		lines := make([]string, 0, len(history)+1)
		for _, m := range history {
			lines = append(lines, FormatMessage(m))
		}
		return append(lines, fmt.Sprintf("* online: %s", names(roster)))

	case session.EventChatMessage:
		var m domain.Message
		if !arg(0, &m) {
			break
		}
		return []string{FormatMessage(m)}

	case session.EventUserJoined:
		var id domain.Identity
		arg(0, &id)
		return []string{fmt.Sprintf("* %s joined", id.Name)}

	case session.EventUserLeft:
		var name string
		arg(0, &name)
		return []string{fmt.Sprintf("* %s left", name)}

	case session.EventUserRenamed:
		var old string
		var id domain.Identity
		arg(0, &old)
		arg(1, &id)
		return []string{fmt.Sprintf("* %s is now %s", old, id.Name)}

	case session.EventUserColorChanged:
		var id domain.Identity
		arg(0, &id)
		return []string{fmt.Sprintf("* %s changed color to %s", id.Name, id.Color)}

	case session.EventUserCount:
		var n int
		arg(0, &n)
		return []string{fmt.Sprintf("* %d online", n)}

	case session.EventUserTyping:
		var typing []string
		arg(0, &typing)
		if len(typing) == 0 {
			return nil
		}
		return []string{fmt.Sprintf("* typing: %s", strings.Join(typing, ", "))}

	case session.EventMessageReaction:
		var id int64
		var r map[string][]string
		arg(0, &id)
		arg(1, &r)
		return []string{fmt.Sprintf("* reactions on [%d]: %s", id, formatReactions(r))}

	case session.EventClearChat:
		return []string{"\033[H\033[2J"}

	case session.EventRejected:
		var r session.Rejection
		arg(0, &r)
		return []string{fmt.Sprintf("! rejected: %s", r.Reason)}
	}

	return []string{fmt.Sprintf("? %s %s", f.Event, trimArgs(f))}
}
