package session

import "strings"

// Input is the parsed form of one chat text submission. Exactly one of
// SendMessage, Rename, ClearView or Recolor.
type Input interface {
	isInput()
}

// SendMessage is ordinary chat content.
type SendMessage struct{ Text string }

// Rename is "/nick <name>".
type Rename struct{ Name string }

// ClearView is "/clear": only the sender's view is cleared.
type ClearView struct{}

// Recolor is "/color".
type Recolor struct{}

func (SendMessage) isInput() {}
func (Rename) isInput()      {}
func (ClearView) isInput()   {}
func (Recolor) isInput()     {}

const (
	cmdClear = "/clear"
	cmdColor = "/color"
	cmdNick  = "/nick "
)

// ParseInput decides once whether text is a command or chat content. Commands
// are recognized before any length check or formatting, so they are never
// stored as messages.
func ParseInput(text string) Input {
	switch {
	case text == cmdClear:
		return ClearView{}
	case text == cmdColor:
		return Recolor{}
	case strings.HasPrefix(text, cmdNick):
		return Rename{Name: strings.TrimPrefix(text, cmdNick)}
	default:
		return SendMessage{Text: text}
	}
}
