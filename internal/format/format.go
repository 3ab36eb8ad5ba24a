// Package format turns raw chat input into the body stored and broadcast to
// clients. The web client renders bodies as HTML, so escaping always runs first
// and every later stage only ever inserts markup it controls.
package format

import (
	"html"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Transform rewrites a message body.
type Transform func(string) string

// Pipeline applies transforms in order.
type Pipeline []Transform

// Apply runs every stage of the pipeline over text.
func (p Pipeline) Apply(text string) string {
	for _, t := range p {
		text = t(text)
	}
	return text
}

// Default is the pipeline used for chat messages.
func Default() Pipeline {
	return Pipeline{Normalize, Escape, Emoticons, Emphasis}
}

// Normalize converts text to NFC.
func Normalize(text string) string {
	return norm.NFC.String(text)
}

// Escape neutralizes HTML in user input.
func Escape(text string) string {
	return html.EscapeString(text)
}

// emoticons maps whole-token emoticons to emoji. Keys are in their escaped
// form because Escape runs first.
var emoticons = map[string]string{
	":)":    "😊",
	":-)":   "😊",
	":(":    "😢",
	":-(":   "😢",
	":D":    "😄",
	":-D":   "😄",
	";)":    "😉",
	";-)":   "😉",
	":P":    "😛",
	":p":    "😛",
	":O":    "😮",
	":o":    "😮",
	":|":    "😐",
	"&lt;3": "❤️",
}

var tokenRe = regexp.MustCompile(`\S+`)

// Emoticons replaces emoticons that stand alone as whitespace-separated tokens.
func Emoticons(text string) string {
	return tokenRe.ReplaceAllStringFunc(text, func(tok string) string {
		if emoji, ok := emoticons[tok]; ok {
			return emoji
		}
		return tok
	})
}

var emphasisRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`\*\*(\S(?:.*?\S)?)\*\*`), "<strong>$1</strong>"},
	{regexp.MustCompile(`~~(\S(?:.*?\S)?)~~`), "<del>$1</del>"},
	{regexp.MustCompile(`\*(\S(?:.*?\S)?)\*`), "<em>$1</em>"},
}

// Emphasis applies markdown-style **bold**, *italic* and ~~strike~~.
func Emphasis(text string) string {
	if !strings.ContainsAny(text, "*~") {
		return text
	}
	for _, rule := range emphasisRules {
		text = rule.re.ReplaceAllString(text, rule.repl)
	}
	return text
}
