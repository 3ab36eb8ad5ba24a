package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPipeline(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "hello world", "hello world"},
		{"bold and italic", "**bold** and *it*", "<strong>bold</strong> and <em>it</em>"},
		{"strike", "~~gone~~", "<del>gone</del>"},
		{"lonely asterisks", "2 * 3 * 4", "2 * 3 * 4"},
		{"emoticon token", "hi :) there", "hi 😊 there"},
		{"emoticon inside word", "abc:)def", "abc:)def"},
		{"heart survives escaping", "i <3 go", "i ❤️ go"},
		{"html is escaped", "<script>x</script>", "&lt;script&gt;x&lt;/script&gt;"},
		{"markup in emphasis is escaped", "**<b>**", "<strong>&lt;b&gt;</strong>"},
		{"nfc", "e\u0301", "\u00e9"},
	}

	p := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Apply(tt.in))
		})
	}
}

func TestPipeline_AppliesInOrder(t *testing.T) {
	p := Pipeline{
		func(s string) string { return s + "a" },
		func(s string) string { return s + "b" },
	}
	assert.Equal(t, "xab", p.Apply("x"))
	assert.Equal(t, "x", Pipeline(nil).Apply("x"))
}
