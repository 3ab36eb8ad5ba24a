package cmd

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	said    []string
	typing  int
	stopped int
	reacted []string
}

func (f *fakeSender) Say(text string) error { f.said = append(f.said, text); return nil }
func (f *fakeSender) Typing() error        { f.typing++; return nil }
func (f *fakeSender) StopTyping() error    { f.stopped++; return nil }
func (f *fakeSender) React(id int64, symbol string) error {
	f.reacted = append(f.reacted, symbol)
	return nil
}

func TestHandleLine(t *testing.T) {
	f := &fakeSender{}

	require.NoError(t, handleLine(f, "hello there"))
	require.NoError(t, handleLine(f, "/nick Bob"))
	require.NoError(t, handleLine(f, "   "))
	require.NoError(t, handleLine(f, "/typing"))
	require.NoError(t, handleLine(f, "/stop"))
	require.NoError(t, handleLine(f, "/react 1714564800000 👍"))
	require.NoError(t, handleLine(f, "/react 1714564800000 6"))

	assert.Equal(t, []string{"hello there", "/nick Bob"}, f.said)
	assert.Equal(t, 1, f.typing)
	assert.Equal(t, 1, f.stopped)
	assert.Equal(t, []string{"👍", "❤️"}, f.reacted)

	assert.Error(t, handleLine(f, "/react 1"))
	assert.Error(t, handleLine(f, "/react abc 👍"))
	assert.ErrorContains(t, handleLine(f, "/react 1 🦄"), "unknown reaction")
	assert.Error(t, handleLine(f, "/react 1 7"))
	assert.Len(t, f.reacted, 2, "rejected reactions must not be sent")
	assert.ErrorIs(t, handleLine(f, "/quit"), io.EOF)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "huddle-cli v"+version+"\n", out.String())
}
