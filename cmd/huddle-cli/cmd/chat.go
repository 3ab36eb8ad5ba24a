package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nfrund/huddle/internal/client"
	"github.com/nfrund/huddle/internal/domain"
)

var chatName string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Join the room from the terminal",
	Long: `Join the room and chat from the terminal. Every line you type is sent as a
message. Server commands such as /nick, /color and /clear work as usual.

Local commands:
  /typing               tell others you are typing
  /stop                 tell others you stopped typing
  /react <id> <symbol>  toggle a reaction on a message; symbol is one of
                        the palette or its 1-based position in it
  /quit                 leave the room`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatName, "name", "n", "", "Display name to join with")
	_ = chatCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	c, err := client.Dial(cmd.Context(), serverURL, chatName)
	if err != nil {
		return err
	}
	defer c.Close()

	done := make(chan error, 1)
	go func() {
		for f := range c.Frames() {
			for _, line := range client.Describe(f) {
				fmt.Fprintln(out, line)
			}
		}
		if client.IsRefused(c.Err()) {
			done <- fmt.Errorf("server refused the name %q", chatName)
			return
		}
		done <- c.Err()
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case err := <-done:
			return err
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := handleLine(c, line); err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "!", err)
			}
		}
	}
}

// chatSender is the part of client.Client the input loop needs.
type chatSender interface {
	Say(text string) error
	Typing() error
	StopTyping() error
	React(messageID int64, symbol string) error
}

// handleLine sends one line of terminal input. It returns io.EOF for /quit.
func handleLine(c chatSender, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "/quit":
		return io.EOF
	case "/typing":
		return c.Typing()
	case "/stop":
		return c.StopTyping()
	case "/react":
		if len(fields) != 3 {
			return errors.New("usage: /react <id> <symbol>")
		}
		id, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return fmt.Errorf("bad message id %q", fields[1])
		}
		symbol, err := reactionSymbol(fields[2])
		if err != nil {
			return err
		}
		return c.React(id, symbol)
	default:
		return c.Say(line)
	}
}

// reactionSymbol resolves s against domain.DefaultReactions, either as the
// symbol itself or as its 1-based position.
func reactionSymbol(s string) (string, error) {
	if slices.Contains(domain.DefaultReactions, s) {
		return s, nil
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= len(domain.DefaultReactions) {
		return domain.DefaultReactions[n-1], nil
	}
	return "", fmt.Errorf("unknown reaction %q, pick one of %s", s, strings.Join(domain.DefaultReactions, " "))
}
