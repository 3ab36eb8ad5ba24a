package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "huddle-cli",
	Short: "Huddle command line client",
	Long: `huddle-cli talks to a running huddle server.

Available commands:
  chat       Join the room from the terminal
  health     Check that the server is up
  version    Print the client version

Use "huddle-cli [command] --help" for more information about a specific command.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", envOr("HUDDLE_URL", "http://localhost:3000"), "Base URL of the huddle server")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
