package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the server is up",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := &http.Client{Timeout: 5 * time.Second}
		resp, err := client.Get(strings.TrimSuffix(serverURL, "/") + "/health")
		if err != nil {
			return fmt.Errorf("health check: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("health check: unexpected status %s", resp.Status)
		}

		var body struct {
			Status  string `json:"status"`
			Sockets int    `json:"sockets"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return fmt.Errorf("health check: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%d sockets)\n", body.Status, body.Sockets)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
