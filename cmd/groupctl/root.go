package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/lalith-99/pilgrimlink/internal/client"
	"github.com/spf13/cobra"
)

var (
	flagJSON      bool
	flagServerURL string
	flagTimeout   time.Duration

	sess      *session
	apiClient *client.Client
)

var rootCmd = &cobra.Command{
	Use:   "groupctl",
	Short: "PilgrimLink from the terminal",
	Long: `groupctl talks to a PilgrimLink server.

Get started:
  groupctl register --name "Aisha" --email a@example.com --password secret123
  groupctl role PILGRIM
  groupctl join K7M2QX
  groupctl send "Hello"
  groupctl watch`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		sess, err = loadSession()
		if err != nil {
			return err
		}
		if flagServerURL != "" {
			sess.ServerURL = flagServerURL
		}
		apiClient = client.New(sess.ServerURL, sess.Token)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().StringVar(&flagServerURL, "server", "", "Server URL (default: from session or "+defaultURL+")")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 30*time.Second, "Request timeout")
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func requireAuth() error {
	if sess == nil || sess.Token == "" {
		return fmt.Errorf("not signed in, run \"groupctl login\" first")
	}
	return nil
}

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), flagTimeout)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
