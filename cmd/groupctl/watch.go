package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/lalith-99/pilgrimlink/internal/client"
	"github.com/lalith-99/pilgrimlink/internal/models"
	"github.com/spf13/cobra"
)

var flagInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow your current group, printing new messages as they arrive",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		poller := client.NewPoller(apiClient, flagInterval)
		poller.OnError = func(err error) {
			fmt.Fprintln(os.Stderr, "poll failed:", err)
		}

		var header groupHeader
		err := poller.Run(ctx, client.OnlyNew(func(g models.GroupSummary, fresh []models.MessageView) error {
			if header.first(g) {
				fmt.Printf("== %s (code %s, guide %s) ==\n", g.Name, g.Code, g.GuideName)
			}
			for _, m := range fresh {
				fmt.Println(formatMessage(m))
			}
			return nil
		}))

		switch {
		case errors.Is(err, client.ErrNoCurrentGroup):
			return fmt.Errorf("you are not in a group; use \"groupctl join <code>\" or \"groupctl create <name>\"")
		case errors.Is(err, context.Canceled):
			return nil
		default:
			return err
		}
	},
}

// groupHeader reports true whenever the polled group differs from the last one.
type groupHeader struct {
	last models.GroupSummary
	set  bool
}

func (o *groupHeader) first(g models.GroupSummary) bool {
	if o.set && o.last.ID == g.ID {
		return false
	}
	o.last, o.set = g, true
	return true
}

func init() {
	watchCmd.Flags().DurationVar(&flagInterval, "interval", client.DefaultPollInterval, "Polling interval")
	rootCmd.AddCommand(watchCmd)
}
