package main

import (
	"fmt"
	"strings"

	"github.com/lalith-99/pilgrimlink/internal/models"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send <text>",
	Short: "Post a text message to your current group",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		msg, err := apiClient.SendText(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printPosted(msg)
	},
}

var announceCmd = &cobra.Command{
	Use:   "announce <text>",
	Short: "Post an announcement and notify members by SMS (guides only)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		msg, err := apiClient.SendAnnouncement(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printPosted(msg)
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <image-file>",
	Short: "Post an image (max 5MB) to your current group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		msg, err := apiClient.SendImage(ctx, args[0])
		if err != nil {
			return err
		}
		return printPosted(msg)
	},
}

func printPosted(m *models.MessageView) error {
	if flagJSON {
		return printJSON(m)
	}
	fmt.Printf("Posted #%d\n", m.ID)
	return nil
}

// formatMessage renders one ledger line for the terminal.
func formatMessage(m models.MessageView) string {
	ts := m.CreatedAt.Local().Format("15:04")
	switch m.Type {
	case models.MessageImage:
		return fmt.Sprintf("[%s] %s sent an image: %s", ts, m.SenderName, deref(m.ImageURL))
	case models.MessageAnnouncement:
		return fmt.Sprintf("[%s] ** %s: %s **", ts, m.SenderName, deref(m.Text))
	default:
		return fmt.Sprintf("[%s] %s: %s", ts, m.SenderName, deref(m.Text))
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func init() {
	rootCmd.AddCommand(sendCmd, announceCmd, uploadCmd)
}
