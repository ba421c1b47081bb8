package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/lalith-99/pilgrimlink/internal/models"
	"github.com/spf13/cobra"
)

var roleCmd = &cobra.Command{
	Use:       "role <GUIDE|PILGRIM>",
	Short:     "Choose your role",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(models.RoleGuide), string(models.RolePilgrim)},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		role := models.Role(strings.ToUpper(args[0]))
		if err := apiClient.AssignRole(ctx, role); err != nil {
			return err
		}
		fmt.Printf("Role set to %s\n", role)
		return nil
	},
}

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a group (guides only) and print its join code",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		g, err := apiClient.CreateGroup(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(g)
		}
		fmt.Printf("Created %q\ncode: %s\nid:   %s\n", g.Name, g.Code, g.ID)
		return nil
	},
}

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List the groups you guide",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		groups, err := apiClient.ListGroups(ctx)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(groups)
		}
		if len(groups) == 0 {
			fmt.Println("No groups yet. Create one with \"groupctl create <name>\".")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CODE\tNAME\tMEMBERS\tMESSAGES\tID")
		for _, g := range groups {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", g.Code, g.Name, g.MemberCount, g.MessageCount, g.ID)
		}
		return w.Flush()
	},
}

var joinCmd = &cobra.Command{
	Use:   "join <code>",
	Short: "Join a group by its code (pilgrims only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		res, err := apiClient.JoinGroup(ctx, args[0])
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(res)
		}
		fmt.Printf("Joined %q (guide: %s)\n", res.Group.Name, res.Group.GuideName)
		return nil
	},
}

var openCmd = &cobra.Command{
	Use:   "open <group-id>",
	Short: "Make a group your current group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid group id %q", args[0])
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		if err := apiClient.OpenGroup(ctx, id); err != nil {
			return err
		}
		fmt.Printf("Current group is now %s\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(roleCmd, createCmd, groupsCmd, joinCmd, openCmd)
}
