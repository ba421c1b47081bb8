package main

import (
	"fmt"
	"strings"

	"github.com/lalith-99/pilgrimlink/internal/client"
	"github.com/spf13/cobra"
)

var (
	flagName     string
	flagEmail    string
	flagPassword string
	flagPhone    string
	flagRole     string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()

		res, err := apiClient.Register(ctx, client.RegisterRequest{
			Name:     flagName,
			Email:    flagEmail,
			Password: flagPassword,
			Phone:    flagPhone,
			Role:     strings.ToUpper(flagRole),
		})
		if err != nil {
			return err
		}
		return finishSignIn(res)
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()

		res, err := apiClient.Login(ctx, flagEmail, flagPassword)
		if err != nil {
			return err
		}
		return finishSignIn(res)
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user and the next onboarding step",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		me, err := apiClient.Me(ctx)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(me)
		}
		role := string(me.User.Role)
		if role == "" {
			role = "(none)"
		}
		fmt.Printf("%s <%s>\nrole: %s\nnext: %s\n", me.User.Name, me.User.Email, role, me.Next)
		return nil
	},
}

func finishSignIn(res *client.AuthResult) error {
	sess.Token = res.Token
	sess.Email = res.User.Email
	if err := saveSession(sess); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	if flagJSON {
		return printJSON(res.User)
	}
	fmt.Printf("Signed in as %s (%s)\n", res.User.Name, res.User.Email)
	return nil
}

func init() {
	registerCmd.Flags().StringVar(&flagName, "name", "", "Display name")
	registerCmd.Flags().StringVar(&flagPhone, "phone", "", "Phone number for announcement notifications")
	registerCmd.Flags().StringVar(&flagRole, "role", "", "GUIDE or PILGRIM (can be set later with \"groupctl role\")")
	for _, c := range []*cobra.Command{registerCmd, loginCmd} {
		c.Flags().StringVar(&flagEmail, "email", "", "Email address")
		c.Flags().StringVar(&flagPassword, "password", "", "Password")
		_ = c.MarkFlagRequired("email")
		_ = c.MarkFlagRequired("password")
	}
	_ = registerCmd.MarkFlagRequired("name")

	rootCmd.AddCommand(registerCmd, loginCmd, whoamiCmd)
}
