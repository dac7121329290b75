// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bizcheck/internal/render"
	"github.com/pdiddy/bizcheck/internal/view"
	"github.com/pdiddy/bizcheck/pkg/types"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session tokens",
	Long: `Login authenticates with the backend and stores the access and refresh
tokens in the session directory. Later commands send the access token and
renew it with the refresh token when it expires.`,
	RunE: runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and log in",
	RunE:  runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored session tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.auth.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	Long: `Whoami checks the stored tokens against the backend. Tokens the backend
rejects are discarded.`,
	RunE: runWhoami,
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().String("email", "", "account email")
		c.Flags().String("password", "", "account password")
		_ = c.MarkFlagRequired("email")
		_ = c.MarkFlagRequired("password")
	}
	registerCmd.Flags().String("name", "", "display name")
	whoamiCmd.Flags().Bool("json", false, "output the user as JSON")

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	s := view.NewSession(a.auth, a.router)
	if err := s.Login(cmd.Context(), email, password); err != nil {
		return withBanner(s.Error, err)
	}
	printUser(a, "Logged in as", s.User)
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	name, _ := cmd.Flags().GetString("name")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	s := view.NewSession(a.auth, a.router)
	if err := s.Register(cmd.Context(), email, password, name); err != nil {
		return withBanner(s.Error, err)
	}
	printUser(a, "Registered and logged in as", s.User)
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	s := view.NewSession(a.auth, a.router)
	if err := s.Restore(cmd.Context(), a.tokens.HasAccessToken()); err != nil {
		a.log.Debug("stored session rejected", "error", err)
	}
	if !s.LoggedIn() {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}
	if jsonOutput {
		return render.JSON(a.out, s.User)
	}
	printUser(a, "Logged in as", s.User)
	return nil
}

func printUser(a *app, prefix string, u *types.User) {
	if u.Name != "" {
		fmt.Fprintf(a.out, "%s %s <%s>\n", prefix, u.Name, u.Email)
		return
	}
	fmt.Fprintf(a.out, "%s %s\n", prefix, u.Email)
}
