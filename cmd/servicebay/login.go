package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func loginCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Log in and persist the session",
		Long: `Log in with your ServiceBay account.

The token pair is stored on disk, so subsequent commands reuse the
session until it expires or you log out.

Examples:
  servicebay login customer@example.com
  servicebay login admin@example.com --password secret`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			if password == "" {
				fmt.Print("Password: ")
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimSpace(line)
			}

			dashboard, err := a.controller.Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}

			session, _ := a.controller.Session()
			success("Logged in as %s (%s)", session.DisplayName(), session.Role)
			info("Session stored at %s", a.store.Path())
			a.navigate(dashboard)
			return renderPath(cmd.Context(), a, dashboard)
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and clear stored tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			a.controller.Logout()
			success("Logged out")
			return nil
		},
	}
}
