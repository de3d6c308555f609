package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/servicebay-dev/servicebay/pkg/token"
)

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			session, err := a.session()
			if err != nil {
				return err
			}

			fmt.Printf("  Name:      %s\n", session.DisplayName())
			fmt.Printf("  Email:     %s\n", session.Email)
			fmt.Printf("  Role:      %s\n", session.Role)
			fmt.Printf("  Dashboard: %s\n", session.Role.DashboardPath())

			if pair, ok := a.controller.Pair(); ok {
				if claims, err := token.DecodeClaims(pair.Access); err == nil {
					left := claims.ExpiresIn(time.Now())
					if left > 0 {
						fmt.Printf("  Access:    expires in %s\n", left.Round(time.Second))
					} else {
						warn("Access token expired; the next call will refresh it")
					}
				}
			}
			return nil
		},
	}
}
