package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/servicebay-dev/servicebay/pkg/api"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the admin dashboard counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			stats, err := a.client.DashboardStats(cmd.Context())
			if err != nil {
				return err
			}
			printStats(stats)
			return nil
		},
	}
}

func printStats(stats *api.DashboardStats) {
	fmt.Printf("  Tickets:      %d total, %d open, %d in progress\n",
		stats.TotalTickets, stats.OpenTickets, stats.InProgressTickets)
	fmt.Printf("  Customers:    %d\n", stats.TotalCustomers)
	fmt.Printf("  Technicians:  %d\n", stats.TotalTechnicians)
	fmt.Printf("  Admins:       %d\n", stats.TotalAdmins)
}
