package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/servicebay-dev/servicebay/pkg/api"
	"github.com/servicebay-dev/servicebay/pkg/auth"
)

func ticketsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "List and manage service tickets",
	}
	cmd.AddCommand(
		ticketsListCmd(),
		ticketsShowCmd(),
		ticketsCreateCmd(),
		ticketsUpdateCmd(),
	)
	return cmd
}

func ticketsListCmd() *cobra.Command {
	var (
		status string
		page   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tickets visible to you",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			session, err := a.session()
			if err != nil {
				return err
			}

			filter := api.TicketFilter{Status: status, Page: page}
			if session.Role == auth.RoleAdmin {
				p, err := a.client.ListTicketsPage(cmd.Context(), filter)
				if err != nil {
					return err
				}
				return printTicketPage(p)
			}
			tickets, err := a.client.ListTickets(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printTickets(tickets)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (e.g. Open, In Progress)")
	cmd.Flags().IntVar(&page, "page", 0, "Result page (admin listing only)")

	return cmd
}

func ticketsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("bad ticket id %q", args[0])
			}
			ticket, err := a.client.GetTicket(cmd.Context(), id)
			if err != nil {
				return err
			}
			printTicket(ticket)
			return nil
		},
	}
}

func ticketsCreateCmd() *cobra.Command {
	var in api.NewTicket

	cmd := &cobra.Command{
		Use:   "create",
		Short: "File a new service ticket",
		Long: `File a new service ticket for your vehicle.

Examples:
  servicebay tickets create --title "Brakes squeal" \
      --description "Front brakes squeal at low speed" \
      --category Brakes --priority Urgent \
      --make Subaru --model Outback --year 2019`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			ticket, err := a.client.CreateTicket(cmd.Context(), in)
			if err != nil {
				return err
			}
			success("Ticket #%d filed: %s", ticket.ID, ticket.Title)
			info("Status %s, priority %s", ticket.Status, ticket.Priority)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Title, "title", "", "Short summary")
	cmd.Flags().StringVar(&in.Description, "description", "", "Problem description")
	cmd.Flags().StringVar(&in.Priority, "priority", "", "Priority (Routine, Standard, Urgent, Critical)")
	cmd.Flags().StringVar(&in.Category, "category", "", "Service category (Engine, Brakes, ...)")
	cmd.Flags().StringVar(&in.VehicleMake, "make", "", "Vehicle make")
	cmd.Flags().StringVar(&in.VehicleModel, "model", "", "Vehicle model")
	cmd.Flags().IntVar(&in.VehicleYear, "year", 0, "Vehicle year")
	cmd.Flags().StringVar(&in.LicensePlate, "plate", "", "License plate")
	cmd.Flags().StringVar(&in.VIN, "vin", "", "VIN")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("description")

	return cmd
}

func ticketsUpdateCmd() *cobra.Command {
	var (
		status   string
		priority string
		assignTo int64
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a ticket's status, priority or assignee",
		Long: `Update a ticket. Technicians and admins only; status changes
notify the ticket's creator and assignment notifies the technician.

Examples:
  servicebay tickets update 42 --status "In Progress"
  servicebay tickets update 42 --assign 7 --priority Urgent`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("bad ticket id %q", args[0])
			}

			var update api.TicketUpdate
			if cmd.Flags().Changed("status") {
				update.Status = &status
			}
			if cmd.Flags().Changed("priority") {
				update.Priority = &priority
			}
			if cmd.Flags().Changed("assign") {
				update.AssignedTo = &assignTo
			}
			if update == (api.TicketUpdate{}) {
				return fmt.Errorf("nothing to update; pass --status, --priority or --assign")
			}

			ticket, err := a.client.UpdateTicket(cmd.Context(), id, update)
			if err != nil {
				return err
			}
			success("Ticket #%d updated", ticket.ID)
			printTicket(ticket)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "New status")
	cmd.Flags().StringVar(&priority, "priority", "", "New priority")
	cmd.Flags().Int64Var(&assignTo, "assign", 0, "Technician user ID to assign")

	return cmd
}

func printTickets(tickets []api.Ticket) error {
	if len(tickets) == 0 {
		info("No tickets")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tSTATUS\tPRIORITY\tTITLE\tVEHICLE")
	for _, t := range tickets {
		fmt.Fprintf(w, "  %d\t%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Priority, t.Title, vehicle(&t))
	}
	return w.Flush()
}

func printTicketPage(page *api.Page[api.Ticket]) error {
	if err := printTickets(page.Results); err != nil {
		return err
	}
	if page.Count > len(page.Results) {
		info("%d of %d tickets; use --page to see more", len(page.Results), page.Count)
	}
	return nil
}

func printTicket(t *api.Ticket) {
	fmt.Printf("  Ticket:      #%d (%s)\n", t.ID, t.Title)
	fmt.Printf("  Status:      %s\n", t.Status)
	fmt.Printf("  Priority:    %s\n", t.Priority)
	fmt.Printf("  Category:    %s\n", t.Category)
	if v := vehicle(t); v != "" {
		fmt.Printf("  Vehicle:     %s\n", v)
	}
	if t.CreatedByEmail != "" {
		fmt.Printf("  Filed by:    %s\n", t.CreatedByEmail)
	}
	if t.AssignedToEmail != "" {
		fmt.Printf("  Assigned to: %s\n", t.AssignedToEmail)
	}
	fmt.Printf("  Filed:       %s\n", t.CreatedAt.Local().Format("2006-01-02 15:04"))
	if t.ClosedAt != nil {
		fmt.Printf("  Closed:      %s\n", t.ClosedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Printf("\n  %s\n", t.Description)
}

func vehicle(t *api.Ticket) string {
	if t.VehicleMake == "" && t.VehicleModel == "" {
		return ""
	}
	s := t.VehicleMake + " " + t.VehicleModel
	if t.VehicleYear > 0 {
		s = fmt.Sprintf("%s (%d)", s, t.VehicleYear)
	}
	return s
}
