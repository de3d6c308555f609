package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/servicebay-dev/servicebay/pkg/api"
	"github.com/servicebay-dev/servicebay/pkg/auth"
	"github.com/servicebay-dev/servicebay/pkg/routes"
)

func openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Open an app view by path",
		Long: `Open a ServiceBay view by its path, enforcing the same access
rules as the web app. Redirects are followed and printed.

Examples:
  servicebay open /dashboard/customer
  servicebay open /tickets/42
  servicebay open /admin/users`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			return renderPath(cmd.Context(), a, args[0])
		},
	}
}

// renderPath runs a path through the route guard, following redirects
// until a view renders.
func renderPath(ctx context.Context, a *app, path string) error {
	for hops := 0; hops < 4; hops++ {
		result := a.guard.Evaluate(path)
		switch result.Decision {
		case routes.DecisionNotFound:
			return fmt.Errorf("no such view: %s", result.From)
		case routes.DecisionRedirectLogin:
			warn("%s requires login", result.From)
			a.navigate(result.Target)
			info("Run `servicebay login <email>` and retry")
			return nil
		case routes.DecisionRedirectDashboard:
			a.navigate(result.Target)
			path = result.Target
			continue
		case routes.DecisionLoading:
			return fmt.Errorf("session not ready")
		}
		return renderView(ctx, a, result)
	}
	return fmt.Errorf("redirect loop at %s", path)
}

// renderView prints the view a decision allowed.
func renderView(ctx context.Context, a *app, result routes.Result) error {
	fmt.Printf("\033[1m%s\033[0m\n", result.Route.Title)

	switch result.Route.Pattern {
	case auth.PathRoot:
		info("Welcome to ServiceBay. Log in or create an account to file a ticket.")
		return nil
	case auth.PathLogin:
		info("Run `servicebay login <email>`")
		return nil
	case "/register":
		info("Run `servicebay register <email>`")
		return nil
	case auth.PathCustomerDashboard, auth.PathMechanicDashboard:
		tickets, err := a.client.ListTickets(ctx, api.TicketFilter{})
		if err != nil {
			return err
		}
		return printTickets(tickets)
	case "/tickets/new":
		info("Run `servicebay tickets create --title ... --description ...`")
		return nil
	case "/tickets/{id}":
		id, err := strconv.ParseInt(result.Params["id"], 10, 64)
		if err != nil {
			return fmt.Errorf("bad ticket id %q", result.Params["id"])
		}
		ticket, err := a.client.GetTicket(ctx, id)
		if err != nil {
			return err
		}
		printTicket(ticket)
		return nil
	case auth.PathAdminDashboard:
		stats, err := a.client.DashboardStats(ctx)
		if err != nil {
			return err
		}
		printStats(stats)
		return nil
	case "/admin/tickets":
		page, err := a.client.ListTicketsPage(ctx, api.TicketFilter{})
		if err != nil {
			return err
		}
		return printTicketPage(page)
	case "/admin/users":
		page, err := a.client.ListUsers(ctx, api.UserFilter{})
		if err != nil {
			return err
		}
		return printUserPage(page)
	}
	return nil
}
