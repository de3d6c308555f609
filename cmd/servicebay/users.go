package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/servicebay-dev/servicebay/pkg/api"
)

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts (admin)",
	}
	cmd.AddCommand(
		usersListCmd(),
		usersShowCmd(),
		usersUpdateCmd(),
	)
	return cmd
}

func usersListCmd() *cobra.Command {
	var filter api.UserFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Long: `List accounts, optionally filtered.

Examples:
  servicebay users list --role technician
  servicebay users list --search smith --page 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			page, err := a.client.ListUsers(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printUserPage(page)
		},
	}

	cmd.Flags().StringVar(&filter.Role, "role", "", "Filter by role (customer, technician, admin)")
	cmd.Flags().StringVar(&filter.Search, "search", "", "Match email or name")
	cmd.Flags().IntVar(&filter.Page, "page", 0, "Result page")

	return cmd
}

func usersShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("bad user id %q", args[0])
			}
			user, err := a.client.GetUser(cmd.Context(), id)
			if err != nil {
				return err
			}
			printUser(user)
			return nil
		},
	}
}

func usersUpdateCmd() *cobra.Command {
	var (
		firstName  string
		lastName   string
		role       string
		activate   bool
		deactivate bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an account",
		Long: `Update an account's name, role or active flag.

The backend refuses self-deactivation and self-role-change.

Examples:
  servicebay users update 7 --role technician
  servicebay users update 9 --deactivate`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("bad user id %q", args[0])
			}
			if activate && deactivate {
				return fmt.Errorf("--activate and --deactivate are mutually exclusive")
			}

			var update api.UserUpdate
			if cmd.Flags().Changed("first-name") {
				update.FirstName = &firstName
			}
			if cmd.Flags().Changed("last-name") {
				update.LastName = &lastName
			}
			if cmd.Flags().Changed("role") {
				update.Role = &role
			}
			if activate || deactivate {
				active := activate
				update.IsActive = &active
			}
			if update == (api.UserUpdate{}) {
				return fmt.Errorf("nothing to update")
			}

			user, err := a.client.UpdateUser(cmd.Context(), id, update)
			if err != nil {
				return err
			}
			success("Account %s updated", user.Email)
			printUser(user)
			return nil
		},
	}

	cmd.Flags().StringVar(&firstName, "first-name", "", "New first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "New last name")
	cmd.Flags().StringVar(&role, "role", "", "New role")
	cmd.Flags().BoolVar(&activate, "activate", false, "Reactivate the account")
	cmd.Flags().BoolVar(&deactivate, "deactivate", false, "Deactivate the account")

	return cmd
}

func printUserPage(page *api.Page[api.User]) error {
	if len(page.Results) == 0 {
		info("No accounts")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tEMAIL\tNAME\tROLE\tACTIVE")
	for _, u := range page.Results {
		fmt.Fprintf(w, "  %d\t%s\t%s %s\t%s\t%v\n", u.ID, u.Email, u.FirstName, u.LastName, u.Role, u.IsActive)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if page.Count > len(page.Results) {
		info("%d of %d accounts; use --page to see more", len(page.Results), page.Count)
	}
	return nil
}

func printUser(u *api.User) {
	fmt.Printf("  ID:     %d\n", u.ID)
	fmt.Printf("  Email:  %s\n", u.Email)
	fmt.Printf("  Name:   %s %s\n", u.FirstName, u.LastName)
	if u.PhoneNumber != "" {
		fmt.Printf("  Phone:  %s\n", u.PhoneNumber)
	}
	fmt.Printf("  Role:   %s\n", u.Role)
	fmt.Printf("  Active: %v\n", u.IsActive)
}
