package main

import (
	"github.com/spf13/cobra"

	"github.com/servicebay-dev/servicebay/pkg/api"
)

func registerCmd() *cobra.Command {
	var reg api.Registration

	cmd := &cobra.Command{
		Use:   "register <email>",
		Short: "Create a customer account",
		Long: `Create a new ServiceBay account.

Self-registered accounts get the customer role. Admins create
technician and admin accounts through the backend.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			reg.Email = args[0]

			user, err := a.client.Register(cmd.Context(), reg)
			if err != nil {
				return err
			}
			success("Account created for %s (%s)", user.Email, user.Role)
			info("Log in with `servicebay login %s`", user.Email)
			return nil
		},
	}

	cmd.Flags().StringVarP(&reg.Password, "password", "p", "", "Password")
	cmd.Flags().StringVar(&reg.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&reg.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&reg.PhoneNumber, "phone", "", "Phone number")
	cmd.MarkFlagRequired("password")

	return cmd
}
