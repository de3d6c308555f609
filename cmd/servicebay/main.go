package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "servicebay",
		Short: "Command-line client for the ServiceBay garage",
		Long: `ServiceBay is a client for the ServiceBay vehicle-service API.

Log in once and the session persists on disk; expired access tokens
are refreshed transparently on the next call. What you can see and do
follows your account's role:

  • Customers file and track their own service tickets
  • Technicians work the queue assigned to them
  • Admins manage every ticket, user and the dashboard counters`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		loginCmd(),
		logoutCmd(),
		whoamiCmd(),
		registerCmd(),
		openCmd(),
		ticketsCmd(),
		usersCmd(),
		notificationsCmd(),
		statsCmd(),
		stubCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
