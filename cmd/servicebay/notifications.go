package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/servicebay-dev/servicebay/pkg/api"
	"github.com/servicebay-dev/servicebay/pkg/notify"
)

func notificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notify"},
		Short:   "Read and watch your notifications",
	}
	cmd.AddCommand(
		notificationsListCmd(),
		notificationsReadCmd(),
		notificationsWatchCmd(),
	)
	return cmd
}

func notificationsListCmd() *cobra.Command {
	var unreadOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			notes, err := a.client.ListNotifications(cmd.Context())
			if err != nil {
				return err
			}

			shown := 0
			for _, n := range notes {
				if unreadOnly && n.IsRead {
					continue
				}
				printNotification(n)
				shown++
			}
			if shown == 0 {
				info("No notifications")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&unreadOnly, "unread", "u", false, "Only unread notifications")

	return cmd
}

func notificationsReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read",
		Short: "Mark all notifications read",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.client.MarkAllNotificationsRead(cmd.Context()); err != nil {
				return err
			}
			success("All notifications marked read")
			return nil
		},
	}
}

func notificationsWatchCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll for new notifications until interrupted",
		Long: `Poll the backend and print notifications as they arrive.

The session's access token is refreshed in the background for as long
as the watch runs. Stop with Ctrl-C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			session, err := a.session()
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = a.cfg.PollInterval
			}

			a.controller.StartAutoRefresh()
			defer a.controller.StopAutoRefresh()

			poller, err := notify.NewPoller(notify.PollerConfig{
				Fetch:    a.client.ListNotifications,
				Handler:  func(fresh []api.Notification) { printNotifications(fresh) },
				Interval: interval,
				Logger:   a.logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			info("Watching notifications for %s every %s (Ctrl-C to stop)", session.Email, interval)
			if err := poller.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			poller.Stop()
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Polling interval (default from config)")

	return cmd
}

func printNotifications(notes []api.Notification) {
	for _, n := range notes {
		printNotification(n)
	}
}

func printNotification(n api.Notification) {
	marker := "•"
	if !n.IsRead {
		marker = "\033[33m●\033[0m"
	}
	fmt.Printf("  %s %s  %s\n", marker, n.CreatedAt.Local().Format("2006-01-02 15:04"), n.Message)
}
