package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/servicebay-dev/servicebay/internal/stub"
)

func stubCmd() *cobra.Command {
	var (
		addr   string
		secret string
		quiet  bool
	)

	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Run a local in-memory backend",
		Long: `Run an in-memory ServiceBay backend for local development.

The API is served under /api and Prometheus metrics under /api/metrics.
Three accounts are seeded, all with the password "servicebay":

  admin@servicebay.dev      (admin)
  tech@servicebay.dev       (technician)
  customer@servicebay.dev   (customer)

Point the client at it with SERVICEBAY_API_URL=http://127.0.0.1:8000/api.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			if quiet {
				logger = slog.New(slog.NewTextHandler(io.Discard, nil))
			}

			backend := stub.New(stub.Config{
				Secret:  secret,
				Logger:  logger,
				Metrics: true,
			})
			r := chi.NewRouter()
			r.Mount("/api", backend.Handler())

			srv := &http.Server{
				Addr:              addr,
				Handler:           r,
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()

			success("Stub backend listening on http://%s/api", addr)
			info("Seeded accounts use the password \"servicebay\"")

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			info("Stopped")
			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "127.0.0.1:8000", "Listen address")
	cmd.Flags().StringVar(&secret, "secret", "", "Token signing secret (default: random)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress request logging")

	return cmd
}
