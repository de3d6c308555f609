package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/servicebay-dev/servicebay/internal/config"
	"github.com/servicebay-dev/servicebay/pkg/api"
	"github.com/servicebay-dev/servicebay/pkg/auth"
	"github.com/servicebay-dev/servicebay/pkg/routes"
	"github.com/servicebay-dev/servicebay/pkg/token"
	"github.com/servicebay-dev/servicebay/pkg/transport"
)

// app wires the client stack the way every command consumes it: token
// file store, auth controller, authenticating transport, typed API
// client and the route guard.
type app struct {
	cfg        config.Config
	logger     *slog.Logger
	store      *token.FileStore
	controller *auth.Controller
	client     *api.Client
	guard      *routes.Guard
	registry   *routes.Registry
}

func newApp() (*app, error) {
	cfg := config.Load()
	logger := newLogger()

	store, err := token.NewFileStore(cfg.TokenPath)
	if err != nil {
		return nil, fmt.Errorf("open token store: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, store: store, registry: routes.DefaultRegistry()}

	a.controller, err = auth.NewController(auth.Config{
		BaseURL:         cfg.BaseURL,
		Store:           store,
		HTTPClient:      &http.Client{Timeout: cfg.HTTPTimeout},
		Navigate:        a.navigate,
		Logger:          logger,
		RefreshInterval: cfg.RefreshInterval,
	})
	if err != nil {
		return nil, err
	}

	rt := transport.New(store, a.controller,
		transport.WithNavigator(a.navigate),
		transport.WithLogger(logger),
	)
	a.client = api.NewClient(cfg.BaseURL, &http.Client{Transport: rt}, api.WithClientLogger(logger))
	a.guard = routes.NewGuard(a.registry, a.controller, logger)
	return a, nil
}

// navigate is the CLI's rendition of a browser redirect.
func (a *app) navigate(path string) {
	fmt.Printf("\033[2m→ %s\033[0m\n", path)
}

// session returns the active session or an error telling the user to
// log in.
func (a *app) session() (*auth.Session, error) {
	session, ok := a.controller.Session()
	if !ok {
		return nil, fmt.Errorf("not logged in; run `servicebay login` first")
	}
	return session, nil
}

// newLogger builds the CLI's stderr logger. SERVICEBAY_LOG=debug turns
// on request-level output.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	switch strings.ToLower(os.Getenv("SERVICEBAY_LOG")) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
