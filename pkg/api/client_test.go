package api_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/servicebay-dev/servicebay/internal/stub"
	"github.com/servicebay-dev/servicebay/pkg/api"
	"github.com/servicebay-dev/servicebay/pkg/auth"
	"github.com/servicebay-dev/servicebay/pkg/token"
	"github.com/servicebay-dev/servicebay/pkg/transport"
)

// clientFixture wires the full client stack against the in-memory
// backend: token store, auth controller, authenticating transport and
// typed API client, the same way the CLI assembles them.
type clientFixture struct {
	store      *token.MemoryStore
	controller *auth.Controller
	client     *api.Client
	lastNav    string
}

func newFixture(t *testing.T) (*clientFixture, *httptest.Server) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := stub.New(stub.Config{Secret: "client-test-secret", Logger: logger})
	ts := httptest.NewServer(backend.Handler())
	t.Cleanup(ts.Close)

	return newStack(t, ts.URL), ts
}

// newStack assembles one independent client stack against baseURL.
func newStack(t *testing.T, baseURL string) *clientFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &clientFixture{store: token.NewMemoryStore()}
	controller, err := auth.NewController(auth.Config{
		BaseURL:  baseURL,
		Store:    f.store,
		Navigate: func(path string) { f.lastNav = path },
		Logger:   logger,
	})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	f.controller = controller

	rt := transport.New(f.store, controller,
		transport.WithNavigator(func(path string) { f.lastNav = path }),
		transport.WithLogger(logger),
	)
	f.client = api.NewClient(baseURL, &http.Client{Transport: rt},
		api.WithClientLogger(logger))
	return f
}

func (f *clientFixture) login(t *testing.T, email string) {
	t.Helper()
	if _, err := f.controller.Login(context.Background(), email, "servicebay"); err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
}

func TestLoginAndMe(t *testing.T) {
	f, _ := newFixture(t)
	f.login(t, "customer@servicebay.dev")

	me, err := f.client.Me(context.Background())
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.Email != "customer@servicebay.dev" || me.Role != "customer" {
		t.Errorf("me = %+v", me)
	}
}

func TestBadCredentialsSurfaceBackendDetail(t *testing.T) {
	f, _ := newFixture(t)

	_, err := f.controller.Login(context.Background(), "customer@servicebay.dev", "wrong")
	var authErr *auth.AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("error = %v, want *AuthenticationError", err)
	}
	if authErr.Detail != "No active account found with the given credentials" {
		t.Errorf("detail = %q", authErr.Detail)
	}
}

func TestExpiredAccessIsRefreshedAndRetried(t *testing.T) {
	f, _ := newFixture(t)
	f.login(t, "customer@servicebay.dev")

	// Corrupt the stored access token. The next call gets a 401, the
	// transport refreshes through the controller and replays.
	pair, ok, err := f.store.Load()
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if err := f.store.Save(token.Pair{Access: "stale", Refresh: pair.Refresh}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	me, err := f.client.Me(context.Background())
	if err != nil {
		t.Fatalf("Me after stale access: %v", err)
	}
	if me.Email != "customer@servicebay.dev" {
		t.Errorf("me = %+v", me)
	}

	refreshed, ok, _ := f.store.Load()
	if !ok || refreshed.Access == "stale" {
		t.Error("store still holds the stale access token")
	}
	if refreshed.Refresh != pair.Refresh {
		t.Error("refresh token changed on an access-only refresh")
	}
}

func TestDeactivatedUserIsLoggedOut(t *testing.T) {
	f, ts := newFixture(t)
	ctx := context.Background()

	f.login(t, "customer@servicebay.dev")
	me, err := f.client.Me(ctx)
	if err != nil {
		t.Fatalf("Me: %v", err)
	}

	// An admin on a separate session deactivates the customer. The
	// customer's next call 401s, its refresh is rejected too, and the
	// transport ends the session.
	admin := newStack(t, ts.URL)
	admin.login(t, "admin@servicebay.dev")
	inactive := false
	if _, err := admin.client.UpdateUser(ctx, me.ID, api.UserUpdate{IsActive: &inactive}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	if _, err := f.client.Me(ctx); err == nil {
		t.Fatal("expected an error")
	}
	if _, ok, _ := f.store.Load(); ok {
		t.Error("store not cleared after failed refresh")
	}
	if f.lastNav != "/login" {
		t.Errorf("navigated to %q, want /login", f.lastNav)
	}
}

func TestTicketLifecycle(t *testing.T) {
	f, _ := newFixture(t)
	ctx := context.Background()

	f.login(t, "customer@servicebay.dev")
	created, err := f.client.CreateTicket(ctx, api.NewTicket{
		Title:        "Timing belt",
		Description:  "Rattle on cold start.",
		Category:     api.CategoryEngine,
		Priority:     api.PriorityUrgent,
		VehicleMake:  "Subaru",
		VehicleModel: "Outback",
		VehicleYear:  2019,
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if created.Status != api.StatusOpen || created.Priority != api.PriorityUrgent {
		t.Errorf("created = %+v", created)
	}

	mine, err := f.client.ListTickets(ctx, api.TicketFilter{})
	if err != nil {
		t.Fatalf("ListTickets: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != created.ID {
		t.Errorf("tickets = %+v", mine)
	}

	got, err := f.client.GetTicket(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTicket: %v", err)
	}
	if got.VehicleMake != "Subaru" {
		t.Errorf("ticket = %+v", got)
	}

	// Admin sees the same ticket through the paginated listing and can
	// move it along.
	f.login(t, "admin@servicebay.dev")
	page, err := f.client.ListTicketsPage(ctx, api.TicketFilter{})
	if err != nil {
		t.Fatalf("ListTicketsPage: %v", err)
	}
	if page.Count != 1 {
		t.Errorf("count = %d", page.Count)
	}

	scheduled := api.StatusScheduled
	updated, err := f.client.UpdateTicket(ctx, created.ID, api.TicketUpdate{Status: &scheduled})
	if err != nil {
		t.Fatalf("UpdateTicket: %v", err)
	}
	if updated.Status != api.StatusScheduled {
		t.Errorf("status = %q", updated.Status)
	}

	// Both listing shapes decode through ListTickets.
	all, err := f.client.ListTickets(ctx, api.TicketFilter{Status: api.StatusScheduled})
	if err != nil {
		t.Fatalf("ListTickets (admin): %v", err)
	}
	if len(all) != 1 {
		t.Errorf("admin tickets = %+v", all)
	}
}

func TestNotificationsFlow(t *testing.T) {
	f, _ := newFixture(t)
	ctx := context.Background()

	f.login(t, "customer@servicebay.dev")
	created, err := f.client.CreateTicket(ctx, api.NewTicket{
		Title:       "Flat tire",
		Description: "Rear left is losing air.",
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	f.login(t, "admin@servicebay.dev")
	inProgress := api.StatusInProgress
	if _, err := f.client.UpdateTicket(ctx, created.ID, api.TicketUpdate{Status: &inProgress}); err != nil {
		t.Fatalf("UpdateTicket: %v", err)
	}

	f.login(t, "customer@servicebay.dev")
	notes, err := f.client.ListNotifications(ctx)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(notes) != 1 || notes[0].IsRead {
		t.Fatalf("notifications = %+v", notes)
	}

	if err := f.client.MarkAllNotificationsRead(ctx); err != nil {
		t.Fatalf("MarkAllNotificationsRead: %v", err)
	}
	notes, _ = f.client.ListNotifications(ctx)
	if len(notes) != 1 || !notes[0].IsRead {
		t.Errorf("after mark-all-read: %+v", notes)
	}
}

func TestAdminUserManagement(t *testing.T) {
	f, _ := newFixture(t)
	ctx := context.Background()

	f.login(t, "customer@servicebay.dev")
	_, err := f.client.ListUsers(ctx, api.UserFilter{})
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden {
		t.Fatalf("customer ListUsers error = %v", err)
	}

	f.login(t, "admin@servicebay.dev")
	page, err := f.client.ListUsers(ctx, api.UserFilter{Role: "technician"})
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if page.Count != 1 || page.Results[0].Email != "tech@servicebay.dev" {
		t.Errorf("page = %+v", page)
	}

	tech, err := f.client.GetUser(ctx, page.Results[0].ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	first := "Theodora"
	updated, err := f.client.UpdateUser(ctx, tech.ID, api.UserUpdate{FirstName: &first})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if updated.FirstName != "Theodora" {
		t.Errorf("updated = %+v", updated)
	}

	stats, err := f.client.DashboardStats(ctx)
	if err != nil {
		t.Fatalf("DashboardStats: %v", err)
	}
	if stats.TotalCustomers != 1 || stats.TotalTechnicians != 1 || stats.TotalAdmins != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f, _ := newFixture(t)
	ctx := context.Background()

	created, err := f.client.Register(ctx, api.Registration{
		Email:     "dup@servicebay.dev",
		Password:  "servicebay",
		FirstName: "Dee",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if created.Role != "customer" {
		t.Errorf("role = %q", created.Role)
	}

	_, err = f.client.Register(ctx, api.Registration{
		Email:    "dup@servicebay.dev",
		Password: "servicebay",
	})
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate register error = %v", err)
	}
}
