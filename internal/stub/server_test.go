package stub

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/servicebay-dev/servicebay/pkg/api"
	"github.com/servicebay-dev/servicebay/pkg/token"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New(Config{
		Secret: "test-secret",
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func doJSON(t *testing.T, method, url, bearer string, in, out any) int {
	t.Helper()
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode %s %s response: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func login(t *testing.T, baseURL, email string) token.Pair {
	t.Helper()
	var pair token.Pair
	status := doJSON(t, http.MethodPost, baseURL+"/token/", "",
		map[string]string{"email": email, "password": "servicebay"}, &pair)
	if status != http.StatusOK {
		t.Fatalf("login %s: status %d", email, status)
	}
	return pair
}

func TestLoginIssuesDecodableTokens(t *testing.T) {
	_, ts := newTestServer(t)

	pair := login(t, ts.URL, "customer@servicebay.dev")
	if pair.Access == "" || pair.Refresh == "" {
		t.Fatalf("expected both tokens, got %+v", pair)
	}

	claims, err := token.DecodeClaims(pair.Access)
	if err != nil {
		t.Fatalf("DecodeClaims: %v", err)
	}
	if claims.Email != "customer@servicebay.dev" || claims.Role != "customer" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.FirstName == "" {
		t.Error("expected first_name claim")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	_, ts := newTestServer(t)

	var body map[string]string
	status := doJSON(t, http.MethodPost, ts.URL+"/token/", "",
		map[string]string{"email": "customer@servicebay.dev", "password": "wrong"}, &body)
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", status)
	}
	if body["detail"] != "No active account found with the given credentials" {
		t.Errorf("detail = %q", body["detail"])
	}
}

func TestRefreshReturnsAccessOnly(t *testing.T) {
	_, ts := newTestServer(t)
	pair := login(t, ts.URL, "customer@servicebay.dev")

	var body map[string]string
	status := doJSON(t, http.MethodPost, ts.URL+"/token/refresh/", "",
		map[string]string{"refresh": pair.Refresh}, &body)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body["access"] == "" {
		t.Error("expected a new access token")
	}
	if _, ok := body["refresh"]; ok {
		t.Error("refresh endpoint must not rotate the refresh token")
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	_, ts := newTestServer(t)
	pair := login(t, ts.URL, "customer@servicebay.dev")

	var body map[string]string
	status := doJSON(t, http.MethodPost, ts.URL+"/token/refresh/", "",
		map[string]string{"refresh": pair.Access}, &body)
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", status)
	}
	if body["detail"] != "Token is invalid or expired" {
		t.Errorf("detail = %q", body["detail"])
	}
}

func TestProtectedEndpointsRequireValidToken(t *testing.T) {
	_, ts := newTestServer(t)

	if status := doJSON(t, http.MethodGet, ts.URL+"/users/me/", "", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", status)
	}
	if status := doJSON(t, http.MethodGet, ts.URL+"/users/me/", "garbage", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", status)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	_, ts := newTestServer(t)

	var user api.User
	status := doJSON(t, http.MethodPost, ts.URL+"/users/register/", "", api.Registration{
		Email:     "new@servicebay.dev",
		Password:  "servicebay",
		FirstName: "Nina",
		LastName:  "New",
	}, &user)
	if status != http.StatusCreated {
		t.Fatalf("register: status = %d", status)
	}
	if user.Role != "customer" {
		t.Errorf("role = %q, want customer", user.Role)
	}

	pair := login(t, ts.URL, "new@servicebay.dev")
	if pair.Access == "" {
		t.Error("registered account cannot log in")
	}

	status = doJSON(t, http.MethodPost, ts.URL+"/users/register/", "", api.Registration{
		Email:    "new@servicebay.dev",
		Password: "servicebay",
	}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("duplicate email: status = %d, want 400", status)
	}
}

func TestTicketVisibilityByRole(t *testing.T) {
	_, ts := newTestServer(t)
	customer := login(t, ts.URL, "customer@servicebay.dev")
	tech := login(t, ts.URL, "tech@servicebay.dev")
	admin := login(t, ts.URL, "admin@servicebay.dev")

	var created api.Ticket
	status := doJSON(t, http.MethodPost, ts.URL+"/tickets/", customer.Access, api.NewTicket{
		Title:       "Brakes squeal",
		Description: "Front brakes squeal at low speed.",
		Category:    api.CategoryBrakes,
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("create ticket: status = %d", status)
	}
	if created.Status != api.StatusOpen || created.CustomerTicketID != 1 {
		t.Errorf("created = %+v", created)
	}

	// Customer sees its own ticket as a bare array.
	var mine []api.Ticket
	if status := doJSON(t, http.MethodGet, ts.URL+"/tickets/", customer.Access, nil, &mine); status != http.StatusOK {
		t.Fatalf("customer list: status = %d", status)
	}
	if len(mine) != 1 || mine[0].ID != created.ID {
		t.Errorf("customer sees %d tickets", len(mine))
	}

	// Unassigned technician sees nothing.
	var assigned []api.Ticket
	doJSON(t, http.MethodGet, ts.URL+"/tickets/", tech.Access, nil, &assigned)
	if len(assigned) != 0 {
		t.Errorf("unassigned technician sees %d tickets", len(assigned))
	}

	// Admin sees the pagination envelope.
	var page api.Page[api.Ticket]
	if status := doJSON(t, http.MethodGet, ts.URL+"/tickets/", admin.Access, nil, &page); status != http.StatusOK {
		t.Fatalf("admin list: status = %d", status)
	}
	if page.Count != 1 {
		t.Errorf("admin count = %d", page.Count)
	}
}

func TestAssignmentAndStatusNotifications(t *testing.T) {
	s, ts := newTestServer(t)
	customer := login(t, ts.URL, "customer@servicebay.dev")
	tech := login(t, ts.URL, "tech@servicebay.dev")
	admin := login(t, ts.URL, "admin@servicebay.dev")

	var techUser, customerUser api.User
	doJSON(t, http.MethodGet, ts.URL+"/users/me/", tech.Access, nil, &techUser)
	doJSON(t, http.MethodGet, ts.URL+"/users/me/", customer.Access, nil, &customerUser)

	var created api.Ticket
	doJSON(t, http.MethodPost, ts.URL+"/tickets/", customer.Access, api.NewTicket{
		Title:       "Battery dead",
		Description: "Car will not start.",
	}, &created)

	// Admin assigns the technician and schedules the ticket.
	scheduled := api.StatusScheduled
	var updated api.Ticket
	status := doJSON(t, http.MethodPatch, ts.URL+fmt.Sprintf("/tickets/%d/", created.ID), admin.Access,
		api.TicketUpdate{Status: &scheduled, AssignedTo: &techUser.ID}, &updated)
	if status != http.StatusOK {
		t.Fatalf("patch: status = %d", status)
	}
	if updated.AssignedTo == nil || *updated.AssignedTo != techUser.ID {
		t.Errorf("assigned_to = %v", updated.AssignedTo)
	}

	var techNotes []api.Notification
	doJSON(t, http.MethodGet, ts.URL+"/notifications/", tech.Access, nil, &techNotes)
	if len(techNotes) != 1 {
		t.Fatalf("technician has %d notifications, want 1", len(techNotes))
	}

	var customerNotes []api.Notification
	doJSON(t, http.MethodGet, ts.URL+"/notifications/", customer.Access, nil, &customerNotes)
	if len(customerNotes) != 1 {
		t.Fatalf("customer has %d notifications, want 1", len(customerNotes))
	}

	// Completing the ticket sets closed_at and blocks further tech edits.
	completed := api.StatusCompleted
	doJSON(t, http.MethodPatch, ts.URL+fmt.Sprintf("/tickets/%d/", created.ID), tech.Access,
		api.TicketUpdate{Status: &completed}, &updated)
	if updated.ClosedAt == nil {
		t.Error("completed ticket has no closed_at")
	}

	urgent := api.PriorityUrgent
	status = doJSON(t, http.MethodPatch, ts.URL+fmt.Sprintf("/tickets/%d/", created.ID), tech.Access,
		api.TicketUpdate{Priority: &urgent}, nil)
	if status != http.StatusForbidden {
		t.Errorf("technician edited a completed ticket: status = %d", status)
	}

	// Mark-all-read clears the unread flag for the caller only.
	if status := doJSON(t, http.MethodPost, ts.URL+"/notifications/mark_all_as_read/", tech.Access, nil, nil); status != http.StatusNoContent {
		t.Errorf("mark_all_as_read: status = %d", status)
	}
	s.mu.Lock()
	for _, n := range s.notifications {
		if n.Recipient == techUser.ID && !n.IsRead {
			t.Error("technician notification left unread")
		}
		if n.Recipient == customerUser.ID && n.IsRead {
			t.Error("customer notification marked read by another user")
		}
	}
	s.mu.Unlock()
}

func TestCustomerCannotEditTickets(t *testing.T) {
	_, ts := newTestServer(t)
	customer := login(t, ts.URL, "customer@servicebay.dev")

	var created api.Ticket
	doJSON(t, http.MethodPost, ts.URL+"/tickets/", customer.Access, api.NewTicket{
		Title:       "Oil change",
		Description: "Due for service.",
	}, &created)

	cancelled := api.StatusCancelled
	status := doJSON(t, http.MethodPatch, ts.URL+fmt.Sprintf("/tickets/%d/", created.ID), customer.Access,
		api.TicketUpdate{Status: &cancelled}, nil)
	if status != http.StatusForbidden {
		t.Errorf("status = %d, want 403", status)
	}
}

func TestUserAdminEndpoints(t *testing.T) {
	_, ts := newTestServer(t)
	admin := login(t, ts.URL, "admin@servicebay.dev")
	customer := login(t, ts.URL, "customer@servicebay.dev")

	// Non-admins are rejected.
	if status := doJSON(t, http.MethodGet, ts.URL+"/users/", customer.Access, nil, nil); status != http.StatusForbidden {
		t.Errorf("customer listed users: status = %d", status)
	}

	var page api.Page[api.User]
	if status := doJSON(t, http.MethodGet, ts.URL+"/users/?role=technician", admin.Access, nil, &page); status != http.StatusOK {
		t.Fatalf("list users: status = %d", status)
	}
	if page.Count != 1 || page.Results[0].Role != "technician" {
		t.Errorf("role filter: %+v", page)
	}

	doJSON(t, http.MethodGet, ts.URL+"/users/?search=casey", admin.Access, nil, &page)
	if page.Count != 1 || page.Results[0].Email != "customer@servicebay.dev" {
		t.Errorf("search filter: %+v", page)
	}

	// An admin cannot deactivate itself or change its own role.
	var adminUser api.User
	doJSON(t, http.MethodGet, ts.URL+"/users/me/", admin.Access, nil, &adminUser)

	inactive := false
	url := ts.URL + fmt.Sprintf("/users/%d/", adminUser.ID)
	var body map[string]string
	if status := doJSON(t, http.MethodPatch, url, admin.Access, api.UserUpdate{IsActive: &inactive}, &body); status != http.StatusForbidden {
		t.Errorf("self-deactivate: status = %d", status)
	}
	if body["error"] == "" {
		t.Error("expected an error message")
	}
	role := "customer"
	if status := doJSON(t, http.MethodPatch, url, admin.Access, api.UserUpdate{Role: &role}, nil); status != http.StatusForbidden {
		t.Errorf("self-role-change: status = %d", status)
	}

	// Deactivating another user locks them out.
	var customerUser api.User
	doJSON(t, http.MethodGet, ts.URL+"/users/me/", customer.Access, nil, &customerUser)
	url = ts.URL + fmt.Sprintf("/users/%d/", customerUser.ID)
	if status := doJSON(t, http.MethodPatch, url, admin.Access, api.UserUpdate{IsActive: &inactive}, nil); status != http.StatusOK {
		t.Fatalf("deactivate: status = %d", status)
	}
	if status := doJSON(t, http.MethodGet, ts.URL+"/users/me/", customer.Access, nil, nil); status != http.StatusUnauthorized {
		t.Errorf("deactivated user still authenticates: status = %d", status)
	}
}

func TestPagination(t *testing.T) {
	_, ts := newTestServer(t)
	admin := login(t, ts.URL, "admin@servicebay.dev")

	for i := 0; i < 12; i++ {
		status := doJSON(t, http.MethodPost, ts.URL+"/users/register/", "", api.Registration{
			Email:    fmt.Sprintf("user%02d@servicebay.dev", i),
			Password: "servicebay",
		}, nil)
		if status != http.StatusCreated {
			t.Fatalf("register #%d: status = %d", i, status)
		}
	}

	var page api.Page[api.User]
	doJSON(t, http.MethodGet, ts.URL+"/users/", admin.Access, nil, &page)
	if page.Count != 15 {
		t.Fatalf("count = %d, want 15", page.Count)
	}
	if len(page.Results) != pageSize {
		t.Errorf("page 1 has %d results, want %d", len(page.Results), pageSize)
	}
	if page.Next == nil || page.Previous != nil {
		t.Errorf("page 1 links: next=%v previous=%v", page.Next, page.Previous)
	}

	doJSON(t, http.MethodGet, ts.URL+"/users/?page=2", admin.Access, nil, &page)
	if len(page.Results) != 5 {
		t.Errorf("page 2 has %d results, want 5", len(page.Results))
	}
	if page.Next != nil || page.Previous == nil {
		t.Errorf("page 2 links: next=%v previous=%v", page.Next, page.Previous)
	}
}
