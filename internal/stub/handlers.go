package stub

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/servicebay-dev/servicebay/pkg/api"
	"github.com/servicebay-dev/servicebay/pkg/token"
)

// Authentication endpoints

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !readJSON(w, r, &creds) {
		return
	}

	s.mu.Lock()
	acc := s.findByEmailLocked(creds.Email)
	ok := acc != nil && acc.IsActive && acc.password == creds.Password
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "No active account found with the given credentials")
		return
	}

	now := time.Now()
	access, err := s.mintAccess(acc, now)
	if err == nil {
		var refresh string
		refresh, err = s.mintRefresh(acc, now)
		if err == nil {
			s.logger.Info("login", "email", acc.Email, "role", acc.Role)
			writeJSON(w, http.StatusOK, token.Pair{Access: access, Refresh: refresh})
			return
		}
	}
	writeDetail(w, http.StatusInternalServerError, "Could not sign token.")
}

func (s *Server) handleTokenRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Refresh string `json:"refresh"`
	}
	if !readJSON(w, r, &body) {
		return
	}

	claims, err := s.verifyRefresh(body.Refresh)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Token is invalid or expired")
		return
	}

	s.mu.Lock()
	acc, ok := s.users[claims.UserID]
	active := ok && acc.IsActive
	s.mu.Unlock()
	if !active {
		writeDetail(w, http.StatusUnauthorized, "Token is invalid or expired")
		return
	}

	access, err := s.mintAccess(acc, time.Now())
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Could not sign token.")
		return
	}
	// Access only. Clients keep their existing refresh token.
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg api.Registration
	if !readJSON(w, r, &reg) {
		return
	}
	if reg.Email == "" || reg.Password == "" {
		writeDetail(w, http.StatusBadRequest, "Email and password are required.")
		return
	}
	role := reg.Role
	if role == "" {
		role = "customer"
	}

	s.mu.Lock()
	if s.findByEmailLocked(reg.Email) != nil {
		s.mu.Unlock()
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"email": {"user with this email already exists."},
		})
		return
	}
	acc := s.addUserLocked(reg.Email, reg.Password, reg.FirstName, reg.LastName, role)
	acc.PhoneNumber = reg.PhoneNumber
	user := acc.User
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) findByEmailLocked(email string) *account {
	for _, acc := range s.users {
		if strings.EqualFold(acc.Email, email) {
			return acc
		}
	}
	return nil
}

// User endpoints

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, accountFrom(r.Context()).User)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	search := strings.ToLower(r.URL.Query().Get("search"))

	s.mu.Lock()
	var users []api.User
	for _, acc := range s.users {
		if role != "" && acc.Role != role {
			continue
		}
		if search != "" && !matchesSearch(acc, search) {
			continue
		}
		users = append(users, acc.User)
	}
	s.mu.Unlock()

	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	writeJSON(w, http.StatusOK, paginate(r, users))
}

func matchesSearch(acc *account, search string) bool {
	return strings.Contains(strings.ToLower(acc.Email), search) ||
		strings.Contains(strings.ToLower(acc.FirstName), search) ||
		strings.Contains(strings.ToLower(acc.LastName), search)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.userFromPath(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, acc.User)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var upd api.UserUpdate
	if !readJSON(w, r, &upd) {
		return
	}

	self := accountFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()

	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	acc, ok := s.users[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if acc.ID == self.ID {
		if upd.IsActive != nil && !*upd.IsActive {
			writeError(w, http.StatusForbidden, "You cannot deactivate your own account.")
			return
		}
		if upd.Role != nil && *upd.Role != acc.Role {
			writeError(w, http.StatusForbidden, "You cannot change your own role.")
			return
		}
	}

	if upd.FirstName != nil {
		acc.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		acc.LastName = *upd.LastName
	}
	if upd.Role != nil {
		acc.Role = *upd.Role
	}
	if upd.IsActive != nil {
		acc.IsActive = *upd.IsActive
	}
	writeJSON(w, http.StatusOK, acc.User)
}

func (s *Server) userFromPath(r *http.Request) (*account, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.users[id]
	return acc, ok
}

// Ticket endpoints

func (s *Server) handleListTickets(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r.Context())
	status := r.URL.Query().Get("status")

	s.mu.Lock()
	var tickets []api.Ticket
	for _, t := range s.tickets {
		if !visibleTo(acc, t) {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		tickets = append(tickets, *t)
	}
	s.mu.Unlock()

	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
	})

	// Admins get the pagination envelope, other roles a bare array.
	if acc.Role == "admin" {
		writeJSON(w, http.StatusOK, paginate(r, tickets))
		return
	}
	if tickets == nil {
		tickets = []api.Ticket{}
	}
	writeJSON(w, http.StatusOK, tickets)
}

func visibleTo(acc *account, t *api.Ticket) bool {
	switch acc.Role {
	case "admin":
		return true
	case "technician":
		return t.AssignedTo != nil && *t.AssignedTo == acc.ID
	default:
		return t.CreatedBy == acc.ID
	}
}

func (s *Server) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	var in api.NewTicket
	if !readJSON(w, r, &in) {
		return
	}
	if in.Title == "" || in.Description == "" {
		writeDetail(w, http.StatusBadRequest, "Title and description are required.")
		return
	}

	acc := accountFrom(r.Context())
	if acc.Role == "technician" {
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}

	priority := in.Priority
	if priority == "" {
		priority = api.PriorityStandard
	}
	category := in.Category
	if category == "" {
		category = api.CategoryOther
	}

	now := time.Now().UTC()

	s.mu.Lock()
	s.nextTicket++
	perCustomer := int64(0)
	for _, t := range s.tickets {
		if t.CreatedBy == acc.ID {
			perCustomer++
		}
	}
	t := &api.Ticket{
		ID:               s.nextTicket,
		CustomerTicketID: perCustomer + 1,
		Title:            in.Title,
		Description:      in.Description,
		Status:           api.StatusOpen,
		Priority:         priority,
		Category:         category,
		CreatedBy:        acc.ID,
		CreatedByEmail:   acc.Email,
		CreatedByName:    acc.FirstName + " " + acc.LastName,
		CreatedAt:        now,
		UpdatedAt:        now,
		VehicleMake:      in.VehicleMake,
		VehicleModel:     in.VehicleModel,
		VehicleYear:      in.VehicleYear,
		LicensePlate:     in.LicensePlate,
		VIN:              in.VIN,
	}
	s.tickets[t.ID] = t
	out := *t
	s.mu.Unlock()

	s.logger.Info("ticket created", "id", out.ID, "by", acc.Email)
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.ticketFromPathLocked(r)
	if !ok || !visibleTo(acc, t) {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, *t)
}

func (s *Server) handleUpdateTicket(w http.ResponseWriter, r *http.Request) {
	var upd api.TicketUpdate
	if !readJSON(w, r, &upd) {
		return
	}

	acc := accountFrom(r.Context())

	s.mu.Lock()
	t, ok := s.ticketFromPathLocked(r)
	if !ok || !visibleTo(acc, t) {
		s.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if acc.Role == "customer" {
		s.mu.Unlock()
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}
	if acc.Role == "technician" && (t.Status == api.StatusCompleted || t.Status == api.StatusCancelled) {
		s.mu.Unlock()
		writeDetail(w, http.StatusForbidden, "Closed tickets cannot be modified.")
		return
	}

	if upd.Priority != nil {
		t.Priority = *upd.Priority
	}
	if upd.AssignedTo != nil && (t.AssignedTo == nil || *t.AssignedTo != *upd.AssignedTo) {
		t.AssignedTo = upd.AssignedTo
		if tech, ok := s.users[*upd.AssignedTo]; ok {
			t.AssignedToEmail = tech.Email
		}
		s.notifyLocked(*upd.AssignedTo, t.ID,
			fmt.Sprintf("You have been assigned to ticket #%d: %s", t.ID, t.Title))
	}
	if upd.Status != nil && *upd.Status != t.Status {
		t.Status = *upd.Status
		if t.Status == api.StatusCompleted {
			now := time.Now().UTC()
			t.ClosedAt = &now
		}
		if t.CreatedBy != acc.ID {
			s.notifyLocked(t.CreatedBy, t.ID,
				fmt.Sprintf("Your ticket #%d is now %s", t.CustomerTicketID, t.Status))
		}
	}
	t.UpdatedAt = time.Now().UTC()
	out := *t
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) ticketFromPathLocked(r *http.Request) (*api.Ticket, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return nil, false
	}
	t, ok := s.tickets[id]
	return t, ok
}

// Notification endpoints

func (s *Server) notifyLocked(recipient, ticketID int64, message string) {
	s.nextNotif++
	id := ticketID
	s.notifications[s.nextNotif] = &api.Notification{
		ID:        s.nextNotif,
		Recipient: recipient,
		Ticket:    &id,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r.Context())

	s.mu.Lock()
	notes := []api.Notification{}
	for _, n := range s.notifications {
		if n.Recipient == acc.ID {
			notes = append(notes, *n)
		}
	}
	s.mu.Unlock()

	// Newest first.
	sort.Slice(notes, func(i, j int) bool { return notes[i].ID > notes[j].ID })
	writeJSON(w, http.StatusOK, notes)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r.Context())

	s.mu.Lock()
	for _, n := range s.notifications {
		if n.Recipient == acc.ID {
			n.IsRead = true
		}
	}
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

// Dashboard

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	var stats api.DashboardStats
	for _, t := range s.tickets {
		stats.TotalTickets++
		switch t.Status {
		case api.StatusOpen:
			stats.OpenTickets++
		case api.StatusInProgress:
			stats.InProgressTickets++
		}
	}
	for _, acc := range s.users {
		switch acc.Role {
		case "customer":
			stats.TotalCustomers++
		case "technician":
			stats.TotalTechnicians++
		case "admin":
			stats.TotalAdmins++
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, stats)
}

// Pagination

func paginate[T any](r *http.Request, items []T) api.Page[T] {
	page := 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}

	out := api.Page[T]{Count: len(items), Results: items[start:end]}
	if out.Results == nil {
		out.Results = []T{}
	}
	if end < len(items) {
		out.Next = pageLink(r, page+1)
	}
	if page > 1 {
		out.Previous = pageLink(r, page-1)
	}
	return out
}

func pageLink(r *http.Request, page int) *string {
	q := url.Values{}
	for k, vs := range r.URL.Query() {
		q[k] = vs
	}
	q.Set("page", strconv.Itoa(page))
	link := r.URL.Path + "?" + q.Encode()
	return &link
}
