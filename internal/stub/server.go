// Package stub is an in-memory ServiceBay backend used by the CLI's
// local development mode and by integration tests. It implements the
// same endpoints, token semantics and role rules as the real API,
// including the access-only refresh response.
package stub

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/servicebay-dev/servicebay/pkg/api"
	"github.com/servicebay-dev/servicebay/pkg/token"
)

// pageSize matches the backend's StandardPagination.
const pageSize = 10

// Config configures the stub backend.
type Config struct {
	// Secret signs access and refresh tokens (HS256).
	// Default: a random per-instance secret.
	Secret string

	// AccessTTL is the access token lifetime. Default: 5 minutes.
	AccessTTL time.Duration

	// RefreshTTL is the refresh token lifetime. Default: 24 hours.
	RefreshTTL time.Duration

	// Logger receives request-level events. Default: slog.Default().
	Logger *slog.Logger

	// Metrics exposes /metrics for the default Prometheus registry.
	Metrics bool
}

// account is a user plus the fields the API never serializes.
type account struct {
	api.User
	password string
}

// Server holds the in-memory state behind the stub API.
type Server struct {
	cfg    Config
	logger *slog.Logger

	mu            sync.Mutex
	users         map[int64]*account
	tickets       map[int64]*api.Ticket
	notifications map[int64]*api.Notification
	nextUser      int64
	nextTicket    int64
	nextNotif     int64
}

// New creates a stub backend seeded with one account per role, all
// with the password "servicebay".
func New(cfg Config) *Server {
	if cfg.Secret == "" {
		cfg.Secret = uuid.NewString()
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 5 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 24 * time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		cfg:           cfg,
		logger:        cfg.Logger,
		users:         make(map[int64]*account),
		tickets:       make(map[int64]*api.Ticket),
		notifications: make(map[int64]*api.Notification),
	}
	s.seed()
	return s
}

func (s *Server) seed() {
	seedAccounts := []struct {
		email, first, last, role string
	}{
		{"admin@servicebay.dev", "Ada", "Admin", "admin"},
		{"tech@servicebay.dev", "Terry", "Torque", "technician"},
		{"customer@servicebay.dev", "Casey", "Customer", "customer"},
	}
	for _, a := range seedAccounts {
		s.addUserLocked(a.email, "servicebay", a.first, a.last, a.role)
	}
}

func (s *Server) addUserLocked(email, password, first, last, role string) *account {
	s.nextUser++
	acc := &account{
		User: api.User{
			ID:        s.nextUser,
			Email:     email,
			FirstName: first,
			LastName:  last,
			Role:      role,
			IsActive:  true,
		},
		password: password,
	}
	s.users[acc.ID] = acc
	return acc
}

// Handler returns the stub's router. Mount it wherever the client's
// base URL points, e.g. under /api.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Post("/token/", s.handleToken)
	r.Post("/token/refresh/", s.handleTokenRefresh)
	r.Post("/users/register/", s.handleRegister)

	if s.cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/users/me/", s.handleMe)
		r.Get("/users/", s.requireAdmin(s.handleListUsers))
		r.Get("/users/{id}/", s.requireAdmin(s.handleGetUser))
		r.Patch("/users/{id}/", s.requireAdmin(s.handleUpdateUser))
		r.Get("/tickets/", s.handleListTickets)
		r.Post("/tickets/", s.handleCreateTicket)
		r.Get("/tickets/{id}/", s.handleGetTicket)
		r.Patch("/tickets/{id}/", s.handleUpdateTicket)
		r.Get("/notifications/", s.handleListNotifications)
		r.Post("/notifications/mark_all_as_read/", s.handleMarkAllRead)
		r.Get("/dashboard-stats/", s.requireAdmin(s.handleDashboardStats))
	})

	return r
}

// Tokens

func (s *Server) mintAccess(acc *account, now time.Time) (string, error) {
	claims := token.Claims{
		UserID:    acc.ID,
		Email:     acc.Email,
		Role:      acc.Role,
		FirstName: acc.FirstName,
		LastName:  acc.LastName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
}

type refreshClaims struct {
	UserID    int64  `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

func (s *Server) mintRefresh(acc *account, now time.Time) (string, error) {
	claims := refreshClaims{
		UserID:    acc.ID,
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.RefreshTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
}

func (s *Server) verifyAccess(raw string) (*token.Claims, error) {
	claims := &token.Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func (s *Server) verifyRefresh(raw string) (*refreshClaims, error) {
	claims := &refreshClaims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid || claims.TokenType != "refresh" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// Auth plumbing

type accountKey struct{}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r.Header.Get("Authorization"))
		if raw == "" {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		claims, err := s.verifyAccess(raw)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Given token not valid for any token type")
			return
		}

		s.mu.Lock()
		acc, ok := s.users[claims.UserID]
		active := ok && acc.IsActive
		s.mu.Unlock()
		if !active {
			writeDetail(w, http.StatusUnauthorized, "User not found or inactive")
			return
		}

		ctx := context.WithValue(r.Context(), accountKey{}, acc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if accountFrom(r.Context()).Role != "admin" {
			writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
			return
		}
		next(w, r)
	}
}

func accountFrom(ctx context.Context) *account {
	acc, _ := ctx.Value(accountKey{}).(*account)
	return acc
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// JSON helpers

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid JSON body.")
		return false
	}
	return true
}
