package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/servicebay-dev/servicebay/pkg/token"
)

// State identifies where the controller is in the session lifecycle.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
	StateExpiring
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateExpiring:
		return "expiring"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Navigator is invoked when the session lifecycle forces a view change:
// logout redirects to the login view. The CLI installs a navigator that
// drives its view layer; tests install a recorder.
type Navigator func(path string)

// DefaultRefreshInterval is how often the proactive refresh timer
// fires. It is deliberately shorter than the access token's typical
// lifetime so renewal happens before expiry.
const DefaultRefreshInterval = 4 * time.Minute

// Config configures a Controller. BaseURL and Store are required.
type Config struct {
	// BaseURL is the API root, e.g. "http://127.0.0.1:8000/api".
	BaseURL string

	// Store persists the token pair across restarts.
	Store token.Store

	// HTTPClient performs the token-issuance and refresh calls. These
	// endpoints are unauthenticated, so a plain client is fine here.
	// Default: http.DefaultClient.
	HTTPClient *http.Client

	// Navigate is called on lifecycle-driven redirects. Optional.
	Navigate Navigator

	// Logger receives lifecycle events. Default: slog.Default().
	Logger *slog.Logger

	// RefreshInterval overrides the proactive refresh cadence.
	// Default: DefaultRefreshInterval.
	RefreshInterval time.Duration
}

// Controller owns the in-memory session state: the current user, the
// current token pair, and the proactive refresh timer. Construct one
// per process with NewController; there is no package-level instance.
type Controller struct {
	baseURL  string
	store    token.Store
	client   *http.Client
	navigate Navigator
	logger   *slog.Logger
	interval time.Duration

	mu          sync.Mutex
	state       State
	session     *Session
	pair        token.Pair
	hasPair     bool
	gen         uint64
	autoRefresh bool
	cancelTimer context.CancelFunc
	ready       bool

	refreshGroup singleflight.Group
}

// errSessionChanged marks a refresh result that arrived after the
// session it belonged to was torn down. The result is discarded.
var errSessionChanged = errors.New("session changed during refresh")

// errNoRefreshToken marks a refresh attempt with nothing to present.
var errNoRefreshToken = errors.New("no refresh token available")

// NewController builds a controller and performs the synchronous
// initial load: a pair persisted by a previous run that still decodes
// puts the controller straight into Authenticated.
func NewController(cfg Config) (*Controller, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("auth: config missing BaseURL")
	}
	if cfg.Store == nil {
		return nil, errors.New("auth: config missing Store")
	}

	c := &Controller{
		baseURL:  cfg.BaseURL,
		store:    cfg.Store,
		client:   cfg.HTTPClient,
		navigate: cfg.Navigate,
		logger:   cfg.Logger,
		interval: cfg.RefreshInterval,
		state:    StateUnauthenticated,
	}
	if c.client == nil {
		c.client = http.DefaultClient
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.interval <= 0 {
		c.interval = DefaultRefreshInterval
	}

	c.restore()
	c.mu.Lock()
	c.ready = true
	c.mu.Unlock()
	return c, nil
}

// restore attempts to resume a session from the persisted pair.
// Any failure resolves to Unauthenticated, never to an error.
func (c *Controller) restore() {
	pair, ok, err := c.store.Load()
	if err != nil {
		c.logger.Warn("token store unreadable, starting unauthenticated", "error", err)
		return
	}
	if !ok {
		return
	}

	claims, err := token.DecodeClaims(pair.Access)
	if err != nil {
		// A pair that no longer decodes is treated as no session and
		// removed so the next start is clean.
		c.logger.Debug("persisted token no longer decodes, discarding", "error", err)
		if clearErr := c.store.Clear(); clearErr != nil {
			c.logger.Warn("failed to discard stale tokens", "error", clearErr)
		}
		return
	}

	c.mu.Lock()
	c.pair = pair
	c.hasPair = true
	c.session = sessionFromClaims(claims)
	c.state = StateAuthenticated
	c.mu.Unlock()
	c.logger.Debug("session restored", "email", claims.Email, "role", claims.Role)
}

// Ready reports whether the initial load has completed. The route guard
// defers its decision (rendering a loading placeholder) until then.
func (c *Controller) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns the current session, if authenticated.
func (c *Controller) Session() (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, false
	}
	s := *c.session
	return &s, true
}

// Pair returns a copy of the current token pair, if any.
func (c *Controller) Pair() (token.Pair, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pair, c.hasPair
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// Login authenticates against POST /token/. On success the new pair is
// persisted, the session is decoded from the access token, and the
// returned path is the role-appropriate dashboard to navigate to. On
// rejection it returns an *AuthenticationError carrying the backend's
// reason and the controller stays unauthenticated; there is no retry.
func (c *Controller) Login(ctx context.Context, email, password string) (string, error) {
	c.mu.Lock()
	prev := c.state
	c.state = StateAuthenticating
	c.mu.Unlock()

	fail := func() {
		c.mu.Lock()
		c.state = prev
		c.mu.Unlock()
	}

	var pair token.Pair
	status, err := c.postJSON(ctx, "/token/", loginRequest{Email: email, Password: password}, &pair)
	if err != nil {
		fail()
		return "", fmt.Errorf("auth: login request: %w", err)
	}
	if status.code != http.StatusOK {
		fail()
		return "", &AuthenticationError{StatusCode: status.code, Detail: status.detail}
	}

	claims, err := token.DecodeClaims(pair.Access)
	if err != nil {
		fail()
		return "", fmt.Errorf("auth: login response: %w", err)
	}

	if err := c.store.Save(pair); err != nil {
		fail()
		return "", fmt.Errorf("auth: persist tokens: %w", err)
	}

	c.mu.Lock()
	c.pair = pair
	c.hasPair = true
	c.session = sessionFromClaims(claims)
	c.state = StateAuthenticated
	c.gen++
	if c.autoRefresh {
		c.startTimerLocked()
	}
	c.mu.Unlock()

	role := Role(claims.Role)
	c.logger.Info("logged in", "email", claims.Email, "role", claims.Role)
	return role.DashboardPath(), nil
}

// Logout clears the persisted pair and the in-memory session, cancels
// the proactive refresh timer, and navigates to the login view. It is
// idempotent: logging out twice is the same as logging out once.
func (c *Controller) Logout() {
	c.mu.Lock()
	cancel := c.cancelTimer
	c.cancelTimer = nil
	wasAuthenticated := c.state != StateUnauthenticated
	c.state = StateUnauthenticated
	c.session = nil
	c.pair = token.Pair{}
	c.hasPair = false
	c.gen++
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if err := c.store.Clear(); err != nil {
		c.logger.Warn("failed to clear token store", "error", err)
	}
	if wasAuthenticated {
		c.logger.Info("logged out")
	}
	if c.navigate != nil {
		c.navigate(PathLogin)
	}
}

// Refresh exchanges the stored refresh token for a fresh access token
// at POST /token/refresh/. Concurrent callers share a single in-flight
// network call. Any failure other than a stale late result performs a
// silent logout before returning a *RefreshError; success persists the
// new pair before returning, so a caller replaying a request is
// guaranteed to see the renewed credentials.
func (c *Controller) Refresh(ctx context.Context) (token.Pair, error) {
	c.mu.Lock()
	if !c.hasPair || c.pair.Refresh == "" {
		c.mu.Unlock()
		c.logger.Debug("refresh requested without refresh token, logging out")
		c.Logout()
		return token.Pair{}, &RefreshError{Err: errNoRefreshToken}
	}
	refresh := c.pair.Refresh
	gen := c.gen
	if c.state == StateAuthenticated {
		c.state = StateExpiring
	}
	c.mu.Unlock()

	v, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		return c.doRefresh(ctx, refresh, gen)
	})
	if err != nil {
		if !errors.Is(err, errSessionChanged) {
			c.logger.Warn("token refresh failed, logging out", "error", err)
			c.Logout()
		}
		return token.Pair{}, err
	}
	return v.(token.Pair), nil
}

func (c *Controller) doRefresh(ctx context.Context, refresh string, gen uint64) (token.Pair, error) {
	var body token.Pair
	status, err := c.postJSON(ctx, "/token/refresh/", refreshRequest{Refresh: refresh}, &body)
	if err != nil {
		return token.Pair{}, &RefreshError{Err: err}
	}
	if status.code != http.StatusOK {
		return token.Pair{}, &RefreshError{StatusCode: status.code}
	}

	claims, err := token.DecodeClaims(body.Access)
	if err != nil {
		return token.Pair{}, &RefreshError{Err: err}
	}

	// The backend returns access-only on refresh; keep presenting the
	// prior refresh token in that case.
	fresh := token.Pair{Access: body.Access, Refresh: body.Refresh}
	if fresh.Refresh == "" {
		fresh.Refresh = refresh
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		// Logout (or a new login) happened while the call was in
		// flight. Discard the result instead of reviving the session.
		return token.Pair{}, &RefreshError{Err: errSessionChanged}
	}
	if err := c.store.Save(fresh); err != nil {
		return token.Pair{}, &RefreshError{Err: err}
	}
	c.pair = fresh
	c.hasPair = true
	c.session = sessionFromClaims(claims)
	c.state = StateAuthenticated
	c.logger.Debug("token refreshed", "email", claims.Email)
	return fresh, nil
}

// StartAutoRefresh enables the proactive refresh timer. While the
// controller is authenticated a background goroutine refreshes the pair
// every RefreshInterval, independent of request traffic. The timer is
// cancelled by Logout and restarted fresh on every successful Login, so
// timers never overlap.
func (c *Controller) StartAutoRefresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoRefresh = true
	if c.state == StateAuthenticated || c.state == StateExpiring {
		c.startTimerLocked()
	}
}

// StopAutoRefresh cancels the proactive refresh timer without touching
// the session.
func (c *Controller) StopAutoRefresh() {
	c.mu.Lock()
	cancel := c.cancelTimer
	c.cancelTimer = nil
	c.autoRefresh = false
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// startTimerLocked replaces any running timer goroutine. Callers hold mu.
func (c *Controller) startTimerLocked() {
	if c.cancelTimer != nil {
		c.cancelTimer()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelTimer = cancel
	go c.refreshLoop(ctx)
}

func (c *Controller) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.Refresh(ctx); err != nil {
				// Refresh already logged out on real failures; the
				// logout cancelled this context. Either way the loop
				// is done.
				return
			}
		}
	}
}

// httpStatus carries a response status plus the backend's "detail"
// message, when one was present in the error body.
type httpStatus struct {
	code   int
	detail string
}

func (s httpStatus) String() string {
	return fmt.Sprintf("%d %s", s.code, s.detail)
}

// postJSON posts a JSON body to baseURL+path and decodes a JSON success
// response into out. For non-2xx responses it captures the backend's
// "detail" field and leaves out untouched.
func (c *Controller) postJSON(ctx context.Context, path string, in, out any) (httpStatus, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return httpStatus{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return httpStatus{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return httpStatus{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var failure struct {
			Detail string `json:"detail"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		_ = json.Unmarshal(raw, &failure)
		return httpStatus{code: resp.StatusCode, detail: failure.Detail}, nil
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return httpStatus{}, fmt.Errorf("decode response: %w", err)
		}
	}
	return httpStatus{code: resp.StatusCode}, nil
}
