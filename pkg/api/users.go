package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// UserFilter narrows the admin user listing.
type UserFilter struct {
	// Role filters by user role.
	Role string

	// Search matches email, first name or last name, case-insensitive.
	Search string

	// Page selects a result page. Zero means the first page.
	Page int
}

func (f UserFilter) query() url.Values {
	q := url.Values{}
	if f.Role != "" {
		q.Set("role", f.Role)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Page > 1 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	return q
}

// Register creates a new account. The endpoint is public: this is how
// customers sign themselves up.
func (c *Client) Register(ctx context.Context, reg Registration) (*User, error) {
	var created User
	if err := c.do(ctx, http.MethodPost, "/users/register/", nil, reg, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Me returns the profile of the currently authenticated user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var me User
	if err := c.do(ctx, http.MethodGet, "/users/me/", nil, nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// ListUsers returns one page of accounts. Admin only.
func (c *Client) ListUsers(ctx context.Context, filter UserFilter) (*Page[User], error) {
	var page Page[User]
	if err := c.do(ctx, http.MethodGet, "/users/", filter.query(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetUser fetches one account by ID. Admin only.
func (c *Client) GetUser(ctx context.Context, id int64) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/", id), nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser applies a partial account update. Admin only; the backend
// refuses self-deactivation and self-role-change.
func (c *Client) UpdateUser(ctx context.Context, id int64, update UserUpdate) (*User, error) {
	var updated User
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/users/%d/", id), nil, update, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}
