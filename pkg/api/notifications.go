package api

import (
	"context"
	"net/http"
)

// ListNotifications returns the current user's notifications, newest
// first.
func (c *Client) ListNotifications(ctx context.Context) ([]Notification, error) {
	var notifications []Notification
	if err := c.do(ctx, http.MethodGet, "/notifications/", nil, nil, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkAllNotificationsRead marks every unread notification read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/notifications/mark_all_as_read/", nil, nil, nil)
}

// DashboardStats fetches the admin dashboard counters.
func (c *Client) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	if err := c.do(ctx, http.MethodGet, "/dashboard-stats/", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
