package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// TicketFilter narrows ticket listings.
type TicketFilter struct {
	// Status filters by ticket status.
	Status string

	// Page selects a result page on the paginated admin listing.
	// Zero means the first page.
	Page int
}

func (f TicketFilter) query() url.Values {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Page > 1 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	return q
}

// ListTickets returns the tickets visible to the current user: their
// own for customers, their assigned queue for technicians, everything
// for admins. The backend paginates only the admin listing, so the
// response is either a bare array or a page envelope; both decode here.
func (c *Client) ListTickets(ctx context.Context, filter TicketFilter) ([]Ticket, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/tickets/", filter.query(), nil, &raw); err != nil {
		return nil, err
	}
	return decodeTicketList(raw)
}

// ListTicketsPage returns one page of the admin ticket listing with its
// pagination envelope intact.
func (c *Client) ListTicketsPage(ctx context.Context, filter TicketFilter) (*Page[Ticket], error) {
	var page Page[Ticket]
	if err := c.do(ctx, http.MethodGet, "/tickets/", filter.query(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetTicket fetches one ticket by ID.
func (c *Client) GetTicket(ctx context.Context, id int64) (*Ticket, error) {
	var ticket Ticket
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/tickets/%d/", id), nil, nil, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// CreateTicket files a new service ticket for the current user.
func (c *Client) CreateTicket(ctx context.Context, ticket NewTicket) (*Ticket, error) {
	var created Ticket
	if err := c.do(ctx, http.MethodPost, "/tickets/", nil, ticket, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateTicket applies a partial update. Status changes and
// reassignment notify the affected users server-side.
func (c *Client) UpdateTicket(ctx context.Context, id int64, update TicketUpdate) (*Ticket, error) {
	var updated Ticket
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/tickets/%d/", id), nil, update, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// decodeTicketList accepts both listing shapes the backend produces.
func decodeTicketList(raw json.RawMessage) ([]Ticket, error) {
	trimmed := firstByte(raw)
	if trimmed == '[' {
		var tickets []Ticket
		if err := json.Unmarshal(raw, &tickets); err != nil {
			return nil, fmt.Errorf("api: decode ticket list: %w", err)
		}
		return tickets, nil
	}
	var page Page[Ticket]
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("api: decode ticket page: %w", err)
	}
	return page.Results, nil
}

func firstByte(raw []byte) byte {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}
