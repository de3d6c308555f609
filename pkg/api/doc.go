// Package api is the typed REST client for the ServiceBay backend:
// tickets, users, notifications and the admin dashboard stats.
//
// The client is a thin layer over an http.Client. Give it the client
// built around transport.Transport and every call gets bearer
// attachment and the 401 refresh-and-retry for free:
//
//	client := api.NewClient(cfg.BaseURL, &http.Client{Transport: rt})
//	tickets, err := client.ListTickets(ctx, api.TicketFilter{})
//
// HTTP failures surface as *api.Error carrying the status code and the
// backend's detail message; the package never swallows or retries
// beyond what the transport already did.
package api
