package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// Error is a non-2xx response from the backend. Detail carries the
// backend's message when the error body had one.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("api: unexpected status %d", e.StatusCode)
}

// Client talks to the ServiceBay REST API. Construct it with the
// http.Client wrapping transport.Transport so authenticated calls get
// bearer attachment and 401 recovery.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientLogger sets the request logger. Default: slog.Default().
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client rooted at baseURL (e.g.
// "http://127.0.0.1:8000/api").
func NewClient(baseURL string, httpClient *http.Client, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// do dispatches one JSON request and decodes a JSON success body into
// out (when out is non-nil). Non-2xx responses become *Error.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api: encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api call", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decode response: %w", err)
	}
	return nil
}

// decodeError extracts the backend's message from an error body. DRF
// uses "detail" for most errors and "error" for a few custom ones.
func decodeError(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	var body struct {
		Detail string `json:"detail"`
		Err    string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Detail != "" {
			apiErr.Detail = body.Detail
		} else if body.Err != "" {
			apiErr.Detail = body.Err
		}
	}
	if apiErr.Detail == "" && len(raw) > 0 {
		// Field-validation errors come back as a JSON object keyed by
		// field name; pass that through for the caller to render.
		apiErr.Detail = strings.TrimSpace(string(raw))
	}
	return apiErr
}
