// Package rosterclient is a client for the rosterd HTTP API.
//
// Example usage:
//
//	client, err := rosterclient.New("http://localhost:8080")
//	if err != nil {
//	    return err
//	}
//	msg, err := client.Signup(ctx, "Chess Club", "ada@mergington.edu")
package rosterclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/nomis52/rosterd/buildinfo"
	"github.com/nomis52/rosterd/report"
	"github.com/nomis52/rosterd/roster"
)

const defaultTimeout = 10 * time.Second

// APIError is returned when the server answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("rosterd returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("rosterd returned status %d: %s", e.StatusCode, e.Detail)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to a rosterd server.
type Client struct {
	Host   string
	Logger *slog.Logger
	client *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.Logger = logger
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// New creates a Client for host, which must include the scheme
// (e.g. "http://localhost:8080").
func New(host string, opts ...Option) (*Client, error) {
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid host URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("host URL must include scheme: %q", host)
	}

	c := &Client{
		Host:   host,
		Logger: slog.Default(),
		client: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Activities returns every activity keyed by name.
func (c *Client) Activities(ctx context.Context) (map[string]roster.Activity, error) {
	var activities map[string]roster.Activity
	if err := c.do(ctx, http.MethodGet, "/activities", nil, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// Signup adds email to the activity's roster and returns the server's message.
func (c *Client) Signup(ctx context.Context, activity, email string) (string, error) {
	return c.change(ctx, http.MethodPost, activity, "signup", email)
}

// Unregister removes email from the activity's roster and returns the
// server's message.
func (c *Client) Unregister(ctx context.Context, activity, email string) (string, error) {
	return c.change(ctx, http.MethodDelete, activity, "unregister", email)
}

// Report returns the server's roster summary.
func (c *Client) Report(ctx context.Context) (report.Summary, error) {
	var summary report.Summary
	err := c.do(ctx, http.MethodGet, "/report", nil, &summary)
	return summary, err
}

// Version returns the server's build information.
func (c *Client) Version(ctx context.Context) (buildinfo.Properties, error) {
	var props struct {
		Build buildinfo.Properties `json:"build"`
	}
	err := c.do(ctx, http.MethodGet, "/version", nil, &props)
	return props.Build, err
}

func (c *Client) change(ctx context.Context, method, activity, action, email string) (string, error) {
	path := "/activities/" + url.PathEscape(activity) + "/" + action
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, method, path, url.Values{"email": {email}}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) error {
	target := c.Host + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.Logger.Debug("rosterd request", "method", method, "url", target)
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach rosterd: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var detail struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(body, &detail) == nil {
			apiErr.Detail = detail.Detail
		}
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
