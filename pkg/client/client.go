// Package client is a thin wrapper around the myip.foo HTTP API. It decodes
// responses into the DTOs from pkg/api so callers get strongly-typed results
// instead of generic maps.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lc/myip/internal/buildinfo"
	"github.com/lc/myip/pkg/api"
)

// DefaultBaseURL is the public myip.foo API root.
const DefaultBaseURL = "https://myip.foo"

// maxBody caps how much of a response is read.
const maxBody = 1 << 20

// ErrEmptyBody is returned when a plain-text endpoint answers 2xx with
// nothing but whitespace.
var ErrEmptyBody = errors.New("empty response body")

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %s", e.Status)
}

// Doer is the part of *http.Client the Client uses.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client talks to a single myip.foo deployment.
type Client struct {
	hc        Doer
	base      string
	userAgent string
}

// Opt is a function option for configuring the Client.
type Opt func(c *Client)

// New returns a Client for the API rooted at base. An empty base means
// DefaultBaseURL.
func New(base string, opts ...Opt) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	c := &Client{
		hc:        &http.Client{Timeout: 10 * time.Second},
		base:      strings.TrimRight(base, "/"),
		userAgent: "myip/" + buildinfo.Version,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc Doer) Opt {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Opt {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// BaseURL returns the API root this client talks to.
func (c *Client) BaseURL() string { return c.base }

// --------------------------- endpoints -----------------------------

// Lookup fetches the full record for the caller's address (GET /api).
func (c *Client) Lookup(ctx context.Context) (api.IPRecord, error) {
	var out api.IPRecord
	err := c.getJSON(ctx, c.base+"/api", &out)
	return out, err
}

// Plain fetches the caller's address as plain text (GET /plain).
func (c *Client) Plain(ctx context.Context) (string, error) {
	return c.Text(ctx, c.base+"/plain")
}

// ConnectionType fetches the connection classification
// (GET /api/connection-type).
func (c *Client) ConnectionType(ctx context.Context) (api.ConnectionInfo, error) {
	var out api.ConnectionInfo
	err := c.getJSON(ctx, c.base+"/api/connection-type", &out)
	return out, err
}

// Text fetches rawURL and returns its body with surrounding whitespace
// trimmed. A blank body is reported as ErrEmptyBody.
func (c *Client) Text(ctx context.Context, rawURL string) (string, error) {
	resp, err := c.get(ctx, rawURL, "text/plain")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return "", ErrEmptyBody
	}
	return s, nil
}

// --------------------------- HTTP helpers --------------------------

func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	resp, err := c.get(ctx, rawURL, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// get issues the request and returns the response only for 2xx statuses.
// The caller closes the body.
func (c *Client) get(ctx context.Context, rawURL, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", accept)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	return resp, nil
}
