// Package apiclient is the single configured HTTP client for the task API.
//
// Every request carries the bearer token currently persisted in storage, and
// any 401 response clears that token and notifies OnUnauthorized subscribers
// before the error is returned to the caller.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/googleapi"

	"todoctl/internal/logger"
	"todoctl/internal/storage"
)

// DefaultTimeout is used when no WithTimeout option is given.
const DefaultTimeout = 10 * time.Second

// ErrTransport marks failures that happened before a response was received.
var ErrTransport = errors.New("transport error")

// Client sends JSON requests to the API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  storage.Store
	log     *slog.Logger

	base    http.RoundTripper
	timeout time.Duration

	mu     sync.Mutex
	header http.Header
	subs   []subscription
	nextID int
}

type subscription struct {
	id int
	fn func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient uses hc's transport for outgoing requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil && hc.Transport != nil {
			c.base = hc.Transport
		}
	}
}

// WithTimeout sets the transport timeout for a single round-trip.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a client for baseURL that reads credentials from tokens.
func New(baseURL string, tokens storage.Store, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api url: %q", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		log:     logger.Discard(),
		base:    http.DefaultTransport,
		timeout: DefaultTimeout,
		header: http.Header{
			"Accept":       {"application/json"},
			"Content-Type": {"application/json"},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("component", "apiclient")
	c.http = &http.Client{
		Transport: &bearerTransport{source: storage.TokenSource(tokens), base: c.base},
		Timeout:   c.timeout,
	}
	return c, nil
}

// BaseURL returns the API base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// SetAuthToken sets the default Authorization header.
// Invalid tokens clear it instead.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !storage.Valid(token) {
		c.header.Del("Authorization")
		return
	}
	c.header.Set("Authorization", "Bearer "+token)
}

// ClearAuthToken removes the default Authorization header.
func (c *Client) ClearAuthToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.header.Del("Authorization")
}

// OnUnauthorized registers fn to run after every 401 response.
// The returned function removes the registration.
func (c *Client) OnUnauthorized(fn func()) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs = append(c.subs, subscription{id: id, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

// Get sends a GET request and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post sends a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put sends a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Delete sends a DELETE request without a body.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

// Do sends a request. body, when non-nil, is encoded as JSON; a 2xx response
// body is decoded into out when out is non-nil. Non-2xx responses return *Error.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	c.mu.Lock()
	for k, vs := range c.header {
		req.Header[k] = append([]string(nil), vs...)
	}
	c.mu.Unlock()

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed",
			"method", method,
			"path", path,
			"request_id", requestID,
			"error", err)
		return fmt.Errorf("%s %s: %w: %w", method, path, ErrTransport, err)
	}
	defer googleapi.CloseBody(res)

	c.log.Debug("request completed",
		"method", method,
		"path", path,
		"status", res.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start))

	if err := googleapi.CheckResponse(res); err != nil {
		apiErr := newError(err, res.StatusCode)
		if res.StatusCode == http.StatusUnauthorized {
			c.handleUnauthorized()
		}
		return apiErr
	}

	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %w", method, path, ErrTransport, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// handleUnauthorized clears credentials and notifies subscribers.
// Subscribers run outside the lock so they may call back into the client.
func (c *Client) handleUnauthorized() {
	if err := c.tokens.Clear(); err != nil {
		c.log.Error("failed to clear stored token", "error", err)
	}
	c.ClearAuthToken()

	c.mu.Lock()
	subs := make([]subscription, len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	c.log.Info("session rejected by api, stored token cleared", "subscribers", len(subs))
	for _, s := range subs {
		s.fn()
	}
}
