package client

import (
	"context"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/snapgram/cli/pkg/config"
	"github.com/snapgram/cli/pkg/logger"
)

const (
	userAgent       = "Snapgram-CLI/0.1.0"
	requestIDHeader = "X-Request-ID"
)

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
}

// Client is the HTTP transport shared by every API call. The bearer token
// is read per request, so SetAuthToken and ClearAuthToken are safe to call
// while other requests are in flight.
type Client struct {
	http *resty.Client

	mu    sync.RWMutex
	token string
}

// New creates a client for the given backend.
func New(opts Options) *Client {
	c := &Client{http: resty.New()}

	c.http.SetBaseURL(opts.BaseURL)
	if opts.Timeout > 0 {
		c.http.SetTimeout(opts.Timeout)
	}
	c.http.SetHeader("User-Agent", userAgent)
	c.http.SetHeader("Accept", "application/json")

	c.http.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		requestID := uuid.New().String()
		req.SetHeader(requestIDHeader, requestID)

		if token := c.AuthToken(); token != "" {
			req.SetAuthToken(token)
		}

		logger.Debug("HTTP Request", "method", req.Method, "url", req.URL, "request_id", requestID)
		return nil
	})

	c.http.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug("HTTP Response",
			"status", resp.StatusCode(),
			"request_id", resp.Request.Header.Get(requestIDHeader),
			"elapsed", resp.Time(),
		)
		return nil
	})

	return c
}

// FromConfig creates a client from api.base_url and api.timeout.
func FromConfig(cfg *config.Config) *Client {
	return New(Options{
		BaseURL: cfg.GetString("api.base_url"),
		Timeout: cfg.Timeout(),
	})
}

// R starts a request bound to ctx.
func (c *Client) R(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx)
}

// SetAuthToken sets the bearer token sent with every request
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// ClearAuthToken stops sending a bearer token
func (c *Client) ClearAuthToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
}

// AuthToken returns the current bearer token, or "".
func (c *Client) AuthToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.http.BaseURL
}
