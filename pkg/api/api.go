// Package api maps each backend endpoint onto one method. Methods return
// the envelope's data member and an *APIError for non-2xx responses.
package api

import "github.com/snapgram/cli/pkg/client"

// API is the endpoint surface over a shared client.
type API struct {
	client *client.Client
}

// New creates an API bound to c.
func New(c *client.Client) *API {
	return &API{client: c}
}

// Client returns the underlying transport.
func (a *API) Client() *client.Client {
	return a.client
}
