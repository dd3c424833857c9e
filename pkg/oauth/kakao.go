// Package oauth drives the Kakao authorization-code login: it builds the
// authorize URL, receives the redirect and hands the code to the backend.
package oauth

import (
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

var (
	// ErrCancelled means the user backed out on the provider's page.
	ErrCancelled      = errors.New("kakao login cancelled")
	ErrStateMismatch  = errors.New("oauth state mismatch")
	ErrMissingCode    = errors.New("callback carried no authorization code")
	ErrAlreadyHandled = errors.New("callback already handled")
	ErrNotConfigured  = errors.New("kakao.client_id is not set")
)

// Endpoint is Kakao's authorization server.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://kauth.kakao.com/oauth/authorize",
	TokenURL: "https://kauth.kakao.com/oauth/token",
}

// Callback is the query string Kakao redirects back with.
type Callback struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// ParseCallback reads the redirect's query parameters.
func ParseCallback(u *url.URL) Callback {
	q := u.Query()
	return Callback{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	}
}

// Flow is one login attempt. Its callback is processed at most once.
type Flow struct {
	cfg   *oauth2.Config
	state string

	mu      sync.Mutex
	handled bool
}

// NewFlow starts a login attempt for clientID. The redirect URI must match
// the one registered with Kakao.
func NewFlow(clientID, redirectURI string) (*Flow, error) {
	if clientID == "" {
		return nil, ErrNotConfigured
	}
	return &Flow{
		cfg: &oauth2.Config{
			ClientID:    clientID,
			RedirectURL: redirectURI,
			Endpoint:    Endpoint,
		},
		state: uuid.NewString(),
	}, nil
}

// AuthorizeURL is where the user signs in with Kakao.
func (f *Flow) AuthorizeURL() string {
	return f.cfg.AuthCodeURL(f.state)
}

// RedirectURL returns the configured callback address.
func (f *Flow) RedirectURL() string {
	return f.cfg.RedirectURL
}

// State is the anti-forgery value carried through the redirect.
func (f *Flow) State() string {
	return f.state
}

// Handle validates a callback and returns its authorization code. A
// callback with an error parameter is a cancellation. Once a code has been
// accepted every later callback returns ErrAlreadyHandled.
func (f *Flow) Handle(cb Callback) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.handled {
		return "", ErrAlreadyHandled
	}
	if cb.Error != "" {
		if cb.ErrorDescription != "" {
			return "", fmt.Errorf("%w: %s", ErrCancelled, cb.ErrorDescription)
		}
		return "", fmt.Errorf("%w: %s", ErrCancelled, cb.Error)
	}
	if cb.Code == "" {
		return "", ErrMissingCode
	}
	if cb.State != "" && cb.State != f.state {
		return "", ErrStateMismatch
	}

	f.handled = true
	return cb.Code, nil
}
