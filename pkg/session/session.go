// Package session holds who is signed in. A Session is created once by the
// application and passed to everything that needs the current user.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/snapgram/cli/pkg/api"
	"github.com/snapgram/cli/pkg/credentials"
	"github.com/snapgram/cli/pkg/logger"
	"github.com/snapgram/cli/pkg/observe"
)

var (
	// ErrNotSignedIn is returned by operations that need a current user.
	ErrNotSignedIn = errors.New("not signed in")
	// ErrSessionExpired means the server rejected the stored token and it
	// has been removed.
	ErrSessionExpired = errors.New("session expired, please log in again")
)

// TokenHolder is the transport that carries the bearer token.
type TokenHolder interface {
	SetAuthToken(token string)
	ClearAuthToken()
}

// CurrentUserFetcher resolves the owner of the current token.
type CurrentUserFetcher interface {
	GetMe(ctx context.Context) (*api.Profile, error)
}

// CredentialStore persists the token between runs.
type CredentialStore interface {
	Load() (*credentials.Credentials, error)
	Save(creds *credentials.Credentials) error
	Delete() error
}

// State is what subscribers receive after every change.
type State struct {
	User     *api.Profile
	SignedIn bool
}

type Session struct {
	tokens TokenHolder
	users  CurrentUserFetcher
	store  CredentialStore

	mu    sync.RWMutex
	token string
	user  *api.Profile

	hub observe.Hub[State]
}

// New creates a signed-out session.
func New(tokens TokenHolder, users CurrentUserFetcher, store CredentialStore) *Session {
	return &Session{tokens: tokens, users: users, store: store}
}

// Hydrate restores the session from the credential store. With no stored
// token it returns nil and stays signed out. The token is always sent to
// the server; only a 401 deletes it and returns ErrSessionExpired. Other failures keep the token so
// a later command can retry.
func (s *Session) Hydrate(ctx context.Context) error {
	creds, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}
	if creds == nil || creds.AccessToken == "" {
		logger.Debug("No stored credentials")
		return nil
	}
	if creds.IsExpired() {
		// the server decides; the claim is only reported
		logger.Debug("Stored token is past its exp claim", "expires_at", creds.ExpiresAt)
	}

	s.tokens.SetAuthToken(creds.AccessToken)
	s.mu.Lock()
	s.token = creds.AccessToken
	s.mu.Unlock()

	user, err := s.users.GetMe(ctx)
	if err != nil {
		if api.IsUnauthorized(err) {
			logger.Debug("Stored token rejected by server")
			s.discard()
			return ErrSessionExpired
		}
		return fmt.Errorf("failed to fetch current user: %w", err)
	}

	s.setUser(user)
	logger.Debug("Session restored", "username", user.Username)
	return nil
}

// Login adopts token: it fetches the user the token belongs to and only
// then persists it. On failure the previous session is left in place.
func (s *Session) Login(ctx context.Context, token string) (*api.Profile, error) {
	s.mu.RLock()
	previous := s.token
	s.mu.RUnlock()

	s.tokens.SetAuthToken(token)
	user, err := s.users.GetMe(ctx)
	if err != nil {
		if previous != "" {
			s.tokens.SetAuthToken(previous)
		} else {
			s.tokens.ClearAuthToken()
		}
		return nil, fmt.Errorf("failed to fetch current user: %w", err)
	}

	creds := credentials.FromToken(token)
	creds.Username = user.Username
	creds.UserID = user.ID
	if err := s.store.Save(creds); err != nil {
		logger.Warn("Failed to save credentials", "error", err)
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	s.setUser(user)

	logger.Debug("Logged in", "username", user.Username)
	return user, nil
}

// Refresh refetches the current user, e.g. after editing one's own profile.
func (s *Session) Refresh(ctx context.Context) (*api.Profile, error) {
	if !s.SignedIn() {
		return nil, ErrNotSignedIn
	}
	user, err := s.users.GetMe(ctx)
	if err != nil {
		return nil, err
	}
	s.setUser(user)
	return user, nil
}

// Logout forgets the token locally and on disk.
func (s *Session) Logout() error {
	s.tokens.ClearAuthToken()

	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	err := s.store.Delete()
	s.hub.Publish(State{})
	return err
}

// User returns a copy of the current user, or nil when signed out.
func (s *Session) User() *api.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// RequireUser is User for operations that cannot run signed out.
func (s *Session) RequireUser() (*api.Profile, error) {
	if u := s.User(); u != nil {
		return u, nil
	}
	return nil, ErrNotSignedIn
}

// Token returns the bearer token in use, or "".
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SignedIn reports whether a current user is known.
func (s *Session) SignedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// Subscribe registers fn for session changes.
func (s *Session) Subscribe(fn func(State)) (unsubscribe func()) {
	return s.hub.Subscribe(fn)
}

func (s *Session) setUser(user *api.Profile) {
	u := *user
	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()

	s.hub.Publish(State{User: user, SignedIn: true})
}

func (s *Session) discard() {
	s.tokens.ClearAuthToken()
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	if err := s.store.Delete(); err != nil {
		logger.Warn("Failed to delete credentials", "error", err)
	}
	s.hub.Publish(State{})
}
