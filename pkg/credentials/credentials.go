package credentials

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	json "github.com/json-iterator/go"
)

// Credentials is the persisted session: the bearer token plus what the
// token's claims say about its owner.
type Credentials struct {
	AccessToken string    `json:"access_token"`
	Username    string    `json:"username,omitempty"`
	UserID      int64     `json:"user_id,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
}

// FromToken reads the unverified claims of an access token. Tokens that
// are not JWTs are kept as opaque strings with no expiry.
func FromToken(token string) *Credentials {
	creds := &Credentials{AccessToken: token}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return creds
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		creds.ExpiresAt = exp.Time
	}
	if username, ok := claims["username"].(string); ok {
		creds.Username = username
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		if id, err := strconv.ParseInt(sub, 10, 64); err == nil {
			creds.UserID = id
		}
	}
	return creds
}

// IsExpired reports whether the token's exp claim has passed. It is
// informational; only the server decides whether a token is still good. A
// token without an expiry never reports expired.
func (c *Credentials) IsExpired() bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(c.ExpiresAt)
}

// Store persists credentials as a single JSON file.
type Store struct {
	path string
}

// NewStore creates a store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load loads credentials from disk. Missing credentials are (nil, nil).
func (s *Store) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("corrupt credentials file %s: %w", s.path, err)
	}
	return &creds, nil
}

// Save saves credentials to disk, readable only by the owner.
func (s *Store) Save(creds *Credentials) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}

// Delete deletes credentials from disk. Deleting nothing is not an error.
func (s *Store) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
