package mockapi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// KakaoCodePrefix marks the authorization codes the mock server accepts.
// "mock-alice" signs in as alice, creating the account if needed.
const KakaoCodePrefix = "mock-"

var errInvalidToken = errors.New("invalid token")

// Tokens issues and validates HS256 access tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for u.
func (t *Tokens) Issue(u *User) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatInt(u.ID, 10),
		"username": u.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(t.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Validate returns the user id carried by a token.
func (t *Tokens) Validate(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return 0, err
	}
	if !token.Valid {
		return 0, errInvalidToken
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, errInvalidToken
	}
	return id, nil
}

// tokenFromRequest reads the bearer token, falling back to ?token= for
// websocket upgrades.
func tokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return token
		}
	}
	return c.Query("token")
}

const userIDKey = "user_id"

// requireAuth rejects requests without a valid token.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			respondError(c, 401, "UNAUTHORIZED", "authentication required")
			c.Abort()
			return
		}
		id, err := s.tokens.Validate(token)
		if err != nil {
			respondError(c, 401, "UNAUTHORIZED", "invalid or expired token")
			c.Abort()
			return
		}
		if _, err := s.store.UserByID(id); err != nil {
			respondError(c, 401, "UNAUTHORIZED", "user no longer exists")
			c.Abort()
			return
		}
		c.Set(userIDKey, id)
		c.Next()
	}
}

// optionalAuth records the viewer when a valid token is present and
// otherwise lets the request through anonymously.
func (s *Server) optionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := tokenFromRequest(c); token != "" {
			if id, err := s.tokens.Validate(token); err == nil {
				c.Set(userIDKey, id)
			}
		}
		c.Next()
	}
}

// viewerID returns the authenticated user id, or 0 for anonymous requests.
func viewerID(c *gin.Context) int64 {
	id, _ := c.Get(userIDKey)
	v, _ := id.(int64)
	return v
}
