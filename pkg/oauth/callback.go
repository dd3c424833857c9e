package oauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/snapgram/cli/pkg/logger"
)

type result struct {
	code string
	err  error
}

// Listener serves the redirect URI on the loopback interface and waits
// for Kakao to send the browser back.
type Listener struct {
	flow   *Flow
	ln     net.Listener
	server *http.Server
	path   string
	done   chan result
}

// Listen binds the host and port of the flow's redirect URI.
func Listen(flow *Flow) (*Listener, error) {
	u, err := url.Parse(flow.RedirectURL())
	if err != nil {
		return nil, fmt.Errorf("invalid redirect uri: %w", err)
	}

	ln, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, fmt.Errorf("cannot listen for the kakao redirect on %s: %w", u.Host, err)
	}
	return newListener(flow, ln, u.Path), nil
}

func newListener(flow *Flow, ln net.Listener, path string) *Listener {
	if path == "" {
		path = "/"
	}
	l := &Listener{
		flow: flow,
		ln:   ln,
		path: path,
		done: make(chan result, 1),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET(path, l.handle)

	l.server = &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := l.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("OAuth callback server failed", "error", err)
		}
	}()
	return l
}

// Addr is the bound address.
func (l *Listener) Addr() string {
	return l.ln.Addr().String()
}

func (l *Listener) handle(c *gin.Context) {
	code, err := l.flow.Handle(ParseCallback(c.Request.URL))
	switch {
	case errors.Is(err, ErrAlreadyHandled):
		c.String(http.StatusOK, "Login already completed. You can close this window.")
		return
	case errors.Is(err, ErrCancelled):
		c.String(http.StatusOK, "Kakao login cancelled. You can close this window.")
	case err != nil:
		c.String(http.StatusBadRequest, "Kakao login failed: %v", err)
	default:
		c.String(http.StatusOK, "Kakao login complete. Return to your terminal.")
	}

	select {
	case l.done <- result{code: code, err: err}:
	default:
	}
}

// Wait blocks until a callback arrives or ctx ends, then shuts the server
// down.
func (l *Listener) Wait(ctx context.Context) (string, error) {
	defer l.Close()

	select {
	case r := <-l.done:
		return r.code, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (l *Listener) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return l.server.Shutdown(ctx)
}
