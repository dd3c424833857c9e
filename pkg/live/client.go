// Package live streams post changes from the backend over a websocket and
// merges them into the feed.
package live

import (
	"context"
	"errors"
	"math/rand"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	json "github.com/json-iterator/go"
	"github.com/snapgram/cli/pkg/logger"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypePostUpdated MessageType = "post_updated"
	MessageTypePostDeleted MessageType = "post_deleted"
	MessageTypeHeartbeat   MessageType = "heartbeat"
	MessageTypePong        MessageType = "pong"
	MessageTypeError       MessageType = "error"
)

// Message is one frame from the server.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Config holds WebSocket client configuration
type Config struct {
	URL                  string
	Token                string
	HeartbeatInterval    time.Duration
	ReconnectBaseDelay   time.Duration
	ReconnectMaxDelay    time.Duration
	MaxReconnectAttempts int // negative means unlimited
}

const defaultReconnectBaseDelay = 2 * time.Second

// DefaultConfig returns the settings used by feed --watch.
func DefaultConfig(wsURL, token string) Config {
	return Config{
		URL:                  wsURL,
		Token:                token,
		HeartbeatInterval:    30 * time.Second,
		ReconnectBaseDelay:   defaultReconnectBaseDelay,
		ReconnectMaxDelay:    30 * time.Second,
		MaxReconnectAttempts: -1,
	}
}

// ConnectionState represents the state of the WebSocket connection
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// Stats holds connection statistics
type Stats struct {
	MessagesReceived int64
	ReconnectCount   int
	LastError        string
	ConnectedAt      time.Time
}

var ErrReconnectLimit = errors.New("websocket: reconnect attempts exhausted")

// Client keeps one websocket open, reconnecting with backoff, and hands
// every frame to the handlers registered for its type.
type Client struct {
	config Config
	dialer *websocket.Dialer

	state atomic.Int32

	handlersMu sync.RWMutex
	nextID     uint64
	handlers   map[MessageType]map[uint64]func(Message)

	statsMu sync.Mutex
	stats   Stats

	writeMu sync.Mutex
}

// NewClient creates a client. A non-positive ReconnectBaseDelay uses the
// default, and ReconnectMaxDelay is raised to at least the base delay.
func NewClient(config Config) *Client {
	if config.ReconnectBaseDelay <= 0 {
		config.ReconnectBaseDelay = defaultReconnectBaseDelay
	}
	if config.ReconnectMaxDelay < config.ReconnectBaseDelay {
		config.ReconnectMaxDelay = config.ReconnectBaseDelay
	}
	return &Client{
		config:   config,
		dialer:   websocket.DefaultDialer,
		handlers: make(map[MessageType]map[uint64]func(Message)),
	}
}

// On registers fn for msgType and returns a function that removes it.
// Handlers run on the read goroutine in arrival order.
func (c *Client) On(msgType MessageType, fn func(Message)) (unsubscribe func()) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()

	c.nextID++
	id := c.nextID
	if c.handlers[msgType] == nil {
		c.handlers[msgType] = make(map[uint64]func(Message))
	}
	c.handlers[msgType][id] = fn

	return func() {
		c.handlersMu.Lock()
		defer c.handlersMu.Unlock()
		delete(c.handlers[msgType], id)
	}
}

func (c *Client) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

func (c *Client) Stats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

// Run connects and reads until ctx is done. Dropped connections are
// retried with exponential backoff. It returns ctx.Err() on shutdown or
// ErrReconnectLimit when MaxReconnectAttempts is reached.
func (c *Client) Run(ctx context.Context) error {
	defer c.setState(StateDisconnected)

	attempts := 0
	delay := c.config.ReconnectBaseDelay

	for {
		c.setState(StateConnecting)
		conn, err := c.dial(ctx)
		if err == nil {
			attempts = 0
			delay = c.config.ReconnectBaseDelay
			c.recordConnected()
			logger.Debug("WebSocket connected", "url", c.config.URL)

			err = c.serve(ctx, conn)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.recordError(err)
		logger.Debug("WebSocket dropped", "error", err)

		if c.config.MaxReconnectAttempts >= 0 && attempts >= c.config.MaxReconnectAttempts {
			return ErrReconnectLimit
		}
		attempts++
		c.setState(StateReconnecting)

		wait := delay + time.Duration(rand.Int63n(int64(delay/4)+1))
		logger.Debug("Reconnecting WebSocket", "attempt", attempts, "wait_ms", wait.Milliseconds())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		delay *= 2
		if delay > c.config.ReconnectMaxDelay {
			delay = c.config.ReconnectMaxDelay
		}
		c.statsMu.Lock()
		c.stats.ReconnectCount++
		c.statsMu.Unlock()
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(c.config.URL)
	if err != nil {
		return nil, err
	}
	if c.config.Token != "" {
		q := u.Query()
		q.Set("token", c.config.Token)
		u.RawQuery = q.Encode()
	}

	conn, _, err := c.dialer.DialContext(ctx, u.String(), nil)
	return conn, err
}

// serve reads frames until the connection fails or ctx ends.
func (c *Client) serve(ctx context.Context, conn *websocket.Conn) error {
	c.setState(StateConnected)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.writeMu.Lock()
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			c.writeMu.Unlock()
			conn.Close()
		case <-done:
			conn.Close()
		}
	}()
	if c.config.HeartbeatInterval > 0 {
		go c.heartbeat(conn, done)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warn("Ignoring malformed websocket frame", "error", err)
			continue
		}

		c.statsMu.Lock()
		c.stats.MessagesReceived++
		c.statsMu.Unlock()

		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg Message) {
	c.handlersMu.RLock()
	fns := make([]func(Message), 0, len(c.handlers[msg.Type]))
	for _, fn := range c.handlers[msg.Type] {
		fns = append(fns, fn)
	}
	c.handlersMu.RUnlock()

	for _, fn := range fns {
		fn(msg)
	}
}

func (c *Client) heartbeat(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.config.HeartbeatInterval)
	defer ticker.Stop()

	frame, _ := json.Marshal(Message{Type: MessageTypeHeartbeat})
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := conn.WriteMessage(websocket.TextMessage, frame)
			c.writeMu.Unlock()
			if err != nil {
				logger.Debug("Failed to send heartbeat", "error", err)
				return
			}
		}
	}
}

func (c *Client) setState(s ConnectionState) {
	c.state.Store(int32(s))
}

func (c *Client) recordConnected() {
	c.statsMu.Lock()
	c.stats.ConnectedAt = time.Now()
	c.statsMu.Unlock()
}

func (c *Client) recordError(err error) {
	if err == nil {
		return
	}
	c.statsMu.Lock()
	c.stats.LastError = err.Error()
	c.statsMu.Unlock()
}
