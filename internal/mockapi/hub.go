package mockapi

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	json "github.com/json-iterator/go"
	"github.com/snapgram/cli/pkg/live"
	"github.com/snapgram/cli/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Hub fans post changes out to every connected websocket client.
type Hub struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}

	messagesSent       atomic.Int64
	connectionsDropped atomic.Int64
}

type wsClient struct {
	hub    *Hub
	conn   *websocket.Conn
	userID int64
	send   chan []byte
	once   sync.Once
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*wsClient]struct{})}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a typed message to all clients. Clients whose buffer is
// full are dropped.
func (h *Hub) Broadcast(msgType live.MessageType, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(live.Message{Type: msgType, Payload: raw})
	if err != nil {
		return err
	}

	h.mu.RLock()
	var slow []*wsClient
	for c := range h.clients {
		select {
		case c.send <- data:
			h.messagesSent.Add(1)
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.connectionsDropped.Add(1)
		h.unregister(c)
	}
	return nil
}

// sendTo queues data for one client if it is still registered.
func (h *Hub) sendTo(c *wsClient, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
		h.messagesSent.Add(1)
	default:
	}
}

func (h *Hub) register(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	active := len(h.clients)
	h.mu.Unlock()
	logger.Debug("Websocket client connected", "user_id", c.userID, "active", active)
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		c.once.Do(func() { close(c.send) })
	}
	active := len(h.clients)
	h.mu.Unlock()

	if ok {
		logger.Debug("Websocket client disconnected", "user_id", c.userID, "active", active)
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		h.unregister(c)
	}
}

// handleWebSocket upgrades an authenticated request. The token comes from
// ?token= since browsers cannot set headers on the upgrade.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("Websocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{
		hub:    s.hub,
		conn:   conn,
		userID: viewerID(c),
		send:   make(chan []byte, sendBufferSize),
	}
	s.hub.register(client)

	go client.writePump()
	go client.readPump()
}

// readPump answers heartbeats and detects disconnects.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg live.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == live.MessageTypeHeartbeat {
			pong, _ := json.Marshal(live.Message{Type: live.MessageTypePong})
			c.hub.sendTo(c, pong)
		}
	}
}

func (c *wsClient) writePump() {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
