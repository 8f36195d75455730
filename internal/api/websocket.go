package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/FocuswithJustin/tcvalidate/internal/logging"
	"github.com/FocuswithJustin/tcvalidate/internal/server"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
	sendBuffer     = 256
)

// Progress message types.
const (
	MessageStarted  = "started"
	MessageProgress = "progress"
	MessageComplete = "complete"
	MessageError    = "error"
)

// ProgressMessage represents a job update sent via WebSocket.
type ProgressMessage struct {
	Type      string         `json:"type"`      // started, progress, complete or error
	Operation string         `json:"operation"` // "repo" or "book-package"
	JobID     string         `json:"job_id,omitempty"`
	Stage     string         `json:"stage,omitempty"` // repo or file being checked
	Progress  int            `json:"progress"`        // 0-100
	Message   string         `json:"message"`
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Client represents a WebSocket client connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub maintains active WebSocket connections and broadcasts messages.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	pumps      sync.WaitGroup
	mu         sync.RWMutex
}

// NewHub creates a new WebSocket hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run handles client registration and broadcasting until ctx is done,
// then closes every client connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			logging.WebSocketEvent("client_connected", n)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			logging.WebSocketEvent("client_disconnected", n)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client channel full, disconnect
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Wait blocks until Run has returned and every client pump has exited.
func (h *Hub) Wait() {
	<-h.done
	h.pumps.Wait()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a progress message to all connected clients.
func (h *Hub) Broadcast(msg ProgressMessage) {
	if msg.Timestamp == "" {
		msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		logging.Error("failed to marshal progress message", "error", err)
		return
	}

	select {
	case h.broadcast <- data:
	case <-h.done:
	default:
		logging.Warn("broadcast channel full, dropping message", "job_id", msg.JobID)
	}
}

// serve registers conn and starts its pumps.
func (h *Hub) serve(conn *websocket.Conn) bool {
	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return false
	}

	h.pumps.Add(2)
	go client.writePump()
	go client.readPump()
	return true
}

// readPump drains the connection so control frames are processed. Clients
// never send data the server acts on.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
		c.hub.pumps.Done()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error("websocket unexpected close", "error", err)
			}
			return
		}
	}
}

// writePump writes queued messages, one JSON document per frame.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.hub.pumps.Done()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// newUpgrader returns an upgrader that accepts the configured origins.
// Requests without an Origin header come from non-browser clients and
// are accepted.
func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowedOrigins) == 0 {
				return true
			}
			if server.OriginListed(origin, allowedOrigins) {
				return true
			}
			logging.WarnContext(r.Context(), "websocket origin rejected", "origin", origin)
			return false
		},
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	s.hub.serve(conn)
}
