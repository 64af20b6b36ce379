package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/richcobrien1/TrafficJamz-sub002/internal/config"
	"github.com/richcobrien1/TrafficJamz-sub002/internal/domain"
	pkglog "github.com/richcobrien1/TrafficJamz-sub002/pkg/log"
)

// DisconnectHandler is called when a client disconnects.
type DisconnectHandler func(*Client)

// Client represents a connected WebSocket client.
type Client struct {
	ID                string
	Hub               *Hub
	Conn              *websocket.Conn
	Send              chan []byte
	Session           *domain.Session
	disconnectHandler DisconnectHandler
}

// SetDisconnectHandler sets the handler to be called on disconnect.
func (c *Client) SetDisconnectHandler(handler DisconnectHandler) {
	c.disconnectHandler = handler
}

// Hub manages all WebSocket connections.
type Hub struct {
	clients    map[string]*Client
	sessions   map[string]map[string]*Client // sessionID -> clientID -> client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	config     config.WebSocketConfig
}

// NewHub creates a new Hub.
func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		sessions:   make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		config:     cfg,
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	l := pkglog.L()
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			l.Info().Str(pkglog.FieldClientID, client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				for sessionID, members := range h.sessions {
					delete(members, client.ID)
					if len(members) == 0 {
						delete(h.sessions, sessionID)
					}
				}
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()
			l.Info().Str(pkglog.FieldClientID, client.ID).Msg("client unregistered")
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// JoinSessionAndSend adds a client to a session room and queues message to
// it in one step. Broadcasts hold the same lock, so nothing broadcast to
// the session can land in the client's queue between the room join and
// this message; the greeting always arrives first.
func (h *Hub) JoinSessionAndSend(client *Client, sessionID string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.mu.Lock()
	if _, ok := h.sessions[sessionID]; !ok {
		h.sessions[sessionID] = make(map[string]*Client)
	}
	h.sessions[sessionID][client.ID] = client
	select {
	case client.Send <- data:
	default:
	}
	h.mu.Unlock()

	pkglog.L().Info().
		Str(pkglog.FieldClientID, client.ID).
		Str(pkglog.FieldSessionID, sessionID).
		Msg("client joined session")
	return nil
}

// LeaveSession removes a client from a session room.
func (h *Hub) LeaveSession(client *Client, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.sessions[sessionID]; ok {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.sessions, sessionID)
		}
	}
	pkglog.L().Info().
		Str(pkglog.FieldClientID, client.ID).
		Str(pkglog.FieldSessionID, sessionID).
		Msg("client left session")
}

// BroadcastToSession sends a message to all clients in a session.
func (h *Hub) BroadcastToSession(sessionID string, message interface{}, exclude string) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return h.BroadcastRaw(sessionID, data, exclude)
}

// BroadcastRaw sends an already-encoded frame to all clients in a session.
// Delivery happens under the room lock, so a client joining via
// JoinSessionAndSend either misses the frame entirely or receives it
// after its greeting.
func (h *Hub) BroadcastRaw(sessionID string, frame []byte, exclude string) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members, ok := h.sessions[sessionID]
	if !ok {
		return nil
	}
	for clientID, client := range members {
		if clientID == exclude {
			continue
		}
		select {
		case client.Send <- frame:
		default:
			// Client's send buffer is full
			go h.removeClient(client)
		}
	}
	return nil
}

// SendToClient sends a message to a specific client.
func (h *Hub) SendToClient(clientID string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.mu.RLock()
	client, ok := h.clients[clientID]
	h.mu.RUnlock()

	if !ok {
		return nil
	}

	select {
	case client.Send <- data:
	default:
		go h.removeClient(client)
	}
	return nil
}

// SessionClients returns the clients currently in a session.
func (h *Hub) SessionClients(sessionID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members, ok := h.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]*Client, 0, len(members))
	for _, c := range members {
		out = append(out, c)
	}
	return out
}

func (h *Hub) removeClient(client *Client) {
	h.unregister <- client
}

// ReadPump pumps messages from the WebSocket connection to the hub.
func (c *Client) ReadPump(handler func(*Client, []byte)) {
	defer func() {
		// Call disconnect handler before unregistering
		if c.disconnectHandler != nil {
			c.disconnectHandler(c)
		}
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Hub.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				pkglog.L().Error().Err(err).Msg("websocket error")
			}
			break
		}

		if c.Session != nil {
			c.Session.UpdateActivity()
		}

		handler(c, message)
	}
}

// WritePump pumps messages from the hub to the WebSocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.Hub.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Hub.config.WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Hub.config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage sends a message to the client.
func (c *Client) SendMessage(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	select {
	case c.Send <- data:
	default:
		return nil
	}
	return nil
}
