package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/ammar1510/chatflow/internal/auth"
	"github.com/ammar1510/chatflow/internal/logger"
	"github.com/ammar1510/chatflow/internal/metrics"
	"github.com/ammar1510/chatflow/internal/models"
	"github.com/ammar1510/chatflow/internal/realtime"
)

const (
	// inbound events allowed per client per second, with a small burst
	messagesPerSecond = 5
	messageBurst      = 20
)

var log = logger.New("websocket")

// Client represents a connected websocket client
type Client struct {
	ID       uuid.UUID
	Identity models.Identity
	Socket   *websocket.Conn
	Send     chan []byte
}

type outbound struct {
	from  *Client
	frame []byte
}

// Manager relays realtime events between connected clients.
// Messages go to every other client; conversation membership is not checked.
type Manager struct {
	clients    map[uuid.UUID]*Client
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	mutex      sync.Mutex
}

// NewManager creates a new websocket manager
func NewManager() *Manager {
	return &Manager{
		clients:    make(map[uuid.UUID]*Client),
		broadcast:  make(chan outbound),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the websocket manager
func (m *Manager) Run() {
	for {
		select {
		case client := <-m.register:
			m.mutex.Lock()
			m.clients[client.ID] = client
			metrics.RelayClients.Set(float64(len(m.clients)))
			log.Info("Client connected: %s (%s)", client.ID, client.Identity.Username)
			m.mutex.Unlock()
		case client := <-m.unregister:
			m.mutex.Lock()
			if _, ok := m.clients[client.ID]; ok {
				delete(m.clients, client.ID)
				close(client.Send)
				metrics.RelayClients.Set(float64(len(m.clients)))
				log.Info("Client disconnected: %s", client.ID)

				if frame, err := realtime.Encode(realtime.EventUserStatus, realtime.StatusPayload{
					UserID:   client.Identity.ID,
					Username: client.Identity.Username,
					Status:   "offline",
				}); err == nil {
					m.fanout(client, frame)
				}
			}
			m.mutex.Unlock()
		case msg := <-m.broadcast:
			m.mutex.Lock()
			m.fanout(msg.from, msg.frame)
			m.mutex.Unlock()
		}
	}
}

// fanout sends frame to every client except from. Callers hold the mutex.
func (m *Manager) fanout(from *Client, frame []byte) {
	for id, client := range m.clients {
		if from != nil && id == from.ID {
			continue
		}
		select {
		case client.Send <- frame:
		default:
			close(client.Send)
			delete(m.clients, id)
			log.Warn("Client %s is not keeping up, removing it", id)
		}
	}
	metrics.RelayClients.Set(float64(len(m.clients)))
}

// ClientCount returns the number of registered clients
func (m *Manager) ClientCount() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.clients)
}

// HandleWebSocket upgrades a request carrying a valid handshake token
// (query parameter "token") and registers the connection.
func (m *Manager) HandleWebSocket(c *gin.Context) {
	claims, err := auth.ValidateToken(c.Query("token"))
	if err != nil {
		log.Warn("Rejecting connection from %s: %v", c.Request.RemoteAddr, err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	identity, err := auth.IdentityFromClaims(claims)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// the handshake token is the access check
			return true
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade connection: %v", err)
		return
	}

	client := &Client{
		ID:       uuid.New(),
		Identity: identity,
		Socket:   conn,
		Send:     make(chan []byte, 256),
	}

	m.register <- client

	go client.readPump(m)
	go client.writePump()
	log.Debug("Client %s ready for %s", client.ID, identity.Username)
}

// readPump pumps events from the websocket connection to the manager
func (c *Client) readPump(m *Manager) {
	defer func() {
		m.unregister <- c
		c.Socket.Close()
	}()

	c.Socket.SetReadLimit(64 * 1024)
	c.Socket.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Socket.SetPongHandler(func(string) error {
		c.Socket.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	limiter := rate.NewLimiter(rate.Limit(messagesPerSecond), messageBurst)

	for {
		_, frame, err := c.Socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("Error reading from client %s: %v", c.ID, err)
			} else {
				log.Debug("Client %s closed connection: %v", c.ID, err)
			}
			break
		}

		envs, err := realtime.Decode(frame)
		if err != nil {
			log.Warn("Malformed frame from client %s: %v", c.ID, err)
			c.sendError(m, "Invalid message format")
		}

		for _, env := range envs {
			if !limiter.Allow() {
				log.Warn("Rate limit exceeded for client %s, dropping %s", c.ID, env.Event)
				metrics.TransportEvents.WithLabelValues("relay", env.Event, "rate_limited").Inc()
				continue
			}
			c.handle(m, env)
		}
	}
}

func (c *Client) handle(m *Manager, env realtime.Envelope) {
	metrics.TransportEvents.WithLabelValues("relay", env.Event, "received").Inc()

	switch env.Event {
	case realtime.EventUserJoin:
		frame, err := realtime.Encode(realtime.EventUserStatus, realtime.StatusPayload{
			UserID:   c.Identity.ID,
			Username: c.Identity.Username,
			Status:   "online",
		})
		if err == nil {
			m.broadcast <- outbound{from: c, frame: frame}
		}
	case realtime.EventMessageSend:
		var msg models.Message
		if err := json.Unmarshal(env.Data, &msg); err != nil || msg.Text == "" || msg.ConversationID == "" {
			log.Debug("Invalid message from client %s", c.ID)
			c.sendError(m, "Invalid message")
			return
		}

		// the sender is whoever holds the token
		msg.Sender = c.Identity.ID
		msg.SenderName = c.Identity.Username

		frame, err := realtime.Encode(realtime.EventMessageReceive, msg)
		if err == nil {
			m.broadcast <- outbound{from: c, frame: frame}
		}
	default:
		log.Warn("Unknown event '%s' from client %s", env.Event, c.ID)
		c.sendError(m, "Unknown event")
	}
}

func (c *Client) sendError(m *Manager, text string) {
	frame, err := realtime.Encode(realtime.EventError, realtime.ErrorPayload{Error: text})
	if err != nil {
		return
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, ok := m.clients[c.ID]; !ok {
		return
	}
	select {
	case c.Send <- frame:
	default:
	}
}

// writePump pumps messages from the manager to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Socket.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Socket.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// The manager closed the channel
				c.Socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Socket.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Socket.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
