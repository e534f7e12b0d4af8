package realtime

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ammar1510/chatflow/internal/logger"
	"github.com/ammar1510/chatflow/internal/metrics"
	"github.com/ammar1510/chatflow/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 64
)

var log = logger.New("realtime")

// Transport carries outbound events. Implementations must not block.
type Transport interface {
	Emit(event string, payload interface{})
	Disconnect()
}

// Handler receives inbound events on the transport's read goroutine
type Handler func(Envelope)

// Nop is the transport used when no relay is configured or reachable
type Nop struct{}

func (Nop) Emit(string, interface{}) {}
func (Nop) Disconnect()              {}

// Client is a WebSocket connection to the relay
type Client struct {
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}
	once     sync.Once
	handler  Handler
	identity models.Identity
}

// Dial connects to the relay at rawURL, authenticating with token, and
// announces the identity with user:join.
func Dial(ctx context.Context, rawURL, token string, id models.Identity, handler Handler) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
		handler:  handler,
		identity: id,
	}
	go c.readPump()
	go c.writePump()

	log.Info("Connected to server as %s", id.Username)
	c.Emit(EventUserJoin, JoinPayload{UserID: id.ID, Username: id.Username})
	return c, nil
}

// Emit queues an event. It is dropped when the connection is gone or
// the outbound buffer is full.
func (c *Client) Emit(event string, payload interface{}) {
	frame, err := Encode(event, payload)
	if err != nil {
		log.Error("Failed to encode %s: %v", event, err)
		return
	}

	select {
	case <-c.done:
		metrics.TransportEvents.WithLabelValues("out", event, "dropped").Inc()
		log.Debug("Dropping %s, connection closed", event)
		return
	default:
	}

	select {
	case c.send <- frame:
		metrics.TransportEvents.WithLabelValues("out", event, "queued").Inc()
	default:
		metrics.TransportEvents.WithLabelValues("out", event, "dropped").Inc()
		log.Warn("Outbound buffer full, dropping %s", event)
	}
}

// Disconnect closes the connection. Queued events are discarded.
func (c *Client) Disconnect() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		c.conn.Close()
	})
}

// Done is closed once the connection is gone
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) readPump() {
	defer c.Disconnect()

	c.conn.SetReadLimit(64 * 1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	c.conn.SetPingHandler(func(data string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		err := c.conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				log.Info("Disconnected from server: %v", err)
			}
			return
		}

		envs, err := Decode(frame)
		if err != nil {
			log.Warn("Dropping malformed frame: %v", err)
		}
		for _, env := range envs {
			metrics.TransportEvents.WithLabelValues("in", env.Event, "received").Inc()
			if c.handler != nil {
				c.handler(env)
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Warn("Write failed: %v", err)
				c.Disconnect()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Disconnect()
				return
			}
		}
	}
}
