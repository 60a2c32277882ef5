package websocket

import (
	"bytes"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"subscli/internal/infrastructure"
)

const (
	defaultWriteWait      = 10 * time.Second
	defaultPongWait       = 60 * time.Second
	defaultMaxMessageSize = 512

	// Outbound buffer per client. A client that falls this far behind is
	// disconnected by the hub.
	sendBufferSize = 256
)

var (
	newline = []byte{'\n'}
	space   = []byte{' '}
)

// Settings tunes per connection timeouts. Zero values fall back to the
// package defaults.
type Settings struct {
	// PingPeriod is how often the server pings the peer. Must be shorter
	// than PongWait.
	PingPeriod time.Duration

	// PongWait is how long to wait for a pong before the read side gives up.
	PongWait time.Duration

	// WriteWait bounds a single write to the peer.
	WriteWait time.Duration

	// MaxMessageSize caps inbound message size in bytes.
	MaxMessageSize int64
}

func (s Settings) withDefaults() Settings {
	if s.PongWait <= 0 {
		s.PongWait = defaultPongWait
	}
	if s.PingPeriod <= 0 || s.PingPeriod >= s.PongWait {
		s.PingPeriod = s.PongWait * 9 / 10
	}
	if s.WriteWait <= 0 {
		s.WriteWait = defaultWriteWait
	}
	if s.MaxMessageSize <= 0 {
		s.MaxMessageSize = defaultMaxMessageSize
	}
	return s
}

// Client sits between a websocket connection and the hub, pumping hub
// broadcasts out and keeping the connection alive with pings.
type Client struct {
	hub  *Hub
	conn Connection
	send chan []byte

	settings Settings

	id          string
	remoteAddr  string
	connectedAt time.Time

	logger *slog.Logger

	messagesSent     int64
	messagesReceived int64
	bytesSent        int64
	bytesReceived    int64
}

// NewClient wraps a gorilla websocket connection in a Client.
func NewClient(hub *Hub, conn *websocket.Conn, settings Settings, logger *slog.Logger) *Client {
	return NewClientWithConnection(hub, WrapConnection(conn), settings, logger)
}

// NewClientWithConnection creates a Client over any Connection. Tests use
// this with an in-memory connection.
func NewClientWithConnection(hub *Hub, conn Connection, settings Settings, logger *slog.Logger) *Client {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	id := uuid.NewString()
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		settings:    settings.withDefaults(),
		id:          id,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		logger: logger.With(
			slog.String("component", "websocket.client"),
			slog.String("client_id", id),
		),
	}
}

// ID returns the client identifier assigned at construction.
func (c *Client) ID() string {
	return c.id
}

// ReadPump pumps messages from the websocket connection to the hub. It
// unregisters the client when the connection drops.
func (c *Client) ReadPump() {
	defer func() {
		c.logger.Info("websocket read pump stopped",
			slog.Duration("connection_duration", time.Since(c.connectedAt)),
			slog.Int64("messages_received", c.messagesReceived),
			slog.Int64("bytes_received", c.bytesReceived))
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(c.settings.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.settings.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.settings.PongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("unexpected websocket close",
					slog.String("error", err.Error()))
			}
			return
		}
		message = bytes.TrimSpace(bytes.Replace(message, newline, space, -1))

		c.messagesReceived++
		c.bytesReceived += int64(len(message))

		// Browser clients send an application-level heartbeat in addition
		// to protocol pings. The read deadline was already refreshed.
		if string(message) == `{"type":"heartbeat"}` {
			c.logger.Debug("heartbeat received")
			continue
		}

		// Clients are otherwise listen-only. Dashboard queries go over
		// HTTP, not the socket.
	}
}

// WritePump pumps hub messages to the websocket connection and pings the
// peer at the configured interval.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.settings.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger.Info("websocket write pump stopped",
			slog.Int64("messages_sent", c.messagesSent),
			slog.Int64("bytes_sent", c.bytesSent))
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.settings.WriteWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if !c.writeMessage(message) {
				return
			}

			// Drain anything queued behind the first message, each as its
			// own frame so clients parse them independently.
			n := len(c.send)
			for i := 0; i < n; i++ {
				queued, ok := <-c.send
				if !ok {
					c.conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				c.conn.SetWriteDeadline(time.Now().Add(c.settings.WriteWait))
				if !c.writeMessage(queued) {
					return
				}
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.settings.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("ping failed",
					slog.String("error", err.Error()))
				return
			}
		}
	}
}

func (c *Client) writeMessage(message []byte) bool {
	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Error("failed to write websocket message",
			slog.String("error", err.Error()))
		return false
	}
	c.messagesSent++
	c.bytesSent += int64(len(message))
	return true
}

// ServeWS registers a freshly upgraded connection with the hub and starts
// its pumps.
func ServeWS(hub *Hub, conn *websocket.Conn, settings Settings, logger *slog.Logger) {
	client := NewClient(hub, conn, settings, logger)
	hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
