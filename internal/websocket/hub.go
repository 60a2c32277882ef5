// Package websocket pushes snapshot lifecycle notifications to connected
// dashboard clients. The hub owns the client set and fans events out; no
// aggregate data travels over the socket, clients re-query the HTTP API
// after a snapshot:reloaded or snapshot:invalidated event.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"subscli/internal/infrastructure"
	"subscli/pkg/contracts/domain"
	"subscli/pkg/contracts/events"
)

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics

	totalConnections int64
	totalBroadcasts  int64
	droppedClients   int64

	quit    chan struct{}
	running bool
	runMu   sync.Mutex
}

// NewHub creates a hub. A nil metrics handle disables instrumentation, a
// nil logger falls back to the process default.
func NewHub(logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
		quit:       make(chan struct{}),
	}
}

// Start launches the hub loop. Calling Start on a running hub is a no-op.
func (h *Hub) Start() {
	h.runMu.Lock()
	defer h.runMu.Unlock()
	if h.running {
		return
	}
	h.running = true
	go h.Run()
}

// Run processes register, unregister, and broadcast requests until Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.fanOut(message)
		case <-h.quit:
			return
		}
	}
}

// Stop shuts the hub down and disconnects every client.
func (h *Hub) Stop() {
	h.runMu.Lock()
	if !h.running {
		h.runMu.Unlock()
		return
	}
	h.running = false
	close(h.quit)
	h.runMu.Unlock()

	h.mu.Lock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	connections, broadcasts := h.totalConnections, h.totalBroadcasts
	h.mu.Unlock()

	h.logger.Info("websocket hub stopped",
		slog.Int64("total_connections", connections),
		slog.Int64("total_broadcasts", broadcasts))
}

// Register queues a client for registration with the hub loop.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.totalConnections++
	count := len(h.clients)
	h.mu.Unlock()

	infrastructure.RecordActiveClientChange(context.Background(), h.metrics, 1)
	h.logger.Info("websocket client connected",
		slog.String("client_id", client.id),
		slog.String("remote_addr", client.remoteAddr),
		slog.Int("client_count", count))

	welcome, err := json.Marshal(events.WebSocketMessage{
		BaseMessage: events.BaseMessage{
			ID:        uuid.NewString(),
			Type:      events.MessageTypeConnect,
			Timestamp: time.Now().UTC(),
		},
		Data: map[string]interface{}{
			"client_id": client.id,
			"protocol":  events.ProtocolName,
			"version":   events.ProtocolVersion,
		},
	})
	if err != nil {
		return
	}
	select {
	case client.send <- welcome:
	default:
		h.logger.Warn("welcome message dropped, client send buffer full",
			slog.String("client_id", client.id))
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	_, known := h.clients[client]
	if known {
		delete(h.clients, client)
		close(client.send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	if !known {
		return
	}
	infrastructure.RecordActiveClientChange(context.Background(), h.metrics, -1)
	h.logger.Info("websocket client disconnected",
		slog.String("client_id", client.id),
		slog.Int("client_count", count))
}

// fanOut delivers a message to every client. Clients whose send buffer is
// full are disconnected rather than allowed to stall the loop.
func (h *Hub) fanOut(message []byte) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	var slow []*Client
	for _, client := range targets {
		select {
		case client.send <- message:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.Lock()
	h.totalBroadcasts++
	h.mu.Unlock()

	if len(slow) == 0 {
		return
	}
	h.mu.Lock()
	for _, client := range slow {
		if _, ok := h.clients[client]; ok {
			delete(h.clients, client)
			close(client.send)
			h.droppedClients++
			h.logger.Warn("dropping slow websocket client",
				slog.String("client_id", client.id))
		}
	}
	h.mu.Unlock()
	for range slow {
		infrastructure.RecordActiveClientChange(context.Background(), h.metrics, -1)
	}
}

// Broadcast queues raw bytes for delivery to all clients. The payload is
// dropped with a warning when the hub queue is full or the hub is stopped.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.quit:
	default:
		h.logger.Warn("broadcast queue full, message dropped",
			slog.Int("payload_bytes", len(message)))
	}
}

// BroadcastSnapshotReloaded announces that a fresh snapshot replaced the
// cached one. Reason is "modtime", "watcher", or "manual".
func (h *Hub) BroadcastSnapshotReloaded(info domain.SnapshotInfo, reason string) {
	h.broadcastEvent(events.MessageTypeSnapshotReloaded, events.SnapshotReloaded{
		Snapshot: info,
		Reason:   reason,
	})
}

// BroadcastSnapshotInvalidated announces that the cached snapshot was
// discarded and the next access will reload from the source.
func (h *Hub) BroadcastSnapshotInvalidated(sourcePath, reason string) {
	h.broadcastEvent(events.MessageTypeSnapshotInvalidated, events.SnapshotInvalidated{
		SourcePath: sourcePath,
		Reason:     reason,
	})
}

// BroadcastError pushes an error notification, for failures that clients
// should surface, such as a reload that could not read the source file.
func (h *Hub) BroadcastError(code, message string, fatal bool) {
	h.broadcastEvent(events.MessageTypeError, map[string]interface{}{
		"code":    code,
		"message": message,
		"fatal":   fatal,
	})
}

// BroadcastSystemStatus pushes a coarse component health summary.
func (h *Hub) BroadcastSystemStatus(status string, components map[string]string) {
	h.broadcastEvent(events.MessageTypeSystemStatus, map[string]interface{}{
		"status":     status,
		"components": components,
	})
}

func (h *Hub) broadcastEvent(msgType events.MessageType, data interface{}) {
	payload, err := json.Marshal(events.WebSocketMessage{
		BaseMessage: events.BaseMessage{
			ID:        uuid.NewString(),
			Type:      msgType,
			Timestamp: time.Now().UTC(),
		},
		Data: data,
	})
	if err != nil {
		h.logger.Error("failed to marshal broadcast message",
			slog.String("type", string(msgType)),
			slog.String("error", err.Error()))
		return
	}
	infrastructure.RecordBroadcastEvent(context.Background(), h.metrics, string(msgType))
	h.logger.Debug("broadcasting event",
		slog.String("type", string(msgType)),
		slog.Int("payload_bytes", len(payload)))
	h.Broadcast(payload)
}
