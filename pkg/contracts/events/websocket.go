// Package events contains event contract definitions for WebSocket
// communication in the subscription analytics dashboard.
package events

import (
	"time"

	"subscli/pkg/contracts/domain"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Snapshot lifecycle messages - the primary event types
	MessageTypeSnapshotReloaded    MessageType = "snapshot:reloaded"
	MessageTypeSnapshotInvalidated MessageType = "snapshot:invalidated"

	// System messages
	MessageTypeSystemStatus MessageType = "system:status"

	// Connection messages
	MessageTypeConnect    MessageType = "connect"
	MessageTypeDisconnect MessageType = "disconnect"
	MessageTypeError      MessageType = "error"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`       // Unique message ID
	Type      MessageType `json:"type"`               // Message type
	Timestamp time.Time   `json:"timestamp"`          // Message timestamp
	TraceID   string      `json:"trace_id,omitempty"` // Request trace ID
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"` // Message payload
}

// SnapshotReloaded announces that a fresh snapshot replaced the cached one.
// Clients re-query the dashboard endpoints; no data is pushed beyond the
// summary, so aggregation stays request-driven.
type SnapshotReloaded struct {
	Snapshot domain.SnapshotInfo `json:"snapshot"`
	// Reason is "modtime", "watcher", or "manual".
	Reason string `json:"reason"`
}

// SnapshotInvalidated announces that the cached snapshot was discarded and
// the next access will reload from the source.
type SnapshotInvalidated struct {
	SourcePath string `json:"source_path"`
	Reason     string `json:"reason"`
}

// ErrorMessage represents an error message
type ErrorMessage struct {
	BaseMessage
	Data struct {
		Code    string      `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
		Fatal   bool        `json:"fatal"`
	} `json:"data"`
}

// SystemStatusEvent represents a system status event
type SystemStatusEvent struct {
	BaseMessage
	Data struct {
		Status     string            `json:"status"` // healthy|degraded|unhealthy
		Components map[string]string `json:"components"`
		Uptime     string            `json:"uptime"`
		Version    string            `json:"version"`
	} `json:"data"`
}
