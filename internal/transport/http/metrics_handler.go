package http

import (
	"net/http"

	"github.com/go-chi/render"

	"subscli/internal/websocket"
)

// MetricsHandler serves the Prometheus exposition endpoint plus a small
// JSON summary for the dashboard footer.
type MetricsHandler struct {
	prometheus http.Handler
	hub        *websocket.Hub
}

// NewMetricsHandler creates a metrics handler. prometheus may be nil when
// the metric exporter is disabled; the exposition endpoint then responds
// 404.
func NewMetricsHandler(prometheus http.Handler, hub *websocket.Hub) *MetricsHandler {
	return &MetricsHandler{prometheus: prometheus, hub: hub}
}

// Prometheus handles GET /metrics with the OpenTelemetry Prometheus
// exporter's exposition format.
func (h *MetricsHandler) Prometheus(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		http.NotFound(w, r)
		return
	}
	h.prometheus.ServeHTTP(w, r)
}

// Summary handles GET /api/metrics/summary
func (h *MetricsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	clients := 0
	if h.hub != nil {
		clients = h.hub.ClientCount()
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "ok",
		"metrics": map[string]interface{}{
			"websocket_clients": clients,
		},
	})
}
