// Package app assembles the subscription analytics dashboard server.
//
// The application reads a CRM subscription export (CSV or XLSX), cleans
// it into an immutable in-memory snapshot, and serves facet-filtered
// aggregations over a JSON API. A WebSocket hub pushes snapshot lifecycle
// events to connected dashboards, and a file watcher reloads the snapshot
// when the source export changes on disk.
//
// Construction is layered: NewApplication loads configuration, structured
// logging, and the OpenTelemetry providers, then wires services, handlers,
// and the chi router. NewApplicationWithConfig skips the telemetry stack
// for tests and embedding.
package app
