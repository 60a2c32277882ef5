package config

import "time"

// Application constants - all hardcoded values for the subscription analytics system
const (
	// Application Info
	AppName    = "Subscription Pulse"
	AppVersion = "1.2.0"

	// Source Data Constants
	DefaultSourceFileName = "Analytics.csv"
	SourceCSVPattern      = `(?i)\.csv$`
	SourceXLSXPattern     = `(?i)\.xlsx?$`

	// Date Layouts
	SourceDateLayout = "2006-01-02"
	MonthKeyLayout   = "2006-01"

	// Rate Limiting
	DefaultRateLimit = 100 // requests per minute
	DefaultBurstSize = 50

	// Network Timeouts
	DefaultHTTPTimeout  = 30 * time.Second
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second

	// File Paths (relative to executable)
	DefaultDataDir    = "data"
	DefaultLogsDir    = "logs"
	DefaultExportsDir = "exports"

	// Snapshot Settings
	SnapshotStatInterval = 1 * time.Second

	// Operation Timeouts
	DefaultRequestTimeout = 60 * time.Second
	ReloadTimeout         = 2 * time.Minute
	ExportTimeout         = 1 * time.Minute

	// WebSocket Buffer Sizes
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024

	// Log Settings
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "json"
	MaxLogFileSize    = 100 * 1024 * 1024 // 100MB
	MaxLogFileAge     = 30                // days
	MaxLogFileBackups = 10

	// Error Messages
	ErrSourceMissing     = "Subscription data file not found. Place the CRM export in the data directory and reload."
	ErrSourceUnreadable  = "Subscription data file could not be parsed. Check that it is a valid CSV or XLSX export."
	ErrSnapshotNotLoaded = "No subscription snapshot is loaded yet. Trigger a reload or wait for the watcher to pick up the file."

	// Success Messages
	MsgSnapshotLoaded   = "Subscription snapshot loaded successfully."
	MsgExportComplete   = "Dashboard export completed successfully."
	MsgOperationSuccess = "Operation completed successfully."
)

// Feature Flags - compile-time configuration
const (
	// Core Features
	FeatureWebSocketEnabled   = true
	FeatureMetricsEnabled     = true
	FeatureHealthCheckEnabled = true
	FeatureWatcherEnabled     = true
	FeatureExportsEnabled     = true

	// Security Features
	FeatureRateLimitingEnabled = true

	// Development Features
	FeatureDebugLoggingEnabled = false
	FeatureVerboseModeEnabled  = false
	FeatureMockDataEnabled     = false
)

// API Endpoints (internal)
const (
	APIBasePath       = "/api"
	DashboardEndpoint = "/api/dashboard"
	RecordsEndpoint   = "/api/records"
	FacetsEndpoint    = "/api/dashboard/facets"
	SnapshotEndpoint  = "/api/snapshot"
	ExportsEndpoint   = "/api/exports"
	HealthEndpoint    = "/api/health"
	MetricsEndpoint   = "/metrics"

	// WebSocket Endpoints
	WebSocketEndpoint = "/ws"
)

// GetFeatureFlag returns the value of a feature flag
func GetFeatureFlag(flag string) bool {
	switch flag {
	case "websocket":
		return FeatureWebSocketEnabled
	case "metrics":
		return FeatureMetricsEnabled
	case "health_check":
		return FeatureHealthCheckEnabled
	case "watcher":
		return FeatureWatcherEnabled
	case "exports":
		return FeatureExportsEnabled
	case "rate_limiting":
		return FeatureRateLimitingEnabled
	case "debug_logging":
		return FeatureDebugLoggingEnabled
	case "verbose_mode":
		return FeatureVerboseModeEnabled
	case "mock_data":
		return FeatureMockDataEnabled
	default:
		return false
	}
}
