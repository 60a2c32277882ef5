package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"subscli/internal/config"
	"subscli/internal/infrastructure"
	ws "subscli/internal/websocket"
	"subscli/pkg/contracts"
)

// HealthService provides health check functionality
type HealthService struct {
	version      string
	buildTime    string
	buildID      string
	sourcePath   func() string
	snapshots    *SnapshotService
	webSocketHub *ws.Hub
	collector    *infrastructure.SystemMetricsCollector
	startTime    time.Time
	logger       *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// SystemStats represents system statistics
type SystemStats struct {
	UptimeSeconds    float64 `json:"uptime_seconds"`
	SourceFile       string  `json:"source_file"`
	SourceSizeBytes  int64   `json:"source_size_bytes"`
	SnapshotLoaded   bool    `json:"snapshot_loaded"`
	SnapshotRecords  int     `json:"snapshot_records"`
	WebSocketClients int     `json:"websocket_clients"`
	GoVersion        string  `json:"go_version"`
	OS               string  `json:"os"`
	Arch             string  `json:"arch"`
}

// NewHealthService creates a new health service with injected dependencies
func NewHealthService(version string, cfg *config.Config, snapshots *SnapshotService, webSocketHub *ws.Hub, collector *infrastructure.SystemMetricsCollector, logger *slog.Logger) *HealthService {
	return NewHealthServiceWithBuildInfo(version, "", "", cfg, snapshots, webSocketHub, collector, logger)
}

// NewHealthServiceWithBuildInfo creates a new health service with build information
func NewHealthServiceWithBuildInfo(version, buildTime, buildID string, cfg *config.Config, snapshots *SnapshotService, webSocketHub *ws.Hub, collector *infrastructure.SystemMetricsCollector, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized with full dependencies",
		slog.String("version", version),
		slog.String("build_time", buildTime),
		slog.String("build_id", buildID))

	return &HealthService{
		version:      version,
		buildTime:    buildTime,
		buildID:      buildID,
		sourcePath:   cfg.GetSourceFile,
		snapshots:    snapshots,
		webSocketHub: webSocketHub,
		collector:    collector,
		startTime:    time.Now(),
		logger:       logger,
	}
}

// NewHealthServiceWithLogger creates a new health service with a specific logger (simplified constructor for test)
func NewHealthServiceWithLogger(version string, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version))

	return &HealthService{
		version:    version,
		sourcePath: func() string { return "" },
		startTime:  time.Now(),
		logger:     logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("version", hs.version),
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck returns readiness status
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]interface{}),
	}

	// Check individual services
	status.Services["source"] = hs.checkSourceHealth()
	status.Services["snapshot"] = hs.checkSnapshotHealth()
	status.Services["websocket"] = hs.checkWebSocketHealth()

	// Determine overall readiness
	allReady := true
	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			allReady = false
			break
		}
	}

	if !allReady {
		status.Status = "not_ready"
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	info := contracts.GetVersionInfo()
	result := map[string]interface{}{
		"app":          config.AppName,
		"version":      hs.version,
		"stage":        info.Stage,
		"data_format":  info.DataFormat,
		"api_version":  info.APIVersion,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}

	// Include build info if available
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	if hs.buildID != "" {
		result["build_id"] = hs.buildID
	}
	if info.GitCommit != "unknown" {
		result["git_commit"] = info.GitCommit
	}
	if info.GitBranch != "unknown" {
		result["git_branch"] = info.GitBranch
	}

	return result
}

// SystemStats returns system statistics
func (hs *HealthService) SystemStats(ctx context.Context) (SystemStats, error) {
	stats := SystemStats{
		UptimeSeconds: time.Since(hs.startTime).Seconds(),
		SourceFile:    hs.sourcePath(),
		GoVersion:     runtime.Version(),
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
	}

	if info, err := os.Stat(stats.SourceFile); err == nil {
		stats.SourceSizeBytes = info.Size()
	}

	if hs.snapshots != nil {
		if snap := hs.snapshots.Current(); snap != nil {
			stats.SnapshotLoaded = true
			stats.SnapshotRecords = snap.Info.RecordCount
		}
	}

	if hs.webSocketHub != nil {
		stats.WebSocketClients = hs.webSocketHub.ClientCount()
	}

	return stats, nil
}

// checkSourceHealth checks that the configured subscription source exists
func (hs *HealthService) checkSourceHealth() ServiceHealth {
	path := hs.sourcePath()
	if path == "" {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "no source file configured",
		}
	}

	if _, err := os.Stat(path); err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("subscription source not found: %s", path),
		}
	}

	return ServiceHealth{
		Status:  "ready",
		Message: "subscription source present",
	}
}

// checkSnapshotHealth reports the snapshot cache state. An unloaded cache
// is still ready: the first request loads lazily.
func (hs *HealthService) checkSnapshotHealth() ServiceHealth {
	if hs.snapshots == nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "snapshot service not initialized",
		}
	}

	snap := hs.snapshots.Current()
	if snap == nil {
		return ServiceHealth{
			Status:  "ready",
			Message: "no snapshot loaded yet; loads on first access",
		}
	}

	return ServiceHealth{
		Status: "ready",
		Message: fmt.Sprintf("snapshot %s: %d records", snap.Info.ID, snap.Info.RecordCount),
		Uptime: time.Since(snap.Info.LoadedAt).String(),
	}
}

// checkWebSocketHealth checks WebSocket service health
func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	if hs.webSocketHub == nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "websocket hub not initialized",
		}
	}

	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d clients connected", hs.webSocketHub.ClientCount()),
		Uptime:  time.Since(hs.startTime).String(),
	}
}

// GetDetailedHealth returns comprehensive health information
func (hs *HealthService) GetDetailedHealth(ctx context.Context) map[string]interface{} {
	stats, _ := hs.SystemStats(ctx)

	detail := map[string]interface{}{
		"health":    hs.HealthCheck(ctx),
		"readiness": hs.ReadinessCheck(ctx),
		"liveness":  hs.LivenessCheck(ctx),
		"stats":     stats,
	}

	if hs.snapshots != nil {
		if snap := hs.snapshots.Current(); snap != nil {
			detail["snapshot"] = snap.Info
		}
	}

	if hs.collector != nil {
		if sysStats := hs.collector.GetCurrentStats(ctx); sysStats != nil {
			detail["runtime_metrics"] = sysStats.FormatStats()
		}
	}

	return detail
}
