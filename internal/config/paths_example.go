//go:build example
// +build example

package config

import (
	"log/slog"
	"os"
	"time"
)

// ExampleUsage demonstrates how to use the paths package throughout the application
func ExampleUsage() {
	// Always get paths from the centralized GetPaths() function
	paths, err := GetPaths()
	if err != nil {
		slog.Error("Failed to get paths", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Ensure all directories exist at startup
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to ensure directories", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Log all resolved paths for debugging
	paths.LogPathResolution()

	// Example 1: Snapshot loader usage
	sourcePath := paths.SourceCSV
	slog.Info("Subscription data will be loaded from", slog.String("path", sourcePath))

	// Example 2: Exporter writing dashboard artifacts
	dashboardJSON := paths.GetDashboardJSONPath()
	slog.Info("Dashboard JSON will be written to", slog.String("path", dashboardJSON))

	// Example 3: Dated export files
	today := time.Now()
	datedExport := paths.GetDatedExportPath("dashboard", "json", today)
	slog.Info("Today's dated export goes to", slog.String("path", datedExport))

	// Example 4: Per-view CSV exports
	slog.Info("KPI CSV is at", slog.String("path", paths.GetKPIsCSVPath()))
	slog.Info("Churn trend CSV is at", slog.String("path", paths.GetChurnTrendCSVPath()))

	// Example 5: Validate required files exist before starting
	if err := paths.ValidateRequiredFiles(); err != nil {
		slog.Warn("Source file missing at startup", slog.String("error", err.Error()))
		// The dashboard starts anyway and reports the source as unavailable
	}

	// Example 6: Using the source path helper
	sourcePath2, err := GetSourcePath()
	if err != nil {
		slog.Error("Failed to get source path", slog.String("error", err.Error()))
	}
	slog.Info("Source path (via helper)", slog.String("path", sourcePath2))
}

// Migration Guide:
//
// OLD CODE (problematic):
//   sourcePath := filepath.Join(os.Getwd(), "Analytics.csv")
//   exportPath := "exports/dashboard.json"
//
// NEW CODE (correct):
//   paths, _ := config.GetPaths()
//   sourcePath := paths.SourceCSV
//   exportPath := paths.GetExportPath("dashboard.json")
//
// Benefits:
// 1. All paths relative to executable, not working directory
// 2. Consistent across all components
// 3. Cross-platform path handling
// 4. Centralized logging and debugging
// 5. Easy to test and mock
