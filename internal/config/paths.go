package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Paths contains all the application paths
// This is the single source of truth for ALL file paths in the application
type Paths struct {
	ExecutableDir string
	DataDir       string
	ExportsDir    string
	LogsDir       string

	// Well-known data files
	SourceCSV string

	// Well-known export files (generated dashboard artifacts)
	DashboardJSON     string
	KPIsCSV           string
	ChurnTrendCSV     string
	RegionMRRCSV      string
	PlanChurnCSV      string
	ScoreHistogramCSV string
}

// GetPaths returns the application paths relative to the executable location
// All paths are ALWAYS relative to the executable directory, never the current working directory
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %v", err)
	}

	// Resolve symlinks to get the actual executable location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	// Get the directory containing the executable
	exeDir := filepath.Dir(exe)

	// Log the resolved executable directory for debugging
	if logger := slog.Default(); logger != nil {
		logger.Info("Resolved executable directory",
			slog.String("exe_path", exe),
			slog.String("exe_dir", exeDir))
	}

	// All paths are relative to the executable directory
	// This ensures the application works correctly whether run from dev/ or dist/
	// Directory structure:
	// dist/
	//   ├── data/
	//   │   └── Analytics.csv  (subscription export dropped in by the CRM)
	//   ├── exports/            (generated dashboard artifacts)
	//   └── logs/               (application logs)

	dataDir := filepath.Join(exeDir, "data")
	exportsDir := filepath.Join(exeDir, "exports")

	paths := &Paths{
		ExecutableDir: exeDir,
		DataDir:       dataDir,
		ExportsDir:    exportsDir,
		LogsDir:       filepath.Join(exeDir, "logs"),

		// Subscription source file (default drop location)
		SourceCSV: filepath.Join(dataDir, DefaultSourceFileName),

		// Well-known export files
		DashboardJSON:     filepath.Join(exportsDir, "dashboard.json"),
		KPIsCSV:           filepath.Join(exportsDir, "kpis.csv"),
		ChurnTrendCSV:     filepath.Join(exportsDir, "churn_trend.csv"),
		RegionMRRCSV:      filepath.Join(exportsDir, "mrr_by_region.csv"),
		PlanChurnCSV:      filepath.Join(exportsDir, "churn_by_plan.csv"),
		ScoreHistogramCSV: filepath.Join(exportsDir, "score_histogram.csv"),
	}

	return paths, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.ExportsDir,
		p.LogsDir,
	}

	// Log directory creation
	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}

		// Log successful directory creation
		if logger != nil {
			logger.Debug("Ensured directory exists",
				slog.String("directory", dir))
		}
	}

	return nil
}

// GetRelativePath returns a path relative to the executable directory
func (p *Paths) GetRelativePath(subpath string) string {
	return filepath.Join(p.ExecutableDir, subpath)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// GetSourcePath returns the subscription data source file path
// This ONLY uses the executable directory path - no current working directory fallback
func GetSourcePath() (string, error) {
	paths, err := GetPaths()
	if err != nil {
		return "", fmt.Errorf("failed to get paths: %w", err)
	}

	logger := slog.Default()
	if logger != nil {
		// Get current working directory and absolute path for enhanced logging
		wd, _ := os.Getwd()
		absPath, _ := filepath.Abs(paths.SourceCSV)

		logger.Info("Source path resolution - Complete Details",
			slog.Group("paths",
				slog.String("configured", paths.SourceCSV),
				slog.String("absolute", absPath),
				slog.String("executable_dir", paths.ExecutableDir),
			),
			slog.Group("environment",
				slog.String("working_dir", wd),
				slog.String("exe_path", paths.ExecutableDir),
			),
			slog.Group("status",
				slog.Bool("file_exists", FileExists(paths.SourceCSV)),
				slog.String("method", "executable-relative"),
			),
		)
	}

	// Always return the executable-relative path
	// This ensures consistency across all components
	return paths.SourceCSV, nil
}

// GetDataFilePath returns the path to a file in the data directory
func (p *Paths) GetDataFilePath(filename string) string {
	return filepath.Join(p.DataDir, filename)
}

// GetExportPath returns the path for an export file
func (p *Paths) GetExportPath(filename string) string {
	return filepath.Join(p.ExportsDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// GetSourceCSVPath returns the path for the default subscription source file
func (p *Paths) GetSourceCSVPath() string {
	path := p.SourceCSV
	logger := slog.Default()
	if logger != nil {
		logger.Debug("Source CSV path resolved",
			slog.String("path", path),
			slog.Bool("exists", FileExists(path)))
	}
	return path
}

// GetDashboardJSONPath returns the path for the dashboard.json export
func (p *Paths) GetDashboardJSONPath() string {
	return p.DashboardJSON
}

// GetKPIsCSVPath returns the path for the kpis.csv export
func (p *Paths) GetKPIsCSVPath() string {
	return p.KPIsCSV
}

// GetChurnTrendCSVPath returns the path for the churn_trend.csv export
func (p *Paths) GetChurnTrendCSVPath() string {
	return p.ChurnTrendCSV
}

// GetRegionMRRCSVPath returns the path for the mrr_by_region.csv export
func (p *Paths) GetRegionMRRCSVPath() string {
	return p.RegionMRRCSV
}

// GetPlanChurnCSVPath returns the path for the churn_by_plan.csv export
func (p *Paths) GetPlanChurnCSVPath() string {
	return p.PlanChurnCSV
}

// GetScoreHistogramCSVPath returns the path for the score_histogram.csv export
func (p *Paths) GetScoreHistogramCSVPath() string {
	return p.ScoreHistogramCSV
}

// GetDatedExportPath returns the path for a dated export file (e.g., dashboard_20240115.json)
func (p *Paths) GetDatedExportPath(prefix, ext string, date time.Time) string {
	filename := fmt.Sprintf("%s_%s.%s", prefix, date.Format("20060102"), ext)
	return filepath.Join(p.ExportsDir, filename)
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution() {
	logger := slog.Default()
	if logger == nil {
		return
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("executable", p.ExecutableDir),
			slog.String("data", p.DataDir),
			slog.String("exports", p.ExportsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("data_files",
			slog.String("source_csv", p.SourceCSV),
		),
		slog.Group("export_files",
			slog.String("dashboard_json", p.DashboardJSON),
			slog.String("kpis_csv", p.KPIsCSV),
			slog.String("churn_trend_csv", p.ChurnTrendCSV),
			slog.String("mrr_by_region_csv", p.RegionMRRCSV),
			slog.String("churn_by_plan_csv", p.PlanChurnCSV),
			slog.String("score_histogram_csv", p.ScoreHistogramCSV),
		))
}

// ValidateRequiredFiles checks if critical files exist and returns detailed error information
func (p *Paths) ValidateRequiredFiles() error {
	requiredFiles := map[string]string{
		"Data source": p.SourceCSV,
	}

	var missingFiles []string
	for name, path := range requiredFiles {
		if !FileExists(path) {
			missingFiles = append(missingFiles, fmt.Sprintf("%s (%s)", name, path))
		}
	}

	if len(missingFiles) > 0 {
		return fmt.Errorf("required files missing: %s", strings.Join(missingFiles, ", "))
	}

	return nil
}
