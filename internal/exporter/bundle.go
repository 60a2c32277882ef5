package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"subscli/internal/config"
	"subscli/internal/infrastructure"
	"subscli/pkg/contracts/domain"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Options selects what an export run writes.
type Options struct {
	// Format is FormatJSON or FormatCSV.
	Format string

	// DatedCopy additionally writes a copy stamped with the export date,
	// so scheduled report runs keep history instead of overwriting.
	DatedCopy bool
}

// Result reports what an export run produced.
type Result struct {
	Files        []string `json:"files"`
	BytesWritten int64    `json:"bytes_written"`
	Format       string   `json:"format"`
}

// BundleExporter writes aggregate bundles to the exports directory, as a
// single JSON document or as one CSV per view.
type BundleExporter struct {
	paths   *config.Paths
	csv     *CSVWriter
	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewBundleExporter creates a bundle exporter. A nil metrics handle
// disables instrumentation.
func NewBundleExporter(paths *config.Paths, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *BundleExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &BundleExporter{
		paths:   paths,
		csv:     NewCSVWriter(paths, logger),
		metrics: metrics,
		logger:  logger.With(slog.String("component", "exporter")),
		now:     time.Now,
	}
}

// dashboardDocument is the JSON export layout.
type dashboardDocument struct {
	Snapshot   domain.SnapshotInfo     `json:"snapshot"`
	Bundle     *domain.AggregateBundle `json:"bundle"`
	ExportedAt time.Time               `json:"exported_at"`
}

// Export writes the bundle in the requested format and returns the files
// produced.
func (e *BundleExporter) Export(ctx context.Context, bundle *domain.AggregateBundle, info domain.SnapshotInfo, opts Options) (*Result, error) {
	start := time.Now()

	var (
		result *Result
		err    error
	)
	switch opts.Format {
	case FormatJSON:
		result, err = e.exportJSON(bundle, info, opts.DatedCopy)
	case FormatCSV:
		result, err = e.exportCSVs(bundle, opts.DatedCopy)
	default:
		err = fmt.Errorf("unsupported export format %q", opts.Format)
	}

	var bytesWritten int64
	if result != nil {
		bytesWritten = result.BytesWritten
	}
	infrastructure.RecordExportMetrics(ctx, e.metrics, opts.Format, time.Since(start), bytesWritten, err)
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "aggregate bundle exported",
		slog.String("format", opts.Format),
		slog.Int("file_count", len(result.Files)),
		slog.Int64("bytes_written", result.BytesWritten),
		slog.Duration("elapsed", time.Since(start)))
	return result, nil
}

func (e *BundleExporter) exportJSON(bundle *domain.AggregateBundle, info domain.SnapshotInfo, dated bool) (*Result, error) {
	doc := dashboardDocument{
		Snapshot:   info,
		Bundle:     bundle,
		ExportedAt: e.now().UTC(),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode dashboard document: %w", err)
	}
	data = append(data, '\n')

	targets := []string{e.paths.GetDashboardJSONPath()}
	if dated {
		targets = append(targets, e.paths.GetDatedExportPath("dashboard", "json", e.now()))
	}

	result := &Result{Format: FormatJSON}
	for _, target := range targets {
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create export directory: %w", err)
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", filepath.Base(target), err)
		}
		result.Files = append(result.Files, target)
		result.BytesWritten += int64(len(data))
	}
	return result, nil
}

// viewCSV describes one per-view CSV file.
type viewCSV struct {
	path    string
	prefix  string
	headers []string
	rows    [][]string
}

func (e *BundleExporter) exportCSVs(bundle *domain.AggregateBundle, dated bool) (*Result, error) {
	views := []viewCSV{
		{
			path:    e.paths.GetKPIsCSVPath(),
			prefix:  "kpis",
			headers: []string{"TotalCustomers", "ChurnedCustomers", "ChurnRate", "TotalMRR"},
			rows: [][]string{{
				formatInt(int64(bundle.KPIs.TotalCustomers)),
				formatInt(int64(bundle.KPIs.ChurnedCustomers)),
				formatFloat(bundle.KPIs.ChurnRate),
				formatFloat(bundle.KPIs.TotalMRR),
			}},
		},
		{
			path:    e.paths.GetChurnTrendCSVPath(),
			prefix:  "churn_trend",
			headers: []string{"Month", "ChurnedRows"},
			rows:    churnTrendRows(bundle.ChurnTrend),
		},
		{
			path:    e.paths.GetRegionMRRCSVPath(),
			prefix:  "mrr_by_region",
			headers: []string{"Region", "MRR"},
			rows:    regionMRRRows(bundle.RegionMRR),
		},
		{
			path:    e.paths.GetPlanChurnCSVPath(),
			prefix:  "churn_by_plan",
			headers: []string{"PlanType", "ChurnedRows"},
			rows:    planChurnRows(bundle.PlanChurn),
		},
		{
			path:    e.paths.GetScoreHistogramCSVPath(),
			prefix:  "score_histogram",
			headers: []string{"BinLower", "BinUpper", "Count"},
			rows:    scoreHistogramRows(bundle.ScoreHistogram),
		},
	}

	result := &Result{Format: FormatCSV}
	for _, view := range views {
		targets := []string{view.path}
		if dated {
			targets = append(targets, e.paths.GetDatedExportPath(view.prefix, "csv", e.now()))
		}
		for _, target := range targets {
			n, err := e.csv.WriteSimpleCSV(target, view.headers, view.rows)
			if err != nil {
				return nil, fmt.Errorf("failed to export %s: %w", filepath.Base(target), err)
			}
			result.Files = append(result.Files, target)
			result.BytesWritten += n
		}
	}
	return result, nil
}

func churnTrendRows(points []domain.MonthlyChurnPoint) [][]string {
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{p.Month, formatInt(int64(p.Count))})
	}
	return rows
}

func regionMRRRows(series []domain.RegionRevenue) [][]string {
	rows := make([][]string, 0, len(series))
	for _, r := range series {
		rows = append(rows, []string{r.Region, formatFloat(r.MRR)})
	}
	return rows
}

func planChurnRows(series []domain.PlanChurnCount) [][]string {
	rows := make([][]string, 0, len(series))
	for _, p := range series {
		rows = append(rows, []string{p.PlanType, formatInt(int64(p.Count))})
	}
	return rows
}

func scoreHistogramRows(bins []domain.ScoreBin) [][]string {
	rows := make([][]string, 0, len(bins))
	for _, b := range bins {
		rows = append(rows, []string{formatFloat(b.Lower), formatFloat(b.Upper), formatInt(int64(b.Count))})
	}
	return rows
}
