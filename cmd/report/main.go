// Command report runs the subscription analytics pipeline once: load the
// CRM export, clean it, aggregate under an optional facet selection, and
// write the dashboard bundle to the exports directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"subscli/internal/analytics"
	"subscli/internal/config"
	"subscli/internal/dataprocessing"
	"subscli/internal/exporter"
	"subscli/internal/validation"
	"subscli/pkg/contracts/domain"
)

func main() {
	sourcePath := flag.String("source", "", "path to the subscription export (defaults to the configured data directory)")
	outputDir := flag.String("out", "", "export directory for the generated bundle (defaults to the configured exports directory)")
	format := flag.String("format", exporter.FormatCSV, "export format: json or csv")
	dated := flag.Bool("dated", false, "additionally write date-stamped copies of the export files")
	regions := flag.String("regions", "", "comma-separated region filter (empty means all observed regions)")
	planTypes := flag.String("plans", "", "comma-separated plan type filter (empty means all observed plan types)")
	statuses := flag.String("statuses", "", "comma-separated status filter (empty means all observed statuses)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if *sourcePath == "" {
		*sourcePath = cfg.GetSourceFile()
	}
	if *outputDir == "" {
		*outputDir = cfg.GetExportsDir()
	}

	validator := validation.NewFileValidator(logger)
	if err := validator.ValidateSourceFile(*sourcePath); err != nil {
		slog.Error("Source file validation failed", "error", err)
		os.Exit(1)
	}
	if err := validator.ValidateOutputDirectory(*outputDir); err != nil {
		slog.Error("Export directory validation failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Load and clean the export.
	slog.Info("Loading subscription export", "path", *sourcePath)
	table, err := dataprocessing.NewLoader(logger).Load(ctx, *sourcePath)
	if err != nil {
		slog.Error("Failed to load source file", "error", err)
		os.Exit(1)
	}

	records, report, err := dataprocessing.NewCleaner(logger).Clean(ctx, table)
	if err != nil {
		slog.Error("Failed to clean source rows", "error", err)
		os.Exit(1)
	}
	slog.Info("Cleaned subscription rows",
		"rows_read", report.RowsRead,
		"rows_retained", report.RowsRetained,
		"rows_dropped", report.RowsDropped)

	// Resolve the facet selection. Empty flags default to every observed
	// value; an explicit flag narrows the aggregation.
	facets := analytics.ComputeFacets(records)
	selection := facets.AllSelected()
	if *regions != "" {
		selection.Regions = splitFacetFlag(*regions)
	}
	if *planTypes != "" {
		selection.PlanTypes = splitFacetFlag(*planTypes)
	}
	if *statuses != "" {
		selection.Statuses = splitFacetFlag(*statuses)
	}

	// Aggregate.
	aggregator := analytics.NewAggregator(logger, nil)
	bundle, err := aggregator.Aggregate(ctx, records, selection)
	if err != nil {
		slog.Error("Aggregation failed", "error", err)
		os.Exit(1)
	}
	if bundle.Empty {
		slog.Warn("No record matched the selection; the export carries the empty bundle",
			"regions", *regions,
			"plans", *planTypes,
			"statuses", *statuses)
	}

	// Export.
	info := domain.SnapshotInfo{
		ID:          uuid.New().String(),
		SourcePath:  *sourcePath,
		LoadedAt:    time.Now().UTC(),
		RecordCount: len(records),
		Report:      report,
	}
	if stat, err := os.Stat(*sourcePath); err == nil {
		info.SourceModTime = stat.ModTime()
	}

	paths := cfg.ResolvedPaths()
	paths.ExportsDir = *outputDir
	rebaseExportPaths(paths)

	result, err := exporter.NewBundleExporter(paths, nil, logger).Export(ctx, bundle, info, exporter.Options{
		Format:    *format,
		DatedCopy: *dated,
	})
	if err != nil {
		slog.Error("Failed to export bundle", "error", err)
		os.Exit(1)
	}

	slog.Info("Dashboard bundle exported",
		"format", result.Format,
		"files", len(result.Files),
		"bytes_written", result.BytesWritten)

	printSummary(bundle, report)
}

// splitFacetFlag parses a comma-separated facet flag into trimmed values.
func splitFacetFlag(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			values = append(values, v)
		}
	}
	return values
}

// rebaseExportPaths repoints the well-known export files at the chosen
// export directory.
func rebaseExportPaths(p *config.Paths) {
	p.DashboardJSON = p.GetExportPath("dashboard.json")
	p.KPIsCSV = p.GetExportPath("kpis.csv")
	p.ChurnTrendCSV = p.GetExportPath("churn_trend.csv")
	p.RegionMRRCSV = p.GetExportPath("mrr_by_region.csv")
	p.PlanChurnCSV = p.GetExportPath("churn_by_plan.csv")
	p.ScoreHistogramCSV = p.GetExportPath("score_histogram.csv")
}

func printSummary(bundle *domain.AggregateBundle, report domain.CleanReport) {
	fmt.Println("\n=== SUBSCRIPTION DASHBOARD SUMMARY ===")
	fmt.Printf("Rows read: %d  retained: %d  dropped: %d  defaulted end dates: %d\n",
		report.RowsRead, report.RowsRetained, report.RowsDropped, report.DefaultedEndDates)

	if bundle.Empty {
		fmt.Println("\nNo records matched the current selection. Adjust the facet filters and rerun.")
		return
	}

	fmt.Println("\nKPIs")
	fmt.Printf("  Total customers:   %d\n", bundle.KPIs.TotalCustomers)
	fmt.Printf("  Churned customers: %d\n", bundle.KPIs.ChurnedCustomers)
	fmt.Printf("  Churn rate:        %.2f%%\n", bundle.KPIs.ChurnRate)
	fmt.Printf("  Total MRR:         %.2f\n", bundle.KPIs.TotalMRR)

	if len(bundle.RegionMRR) > 0 {
		fmt.Println("\nMRR by region")
		fmt.Println("Region           | MRR")
		fmt.Println("-----------------|------------")
		for _, r := range bundle.RegionMRR {
			fmt.Printf("%-16s | %10.2f\n", r.Region, r.MRR)
		}
	}

	if len(bundle.ChurnTrend) > 0 {
		fmt.Println("\nMonthly churn trend")
		fmt.Println("Month   | Churned rows")
		fmt.Println("--------|-------------")
		for _, p := range bundle.ChurnTrend {
			fmt.Printf("%-7s | %d\n", p.Month, p.Count)
		}
	}

	if len(bundle.PlanChurn) > 0 {
		fmt.Println("\nChurn by plan type")
		fmt.Println("Plan             | Churned rows")
		fmt.Println("-----------------|-------------")
		for _, p := range bundle.PlanChurn {
			fmt.Printf("%-16s | %d\n", p.PlanType, p.Count)
		}
	}
}
