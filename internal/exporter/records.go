package exporter

import (
	"context"
	"log/slog"
	"time"

	"subscli/internal/config"
	"subscli/pkg/contracts/domain"
)

// recordHeaders matches the source column contract, so an exported record
// file round-trips through the loader.
var recordHeaders = []string{
	"CustomerID", "StartDate", "EndDate", "Region", "PlanType", "Status", "MonthlyRevenue", "NPS",
}

// RecordsExporter streams cleaned subscription records to CSV.
type RecordsExporter struct {
	csv    *CSVWriter
	logger *slog.Logger
}

// NewRecordsExporter creates a records exporter.
func NewRecordsExporter(paths *config.Paths, logger *slog.Logger) *RecordsExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordsExporter{
		csv:    NewCSVWriter(paths, logger),
		logger: logger.With(slog.String("component", "exporter.records")),
	}
}

// ExportRecords writes records to filePath (relative paths land in the
// exports directory) and returns rows and bytes written.
func (e *RecordsExporter) ExportRecords(ctx context.Context, records []domain.SubscriptionRecord, filePath string) (int64, int64, error) {
	stream, err := e.csv.CreateStreamWriter(filePath, recordHeaders)
	if err != nil {
		return 0, 0, err
	}

	for i := range records {
		if err := stream.WriteRecord(recordRow(&records[i])); err != nil {
			stream.Close()
			return 0, 0, err
		}
	}

	rows := stream.Rows()
	bytes, err := stream.Close()
	if err != nil {
		return 0, 0, err
	}

	e.logger.InfoContext(ctx, "records exported",
		slog.String("path", filePath),
		slog.Int64("rows", rows),
		slog.Int64("bytes_written", bytes))
	return rows, bytes, nil
}

func recordRow(r *domain.SubscriptionRecord) []string {
	return []string{
		r.CustomerID,
		formatDate(r.StartDate),
		formatDate(r.EndDate),
		r.Region,
		r.PlanType,
		r.Status,
		formatFloat(r.MonthlyRevenue),
		formatScore(r.NPSScore),
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
