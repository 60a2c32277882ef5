package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"subscli/internal/errors"
	"subscli/pkg/contracts/domain"
)

// Canonical column names of the subscription source header. Matching is
// exact after whitespace trimming.
const (
	ColCustomerID     = "CustomerID"
	ColStartDate      = "StartDate"
	ColEndDate        = "EndDate"
	ColRegion         = "Region"
	ColPlanType       = "PlanType"
	ColStatus         = "Status"
	ColMonthlyRevenue = "MonthlyRevenue"
	ColNPS            = "NPS"
)

// Expected NPS score domain. Values outside it are retained unchanged and
// only counted in the clean report.
const (
	scoreDomainMin = 0
	scoreDomainMax = 10
)

// dateLayouts are tried in order when parsing date cells. CSV sources
// carry ISO dates; XLSX cells surface in whatever display format the
// workbook applied.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"1/2/06",
}

// Cleaner turns raw source tables into validated SubscriptionRecord
// slices. It is the Single Source of Truth for the cleaning policy:
// which rows are dropped, which values are defaulted, and what the
// diagnostic counts mean. All downstream aggregation assumes its output
// guarantees (see domain.SubscriptionRecord).
type Cleaner struct {
	logger *slog.Logger

	// now supplies the processing date; overridable in tests.
	now func() time.Time
}

// NewCleaner creates a cleaner. A nil logger falls back to slog.Default.
func NewCleaner(logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{
		logger: logger,
		now:    time.Now,
	}
}

// columnIndex holds the position of each recognized column in the header,
// -1 when the header does not carry it.
type columnIndex struct {
	customerID     int
	startDate      int
	endDate        int
	region         int
	planType       int
	status         int
	monthlyRevenue int
	nps            int
}

// Clean applies the cleaning policy to a raw table:
//
//   - Rows missing CustomerID, StartDate, or Status are dropped silently;
//     per-cause counts land in the report.
//   - A date cell that fails to parse is a missing value, never an error.
//   - A missing EndDate defaults to the processing date truncated to
//     midnight. The processing date is captured once per run, so every
//     defaulted row of one load carries the same value.
//   - Categorical fields are whitespace-trimmed.
//   - Negative revenue and out-of-range scores are retained unchanged and
//     surface only as diagnostic counts.
//
// The returned records are in source order. Fully blank rows are skipped
// without counting as data rows.
func (c *Cleaner) Clean(ctx context.Context, table *RawTable) ([]domain.SubscriptionRecord, domain.CleanReport, error) {
	var report domain.CleanReport

	if table == nil || len(table.Header) == 0 {
		return nil, report, errors.NewParsingError("source table has no header row", nil)
	}

	cols, err := mapColumns(table.Header)
	if err != nil {
		return nil, report, err
	}

	// Capture the processing date once so a single load is internally
	// consistent even when it straddles midnight.
	year, month, day := c.now().Date()
	processingDate := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

	records := make([]domain.SubscriptionRecord, 0, len(table.Rows))

	for _, row := range table.Rows {
		if isBlankRow(row) {
			continue
		}
		report.RowsRead++

		customerID := cell(row, cols.customerID)
		status := cell(row, cols.status)
		startRaw := cell(row, cols.startDate)
		startDate, startOK := parseDate(startRaw)

		drop := false
		if customerID == "" {
			report.DroppedMissingCustomerID++
			drop = true
		}
		if !startOK {
			report.DroppedMissingStartDate++
			drop = true
		}
		if status == "" {
			report.DroppedMissingStatus++
			drop = true
		}
		if drop {
			continue
		}

		endDate, endOK := parseDate(cell(row, cols.endDate))
		if !endOK {
			endDate = processingDate
			report.DefaultedEndDates++
		}

		revenue := parseAmount(cell(row, cols.monthlyRevenue))
		if revenue < 0 {
			report.NegativeRevenueRows++
		}

		var score *float64
		if raw := cell(row, cols.nps); raw != "" {
			if v, err := strconv.ParseFloat(stripThousands(raw), 64); err == nil {
				score = &v
				if v < scoreDomainMin || v > scoreDomainMax {
					report.ScoresOutOfRange++
				}
			}
		}

		records = append(records, domain.SubscriptionRecord{
			CustomerID:     customerID,
			Region:         cell(row, cols.region),
			PlanType:       cell(row, cols.planType),
			Status:         status,
			StartDate:      startDate,
			EndDate:        endDate,
			MonthlyRevenue: revenue,
			NPSScore:       score,
		})
	}

	report.RowsRetained = len(records)
	report.RowsDropped = report.RowsRead - report.RowsRetained

	c.logger.InfoContext(ctx, "cleaned subscription rows",
		slog.String("source", table.SourcePath),
		slog.Int("rows_read", report.RowsRead),
		slog.Int("rows_retained", report.RowsRetained),
		slog.Int("rows_dropped", report.RowsDropped),
		slog.Int("defaulted_end_dates", report.DefaultedEndDates))

	return records, report, nil
}

// mapColumns locates the recognized columns in a header row. The three
// columns whose absence would drop every row (CustomerID, StartDate,
// Status) are required; a header without them is a schema problem, not a
// per-row one. All other columns are optional and read as empty when
// absent.
func mapColumns(header []string) (columnIndex, error) {
	cols := columnIndex{
		customerID:     -1,
		startDate:      -1,
		endDate:        -1,
		region:         -1,
		planType:       -1,
		status:         -1,
		monthlyRevenue: -1,
		nps:            -1,
	}

	for i, name := range header {
		clean := strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF"))

		switch clean {
		case ColCustomerID:
			cols.customerID = i
		case ColStartDate:
			cols.startDate = i
		case ColEndDate:
			cols.endDate = i
		case ColRegion:
			cols.region = i
		case ColPlanType:
			cols.planType = i
		case ColStatus:
			cols.status = i
		case ColMonthlyRevenue:
			cols.monthlyRevenue = i
		case ColNPS:
			cols.nps = i
		}
	}

	var missing []string
	if cols.customerID == -1 {
		missing = append(missing, ColCustomerID)
	}
	if cols.startDate == -1 {
		missing = append(missing, ColStartDate)
	}
	if cols.status == -1 {
		missing = append(missing, ColStatus)
	}
	if len(missing) > 0 {
		return cols, errors.NewParsingError(
			fmt.Sprintf("required columns not found: %v", missing), nil).
			WithContext("header", header)
	}

	return cols, nil
}

// cell returns the trimmed value at idx, or "" when the column is absent
// or the row is too short.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// parseDate tries the known layouts and truncates the result to date
// precision. ok is false for empty or unparseable cells.
func parseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// parseAmount parses a revenue cell, tolerating thousands separators.
// Missing or unparseable values read as 0.
func parseAmount(raw string) float64 {
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(stripThousands(raw), 64)
	if err != nil {
		return 0
	}
	return v
}

func stripThousands(raw string) string {
	return strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
}
