package domain

import (
	"time"
)

// CleanReport carries the diagnostic counts of one cleaning run. Dropped
// rows are a silent filter, not an error; the report is how callers see
// them in aggregate.
type CleanReport struct {
	// RowsRead is the number of data rows in the source, header excluded.
	RowsRead int `json:"rows_read"`
	// RowsRetained is the number of rows that survived cleaning.
	RowsRetained int `json:"rows_retained"`
	// RowsDropped is RowsRead - RowsRetained.
	RowsDropped int `json:"rows_dropped"`

	// Per-cause drop counts. A row missing several required fields counts
	// once per missing field, so these may sum past RowsDropped.
	DroppedMissingCustomerID int `json:"dropped_missing_customer_id"`
	DroppedMissingStartDate  int `json:"dropped_missing_start_date"`
	DroppedMissingStatus     int `json:"dropped_missing_status"`

	// DefaultedEndDates counts retained rows whose EndDate was set to the
	// processing date because the source value was absent or unparseable.
	DefaultedEndDates int `json:"defaulted_end_dates"`

	// Pass-through diagnostics. These rows are retained unmodified; the
	// counts only flag values outside the expected domain.
	NegativeRevenueRows int `json:"negative_revenue_rows"`
	ScoresOutOfRange    int `json:"scores_out_of_range"`
}

// SnapshotInfo describes one immutable loaded snapshot: where it came
// from, when, and what the cleaner kept.
type SnapshotInfo struct {
	ID            string      `json:"id"`
	SourcePath    string      `json:"source_path"`
	SourceModTime time.Time   `json:"source_mod_time"`
	LoadedAt      time.Time   `json:"loaded_at"`
	RecordCount   int         `json:"record_count"`
	Report        CleanReport `json:"report"`
}
