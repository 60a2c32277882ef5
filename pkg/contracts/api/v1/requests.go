// Package api contains API contract definitions for the subscription
// analytics dashboard. Version v1 represents the current stable API version.
package api

import (
	"subscli/pkg/contracts/domain"
)

// Dashboard API Requests

// DashboardQueryRequest selects the facet values an aggregation runs over.
// Each facet is a pointer so the wire format can distinguish the two
// multi-select states: a nil facet was omitted and defaults to all values
// observed in the snapshot, while a present-but-empty facet is an explicit
// empty selection that passes no records.
type DashboardQueryRequest struct {
	Regions   *[]string `json:"regions,omitempty"`
	PlanTypes *[]string `json:"plan_types,omitempty"`
	Statuses  *[]string `json:"statuses,omitempty"`
}

// Resolve merges the request with the snapshot's facet options, applying
// the default-all rule for omitted facets.
func (r *DashboardQueryRequest) Resolve(options domain.FacetOptions) domain.FilterSelection {
	selection := options.AllSelected()
	if r == nil {
		return selection
	}
	if r.Regions != nil {
		selection.Regions = *r.Regions
	}
	if r.PlanTypes != nil {
		selection.PlanTypes = *r.PlanTypes
	}
	if r.Statuses != nil {
		selection.Statuses = *r.Statuses
	}
	return selection
}

// RecordsQueryRequest requests filtered cleaned records for the raw-data
// table view.
type RecordsQueryRequest struct {
	DashboardQueryRequest
	// Limit caps the number of returned records. Zero means the server
	// default; the server enforces its own maximum.
	Limit int `json:"limit" validate:"min=0,max=10000"`
}

// Snapshot API Requests

// SnapshotReloadRequest forces the next snapshot access to reload from the
// source even when the modification time is unchanged.
type SnapshotReloadRequest struct {
	Force bool `json:"force"`
}

// Export API Requests

// ExportRequest writes the aggregate bundle for a filter selection to the
// export directory.
type ExportRequest struct {
	DashboardQueryRequest
	// Format is "json" or "csv". Empty defaults to JSON.
	Format string `json:"format" validate:"omitempty,oneof=json csv"`
	// DatedCopy additionally writes date-stamped copies of the export
	// files, keeping history across runs.
	DatedCopy bool `json:"dated_copy"`
}

// Health API Requests

// HealthCheckRequest represents a health check request.
type HealthCheckRequest struct {
	Verbose bool `json:"verbose" query:"verbose"`
}
