package domain

import (
	"strings"
	"time"
)

// StatusChurned is the status label carrying special semantics across the
// system: a row whose Status equals this value represents a terminated
// subscription and feeds the churn metrics. Status is otherwise an open
// set of labels; no other value is interpreted.
const StatusChurned = "Churned"

// SubscriptionRecord is the Single Source of Truth for one cleaned
// customer-subscription row. All aggregation, filtering, and export code
// operates on this structure; raw input rows never leave the loader.
//
// Cleaning guarantees (enforced by internal/dataprocessing, relied on
// everywhere else):
//   - CustomerID, Status, StartDate are never empty/zero.
//   - EndDate is never zero: rows with a missing or unparseable end date
//     get the processing date of their load, truncated to midnight.
//   - Region, PlanType, Status carry no leading/trailing whitespace.
//
// Records are immutable after construction. A customer may appear in
// multiple rows; distinct-count metrics key on CustomerID while revenue
// sums stay row-level.
type SubscriptionRecord struct {
	// CustomerID is an opaque customer identifier. Not unique across rows.
	CustomerID string `json:"customer_id" csv:"CustomerID" validate:"required"`

	// Region is the customer's sales region (e.g. "US", "EU").
	Region string `json:"region" csv:"Region"`

	// PlanType is the subscribed plan label (e.g. "Basic", "Pro").
	PlanType string `json:"plan_type" csv:"PlanType"`

	// Status is the subscription lifecycle label. Open set; see StatusChurned.
	Status string `json:"status" csv:"Status" validate:"required"`

	// StartDate is the subscription start, date precision.
	StartDate time.Time `json:"start_date" csv:"StartDate" validate:"required"`

	// EndDate is the subscription termination date, or the load's processing
	// date when the source left it open (still-active subscription).
	EndDate time.Time `json:"end_date" csv:"EndDate" validate:"required"`

	// MonthlyRevenue is the revenue amount attributed to this row.
	MonthlyRevenue float64 `json:"monthly_revenue" csv:"MonthlyRevenue"`

	// NPSScore is the satisfaction score for this row, nil when the source
	// carried no value. Only the score histogram consumes it.
	NPSScore *float64 `json:"nps_score,omitempty" csv:"NPS"`
}

// IsChurned reports whether this row represents a terminated subscription.
func (r *SubscriptionRecord) IsChurned() bool {
	return r.Status == StatusChurned
}

// HasScore reports whether the row carries an NPS score.
func (r *SubscriptionRecord) HasScore() bool {
	return r.NPSScore != nil
}

// ChurnMonth returns the "YYYY-MM" month key of the end date, the grouping
// key of the monthly churn trend.
func (r *SubscriptionRecord) ChurnMonth() string {
	return r.EndDate.Format("2006-01")
}

// FilterSelection names the selected values for each of the three facet
// filters. Every facet is an explicit set: a record passes the selection
// iff its Region, PlanType, and Status each appear in the corresponding
// set. An empty set for any facet therefore passes nothing; "select all"
// is expressed by listing all observed values (see FacetOptions.AllSelected).
type FilterSelection struct {
	Regions   []string `json:"regions"`
	PlanTypes []string `json:"plan_types"`
	Statuses  []string `json:"statuses"`
}

// FacetOptions lists the distinct values observed in a snapshot for each
// facet, sorted ascending. These drive the collaborator's multi-select
// widgets and define the default selection.
type FacetOptions struct {
	Regions   []string `json:"regions"`
	PlanTypes []string `json:"plan_types"`
	Statuses  []string `json:"statuses"`
}

// AllSelected returns the default filter selection: every observed value
// of every facet.
func (f FacetOptions) AllSelected() FilterSelection {
	return FilterSelection{
		Regions:   append([]string(nil), f.Regions...),
		PlanTypes: append([]string(nil), f.PlanTypes...),
		Statuses:  append([]string(nil), f.Statuses...),
	}
}

// NormalizeCategory trims the whitespace the cleaning policy strips from
// categorical fields. Grouping and facet matching are exact-string after
// this normalization.
func NormalizeCategory(v string) string {
	return strings.TrimSpace(v)
}
