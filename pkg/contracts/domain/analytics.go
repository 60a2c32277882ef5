package domain

import (
	"time"
)

// ScoreHistogramBins is the fixed number of equal-width buckets the score
// histogram spans over the observed NPS range.
const ScoreHistogramBins = 10

// KPISet holds the four headline scalars computed over the filtered
// record set.
type KPISet struct {
	// TotalCustomers is the distinct CustomerID count among passing rows.
	TotalCustomers int `json:"total_customers"`
	// ChurnedCustomers is the distinct CustomerID count among passing rows
	// with churned status.
	ChurnedCustomers int `json:"churned_customers"`
	// ChurnRate is ChurnedCustomers / TotalCustomers * 100, and 0 when
	// TotalCustomers is 0.
	ChurnRate float64 `json:"churn_rate"`
	// TotalMRR is the row-level sum of MonthlyRevenue over passing rows.
	// A customer with several rows contributes each of them.
	TotalMRR float64 `json:"total_mrr"`
}

// MonthlyChurnPoint is one month of the churn trend: the "YYYY-MM" month
// key of the end date and the number of churned rows ending that month.
type MonthlyChurnPoint struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// RegionRevenue is the MRR sum for one region group.
type RegionRevenue struct {
	Region string  `json:"region"`
	MRR    float64 `json:"mrr"`
}

// PlanChurnCount is the churned-row count for one plan type group.
type PlanChurnCount struct {
	PlanType string `json:"plan_type"`
	Count    int    `json:"count"`
}

// ScoreBin is one bucket of the NPS histogram. Lower is inclusive; Upper
// is exclusive except for the final bucket, which includes the range max.
type ScoreBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// AggregateBundle is the immutable result of one aggregation pass: the KPI
// scalars plus the four series, all computed from the same filtered view
// of a snapshot.
//
// Empty marks the first-class "no data for current filters" outcome: when
// no record passes the selection the bundle carries Empty=true and zero
// values everywhere else, and the collaborator must prompt for a filter
// adjustment instead of rendering. An empty bundle is not an error.
//
// Series with no qualifying rows (e.g. the churn trend when nothing
// churned) are empty slices, never nil, so encoded output always shows an
// explicit empty list.
type AggregateBundle struct {
	Empty bool `json:"empty"`

	KPIs KPISet `json:"kpis"`

	// ChurnTrend is sorted ascending by month. Months with zero churned
	// rows are absent, not zero-filled.
	ChurnTrend []MonthlyChurnPoint `json:"churn_trend"`

	// RegionMRR is sorted ascending by region name.
	RegionMRR []RegionRevenue `json:"mrr_by_region"`

	// PlanChurn is sorted ascending by plan type.
	PlanChurn []PlanChurnCount `json:"churn_by_plan"`

	// ScoreHistogram spans the observed score range among passing rows in
	// ScoreHistogramBins equal-width buckets. Rows without a score are
	// excluded here and only here. Empty when no passing row has a score.
	ScoreHistogram []ScoreBin `json:"score_histogram"`

	// FilteredRows is the number of records that passed the selection.
	FilteredRows int `json:"filtered_rows"`

	ComputedAt time.Time `json:"computed_at"`
}

// EmptyAggregateBundle builds the canonical empty outcome.
func EmptyAggregateBundle(computedAt time.Time) *AggregateBundle {
	return &AggregateBundle{
		Empty:          true,
		ChurnTrend:     []MonthlyChurnPoint{},
		RegionMRR:      []RegionRevenue{},
		PlanChurn:      []PlanChurnCount{},
		ScoreHistogram: []ScoreBin{},
		ComputedAt:     computedAt,
	}
}
