// Package analytics computes the dashboard's aggregate views over cleaned
// subscription records. The Aggregator is pure computation: it never loads
// data, never caches, and treats its input slice as read-only, so one
// snapshot can feed any number of concurrent aggregations.
package analytics

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"subscli/pkg/contracts/domain"
)

// View names reported to the per-view timer.
const (
	viewKPIs           = "kpis"
	viewChurnTrend     = "churn_trend"
	viewRegionMRR      = "mrr_by_region"
	viewPlanChurn      = "churn_by_plan"
	viewScoreHistogram = "score_histogram"
)

// ViewTimer receives the wall time each aggregate view took to compute.
// The service layer wires it to metrics; nil disables timing.
type ViewTimer func(view string, elapsed time.Duration)

// Aggregator computes an AggregateBundle from records and a filter
// selection. The five views are independent and run concurrently, one
// goroutine per view, over the shared filtered slice.
type Aggregator struct {
	logger    *slog.Logger
	viewTimer ViewTimer

	// now stamps ComputedAt; overridable in tests.
	now func() time.Time
}

// NewAggregator creates an aggregator. A nil logger falls back to
// slog.Default; a nil viewTimer disables per-view timing.
func NewAggregator(logger *slog.Logger, viewTimer ViewTimer) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		logger:    logger,
		viewTimer: viewTimer,
		now:       time.Now,
	}
}

// Aggregate filters records by selection and computes the KPI set plus the
// four series. A selection no record passes yields the first-class empty
// bundle, not an error. The result is deterministic and independent of
// input row order.
func (a *Aggregator) Aggregate(ctx context.Context, records []domain.SubscriptionRecord, selection domain.FilterSelection) (*domain.AggregateBundle, error) {
	filtered := NewFilter(selection).Apply(records)
	if len(filtered) == 0 {
		a.logger.InfoContext(ctx, "aggregation produced empty result",
			slog.Int("records_in", len(records)))
		return domain.EmptyAggregateBundle(a.now()), nil
	}

	bundle := &domain.AggregateBundle{
		FilteredRows: len(filtered),
		ComputedAt:   a.now(),
	}

	// Each goroutine writes a distinct bundle field; Wait orders the
	// writes before the return.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(a.timed(gctx, viewKPIs, func() {
		bundle.KPIs = computeKPIs(filtered)
	}))
	g.Go(a.timed(gctx, viewChurnTrend, func() {
		bundle.ChurnTrend = computeChurnTrend(filtered)
	}))
	g.Go(a.timed(gctx, viewRegionMRR, func() {
		bundle.RegionMRR = computeRegionMRR(filtered)
	}))
	g.Go(a.timed(gctx, viewPlanChurn, func() {
		bundle.PlanChurn = computePlanChurn(filtered)
	}))
	g.Go(a.timed(gctx, viewScoreHistogram, func() {
		bundle.ScoreHistogram = computeScoreHistogram(filtered)
	}))

	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.logger.DebugContext(ctx, "aggregation complete",
		slog.Int("filtered_rows", bundle.FilteredRows),
		slog.Int("total_customers", bundle.KPIs.TotalCustomers),
		slog.Int("trend_months", len(bundle.ChurnTrend)))

	return bundle, nil
}

// timed wraps one view computation with context checking and optional
// duration reporting.
func (a *Aggregator) timed(ctx context.Context, view string, compute func()) func() error {
	return func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		compute()
		if a.viewTimer != nil {
			a.viewTimer(view, time.Since(start))
		}
		return nil
	}
}

// computeKPIs computes the four headline scalars. Customer counts are
// distinct by CustomerID; revenue stays row-level, so a customer with
// several rows contributes each of them to TotalMRR.
func computeKPIs(records []domain.SubscriptionRecord) domain.KPISet {
	customers := make(map[string]struct{}, len(records))
	churned := make(map[string]struct{})
	var totalMRR float64

	for i := range records {
		r := &records[i]
		customers[r.CustomerID] = struct{}{}
		if r.IsChurned() {
			churned[r.CustomerID] = struct{}{}
		}
		totalMRR += r.MonthlyRevenue
	}

	kpis := domain.KPISet{
		TotalCustomers:   len(customers),
		ChurnedCustomers: len(churned),
		TotalMRR:         totalMRR,
	}
	if kpis.TotalCustomers > 0 {
		kpis.ChurnRate = float64(kpis.ChurnedCustomers) / float64(kpis.TotalCustomers) * 100
	}
	return kpis
}

// computeChurnTrend groups churned rows by end-date month, ascending.
// Months with no churned rows are absent, not zero-filled.
func computeChurnTrend(records []domain.SubscriptionRecord) []domain.MonthlyChurnPoint {
	counts := make(map[string]int)
	for i := range records {
		if records[i].IsChurned() {
			counts[records[i].ChurnMonth()]++
		}
	}

	months := make([]string, 0, len(counts))
	for month := range counts {
		months = append(months, month)
	}
	sort.Strings(months)

	trend := make([]domain.MonthlyChurnPoint, 0, len(months))
	for _, month := range months {
		trend = append(trend, domain.MonthlyChurnPoint{Month: month, Count: counts[month]})
	}
	return trend
}

// computeRegionMRR sums row-level revenue per region, sorted by region.
func computeRegionMRR(records []domain.SubscriptionRecord) []domain.RegionRevenue {
	sums := make(map[string]float64)
	for i := range records {
		sums[records[i].Region] += records[i].MonthlyRevenue
	}

	regions := make([]string, 0, len(sums))
	for region := range sums {
		regions = append(regions, region)
	}
	sort.Strings(regions)

	out := make([]domain.RegionRevenue, 0, len(regions))
	for _, region := range regions {
		out = append(out, domain.RegionRevenue{Region: region, MRR: sums[region]})
	}
	return out
}

// computePlanChurn counts churned rows per plan type, sorted by plan.
func computePlanChurn(records []domain.SubscriptionRecord) []domain.PlanChurnCount {
	counts := make(map[string]int)
	for i := range records {
		if records[i].IsChurned() {
			counts[records[i].PlanType]++
		}
	}

	plans := make([]string, 0, len(counts))
	for plan := range counts {
		plans = append(plans, plan)
	}
	sort.Strings(plans)

	out := make([]domain.PlanChurnCount, 0, len(plans))
	for _, plan := range plans {
		out = append(out, domain.PlanChurnCount{PlanType: plan, Count: counts[plan]})
	}
	return out
}

// computeScoreHistogram buckets the observed scores into
// domain.ScoreHistogramBins equal-width bins spanning the observed range.
// Rows without a score are excluded from this view only. A single-value
// range collapses to one bucket holding every scored row.
func computeScoreHistogram(records []domain.SubscriptionRecord) []domain.ScoreBin {
	scores := make([]float64, 0, len(records))
	for i := range records {
		if records[i].HasScore() {
			scores = append(scores, *records[i].NPSScore)
		}
	}
	if len(scores) == 0 {
		return []domain.ScoreBin{}
	}

	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}

	if lo == hi {
		return []domain.ScoreBin{{Lower: lo, Upper: hi, Count: len(scores)}}
	}

	width := (hi - lo) / domain.ScoreHistogramBins
	bins := make([]domain.ScoreBin, domain.ScoreHistogramBins)
	for i := range bins {
		bins[i].Lower = lo + float64(i)*width
		bins[i].Upper = lo + float64(i+1)*width
	}
	// Pin the final upper edge to the observed maximum, which the last
	// bucket includes.
	bins[len(bins)-1].Upper = hi

	for _, s := range scores {
		idx := int((s - lo) / width)
		if idx >= domain.ScoreHistogramBins {
			idx = domain.ScoreHistogramBins - 1
		}
		bins[idx].Count++
	}
	return bins
}
