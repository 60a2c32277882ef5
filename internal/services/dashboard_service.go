package services

import (
	"context"
	"log/slog"
	"time"

	"subscli/internal/analytics"
	"subscli/internal/infrastructure"
	v1 "subscli/pkg/contracts/api/v1"
	"subscli/pkg/contracts/domain"
)

// DefaultRecordsLimit caps the raw-data view when the request leaves the
// limit unset.
const DefaultRecordsLimit = 1000

// DashboardView is the dashboard payload: the aggregate bundle plus the
// metadata of the snapshot it was computed from.
type DashboardView struct {
	Bundle   *domain.AggregateBundle `json:"bundle"`
	Snapshot domain.SnapshotInfo     `json:"snapshot"`
}

// DashboardService answers the dashboard's queries: aggregate views over
// the current snapshot, facet options, filtered raw records, and explicit
// reloads. It owns no state of its own; every answer derives from the
// snapshot service's current snapshot.
type DashboardService struct {
	snapshots  *SnapshotService
	aggregator *analytics.Aggregator
	metrics    *infrastructure.BusinessMetrics
	logger     *slog.Logger
}

// NewDashboardService creates the dashboard service on top of the snapshot
// service.
func NewDashboardService(snapshots *SnapshotService, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}

	svc := &DashboardService{
		snapshots: snapshots,
		metrics:   metrics,
		logger:    logger,
	}
	svc.aggregator = analytics.NewAggregator(logger, func(view string, elapsed time.Duration) {
		infrastructure.RecordAggregationViewMetrics(context.Background(), metrics, view, elapsed)
	})
	return svc
}

// Dashboard aggregates the current snapshot under the selection resolved
// from req. An omitted facet defaults to all observed values; a
// present-but-empty facet passes nothing, which surfaces as the
// first-class empty bundle.
func (s *DashboardService) Dashboard(ctx context.Context, req *v1.DashboardQueryRequest) (*DashboardView, error) {
	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	selection := req.Resolve(snap.Facets)

	start := time.Now()
	bundle, err := s.aggregator.Aggregate(ctx, snap.Records, selection)

	var matched int64
	empty := false
	if bundle != nil {
		matched = int64(bundle.FilteredRows)
		empty = bundle.Empty
	}
	infrastructure.RecordAggregationMetrics(ctx, s.metrics, time.Since(start), matched, empty, err)

	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "dashboard computed",
		slog.String("snapshot_id", snap.Info.ID),
		slog.Int("filtered_rows", bundle.FilteredRows),
		slog.Bool("empty", bundle.Empty))

	return &DashboardView{Bundle: bundle, Snapshot: snap.Info}, nil
}

// Facets returns the distinct facet values observed in the current
// snapshot, which also define the default "all selected" filter state.
func (s *DashboardService) Facets(ctx context.Context) (domain.FacetOptions, error) {
	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return domain.FacetOptions{}, err
	}
	return snap.Facets, nil
}

// Records returns the cleaned rows passing the resolved selection, capped
// at the request limit (or DefaultRecordsLimit when unset). The returned
// slice is a copy of the snapshot's view and safe to hold.
func (s *DashboardService) Records(ctx context.Context, req *v1.RecordsQueryRequest) ([]domain.SubscriptionRecord, error) {
	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var selection domain.FilterSelection
	limit := DefaultRecordsLimit
	if req != nil {
		selection = req.Resolve(snap.Facets)
		if req.Limit > 0 {
			limit = req.Limit
		}
	} else {
		selection = snap.Facets.AllSelected()
	}

	filtered := analytics.NewFilter(selection).Apply(snap.Records)
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

// Reload refreshes the snapshot and returns its metadata. With force the
// source is re-read even when its mod time is unchanged.
func (s *DashboardService) Reload(ctx context.Context, force bool) (domain.SnapshotInfo, error) {
	snap, err := s.snapshots.Reload(ctx, force)
	if err != nil {
		return domain.SnapshotInfo{}, err
	}

	s.logger.InfoContext(ctx, "snapshot reloaded on request",
		slog.String("snapshot_id", snap.Info.ID),
		slog.Bool("force", force),
		slog.Int("records", snap.Info.RecordCount))

	return snap.Info, nil
}
