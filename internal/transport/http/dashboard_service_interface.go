package http

import (
	"context"

	"subscli/internal/services"
	v1 "subscli/pkg/contracts/api/v1"
	"subscli/pkg/contracts/domain"
)

// DashboardServiceInterface defines the dashboard operations the handlers
// consume.
type DashboardServiceInterface interface {
	Dashboard(ctx context.Context, req *v1.DashboardQueryRequest) (*services.DashboardView, error)
	Facets(ctx context.Context) (domain.FacetOptions, error)
	Records(ctx context.Context, req *v1.RecordsQueryRequest) ([]domain.SubscriptionRecord, error)
	Reload(ctx context.Context, force bool) (domain.SnapshotInfo, error)
}

// SnapshotInfoProvider serves the snapshot metadata endpoint.
type SnapshotInfoProvider interface {
	Info(ctx context.Context) (domain.SnapshotInfo, error)
}
