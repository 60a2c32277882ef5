package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "subscli/internal/errors"
	v1 "subscli/pkg/contracts/api/v1"
)

// DashboardHandler handles dashboard, record, and snapshot HTTP requests
// with RFC 7807 compliance.
type DashboardHandler struct {
	service      DashboardServiceInterface
	snapshots    SnapshotInfoProvider
	validate     *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(service DashboardServiceInterface, snapshots SnapshotInfoProvider, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{
		service:      service,
		snapshots:    snapshots,
		validate:     validator.New(),
		logger:       logger.With(slog.String("handler", "dashboard")),
		errorHandler: errorHandler,
	}
}

// RegisterRoutes registers the dashboard routes on the API router.
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/", h.GetDashboard)
		r.Post("/query", h.QueryDashboard)
		r.Get("/facets", h.GetFacets)
	})
	r.Post("/records/query", h.QueryRecords)
	r.Route("/snapshot", func(r chi.Router) {
		r.Get("/", h.GetSnapshot)
		r.Post("/reload", h.ReloadSnapshot)
	})
}

// GetDashboard handles GET /api/dashboard. It aggregates the current
// snapshot with every facet value selected.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	h.respondDashboard(w, r, nil)
}

// QueryDashboard handles POST /api/dashboard/query. The body narrows the
// aggregation to the selected facet values; an omitted facet means all
// observed values, a present-but-empty facet selects nothing.
func (h *DashboardHandler) QueryDashboard(w http.ResponseWriter, r *http.Request) {
	var req v1.DashboardQueryRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"INVALID_REQUEST",
			"Invalid request body",
			map[string]interface{}{"error": err.Error()},
		))
		return
	}

	h.respondDashboard(w, r, &req)
}

// respondDashboard runs the aggregation and writes the shared response
// shape of GET /api/dashboard and POST /api/dashboard/query.
func (h *DashboardHandler) respondDashboard(w http.ResponseWriter, r *http.Request, req *v1.DashboardQueryRequest) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.InfoContext(r.Context(), "computing dashboard",
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	view, err := h.service.Dashboard(r.Context(), req)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to compute dashboard",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   view,
		"empty":  view.Bundle.Empty,
	})
}

// GetFacets handles GET /api/dashboard/facets. It returns the distinct
// facet values observed in the current snapshot, for filter menus.
func (h *DashboardHandler) GetFacets(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.InfoContext(r.Context(), "fetching facet options",
		slog.String("request_id", reqID),
	)

	facets, err := h.service.Facets(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to get facet options",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   facets,
		"count":  len(facets.Regions) + len(facets.PlanTypes) + len(facets.Statuses),
	})
}

// QueryRecords handles POST /api/records/query. It returns the cleaned
// records passing the facet selection, capped by the requested limit.
func (h *DashboardHandler) QueryRecords(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var req v1.RecordsQueryRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"INVALID_REQUEST",
			"Invalid request body",
			map[string]interface{}{"error": err.Error()},
		))
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("limit", "Limit must be between 0 and 10000"))
		return
	}

	h.logger.InfoContext(r.Context(), "querying records",
		slog.String("request_id", reqID),
		slog.Int("limit", req.Limit),
	)

	records, err := h.service.Records(r.Context(), &req)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to query records",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   records,
		"count":  len(records),
	})
}

// GetSnapshot handles GET /api/snapshot. It returns the metadata of the
// cached snapshot, loading it first when no snapshot is cached yet.
func (h *DashboardHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	info, err := h.snapshots.Info(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to get snapshot info",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   info,
	})
}

// ReloadSnapshot handles POST /api/snapshot/reload. An empty body means an
// ordinary reload; {"force": true} reloads even when the source
// modification time is unchanged.
func (h *DashboardHandler) ReloadSnapshot(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var req v1.SnapshotReloadRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"INVALID_REQUEST",
			"Invalid request body",
			map[string]interface{}{"error": err.Error()},
		))
		return
	}

	h.logger.InfoContext(r.Context(), "reloading snapshot",
		slog.String("request_id", reqID),
		slog.Bool("force", req.Force),
	)

	info, err := h.service.Reload(r.Context(), req.Force)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to reload snapshot",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.Bool("force", req.Force),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   info,
		"forced": req.Force,
	})
}
