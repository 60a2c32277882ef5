package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "subscli/internal/errors"
	"subscli/internal/exporter"
	"subscli/internal/files"
	appmw "subscli/internal/middleware"
	v1 "subscli/pkg/contracts/api/v1"
	"subscli/pkg/contracts/domain"
)

// BundleExporterInterface abstracts the bundle exporter for handler tests.
type BundleExporterInterface interface {
	Export(ctx context.Context, bundle *domain.AggregateBundle, info domain.SnapshotInfo, opts exporter.Options) (*exporter.Result, error)
}

// ExportHandler handles export HTTP requests: writing the aggregate bundle
// to the exports directory and listing what previous runs produced.
type ExportHandler struct {
	dashboards   DashboardServiceInterface
	exporter     BundleExporterInterface
	files        *files.Manager
	validate     *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewExportHandler creates a new export handler.
func NewExportHandler(dashboards DashboardServiceInterface, bundleExporter BundleExporterInterface, fileManager *files.Manager, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ExportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportHandler{
		dashboards:   dashboards,
		exporter:     bundleExporter,
		files:        fileManager,
		validate:     validator.New(),
		logger:       logger.With(slog.String("handler", "export")),
		errorHandler: errorHandler,
	}
}

// RegisterRoutes registers the export routes on the API router.
func (h *ExportHandler) RegisterRoutes(r chi.Router) {
	r.Route("/exports", func(r chi.Router) {
		r.Post("/", h.CreateExport)
		r.Get("/", h.ListExports)
	})
}

// CreateExport handles POST /api/exports. It aggregates the current
// snapshot under the requested facet selection and writes the bundle to
// the exports directory in the requested format.
func (h *ExportHandler) CreateExport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var req v1.ExportRequest
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
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", "Format must be json or csv"))
		return
	}

	format := req.Format
	if format == "" {
		format = exporter.FormatJSON
	}

	h.logger.InfoContext(r.Context(), "creating export",
		slog.String("request_id", reqID),
		slog.String("format", format),
		slog.Bool("dated_copy", req.DatedCopy),
	)

	view, err := h.dashboards.Dashboard(r.Context(), &req.DashboardQueryRequest)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to aggregate for export",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	result, err := h.exporter.Export(r.Context(), view.Bundle, view.Snapshot, exporter.Options{
		Format:    format,
		DatedCopy: req.DatedCopy,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write export",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.String("format", format),
		)
		appmw.RecordSystemError(r.Context(), "export_failure", "export_handler")
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   result,
		"empty":  view.Bundle.Empty,
	})
}

// exportFile is one entry of the export listing.
type exportFile struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
}

// ListExports handles GET /api/exports. It lists the files in the exports
// directory. A directory that does not exist yet reads as an empty list.
func (h *ExportHandler) ListExports(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	names, err := h.files.ListFiles("exports/")
	if err != nil && !os.IsNotExist(err) {
		h.logger.ErrorContext(r.Context(), "failed to list exports",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	listing := make([]exportFile, 0, len(names))
	for _, name := range names {
		size, err := h.files.GetFileSize("exports/" + name)
		if err != nil {
			// Racing deletion; skip the entry rather than fail the listing.
			continue
		}
		listing = append(listing, exportFile{Name: name, SizeBytes: size})
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   listing,
		"count":  len(listing),
	})
}
