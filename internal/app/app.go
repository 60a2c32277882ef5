package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	gorillaws "github.com/gorilla/websocket"

	"subscli/internal/config"
	apierrors "subscli/internal/errors"
	"subscli/internal/exporter"
	"subscli/internal/files"
	"subscli/internal/infrastructure"
	"subscli/internal/middleware"
	"subscli/internal/services"
	transporthttp "subscli/internal/transport/http"
	"subscli/internal/watcher"
	ws "subscli/internal/websocket"
)

// Build information, set via ldflags at release time.
var (
	Version   = config.AppVersion
	BuildTime = ""
	BuildID   = ""
)

// Application wires the subscription analytics dashboard together: the
// snapshot pipeline, the aggregation services, the HTTP API, the
// WebSocket hub, and the source file watcher.
type Application struct {
	config *config.Config
	logger *slog.Logger
	router chi.Router
	server *http.Server

	otel      *infrastructure.OTelProviders
	metrics   *infrastructure.BusinessMetrics
	collector *infrastructure.SystemMetricsCollector

	hub        *ws.Hub
	snapshots  *services.SnapshotService
	dashboards *services.DashboardService
	health     *services.HealthService
	watcher    *watcher.Watcher

	upgrader gorillaws.Upgrader
}

// NewApplication builds a fully configured application: configuration from
// defaults, config file, and environment; structured logging; and the full
// OpenTelemetry stack.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	providers, err := infrastructure.InitializeOTel(nil, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	return newApplication(cfg, logger, providers)
}

// NewApplicationWithConfig builds an application from an existing config
// and logger, without the OpenTelemetry stack. Intended for tests and
// embedding.
func NewApplicationWithConfig(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	return newApplication(cfg, logger, nil)
}

func newApplication(cfg *config.Config, logger *slog.Logger, providers *infrastructure.OTelProviders) (*Application, error) {
	app := &Application{
		config: cfg,
		logger: logger,
		otel:   providers,
	}

	// Observability stack. A nil providers handle (tests) skips metric
	// instruments and the system collector.
	var otelMW *middleware.OTelMiddleware
	if providers != nil {
		var err error
		otelMW, err = middleware.NewOTelMiddleware(providers)
		if err != nil {
			return nil, fmt.Errorf("failed to create otel middleware: %w", err)
		}
		app.metrics = otelMW.BusinessMetrics()

		collector, err := infrastructure.NewSystemMetricsCollector(providers.Meter, 30*time.Second)
		if err != nil {
			return nil, fmt.Errorf("failed to create system metrics collector: %w", err)
		}
		app.collector = collector
	}

	// Core services.
	app.hub = ws.NewHub(logger, app.metrics)
	app.snapshots = services.NewSnapshotService(cfg, app.metrics, logger)
	app.dashboards = services.NewDashboardService(app.snapshots, app.metrics, logger)
	app.health = services.NewHealthServiceWithBuildInfo(
		Version, BuildTime, BuildID, cfg, app.snapshots, app.hub, app.collector, logger)

	// Source file watcher. A change invalidates the cached snapshot,
	// reloads eagerly, and notifies connected dashboards.
	if cfg.Watcher.Enabled {
		w, err := watcher.New(cfg.GetSourceFile(), cfg.Watcher.Debounce, app.onSourceChange, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create source watcher: %w", err)
		}
		app.watcher = w
	}

	app.upgrader = gorillaws.Upgrader{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		CheckOrigin:     app.checkWebSocketOrigin,
	}

	if err := app.setupRouter(otelMW); err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}
	app.server = app.createServer()

	return app, nil
}

// setupRouter builds the chi middleware chain and mounts all routes.
func (app *Application) setupRouter(otelMW *middleware.OTelMiddleware) error {
	paths := app.config.ResolvedPaths()

	errorHandler := apierrors.NewErrorHandler(app.logger, app.config.Logging.Development)
	validation := middleware.NewValidationMiddleware(app.logger, errorHandler)

	dashboardHandler := transporthttp.NewDashboardHandler(app.dashboards, app.snapshots, app.logger, errorHandler)
	exportHandler := transporthttp.NewExportHandler(
		app.dashboards,
		exporter.NewBundleExporter(paths, app.metrics, app.logger),
		files.NewManager(paths),
		app.logger,
		errorHandler,
	)
	healthHandler := transporthttp.NewHealthHandler(app.health, app.logger)

	var prometheus http.Handler
	if app.otel != nil {
		prometheus = app.otel.PrometheusHTTP
	}
	metricsHandler := transporthttp.NewMetricsHandler(prometheus, app.hub)

	r := chi.NewRouter()

	// Global middleware. Order matters: request ID first so every later
	// layer logs with the same trace_id.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if otelMW != nil {
		r.Use(otelMW.Handler)
		r.Use(middleware.BusinessMetricsMiddleware(app.metrics))
	}
	r.Use(middleware.StructuredLogger(app.logger))
	r.Use(middleware.Recoverer(app.logger))
	r.Use(middleware.Compress(5))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.StripSlashes)

	if app.config.Security.EnableCORS {
		r.Use(middleware.CORS(middleware.CORSConfig{
			AllowedOrigins: app.config.Security.AllowedOrigins,
			Logger:         app.logger,
		}))
	}

	if app.config.Security.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(
			app.config.Security.RateLimit.RPS,
			app.config.Security.RateLimit.Burst,
			app.logger,
		)
		r.Use(limiter.Handler)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(app.config.Server.RequestTimeout, app.logger))
		api.Use(middleware.ContentTypeValidator("application/json"))
		api.Use(validation.ValidateRequest)

		dashboardHandler.RegisterRoutes(api)
		exportHandler.RegisterRoutes(api)

		api.Route("/health", func(h chi.Router) {
			h.Get("/", healthHandler.HealthCheck)
			h.Get("/ready", healthHandler.ReadinessCheck)
			h.Get("/live", healthHandler.LivenessCheck)
			h.Get("/detailed", healthHandler.DetailedHealth)
		})
		api.Get("/version", healthHandler.Version)
		api.Get("/stats", healthHandler.SystemStats)
		api.Get("/metrics/summary", metricsHandler.Summary)
	})

	r.Get("/metrics", metricsHandler.Prometheus)
	r.With(middleware.WebSocketTraceMiddleware(app.logger)).Get("/ws", app.handleWebSocket)

	app.router = r
	return nil
}

// createServer builds the HTTP server from configuration.
func (app *Application) createServer() *http.Server {
	return &http.Server{
		Addr:           fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:        app.router,
		ReadTimeout:    app.config.Server.ReadTimeout,
		WriteTimeout:   app.config.Server.WriteTimeout,
		IdleTimeout:    app.config.Server.IdleTimeout,
		MaxHeaderBytes: app.config.Server.MaxHeaderBytes,
	}
}

// Router exposes the configured router for tests and embedding.
func (app *Application) Router() chi.Router {
	return app.router
}

// Hub exposes the websocket hub.
func (app *Application) Hub() *ws.Hub {
	return app.hub
}

// Snapshots exposes the snapshot service.
func (app *Application) Snapshots() *services.SnapshotService {
	return app.snapshots
}

// handleWebSocket upgrades the connection and hands it to the hub.
func (app *Application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := app.upgrader.Upgrade(w, r, nil)
	if err != nil {
		app.logger.WarnContext(r.Context(), "websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr))
		return
	}

	ws.ServeWS(app.hub, conn, ws.Settings{
		PingPeriod: app.config.WebSocket.PingPeriod,
		PongWait:   app.config.WebSocket.PongWait,
	}, app.logger)
}

// checkWebSocketOrigin accepts same-origin requests and the configured
// allowed origins.
func (app *Application) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range app.config.Security.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// onSourceChange runs after the watcher's debounce window closes. The
// cached snapshot is dropped immediately so no request serves stale data,
// then the reload runs eagerly so the next dashboard query is fast.
func (app *Application) onSourceChange(ctx context.Context, path string) {
	// Watcher-triggered reloads start outside any request, so mint a
	// trace ID here to correlate the invalidate/reload log lines.
	ctx = infrastructure.EnsureTraceID(ctx)

	app.snapshots.Invalidate()
	app.hub.BroadcastSnapshotInvalidated(path, "watcher")

	reloadCtx, cancel := context.WithTimeout(ctx, config.ReloadTimeout)
	defer cancel()

	snapshot, err := app.snapshots.Reload(reloadCtx, true)
	if err != nil {
		app.logger.ErrorContext(reloadCtx, "snapshot reload after source change failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		app.hub.BroadcastError("SNAPSHOT_RELOAD_FAILED", err.Error(), false)
		return
	}

	app.hub.BroadcastSnapshotReloaded(snapshot.Info, "watcher")
}

// Start launches the background components and the HTTP server. It does
// not block; use Run for the blocking variant.
func (app *Application) Start(ctx context.Context) error {
	app.hub.Start()

	if app.collector != nil {
		go app.collector.Start(ctx)
	}
	if app.watcher != nil {
		go app.watcher.Start(ctx)
	}

	// Warm the snapshot cache. A missing source file is not fatal: the
	// readiness probe reports it and the watcher picks the file up once
	// it appears.
	go func() {
		warmCtx, cancel := context.WithTimeout(ctx, config.ReloadTimeout)
		defer cancel()
		if _, err := app.snapshots.Snapshot(warmCtx); err != nil {
			app.logger.WarnContext(warmCtx, "initial snapshot load failed",
				slog.String("source", app.config.GetSourceFile()),
				slog.String("error", err.Error()))
		}
	}()

	app.logger.InfoContext(ctx, "starting HTTP server",
		slog.String("addr", app.server.Addr),
		slog.String("version", Version))

	go func() {
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error("HTTP server failed", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully shuts down the server and all background components.
func (app *Application) Stop(ctx context.Context) error {
	app.logger.InfoContext(ctx, "shutting down application")

	var errs []error

	if err := app.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}

	if app.watcher != nil {
		app.watcher.Stop()
	}
	app.hub.Stop()
	if app.collector != nil {
		app.collector.Stop()
	}

	if app.otel != nil {
		if err := app.otel.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("otel shutdown: %w", err))
		}
	}

	app.logger.InfoContext(ctx, "application stopped")
	return errors.Join(errs...)
}

// Run starts the application and blocks until SIGINT or SIGTERM, then
// shuts down within the configured shutdown timeout.
func (app *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
	defer cancel()

	return app.Stop(shutdownCtx)
}
