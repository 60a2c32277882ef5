package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	ServiceName    = "subscription-pulse"
	ServiceVersion = "v1.2.0"
	MeterName      = "subscli"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout", "otlp", "none"
	MetricExporter string // "prometheus", "stdout", "none"
	EnableMetrics  bool
	EnableTracing  bool
	SampleRatio    float64
	PrometheusPort string
}

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// DefaultOTelConfig returns a default OpenTelemetry configuration
func DefaultOTelConfig() *OTelConfig {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: ServiceVersion,
		Environment:    env,
		TraceExporter:  "stdout", // Use stdout for development
		MetricExporter: "prometheus",
		EnableMetrics:  true,
		EnableTracing:  true,
		SampleRatio:    1.0, // Sample all traces in development
		PrometheusPort: "9090",
	}
}

// InitializeOTel initializes OpenTelemetry with comprehensive observability
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}

	ctx := context.Background()

	logger.InfoContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("environment", cfg.Environment),
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	// Create resource
	res, err := createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &OTelProviders{
		Logger: logger,
	}

	// Initialize tracing
	if cfg.EnableTracing {
		if err := initializeTracing(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	// Initialize metrics
	if cfg.EnableMetrics {
		if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	// Set up global propagators for trace context
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.InfoContext(ctx, "OpenTelemetry initialization complete",
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	return providers, nil
}

// createResource creates the OpenTelemetry resource
func createResource(cfg *OTelConfig) (*resource.Resource, error) {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	), nil
}

// initializeTracing sets up OpenTelemetry tracing
func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err = stdouttrace.New(
			stdouttrace.WithPrettyPrint(),
		)
	case "none":
		// No exporter - tracing disabled
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	// Create tracer provider
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))

	// Set global tracer provider
	otel.SetTracerProvider(tp)

	providers.Logger.InfoContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))

	return nil
}

// initializeMetrics sets up OpenTelemetry metrics
func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.MetricExporter {
	case "prometheus":
		// Create Prometheus exporter
		exporter, err := prometheus.New()
		if err != nil {
			return fmt.Errorf("failed to create prometheus exporter: %w", err)
		}

		// Create Prometheus HTTP handler
		providers.PrometheusHTTP = promhttp.Handler()

		// Create meter provider with Prometheus reader
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)

		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))

		// Set global meter provider
		otel.SetMeterProvider(mp)

	case "none":
		// No exporter - metrics disabled
		return nil
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	providers.Logger.InfoContext(ctx, "Metrics initialized",
		slog.String("exporter", cfg.MetricExporter))

	return nil
}

// CreateBusinessMetrics creates application-specific metrics
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	// HTTP metrics
	httpRequestsTotal, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	httpRequestDuration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	httpActiveRequests, err := meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	// Snapshot metrics
	snapshotLoadsTotal, err := meter.Int64Counter(
		"snapshot_loads_total",
		metric.WithDescription("Total number of subscription snapshot loads"),
	)
	if err != nil {
		return nil, err
	}

	snapshotLoadDuration, err := meter.Float64Histogram(
		"snapshot_load_duration_seconds",
		metric.WithDescription("Snapshot load duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	snapshotLoadErrors, err := meter.Int64Counter(
		"snapshot_load_errors_total",
		metric.WithDescription("Total number of failed snapshot loads"),
	)
	if err != nil {
		return nil, err
	}

	snapshotRowsRead, err := meter.Int64Counter(
		"snapshot_rows_read_total",
		metric.WithDescription("Total number of raw rows read from the source file"),
	)
	if err != nil {
		return nil, err
	}

	snapshotRowsDropped, err := meter.Int64Counter(
		"snapshot_rows_dropped_total",
		metric.WithDescription("Total number of rows dropped during cleaning"),
	)
	if err != nil {
		return nil, err
	}

	snapshotCacheHits, err := meter.Int64Counter(
		"snapshot_cache_hits_total",
		metric.WithDescription("Total number of snapshot cache hits"),
	)
	if err != nil {
		return nil, err
	}

	snapshotCacheMisses, err := meter.Int64Counter(
		"snapshot_cache_misses_total",
		metric.WithDescription("Total number of snapshot cache misses"),
	)
	if err != nil {
		return nil, err
	}

	// Aggregation metrics
	aggregationsTotal, err := meter.Int64Counter(
		"aggregations_total",
		metric.WithDescription("Total number of dashboard aggregations"),
	)
	if err != nil {
		return nil, err
	}

	aggregationDuration, err := meter.Float64Histogram(
		"aggregation_duration_seconds",
		metric.WithDescription("Dashboard aggregation duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	aggregationViewDuration, err := meter.Float64Histogram(
		"aggregation_view_duration_seconds",
		metric.WithDescription("Per-view aggregation duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	aggregationEmptyResults, err := meter.Int64Counter(
		"aggregation_empty_results_total",
		metric.WithDescription("Total number of aggregations where no records matched the filters"),
	)
	if err != nil {
		return nil, err
	}

	aggregationErrors, err := meter.Int64Counter(
		"aggregation_errors_total",
		metric.WithDescription("Total number of aggregation errors"),
	)
	if err != nil {
		return nil, err
	}

	// Export metrics
	exportsTotal, err := meter.Int64Counter(
		"exports_total",
		metric.WithDescription("Total number of dashboard exports"),
	)
	if err != nil {
		return nil, err
	}

	exportDuration, err := meter.Float64Histogram(
		"export_duration_seconds",
		metric.WithDescription("Export duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	exportErrors, err := meter.Int64Counter(
		"export_errors_total",
		metric.WithDescription("Total number of export errors"),
	)
	if err != nil {
		return nil, err
	}

	exportBytesWritten, err := meter.Int64Counter(
		"export_bytes_written_total",
		metric.WithDescription("Total bytes written by exports"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	// WebSocket metrics
	websocketActiveConnections, err := meter.Int64UpDownCounter(
		"websocket_active_connections",
		metric.WithDescription("Number of active WebSocket connections"),
	)
	if err != nil {
		return nil, err
	}

	websocketEventsBroadcast, err := meter.Int64Counter(
		"websocket_events_broadcast_total",
		metric.WithDescription("Total number of events broadcast to WebSocket clients"),
	)
	if err != nil {
		return nil, err
	}

	// System metrics
	systemErrors, err := meter.Int64Counter(
		"system_errors_total",
		metric.WithDescription("Total number of system errors"),
	)
	if err != nil {
		return nil, err
	}

	systemUptime, err := meter.Float64UpDownCounter(
		"system_uptime_seconds",
		metric.WithDescription("System uptime in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &BusinessMetrics{
		// HTTP metrics
		HTTPRequestsTotal:   httpRequestsTotal,
		HTTPRequestDuration: httpRequestDuration,
		HTTPActiveRequests:  httpActiveRequests,

		// Snapshot metrics
		SnapshotLoadsTotal:   snapshotLoadsTotal,
		SnapshotLoadDuration: snapshotLoadDuration,
		SnapshotLoadErrors:   snapshotLoadErrors,
		SnapshotRowsRead:     snapshotRowsRead,
		SnapshotRowsDropped:  snapshotRowsDropped,
		SnapshotCacheHits:    snapshotCacheHits,
		SnapshotCacheMisses:  snapshotCacheMisses,

		// Aggregation metrics
		AggregationsTotal:       aggregationsTotal,
		AggregationDuration:     aggregationDuration,
		AggregationViewDuration: aggregationViewDuration,
		AggregationEmptyResults: aggregationEmptyResults,
		AggregationErrors:       aggregationErrors,

		// Export metrics
		ExportsTotal:       exportsTotal,
		ExportDuration:     exportDuration,
		ExportErrors:       exportErrors,
		ExportBytesWritten: exportBytesWritten,

		// WebSocket metrics
		WebSocketActiveConnections: websocketActiveConnections,
		WebSocketEventsBroadcast:   websocketEventsBroadcast,

		// System metrics
		SystemErrors: systemErrors,
		SystemUptime: systemUptime,
	}, nil
}

// BusinessMetrics holds all application-specific metrics
type BusinessMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Snapshot metrics
	SnapshotLoadsTotal   metric.Int64Counter
	SnapshotLoadDuration metric.Float64Histogram
	SnapshotLoadErrors   metric.Int64Counter
	SnapshotRowsRead     metric.Int64Counter
	SnapshotRowsDropped  metric.Int64Counter
	SnapshotCacheHits    metric.Int64Counter
	SnapshotCacheMisses  metric.Int64Counter

	// Aggregation metrics
	AggregationsTotal       metric.Int64Counter
	AggregationDuration     metric.Float64Histogram
	AggregationViewDuration metric.Float64Histogram
	AggregationEmptyResults metric.Int64Counter
	AggregationErrors       metric.Int64Counter

	// Export metrics
	ExportsTotal       metric.Int64Counter
	ExportDuration     metric.Float64Histogram
	ExportErrors       metric.Int64Counter
	ExportBytesWritten metric.Int64Counter

	// WebSocket metrics
	WebSocketActiveConnections metric.Int64UpDownCounter
	WebSocketEventsBroadcast   metric.Int64Counter

	// System metrics
	SystemErrors metric.Int64Counter
	SystemUptime metric.Float64UpDownCounter
}

// Shutdown gracefully shuts down OpenTelemetry providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}

	p.Logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// TraceIDFromContext extracts trace ID from context for logging correlation
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// SpanFromContext returns the current span from context
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// AddSpanEvent adds an event to the current span with structured attributes
func AddSpanEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, attribute.String(k, val))
		case int:
			attrs = append(attrs, attribute.Int(k, val))
		case int64:
			attrs = append(attrs, attribute.Int64(k, val))
		case float64:
			attrs = append(attrs, attribute.Float64(k, val))
		case bool:
			attrs = append(attrs, attribute.Bool(k, val))
		default:
			attrs = append(attrs, attribute.String(k, fmt.Sprintf("%v", val)))
		}
	}

	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanAttributes sets attributes on the current span
func SetSpanAttributes(ctx context.Context, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	for k, v := range attributes {
		switch val := v.(type) {
		case string:
			span.SetAttributes(attribute.String(k, val))
		case int:
			span.SetAttributes(attribute.Int(k, val))
		case int64:
			span.SetAttributes(attribute.Int64(k, val))
		case float64:
			span.SetAttributes(attribute.Float64(k, val))
		case bool:
			span.SetAttributes(attribute.Bool(k, val))
		default:
			span.SetAttributes(attribute.String(k, fmt.Sprintf("%v", val)))
		}
	}
}

// RecordSnapshotLoadMetrics records metrics for a snapshot load
func RecordSnapshotLoadMetrics(ctx context.Context, metrics *BusinessMetrics, format string, duration time.Duration, rowsRead, rowsDropped int64, err error) {
	if metrics == nil {
		return
	}

	// Common attributes
	attrs := []attribute.KeyValue{
		attribute.String("source.format", format),
	}

	// Record load
	metrics.SnapshotLoadsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))

	// Record duration
	statusAttr := attribute.String("status", "success")
	if err != nil {
		statusAttr = attribute.String("status", "failure")
	}
	durationAttrs := append(attrs, statusAttr)
	metrics.SnapshotLoadDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(durationAttrs...))

	// Record row counts and errors
	if err != nil {
		errorAttrs := append(attrs, attribute.String("error.type", fmt.Sprintf("%T", err)))
		metrics.SnapshotLoadErrors.Add(ctx, 1, metric.WithAttributes(errorAttrs...))
	} else {
		metrics.SnapshotRowsRead.Add(ctx, rowsRead, metric.WithAttributes(attrs...))
		metrics.SnapshotRowsDropped.Add(ctx, rowsDropped, metric.WithAttributes(attrs...))
	}

	// Add span event
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("snapshot.metrics_recorded",
			trace.WithAttributes(
				attribute.String("source.format", format),
				attribute.Bool("success", err == nil),
				attribute.Float64("duration_seconds", duration.Seconds()),
				attribute.Int64("rows_read", rowsRead),
				attribute.Int64("rows_dropped", rowsDropped),
			),
		)
	}
}

// RecordAggregationMetrics records metrics for a dashboard aggregation
func RecordAggregationMetrics(ctx context.Context, metrics *BusinessMetrics, duration time.Duration, matched int64, empty bool, err error) {
	if metrics == nil {
		return
	}

	statusAttr := attribute.String("status", "success")
	if err != nil {
		statusAttr = attribute.String("status", "failure")
	}

	metrics.AggregationsTotal.Add(ctx, 1, metric.WithAttributes(statusAttr))
	metrics.AggregationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(statusAttr))

	if err != nil {
		metrics.AggregationErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("error.type", fmt.Sprintf("%T", err))))
		return
	}

	if empty {
		metrics.AggregationEmptyResults.Add(ctx, 1)
	}

	// Add span event
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("aggregation.metrics_recorded",
			trace.WithAttributes(
				attribute.Int64("records_matched", matched),
				attribute.Bool("empty", empty),
				attribute.Float64("duration_seconds", duration.Seconds()),
			),
		)
	}
}

// RecordAggregationViewMetrics records metrics for a single aggregate view computation
func RecordAggregationViewMetrics(ctx context.Context, metrics *BusinessMetrics, view string, duration time.Duration) {
	if metrics == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("view", view),
	}

	metrics.AggregationViewDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordExportMetrics records metrics for a dashboard export
func RecordExportMetrics(ctx context.Context, metrics *BusinessMetrics, format string, duration time.Duration, bytesWritten int64, err error) {
	if metrics == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("export.format", format),
	}

	metrics.ExportsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))

	statusAttr := attribute.String("status", "success")
	if err != nil {
		statusAttr = attribute.String("status", "failure")
	}
	durationAttrs := append(attrs, statusAttr)
	metrics.ExportDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(durationAttrs...))

	if err != nil {
		errorAttrs := append(attrs, attribute.String("error.type", fmt.Sprintf("%T", err)))
		metrics.ExportErrors.Add(ctx, 1, metric.WithAttributes(errorAttrs...))
		return
	}

	metrics.ExportBytesWritten.Add(ctx, bytesWritten, metric.WithAttributes(attrs...))
}

// RecordSnapshotCacheAccess records whether a snapshot access was served
// from the cache or had to load from disk
func RecordSnapshotCacheAccess(ctx context.Context, metrics *BusinessMetrics, hit bool) {
	if metrics == nil {
		return
	}

	if hit {
		metrics.SnapshotCacheHits.Add(ctx, 1)
		return
	}
	metrics.SnapshotCacheMisses.Add(ctx, 1)
}

// RecordActiveClientChange records changes in the active WebSocket client count
func RecordActiveClientChange(ctx context.Context, metrics *BusinessMetrics, delta int64) {
	if metrics == nil {
		return
	}

	metrics.WebSocketActiveConnections.Add(ctx, delta)
}

// RecordBroadcastEvent records an event broadcast to WebSocket clients
func RecordBroadcastEvent(ctx context.Context, metrics *BusinessMetrics, eventType string) {
	if metrics == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("event.type", eventType),
	}

	metrics.WebSocketEventsBroadcast.Add(ctx, 1, metric.WithAttributes(attrs...))
}
