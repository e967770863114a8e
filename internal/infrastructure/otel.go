package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"surveydash/internal/config"
)

const (
	// InstrumentationName names the tracer and meter of the dashboard.
	InstrumentationName = "surveydash"
)

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	// PrometheusHTTP serves the metrics registry; nil unless the prometheus
	// exporter is selected.
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// InitializeOTel sets up tracing and metrics from cfg. Disabled signals fall
// back to the global no-op providers, so Tracer and Meter are never nil.
func InitializeOTel(cfg config.TelemetryConfig, logger *slog.Logger) (*OTelProviders, error) {
	ctx := context.Background()

	logger.InfoContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("environment", cfg.Environment),
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.String("metric_exporter", cfg.MetricExporter))

	res := createResource(cfg)

	providers := &OTelProviders{
		Tracer: otel.Tracer(InstrumentationName),
		Meter:  otel.Meter(InstrumentationName),
		Logger: logger,
	}

	if err := initializeTracing(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	// Set up global propagators for trace context
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return providers, nil
}

// createResource creates the OpenTelemetry resource
func createResource(cfg config.TelemetryConfig) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(config.AppName),
		semconv.ServiceVersion(config.AppVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	)
}

// initializeTracing sets up OpenTelemetry tracing
func initializeTracing(ctx context.Context, cfg config.TelemetryConfig, res *resource.Resource, providers *OTelProviders) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err = stdouttrace.New(
			stdouttrace.WithPrettyPrint(),
		)
	case "none", "":
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(InstrumentationName, trace.WithInstrumentationVersion(config.AppVersion))

	otel.SetTracerProvider(tp)

	providers.Logger.InfoContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))

	return nil
}

// initializeMetrics sets up OpenTelemetry metrics backed by a dedicated
// Prometheus registry.
func initializeMetrics(ctx context.Context, cfg config.TelemetryConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.MetricExporter {
	case "prometheus":
		registry := promclient.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
		if err != nil {
			return fmt.Errorf("failed to create prometheus exporter: %w", err)
		}

		providers.PrometheusHTTP = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)

		providers.MeterProvider = mp
		providers.Meter = mp.Meter(InstrumentationName, metric.WithInstrumentationVersion(config.AppVersion))

		otel.SetMeterProvider(mp)

	case "none", "":
		return nil
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	providers.Logger.InfoContext(ctx, "Metrics initialized",
		slog.String("exporter", cfg.MetricExporter))

	return nil
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

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}

// PipelineMetrics holds the dashboard's own instruments
type PipelineMetrics struct {
	runsTotal    metric.Int64Counter
	runDuration  metric.Float64Histogram
	rowsFetched  metric.Int64Histogram
	renderErrors metric.Int64Counter
	httpRequests metric.Int64Counter
	httpDuration metric.Float64Histogram
}

// NewPipelineMetrics creates the instruments on meter. A nil meter yields
// no-op instruments.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(InstrumentationName)
	}

	runsTotal, err := meter.Int64Counter(
		"pipeline_runs_total",
		metric.WithDescription("Total number of fetch, clean and aggregate runs"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Histogram(
		"pipeline_run_duration_seconds",
		metric.WithDescription("Duration of one pipeline run in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	rowsFetched, err := meter.Int64Histogram(
		"pipeline_rows_fetched",
		metric.WithDescription("Number of data rows returned by the spreadsheet source"),
		metric.WithExplicitBucketBoundaries(0, 10, 50, 100, 500, 1000, 5000, 10000),
	)
	if err != nil {
		return nil, err
	}

	renderErrors, err := meter.Int64Counter(
		"chart_render_errors_total",
		metric.WithDescription("Total number of charts that could not be built or drawn"),
	)
	if err != nil {
		return nil, err
	}

	httpRequests, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	httpDuration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		runsTotal:    runsTotal,
		runDuration:  runDuration,
		rowsFetched:  rowsFetched,
		renderErrors: renderErrors,
		httpRequests: httpRequests,
		httpDuration: httpDuration,
	}, nil
}

// RecordRun records one pipeline run. status is "success" or the failing stage.
func (m *PipelineMetrics) RecordRun(ctx context.Context, status string, duration time.Duration, rows int) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("status", status))
	m.runsTotal.Add(ctx, 1, attrs)
	m.runDuration.Record(ctx, duration.Seconds(), attrs)
	if rows >= 0 {
		m.rowsFetched.Record(ctx, int64(rows))
	}
}

// RecordRenderError counts a chart that failed to aggregate or draw
func (m *PipelineMetrics) RecordRenderError(ctx context.Context, chartID string, err error) {
	if m == nil {
		return
	}

	m.renderErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("chart", chartID),
		attribute.String("error.type", fmt.Sprintf("%T", err)),
	))
}

// RecordHTTPRequest records one served request
func (m *PipelineMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	)
	m.httpRequests.Add(ctx, 1, attrs)
	m.httpDuration.Record(ctx, duration.Seconds(), attrs)
}
