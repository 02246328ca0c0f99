package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
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

	"github.com/sxyz5675/Steamlit-Dashboard/internal/config"
)

// InstrumentationName identifies tracers and meters created by this service.
const InstrumentationName = "github.com/sxyz5675/Steamlit-Dashboard"

// OTelProviders holds the OpenTelemetry providers. Tracer and Meter are never
// nil: disabled signals fall back to no-op implementations.
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// InitializeOTel initializes tracing and metrics from the telemetry config
func InitializeOTel(cfg config.TelemetryConfig, version string, logger *slog.Logger) (*OTelProviders, error) {
	ctx := context.Background()

	logger.InfoContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("version", version),
		slog.String("environment", cfg.Environment),
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.String("metric_exporter", cfg.MetricExporter))

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(version),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", instanceID()),
	)

	providers := &OTelProviders{
		Tracer: otel.Tracer(InstrumentationName),
		Meter:  noop.NewMeterProvider().Meter(InstrumentationName),
		Logger: logger,
	}

	if err := initializeTracing(cfg, version, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := initializeMetrics(cfg, version, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return providers, nil
}

func initializeTracing(cfg config.TelemetryConfig, version string, res *resource.Resource, providers *OTelProviders) error {
	var exporter sdktrace.SpanExporter
	switch cfg.TraceExporter {
	case "stdout":
		exp, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		exporter = exp
	case "none", "":
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)
	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(InstrumentationName, trace.WithInstrumentationVersion(version))
	otel.SetTracerProvider(tp)

	return nil
}

func initializeMetrics(cfg config.TelemetryConfig, version string, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.MetricExporter {
	case "prometheus":
		registry := promclient.NewRegistry()
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
		providers.Meter = mp.Meter(InstrumentationName, metric.WithInstrumentationVersion(version))
		otel.SetMeterProvider(mp)
	case "none", "":
		return nil
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}
	return nil
}

// DashboardMetrics holds the instruments recorded by the HTTP layer and the
// dashboard pipeline.
type DashboardMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	RendersTotal        metric.Int64Counter
	RenderDuration      metric.Float64Histogram
	RenderFailures      metric.Int64Counter
	RowsLoaded          metric.Int64Histogram
	RowsExcluded        metric.Int64Counter
	NonFiniteEstimates  metric.Int64Counter
	UndefinedChurnFlags metric.Int64Counter
}

// CreateDashboardMetrics creates the application instruments on meter
func CreateDashboardMetrics(meter metric.Meter) (*DashboardMetrics, error) {
	var (
		m   DashboardMetrics
		err error
		all []error
	)
	collect := func(e error) { all = append(all, e) }

	m.HTTPRequestsTotal, err = meter.Int64Counter("http_requests_total",
		metric.WithDescription("Total number of HTTP requests"))
	collect(err)
	m.HTTPRequestDuration, err = meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"), metric.WithUnit("s"))
	collect(err)
	m.HTTPActiveRequests, err = meter.Int64UpDownCounter("http_active_requests",
		metric.WithDescription("Number of active HTTP requests"))
	collect(err)

	m.RendersTotal, err = meter.Int64Counter("dashboard_renders_total",
		metric.WithDescription("Dashboard pipeline runs"))
	collect(err)
	m.RenderDuration, err = meter.Float64Histogram("dashboard_render_duration_seconds",
		metric.WithDescription("Time to load, derive and render the dashboard"), metric.WithUnit("s"))
	collect(err)
	m.RenderFailures, err = meter.Int64Counter("dashboard_render_failures_total",
		metric.WithDescription("Dashboard pipeline runs that returned an error"))
	collect(err)
	m.RowsLoaded, err = meter.Int64Histogram("dataset_rows_loaded",
		metric.WithDescription("Rows read from the dataset per run"))
	collect(err)
	m.RowsExcluded, err = meter.Int64Counter("dataset_rows_excluded_total",
		metric.WithDescription("Rows dropped from the cleaned TotalCharges subset"))
	collect(err)
	m.NonFiniteEstimates, err = meter.Int64Counter("tenure_estimates_non_finite_total",
		metric.WithDescription("Tenure estimates filtered out before plotting"))
	collect(err)
	m.UndefinedChurnFlags, err = meter.Int64Counter("churn_flags_undefined_total",
		metric.WithDescription("Rows whose Churn label is outside Yes/No"))
	collect(err)

	if err := errors.Join(all...); err != nil {
		return nil, err
	}
	return &m, nil
}

// RenderStats carries per-run counts recorded after a pipeline run.
type RenderStats struct {
	RowsLoaded          int
	RowsExcluded        int
	NonFiniteEstimates  int
	UndefinedChurnFlags int
}

// RecordRender records the outcome of one dashboard pipeline run
func RecordRender(ctx context.Context, m *DashboardMetrics, source string, duration time.Duration, stats RenderStats, err error) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "failure"
	}
	attrs := metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("status", status),
	)

	m.RendersTotal.Add(ctx, 1, attrs)
	m.RenderDuration.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		m.RenderFailures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("source", source),
			attribute.String("error.type", fmt.Sprintf("%T", err)),
		))
		return
	}

	m.RowsLoaded.Record(ctx, int64(stats.RowsLoaded))
	m.RowsExcluded.Add(ctx, int64(stats.RowsExcluded))
	m.NonFiniteEstimates.Add(ctx, int64(stats.NonFiniteEstimates))
	m.UndefinedChurnFlags.Add(ctx, int64(stats.UndefinedChurnFlags))
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

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("opentelemetry shutdown errors: %w", err)
	}

	p.Logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

// instanceID is the host name plus pid, so two dashboards on one host differ.
func instanceID() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s-%d", hostname, os.Getpid())
}

// AnnotateSpan copies the run counts onto the current span.
func AnnotateSpan(ctx context.Context, stats RenderStats) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(
		attribute.Int("dataset.rows", stats.RowsLoaded),
		attribute.Int("dataset.rows_excluded", stats.RowsExcluded),
		attribute.Int("features.tenure_non_finite", stats.NonFiniteEstimates),
		attribute.Int("features.churn_undefined", stats.UndefinedChurnFlags),
	)
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
