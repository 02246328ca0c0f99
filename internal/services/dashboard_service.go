package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sxyz5675/Steamlit-Dashboard/internal/config"
	"github.com/sxyz5675/Steamlit-Dashboard/internal/dashboard"
	"github.com/sxyz5675/Steamlit-Dashboard/internal/dataset"
	"github.com/sxyz5675/Steamlit-Dashboard/internal/features"
	"github.com/sxyz5675/Steamlit-Dashboard/internal/infrastructure"
	"github.com/sxyz5675/Steamlit-Dashboard/internal/render"
)

// Sources a pipeline run is recorded under.
const (
	SourceHTTP     = "http"
	SourceSnapshot = "snapshot"
)

// DashboardService runs the load, derive and render pipeline. Every call
// starts from the raw file; nothing is cached between calls.
type DashboardService struct {
	dataset config.DatasetConfig
	metrics *infrastructure.DashboardMetrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewDashboardService creates a dashboard service. cfg.Path should already be
// resolved; metrics may be nil.
func NewDashboardService(cfg config.DatasetConfig, metrics *infrastructure.DashboardMetrics, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("DashboardService initialized",
		slog.String("dataset", cfg.Path),
		slog.Int("charge_bins", cfg.ChargeBins),
		slog.String("malformed_charges", cfg.MalformedCharges))

	return &DashboardService{
		dataset: cfg,
		metrics: metrics,
		tracer:  otel.Tracer(infrastructure.InstrumentationName),
		logger:  infrastructure.WithComponent(logger, "dashboard_service"),
	}
}

// DatasetPath returns the file the service reads.
func (s *DashboardService) DatasetPath() string {
	return s.dataset.Path
}

// Build loads the dataset, derives the features and lays out the page.
func (s *DashboardService) Build(ctx context.Context) (dashboard.PageSpec, infrastructure.RenderStats, error) {
	ctx, span := s.tracer.Start(ctx, "DashboardService.Build",
		trace.WithAttributes(attribute.String("dataset.path", s.dataset.Path)))
	defer span.End()

	var stats infrastructure.RenderStats

	table, err := dataset.Load(ctx, s.dataset.Path, dataset.Options{
		Delimiter: s.dataset.DelimiterRune(),
		Logger:    s.logger,
	})
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return dashboard.PageSpec{}, stats, err
	}
	stats.RowsLoaded = table.Len()

	set, err := features.Derive(ctx, table, features.Options{
		BlankPlaceholder:  s.dataset.BlankPlaceholder,
		MalformedCharges:  features.MalformedPolicy(s.dataset.MalformedCharges),
		ChargeBins:        s.dataset.ChargeBins,
		StrictChurnLabels: s.dataset.StrictChurnLabels,
		Logger:            s.logger,
	})
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return dashboard.PageSpec{}, stats, err
	}
	stats.RowsExcluded = set.ExcludedRows()
	stats.NonFiniteEstimates = set.NonFiniteEstimates()
	stats.UndefinedChurnFlags = set.UndefinedFlags()

	rc := dashboard.NewRenderContext(table, set, dashboard.Options{PreviewRows: s.dataset.PreviewRows}, s.logger)
	page := dashboard.BuildPage(ctx, rc)

	infrastructure.AnnotateSpan(ctx, stats)
	return page, stats, nil
}

// Render runs the pipeline and writes the HTML page to w. source labels the
// run in metrics and logs.
func (s *DashboardService) Render(ctx context.Context, w io.Writer, source string) error {
	start := time.Now()

	page, stats, err := s.Build(ctx)
	if err == nil {
		if err = render.Page(w, page); err != nil {
			err = fmt.Errorf("failed to render page: %w", err)
		}
	}

	elapsed := time.Since(start)
	infrastructure.RecordRender(ctx, s.metrics, source, elapsed, stats, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "dashboard render failed",
			slog.String("source", source),
			slog.String("error", err.Error()),
			slog.Duration("duration", elapsed))
		return err
	}

	s.logger.InfoContext(ctx, "dashboard rendered",
		slog.String("source", source),
		slog.Int("rows", stats.RowsLoaded),
		slog.Int("rows_excluded", stats.RowsExcluded),
		slog.Int("non_finite_estimates", stats.NonFiniteEstimates),
		slog.Int("undefined_churn_flags", stats.UndefinedChurnFlags),
		slog.Duration("duration", elapsed))
	return nil
}

// CheckDataset loads and derives once without rendering. The server runs it
// at startup so a missing or malformed file stops the process early.
func (s *DashboardService) CheckDataset(ctx context.Context) error {
	_, stats, err := s.Build(ctx)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "dataset check passed",
		slog.String("path", s.dataset.Path),
		slog.Int("rows", stats.RowsLoaded))
	return nil
}
