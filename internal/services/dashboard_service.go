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

	"surveydash/internal/config"
	apierrors "surveydash/internal/errors"
	"surveydash/internal/exporter"
	"surveydash/internal/infrastructure"
	"surveydash/internal/render"
	"surveydash/internal/sheets"
	"surveydash/internal/survey"
)

// ErrChartNotFound is matched by every unknown chart id error.
var ErrChartNotFound = apierrors.ErrChartNotFound

// Pipeline run statuses recorded on pipeline_runs_total.
const (
	statusSuccess    = "success"
	statusFetchError = "fetch_error"
	statusCleanError = "clean_error"
)

// Dashboard is the outcome of one full pipeline run.
type Dashboard struct {
	Title       string
	Subtitle    string
	ShowTable   bool
	Table       *survey.Table
	Charts      []render.ChartData
	GeneratedAt time.Time
}

// DashboardService runs the fetch, clean and aggregate pipeline once per call
// for every configured chart.
type DashboardService struct {
	source    sheets.RowSource
	dashboard config.DashboardConfig
	workbook  *exporter.WorkbookExporter
	tracer    trace.Tracer
	metrics   *infrastructure.PipelineMetrics
	logger    *slog.Logger
}

// NewDashboardService creates the service. tracer and metrics may be nil.
func NewDashboardService(source sheets.RowSource, dashboard config.DashboardConfig, tracer trace.Tracer, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *DashboardService {
	if tracer == nil {
		tracer = otel.Tracer(infrastructure.InstrumentationName)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &DashboardService{
		source:    source,
		dashboard: dashboard,
		workbook:  exporter.NewWorkbookExporter(),
		tracer:    tracer,
		metrics:   metrics,
		logger:    logger.With(slog.String("component", "dashboard_service")),
	}
}

// Specs returns the configured charts in page order.
func (s *DashboardService) Specs() []render.ChartSpec {
	specs := make([]render.ChartSpec, len(s.dashboard.Charts))
	for i, c := range s.dashboard.Charts {
		specs[i] = render.SpecFromConfig(c, s.dashboard.DecimalSeparator)
	}
	return specs
}

// Snapshot fetches the sheet once and cleans it.
func (s *DashboardService) Snapshot(ctx context.Context) (*survey.Table, error) {
	start := time.Now()

	table, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRun(ctx, statusSuccess, time.Since(start), table.Len())
	return table, nil
}

func (s *DashboardService) snapshot(ctx context.Context) (*survey.Table, error) {
	start := time.Now()

	raw, err := s.fetch(ctx)
	if err != nil {
		s.metrics.RecordRun(ctx, statusFetchError, time.Since(start), -1)
		return nil, err
	}

	table, err := s.clean(ctx, raw)
	if err != nil {
		s.metrics.RecordRun(ctx, statusCleanError, time.Since(start), len(raw)-1)
		return nil, err
	}

	return table, nil
}

func (s *DashboardService) fetch(ctx context.Context) (survey.RawTable, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.fetch",
		trace.WithAttributes(attribute.String("source", s.source.Describe())))
	defer span.End()

	raw, err := s.source.Fetch(ctx)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("rows", len(raw)))
	return raw, nil
}

func (s *DashboardService) clean(ctx context.Context, raw survey.RawTable) (*survey.Table, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.clean")
	defer span.End()

	table, err := survey.Clean(raw)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.logger.WarnContext(ctx, "sheet rejected",
			slog.String("source", s.source.Describe()),
			slog.String("error", err.Error()))
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("columns", len(table.Columns())),
		attribute.Int("records", table.Len()),
	)
	return table, nil
}

// Build runs the whole pipeline. A chart whose column or labels are unusable
// carries the error in its ChartData; the other charts are still built.
func (s *DashboardService) Build(ctx context.Context) (*Dashboard, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.build")
	defer span.End()

	start := time.Now()
	table, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	charts := make([]render.ChartData, len(s.dashboard.Charts))
	for i, c := range s.dashboard.Charts {
		charts[i] = s.aggregate(ctx, table, c)
	}

	s.metrics.RecordRun(ctx, statusSuccess, time.Since(start), table.Len())
	s.logger.InfoContext(ctx, "dashboard built",
		slog.Int("records", table.Len()),
		slog.Int("charts", len(charts)),
		slog.Duration("duration", time.Since(start)))

	return &Dashboard{
		Title:       s.dashboard.Title,
		Subtitle:    s.dashboard.Subtitle,
		ShowTable:   s.dashboard.ShowTable,
		Table:       table,
		Charts:      charts,
		GeneratedAt: time.Now(),
	}, nil
}

// Chart runs the pipeline for a single chart. Unlike Build, an aggregation
// error is returned.
func (s *DashboardService) Chart(ctx context.Context, id string) (render.ChartData, error) {
	c, ok := s.chartConfig(id)
	if !ok {
		return render.ChartData{}, apierrors.ChartNotFound(id)
	}

	table, err := s.Snapshot(ctx)
	if err != nil {
		return render.ChartData{}, err
	}

	data := s.aggregate(ctx, table, c)
	if data.Err != nil {
		return render.ChartData{}, data.Err
	}
	return data, nil
}

// RenderChart runs the pipeline for one chart and draws it to w.
func (s *DashboardService) RenderChart(ctx context.Context, id string, renderer render.ChartRenderer, w io.Writer) error {
	data, err := s.Chart(ctx, id)
	if err != nil {
		return err
	}
	return s.Draw(ctx, data, renderer, w)
}

// Draw renders an already aggregated chart.
func (s *DashboardService) Draw(ctx context.Context, data render.ChartData, renderer render.ChartRenderer, w io.Writer) error {
	if data.Err != nil {
		return data.Err
	}

	ctx, span := s.tracer.Start(ctx, "pipeline.render",
		trace.WithAttributes(
			attribute.String("chart", data.Spec.ID),
			attribute.String("content_type", renderer.ContentType()),
		))
	defer span.End()

	if err := renderer.Render(w, data.Spec, data.Distribution); err != nil {
		infrastructure.RecordError(ctx, err)
		s.metrics.RecordRenderError(ctx, data.Spec.ID, err)
		return fmt.Errorf("chart %s: %w", data.Spec.ID, err)
	}
	return nil
}

// ExportWorkbook writes the cleaned table and every chart as an xlsx workbook.
func (s *DashboardService) ExportWorkbook(ctx context.Context, w io.Writer) error {
	d, err := s.Build(ctx)
	if err != nil {
		return err
	}
	return s.workbook.Export(w, d.Table, d.Charts)
}

// ExportCSV writes the distributions of every chart as CSV.
func (s *DashboardService) ExportCSV(ctx context.Context, w io.Writer) error {
	d, err := s.Build(ctx)
	if err != nil {
		return err
	}
	return exporter.EncodeDistributions(w, d.Charts)
}

func (s *DashboardService) aggregate(ctx context.Context, table *survey.Table, c config.ChartConfig) render.ChartData {
	_, span := s.tracer.Start(ctx, "pipeline.aggregate",
		trace.WithAttributes(
			attribute.String("chart", c.ID),
			attribute.String("column", c.Column),
		))
	defer span.End()

	data := render.ChartData{Spec: render.SpecFromConfig(c, s.dashboard.DecimalSeparator)}

	dist, err := survey.Aggregate(table, c.Column, c.Labels)
	if err != nil {
		span.RecordError(err)
		s.metrics.RecordRenderError(ctx, c.ID, err)
		s.logger.WarnContext(ctx, "chart skipped",
			slog.String("chart", c.ID),
			slog.String("error", err.Error()))
		data.Err = err
		return data
	}

	span.SetAttributes(attribute.Int("total", dist.Total))
	data.Distribution = dist
	return data
}

func (s *DashboardService) chartConfig(id string) (config.ChartConfig, bool) {
	for _, c := range s.dashboard.Charts {
		if c.ID == id {
			return c, true
		}
	}
	return config.ChartConfig{}, false
}
