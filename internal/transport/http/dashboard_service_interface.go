package http

import (
	"context"
	"io"

	"surveydash/internal/render"
	"surveydash/internal/services"
	"surveydash/internal/survey"
)

// DashboardServiceInterface defines the dashboard operations used by the handlers
type DashboardServiceInterface interface {
	Specs() []render.ChartSpec
	Snapshot(ctx context.Context) (*survey.Table, error)
	Build(ctx context.Context) (*services.Dashboard, error)
	Chart(ctx context.Context, id string) (render.ChartData, error)
	RenderChart(ctx context.Context, id string, renderer render.ChartRenderer, w io.Writer) error
	Draw(ctx context.Context, data render.ChartData, renderer render.ChartRenderer, w io.Writer) error
	ExportWorkbook(ctx context.Context, w io.Writer) error
	ExportCSV(ctx context.Context, w io.Writer) error
}

var _ DashboardServiceInterface = (*services.DashboardService)(nil)
