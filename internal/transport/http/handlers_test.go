package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"surveydash/internal/config"
	apierrors "surveydash/internal/errors"
	chartrender "surveydash/internal/render"
	"surveydash/internal/services"
	"surveydash/internal/sheets"
	"surveydash/internal/survey"
)

type mockDashboardService struct {
	mock.Mock
}

func (m *mockDashboardService) Specs() []chartrender.ChartSpec {
	args := m.Called()
	return args.Get(0).([]chartrender.ChartSpec)
}

func (m *mockDashboardService) Snapshot(ctx context.Context) (*survey.Table, error) {
	args := m.Called(ctx)
	t, _ := args.Get(0).(*survey.Table)
	return t, args.Error(1)
}

func (m *mockDashboardService) Build(ctx context.Context) (*services.Dashboard, error) {
	args := m.Called(ctx)
	d, _ := args.Get(0).(*services.Dashboard)
	return d, args.Error(1)
}

func (m *mockDashboardService) Chart(ctx context.Context, id string) (chartrender.ChartData, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(chartrender.ChartData), args.Error(1)
}

func (m *mockDashboardService) RenderChart(ctx context.Context, id string, renderer chartrender.ChartRenderer, w io.Writer) error {
	args := m.Called(ctx, id, renderer, w)
	return args.Error(0)
}

func (m *mockDashboardService) Draw(ctx context.Context, data chartrender.ChartData, renderer chartrender.ChartRenderer, w io.Writer) error {
	args := m.Called(ctx, data, renderer, w)
	return args.Error(0)
}

func (m *mockDashboardService) ExportWorkbook(ctx context.Context, w io.Writer) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

func (m *mockDashboardService) ExportCSV(ctx context.Context, w io.Writer) error {
	args := m.Called(ctx, w)
	if args.Error(0) == nil {
		_, _ = io.WriteString(w, "chart,column,label,count,percentage\n")
	}
	return args.Error(0)
}

// staticSource serves a fixed sheet
type staticSource struct {
	raw survey.RawTable
	err error
}

func (s staticSource) Fetch(context.Context) (survey.RawTable, error) { return s.raw, s.err }
func (s staticSource) Describe() string                               { return "static sheet" }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleSheet() survey.RawTable {
	return survey.RawTable{
		{"Nome", "", config.SalaryColumn, config.GraduationColumn},
		{"Ana", "", "R$2.000 - R$3.000", "2019"},
		{"Bruno", "", "R$2.000 - R$3.000", "2020"},
		{"Carla <b>", "", "R$4.000 - R$5.000", "2019"},
	}
}

// newRouter wires the handlers the way the application does, minus middleware.
func newRouter(svc DashboardServiceInterface, health *services.HealthService) chi.Router {
	logger := quietLogger()
	errorHandler := apierrors.NewErrorHandler(logger, false)
	dashboard := NewDashboardHandler(svc, logger, errorHandler)
	page := NewPageHandler(svc, "Agrônomos 2024", "", logger, errorHandler)

	r := chi.NewRouter()
	r.Get("/", page.ServePage)
	r.Get("/charts/{chartFile}", page.ServeChartImage)
	r.Route("/api", func(r chi.Router) {
		if health != nil {
			hh := NewHealthHandler(health, logger)
			r.Get("/health", hh.HealthCheck)
			r.Get("/health/ready", hh.ReadinessCheck)
			r.Get("/health/live", hh.LivenessCheck)
			r.Get("/version", hh.Version)
		}
		dashboard.Register(r)
	})
	return r
}

func realService(src sheets.RowSource) *services.DashboardService {
	return services.NewDashboardService(src, config.Default().Dashboard, nil, nil, quietLogger())
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestDashboardHandler_GetDashboard(t *testing.T) {
	dash := config.Default().Dashboard
	dash.Charts[1].Column = "Ano"
	svc := services.NewDashboardService(staticSource{raw: sampleSheet()}, dash, nil, nil, quietLogger())

	rec := get(t, newRouter(svc, nil), "/api/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)

	var body DashboardResponse
	decode(t, rec, &body)
	assert.Equal(t, "Agrônomos 2024", body.Title)
	assert.Equal(t, 3, body.Records)
	require.Len(t, body.Charts, 2)

	salary := body.Charts[0]
	assert.Nil(t, salary.Error)
	assert.Equal(t, 3, salary.Total)
	require.Len(t, salary.Categories, 4)
	assert.Equal(t, "R$2.000 - R$3.000", salary.Categories[1].Label)
	assert.InDelta(t, 66.67, salary.Categories[1].Percentage, 0.01)

	years := body.Charts[1]
	require.NotNil(t, years.Error)
	assert.Equal(t, apierrors.TypeColumnNotFound, years.Error.Type)
	assert.Empty(t, years.Categories)
}

func TestDashboardHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		source     staticSource
		wantStatus int
		wantType   string
	}{
		{
			name:       "source down",
			path:       "/api/dashboard",
			source:     staticSource{err: &sheets.FetchError{Source: "static sheet", Err: errors.New("dial tcp: i/o timeout")}},
			wantStatus: http.StatusBadGateway,
			wantType:   apierrors.TypeSourceUnavailable,
		},
		{
			name:       "duplicate header",
			path:       "/api/table",
			source:     staticSource{raw: survey.RawTable{{"X", "X"}}},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   apierrors.TypeSchema,
		},
		{
			name:       "unknown chart",
			path:       "/api/charts/idade",
			source:     staticSource{raw: sampleSheet()},
			wantStatus: http.StatusNotFound,
			wantType:   apierrors.TypeNotFound,
		},
		{
			name:       "unknown chart image",
			path:       "/charts/idade.svg",
			source:     staticSource{raw: sampleSheet()},
			wantStatus: http.StatusNotFound,
			wantType:   apierrors.TypeNotFound,
		},
		{
			name:       "bad image format",
			path:       "/charts/salario.gif",
			source:     staticSource{raw: sampleSheet()},
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:       "export with broken sheet",
			path:       "/api/export.xlsx",
			source:     staticSource{raw: survey.RawTable{{"A", "B"}, {"1"}}},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   apierrors.TypeRowShape,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, newRouter(realService(tt.source), nil), tt.path)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var problem map[string]interface{}
			decode(t, rec, &problem)
			assert.Equal(t, tt.wantType, problem["type"])
			assert.Equal(t, tt.path, problem["instance"])
		})
	}
}

func TestDashboardHandler_GetChart(t *testing.T) {
	svc := new(mockDashboardService)
	svc.On("Chart", mock.Anything, "salario").Return(chartrender.ChartData{
		Spec: chartrender.ChartSpec{ID: "salario", Title: "Salários", Kind: config.ChartBar},
		Distribution: survey.Distribution{
			Column: config.SalaryColumn,
			Total:  2,
			Categories: []survey.CategoryCount{
				{Label: "A", Count: 2, Percentage: 100},
			},
		},
	}, nil)

	rec := get(t, newRouter(svc, nil), "/api/charts/salario")
	require.Equal(t, http.StatusOK, rec.Code)

	var body ChartResponse
	decode(t, rec, &body)
	assert.Equal(t, "salario", body.ID)
	assert.Equal(t, config.SalaryColumn, body.Column)
	assert.Equal(t, 2, body.Total)
	svc.AssertExpectations(t)
}

func TestDashboardHandler_ListCharts(t *testing.T) {
	svc := new(mockDashboardService)
	svc.On("Specs").Return(realService(staticSource{}).Specs())

	rec := get(t, newRouter(svc, nil), "/api/charts")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Charts []ChartResponse `json:"charts"`
		Count  int             `json:"count"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "formatura", body.Charts[1].ID)
	svc.AssertNotCalled(t, "Build", mock.Anything)
}

func TestDashboardHandler_GetTable(t *testing.T) {
	rec := get(t, newRouter(realService(staticSource{raw: sampleSheet()}), nil), "/api/table")
	require.Equal(t, http.StatusOK, rec.Code)

	var body TableResponse
	decode(t, rec, &body)
	assert.Equal(t, []string{"Nome", config.SalaryColumn, config.GraduationColumn}, body.Columns)
	assert.Equal(t, 3, body.Count)
	assert.Equal(t, []string{"Ana", "R$2.000 - R$3.000", "2019"}, body.Rows[0])
}

func TestDashboardHandler_GetTable_SkipsAggregation(t *testing.T) {
	table, err := survey.Clean(survey.RawTable{{"A", "", "B"}, {"1", "", "2"}})
	require.NoError(t, err)

	svc := new(mockDashboardService)
	svc.On("Snapshot", mock.Anything).Return(table, nil)

	rec := get(t, newRouter(svc, nil), "/api/table")
	require.Equal(t, http.StatusOK, rec.Code)

	var body TableResponse
	decode(t, rec, &body)
	assert.Equal(t, []string{"A", "B"}, body.Columns)
	assert.Equal(t, 1, body.Count)
	svc.AssertExpectations(t)
	svc.AssertNotCalled(t, "Build", mock.Anything)
}

func TestDashboardHandler_Exports(t *testing.T) {
	router := newRouter(realService(staticSource{raw: sampleSheet()}), nil)

	rec := get(t, router, "/api/export.xlsx")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypeXLSX, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	// xlsx files are zip archives.
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))

	rec = get(t, router, "/api/export.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypeCSV, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "salario,"+config.SalaryColumn+",R$2.000 - R$3.000,2,66.67")
}

func TestDashboardHandler_ExportFailureIsNotAttachment(t *testing.T) {
	svc := new(mockDashboardService)
	svc.On("ExportCSV", mock.Anything, mock.Anything).Return(fmt.Errorf("disk full"))

	rec := get(t, newRouter(svc, nil), "/api/export.csv")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
}

func TestPageHandler_ServePage(t *testing.T) {
	rec := get(t, newRouter(realService(staticSource{raw: sampleSheet()}), nil), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	page := rec.Body.String()
	assert.Contains(t, page, "<title>Agrônomos 2024</title>")
	assert.Contains(t, page, "Estatística do Mercado de Trabalho Agrônomico")
	assert.Contains(t, page, `id="chart-salario"`)
	assert.Contains(t, page, "<svg")
	assert.Contains(t, page, "<figcaption>Faixa Salarial (R$)</figcaption>")
	// Answers shown in the table are escaped.
	assert.Contains(t, page, "Carla &lt;b&gt;")
	assert.NotContains(t, page, "Carla <b>")
}

func TestPageHandler_EmptyAndFailedCharts(t *testing.T) {
	dash := config.Default().Dashboard
	dash.Charts[0].Labels = []string{"nenhuma"}
	dash.Charts[1].Column = "Ano"
	svc := services.NewDashboardService(staticSource{raw: sampleSheet()}, dash, nil, nil, quietLogger())

	rec := get(t, newRouter(svc, nil), "/")
	require.Equal(t, http.StatusOK, rec.Code)

	page := rec.Body.String()
	assert.Contains(t, page, "Nenhuma resposta corresponde")
	assert.Contains(t, page, `column &#34;Ano&#34; not found`)
	assert.NotContains(t, page, "<svg")
}

func TestPageHandler_SourceDown(t *testing.T) {
	src := staticSource{err: &sheets.FetchError{Source: "static sheet", Err: errors.New("403 forbidden")}}

	rec := get(t, newRouter(realService(src), nil), "/")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	page := rec.Body.String()
	assert.Contains(t, page, "Survey Source Unavailable")
	assert.Contains(t, page, "403 forbidden")
	assert.Contains(t, page, "<title>Agrônomos 2024</title>")
}

func TestPageHandler_ServeChartImage(t *testing.T) {
	router := newRouter(realService(staticSource{raw: sampleSheet()}), nil)

	rec := get(t, router, "/charts/salario.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "<svg"))

	rec = get(t, router, "/charts/formatura.PNG")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))
}

func TestPageHandler_ServeChartImage_NoData(t *testing.T) {
	sheet := survey.RawTable{{"Nome", config.SalaryColumn, config.GraduationColumn}}

	rec := get(t, newRouter(realService(staticSource{raw: sheet}), nil), "/charts/salario.svg")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var problem map[string]interface{}
	decode(t, rec, &problem)
	assert.Equal(t, apierrors.TypeNoData, problem["type"])
}

func TestHealthHandler(t *testing.T) {
	healthy := services.NewHealthService("1.0.0", "", staticSource{raw: sampleSheet()}, quietLogger())
	router := newRouter(new(mockDashboardService), healthy)

	for _, path := range []string{"/api/health", "/api/health/live", "/api/health/ready", "/api/version"} {
		rec := get(t, router, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	var version map[string]interface{}
	decode(t, get(t, router, "/api/version"), &version)
	assert.Equal(t, "1.0.0", version["version"])
	assert.Equal(t, "static sheet", version["source"])

	down := services.NewHealthService("1.0.0", "", staticSource{err: errors.New("unreachable")}, quietLogger())
	rec := get(t, newRouter(new(mockDashboardService), down), "/api/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var status services.HealthStatus
	decode(t, rec, &status)
	assert.Equal(t, "not_ready", status.Status)
	assert.WithinDuration(t, time.Now(), status.Timestamp, time.Minute)
}
