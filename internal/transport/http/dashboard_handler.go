package http

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "surveydash/internal/errors"
	chartrender "surveydash/internal/render"
	"surveydash/internal/survey"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv; charset=utf-8"
)

// ChartResponse is one chart of the JSON API. Error is set instead of the
// categories when the chart could not be aggregated.
type ChartResponse struct {
	ID         string                    `json:"id"`
	Title      string                    `json:"title"`
	Kind       string                    `json:"kind"`
	XAxisLabel string                    `json:"x_axis_label,omitempty"`
	Column     string                    `json:"column,omitempty"`
	Total      int                       `json:"total"`
	Categories []survey.CategoryCount    `json:"categories"`
	Error      *apierrors.ProblemDetails `json:"error,omitempty"`
}

// DashboardResponse is the body of GET /api/dashboard
type DashboardResponse struct {
	Title       string          `json:"title"`
	Subtitle    string          `json:"subtitle,omitempty"`
	Records     int             `json:"records"`
	GeneratedAt time.Time       `json:"generated_at"`
	Charts      []ChartResponse `json:"charts"`
}

// TableResponse is the body of GET /api/table
type TableResponse struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Count   int        `json:"count"`
}

// DashboardHandler serves the JSON API and the exports
type DashboardHandler struct {
	service      DashboardServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler with RFC 7807 error handling
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Register adds the dashboard routes to r, relative to the API prefix
func (h *DashboardHandler) Register(r chi.Router) {
	r.Get("/dashboard", h.GetDashboard)
	r.Get("/charts", h.ListCharts)
	r.Get("/charts/{chartID}", h.GetChart)
	r.Get("/table", h.GetTable)
	r.Get("/export.xlsx", h.ExportWorkbook)
	r.Get("/export.csv", h.ExportCSV)
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Build(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp := DashboardResponse{
		Title:       d.Title,
		Subtitle:    d.Subtitle,
		Records:     d.Table.Len(),
		GeneratedAt: d.GeneratedAt,
		Charts:      make([]ChartResponse, len(d.Charts)),
	}
	for i, ch := range d.Charts {
		resp.Charts[i] = h.chartResponse(r, ch)
	}

	render.JSON(w, r, resp)
}

// ListCharts handles GET /api/charts. The sheet is not read.
func (h *DashboardHandler) ListCharts(w http.ResponseWriter, r *http.Request) {
	specs := h.service.Specs()
	charts := make([]ChartResponse, len(specs))
	for i, spec := range specs {
		charts[i] = ChartResponse{
			ID:         spec.ID,
			Title:      spec.Title,
			Kind:       spec.Kind,
			XAxisLabel: spec.XAxisLabel,
			Categories: []survey.CategoryCount{},
		}
	}

	render.JSON(w, r, map[string]interface{}{
		"charts": charts,
		"count":  len(charts),
	})
}

// GetChart handles GET /api/charts/{chartID}
func (h *DashboardHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.Chart(r.Context(), chi.URLParam(r, "chartID"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, h.chartResponse(r, data))
}

// GetTable handles GET /api/table
func (h *DashboardHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	table, err := h.service.Snapshot(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, TableResponse{
		Columns: table.Columns(),
		Rows:    table.Records(),
		Count:   table.Len(),
	})
}

// ExportWorkbook handles GET /api/export.xlsx
func (h *DashboardHandler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, contentTypeXLSX, "xlsx", func(out io.Writer) error {
		return h.service.ExportWorkbook(r.Context(), out)
	})
}

// ExportCSV handles GET /api/export.csv
func (h *DashboardHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, contentTypeCSV, "csv", func(out io.Writer) error {
		return h.service.ExportCSV(r.Context(), out)
	})
}

// download buffers the whole file so a failing export still gets a problem
// response instead of a truncated attachment.
func (h *DashboardHandler) download(w http.ResponseWriter, r *http.Request, contentType, ext string, write func(io.Writer) error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	filename := fmt.Sprintf("surveydash-%s.%s", time.Now().Format("2006-01-02"), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export interrupted",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
	}
}

func (h *DashboardHandler) chartResponse(r *http.Request, ch chartrender.ChartData) ChartResponse {
	resp := ChartResponse{
		ID:         ch.Spec.ID,
		Title:      ch.Spec.Title,
		Kind:       ch.Spec.Kind,
		XAxisLabel: ch.Spec.XAxisLabel,
		Column:     ch.Distribution.Column,
		Total:      ch.Distribution.Total,
		Categories: ch.Distribution.Categories,
	}
	if resp.Categories == nil {
		resp.Categories = []survey.CategoryCount{}
	}
	if ch.Err != nil {
		resp.Error = h.errorHandler.ErrorToProblem(ch.Err, r)
	}
	return resp
}
