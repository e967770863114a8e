package http

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "surveydash/internal/errors"
	chartrender "surveydash/internal/render"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var dashboardTemplate = template.Must(template.ParseFS(templateFS, "templates/dashboard.html"))

// pageChart is one chart card of the HTML page
type pageChart struct {
	ID         string
	Title      string
	XAxisLabel string
	SVG        template.HTML
	Empty      bool
	Error      string
}

type pageTable struct {
	Columns []string
	Rows    [][]string
}

type pageData struct {
	Title       string
	Subtitle    string
	Charts      []pageChart
	Table       *pageTable
	Error       *apierrors.ProblemDetails
	GeneratedAt time.Time
}

// PageHandler serves the HTML dashboard and the chart images
type PageHandler struct {
	service      DashboardServiceInterface
	title        string
	subtitle     string
	renderers    map[string]chartrender.ChartRenderer
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewPageHandler creates a new page handler. title and subtitle are shown
// when the pipeline fails before a dashboard exists.
func NewPageHandler(service DashboardServiceInterface, title, subtitle string, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *PageHandler {
	return &PageHandler{
		service:  service,
		title:    title,
		subtitle: subtitle,
		renderers: map[string]chartrender.ChartRenderer{
			"svg": chartrender.NewSVGRenderer(),
			"png": chartrender.NewPNGRenderer(),
		},
		logger:       logger.With(slog.String("component", "page_handler")),
		errorHandler: errorHandler,
	}
}

// ServePage handles GET /
func (h *PageHandler) ServePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := pageData{
		Title:       h.title,
		Subtitle:    h.subtitle,
		GeneratedAt: time.Now(),
	}
	status := http.StatusOK

	d, err := h.service.Build(ctx)
	if err != nil {
		data.Error = h.errorHandler.ErrorToProblem(err, r)
		status = data.Error.Status
		h.logger.WarnContext(ctx, "dashboard unavailable",
			slog.String("error", err.Error()),
			slog.Int("status", status))
	} else {
		data.Title = d.Title
		data.Subtitle = d.Subtitle
		data.GeneratedAt = d.GeneratedAt
		data.Charts = make([]pageChart, len(d.Charts))
		for i, ch := range d.Charts {
			data.Charts[i] = h.pageChart(r, ch)
		}
		if d.ShowTable {
			data.Table = &pageTable{Columns: d.Table.Columns(), Rows: d.Table.Records()}
		}
	}

	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, data); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *PageHandler) pageChart(r *http.Request, ch chartrender.ChartData) pageChart {
	pc := pageChart{
		ID:         ch.Spec.ID,
		Title:      ch.Spec.Title,
		XAxisLabel: ch.Spec.XAxisLabel,
	}
	if ch.Err != nil {
		pc.Error = h.errorHandler.ErrorToProblem(ch.Err, r).Detail
		return pc
	}

	var svg bytes.Buffer
	err := h.service.Draw(r.Context(), ch, h.renderers["svg"], &svg)
	switch {
	case errors.Is(err, chartrender.ErrNoData):
		pc.Empty = true
	case err != nil:
		pc.Error = err.Error()
	default:
		// Only configured titles and labels reach the SVG, never raw answers.
		pc.SVG = template.HTML(svg.String())
	}
	return pc
}

// ServeChartImage handles GET /charts/{chartFile}, where chartFile is
// <chart id>.svg or <chart id>.png
func (h *PageHandler) ServeChartImage(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "chartFile")
	dot := strings.LastIndexByte(file, '.')
	if dot <= 0 {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("chartFile", "expected <chart>.svg or <chart>.png"))
		return
	}
	id, format := file[:dot], strings.ToLower(file[dot+1:])

	renderer, ok := h.renderers[format]
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", "unsupported image format "+format))
		return
	}

	var buf bytes.Buffer
	if err := h.service.RenderChart(r.Context(), id, renderer, &buf); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", renderer.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
