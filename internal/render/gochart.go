package render

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"surveydash/internal/config"
	"surveydash/internal/survey"
)

// GoChartRenderer draws bar and pie charts with go-chart.
type GoChartRenderer struct {
	provider    chart.RendererProvider
	contentType string
}

// NewSVGRenderer returns a renderer producing SVG documents.
func NewSVGRenderer() *GoChartRenderer {
	return &GoChartRenderer{provider: chart.SVG, contentType: "image/svg+xml"}
}

// NewPNGRenderer returns a renderer producing PNG images.
func NewPNGRenderer() *GoChartRenderer {
	return &GoChartRenderer{provider: chart.PNG, contentType: "image/png"}
}

func (r *GoChartRenderer) ContentType() string { return r.contentType }

// Render draws dist according to spec. A distribution with a zero total
// returns ErrNoData and writes nothing.
func (r *GoChartRenderer) Render(w io.Writer, spec ChartSpec, dist survey.Distribution) error {
	if dist.Empty() {
		return ErrNoData
	}

	switch spec.Kind {
	case config.ChartBar:
		return barChart(spec, dist).Render(r.provider, w)
	case config.ChartPie:
		return pieChart(spec, dist).Render(r.provider, w)
	default:
		return fmt.Errorf("unsupported chart kind %q", spec.Kind)
	}
}

func barChart(spec ChartSpec, dist survey.Distribution) chart.BarChart {
	fill := parseColor(firstColor(spec.Colors, "#000000"))

	bars := make([]chart.Value, len(dist.Categories))
	for i, c := range dist.Categories {
		bars[i] = chart.Value{
			Value: float64(c.Count),
			Label: fmt.Sprintf("%s (%s)", TickLabel(c.Label, spec.StripFromTicks), spec.Percent(c.Percentage)),
			Style: chart.Style{
				FillColor:   fill,
				StrokeColor: fill,
				StrokeWidth: 1,
			},
		}
	}

	// Headroom above the tallest bar.
	top := float64(dist.MaxCount() + 2)

	bc := chart.BarChart{
		Title:  spec.Title,
		Width:  spec.Width,
		Height: spec.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: captionPadding(spec)},
		},
		BarWidth:   barWidth(spec.Width, len(bars)),
		BarSpacing: 20,
		XAxis:      chart.Style{FontSize: 9},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: top},
			Ticks: countTicks(top),
		},
		Bars: bars,
	}
	bc.Elements = []chart.Renderable{barCounts(dist, top)}
	if spec.XAxisLabel != "" {
		bc.Elements = append(bc.Elements, caption(spec.XAxisLabel, spec.Width, spec.Height))
	}
	return bc
}

func pieChart(spec ChartSpec, dist survey.Distribution) chart.PieChart {
	values := make([]chart.Value, 0, len(dist.Categories))
	for i, c := range dist.Categories {
		// Zero slices have no angle and would only stack their labels.
		if c.Count == 0 {
			continue
		}
		style := chart.Style{StrokeColor: drawing.ColorWhite, StrokeWidth: 2}
		if len(spec.Colors) > 0 {
			style.FillColor = parseColor(spec.Colors[i%len(spec.Colors)])
		}
		values = append(values, chart.Value{
			Value: float64(c.Count),
			Label: fmt.Sprintf("%s (%s)", c.Label, spec.Percent(c.Percentage)),
			Style: style,
		})
	}

	pc := chart.PieChart{
		Title:  spec.Title,
		Width:  spec.Width,
		Height: spec.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: captionPadding(spec)},
		},
		Values: values,
	}
	if spec.XAxisLabel != "" {
		pc.Elements = []chart.Renderable{caption(spec.XAxisLabel, spec.Width, spec.Height)}
	}
	return pc
}

// captionPadding leaves room under the plot for the axis caption.
func captionPadding(spec ChartSpec) int {
	if spec.XAxisLabel == "" {
		return 10
	}
	return 36
}

// caption draws text centred along the bottom edge of the image.
func caption(text string, width, height int) chart.Renderable {
	return func(r chart.Renderer, _ chart.Box, defaults chart.Style) {
		style := chart.Style{FontSize: 11, FontColor: drawing.ColorBlack}.InheritFrom(defaults)
		style.WriteTextOptionsToRenderer(r)
		tb := r.MeasureText(text)
		chart.Draw.Text(r, text, (width-tb.Width())/2, height-12, style)
	}
}

// barCounts writes each bar's count just above it. Bars are laid out in equal
// slots across the canvas.
func barCounts(dist survey.Distribution, top float64) chart.Renderable {
	return func(r chart.Renderer, canvasBox chart.Box, defaults chart.Style) {
		n := len(dist.Categories)
		if n == 0 || top <= 0 {
			return
		}
		style := chart.Style{FontSize: 10, FontColor: drawing.ColorBlack}.InheritFrom(defaults)
		slot := float64(canvasBox.Width()) / float64(n)
		for i, c := range dist.Categories {
			label := strconv.Itoa(c.Count)
			style.WriteTextOptionsToRenderer(r)
			tb := r.MeasureText(label)
			x := canvasBox.Left + int(slot*float64(i)+slot/2) - tb.Width()/2
			y := canvasBox.Bottom - int(float64(c.Count)/top*float64(canvasBox.Height())) - 4
			chart.Draw.Text(r, label, x, y, style)
		}
	}
}

// barWidth spreads the bars over roughly half of the plot width.
func barWidth(width, n int) int {
	if n == 0 {
		return 50
	}
	w := (width - 120) / (2 * n)
	if w < 20 {
		return 20
	}
	if w > 120 {
		return 120
	}
	return w
}

// countTicks returns whole-number ticks from 0 to top with at most about ten steps.
func countTicks(top float64) []chart.Tick {
	step := math.Max(1, math.Ceil(top/10))
	ticks := make([]chart.Tick, 0, 12)
	for v := 0.0; v <= top; v += step {
		ticks = append(ticks, chart.Tick{Value: v, Label: strconv.Itoa(int(v))})
	}
	return ticks
}

func firstColor(colors []string, fallback string) string {
	if len(colors) == 0 {
		return fallback
	}
	return colors[0]
}

// parseColor accepts #rgb and #rrggbb.
func parseColor(hex string) drawing.Color {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	return drawing.ColorFromHex(hex)
}
