package render

import (
	"errors"
	"io"

	"surveydash/internal/config"
	"surveydash/internal/survey"
)

// ErrNoData is returned when a distribution has nothing to draw.
var ErrNoData = errors.New("no responses match the chart labels")

const (
	defaultWidth  = 800
	defaultHeight = 600
)

// ChartSpec carries the cosmetic settings of one chart.
type ChartSpec struct {
	ID               string
	Title            string
	Kind             string
	XAxisLabel       string
	Colors           []string
	StripFromTicks   string
	Decimals         int
	DecimalSeparator string
	Width            int
	Height           int
}

// SpecFromConfig combines a chart's configuration with the dashboard-wide
// decimal separator.
func SpecFromConfig(c config.ChartConfig, decimalSeparator string) ChartSpec {
	spec := ChartSpec{
		ID:               c.ID,
		Title:            c.Title,
		Kind:             c.Kind,
		XAxisLabel:       c.XAxisLabel,
		Colors:           c.Colors,
		StripFromTicks:   c.StripFromTicks,
		Decimals:         c.Decimals,
		DecimalSeparator: decimalSeparator,
		Width:            c.Width,
		Height:           c.Height,
	}
	if spec.Width == 0 {
		spec.Width = defaultWidth
	}
	if spec.Height == 0 {
		spec.Height = defaultHeight
	}
	return spec
}

// Percent formats p the way the chart displays it, e.g. "66,7%".
func (s ChartSpec) Percent(p float64) string {
	return FormatPercent(p, s.Decimals, s.DecimalSeparator) + "%"
}

// ChartRenderer draws one distribution.
type ChartRenderer interface {
	Render(w io.Writer, spec ChartSpec, dist survey.Distribution) error
	ContentType() string
}

// ChartData is one configured chart together with its aggregation outcome.
// Err is set when the chart could not be aggregated; the other charts of a
// dashboard are unaffected.
type ChartData struct {
	Spec         ChartSpec
	Distribution survey.Distribution
	Err          error
}
