package exporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"surveydash/internal/config"
	"surveydash/internal/render"
	"surveydash/internal/survey"
)

// DataSheet is the name of the sheet holding the cleaned table.
const DataSheet = config.WorkbookDataSheet

// WorkbookExporter builds the dashboard workbook.
type WorkbookExporter struct{}

// NewWorkbookExporter creates a new workbook exporter
func NewWorkbookExporter() *WorkbookExporter {
	return &WorkbookExporter{}
}

// Export writes an .xlsx workbook with the cleaned table and one sheet per
// chart to w.
func (e *WorkbookExporter) Export(w io.Writer, table *survey.Table, charts []render.ChartData) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", DataSheet); err != nil {
		return fmt.Errorf("failed to name data sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E0E0E0"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	pctFormat := "0.0%"
	pctStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &pctFormat})
	if err != nil {
		return fmt.Errorf("failed to create percent style: %w", err)
	}

	if err := writeTableSheet(f, table, headerStyle); err != nil {
		return err
	}

	for _, ch := range charts {
		if err := writeChartSheet(f, ch, headerStyle, pctStyle); err != nil {
			return fmt.Errorf("chart %s: %w", ch.Spec.ID, err)
		}
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeTableSheet(f *excelize.File, table *survey.Table, headerStyle int) error {
	columns := table.Columns()
	if len(columns) == 0 {
		return nil
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(DataSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write table header: %w", err)
	}

	lastHeader, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := f.SetCellStyle(DataSheet, "A1", lastHeader, headerStyle); err != nil {
		return err
	}

	for i := 0; i < table.Len(); i++ {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := table.Row(i)
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(DataSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write table row %d: %w", i+1, err)
		}
	}
	return nil
}

func writeChartSheet(f *excelize.File, ch render.ChartData, headerStyle, pctStyle int) error {
	sheet := ch.Spec.ID
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	if err := f.SetCellValue(sheet, "A1", ch.Spec.Title); err != nil {
		return err
	}

	if ch.Err != nil {
		return f.SetCellValue(sheet, "A2", "Erro: "+ch.Err.Error())
	}

	header := []interface{}{"Categoria", "Quantidade", "Percentual"}
	if err := f.SetSheetRow(sheet, "A2", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A2", "C2", headerStyle); err != nil {
		return err
	}

	cats := ch.Distribution.Categories
	for i, c := range cats {
		cell, _ := excelize.CoordinatesToCellName(1, i+3)
		row := []interface{}{c.Label, c.Count, c.Percentage / 100}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	totalRow := len(cats) + 3
	totalCell, _ := excelize.CoordinatesToCellName(1, totalRow)
	total := []interface{}{"Total", ch.Distribution.Total}
	if err := f.SetSheetRow(sheet, totalCell, &total); err != nil {
		return err
	}

	if len(cats) == 0 {
		return nil
	}

	lastPct, _ := excelize.CoordinatesToCellName(3, len(cats)+2)
	if err := f.SetCellStyle(sheet, "C3", lastPct, pctStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "A", 24); err != nil {
		return err
	}

	return f.AddChart(sheet, "E2", nativeChart(sheet, ch.Spec, len(cats)))
}

// nativeChart describes an Excel chart over the count column of a chart sheet.
func nativeChart(sheet string, spec render.ChartSpec, n int) *excelize.Chart {
	ref := "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	series := excelize.ChartSeries{
		Name:       ref + "!$B$2",
		Categories: fmt.Sprintf("%s!$A$3:$A$%d", ref, n+2),
		Values:     fmt.Sprintf("%s!$B$3:$B$%d", ref, n+2),
	}

	chartType := excelize.Col
	if spec.Kind == config.ChartPie {
		chartType = excelize.Pie
	} else if len(spec.Colors) > 0 {
		series.Fill = excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{strings.TrimPrefix(spec.Colors[0], "#")},
		}
	}

	return &excelize.Chart{
		Type:   chartType,
		Series: []excelize.ChartSeries{series},
		Title:  []excelize.RichTextRun{{Text: spec.Title}},
		Legend: excelize.ChartLegend{Position: "bottom"},
		Dimension: excelize.ChartDimension{
			Width:  uint(spec.Width),
			Height: uint(spec.Height),
		},
	}
}
