package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"surveydash/internal/config"
	"surveydash/internal/render"
	"surveydash/internal/survey"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	paths *config.Paths
}

// NewCSVWriter creates a new CSV writer instance; relative file names are
// placed in the export directory of paths.
func NewCSVWriter(paths *config.Paths) *CSVWriter {
	return &CSVWriter{paths: paths}
}

// WriteTable writes the cleaned table to filePath
func (w *CSVWriter) WriteTable(filePath string, table *survey.Table) error {
	return w.writeFile(filePath, func(out io.Writer) error {
		return EncodeTable(out, table)
	})
}

// WriteDistributions writes every successful chart to filePath
func (w *CSVWriter) WriteDistributions(filePath string, charts []render.ChartData) error {
	return w.writeFile(filePath, func(out io.Writer) error {
		return EncodeDistributions(out, charts)
	})
}

func (w *CSVWriter) writeFile(filePath string, encode func(io.Writer) error) error {
	fullPath := w.resolvePath(filePath)

	slog.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath))

	return WriteFile(fullPath, encode)
}

// resolvePath places relative paths in the export directory
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.paths == nil {
		return filePath
	}
	return w.paths.GetExportPath(filePath)
}

// WriteFile creates path, including its directory, and fills it with write.
// The file is removed again when write fails.
func WriteFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := write(file); err != nil {
		file.Close()
		os.Remove(path)
		return err
	}
	return file.Close()
}

// EncodeTable writes the columns and rows of table as CSV, BOM first.
func EncodeTable(w io.Writer, table *survey.Table) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(table.Columns()); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i := 0; i < table.Len(); i++ {
		if err := cw.Write(table.Row(i)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// EncodeDistributions writes one line per chart category. Charts that failed
// to aggregate are skipped.
func EncodeDistributions(w io.Writer, charts []render.ChartData) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"chart", "column", "label", "count", "percentage"}); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for _, ch := range charts {
		if ch.Err != nil {
			continue
		}
		for _, c := range ch.Distribution.Categories {
			record := []string{
				ch.Spec.ID,
				ch.Distribution.Column,
				c.Label,
				strconv.Itoa(c.Count),
				formatFloat(c.Percentage),
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("failed to write record for %s: %w", ch.Spec.ID, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatFloat formats a percentage for CSV output with exactly 2 decimal places
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
