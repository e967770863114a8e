package sheets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"surveydash/internal/survey"
)

// writeSurveyWorkbook writes a workbook whose data row leaves its last cell
// empty, the way a partially answered form is exported.
func writeSurveyWorkbook(t *testing.T, sheet string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}

	cells := map[string]string{
		"A1": "Nome",
		"C1": "Em que ano você se formou",
		"D1": "Qual salário você ganha hoje",
		"A2": "Ana",
		"C2": "2019",
		"D2": "R$1.000 - R$2.000",
		"A3": "Caio",
		"C3": "2020",
	}
	for cell, v := range cells {
		require.NoError(t, f.SetCellValue(sheet, cell, v))
	}

	path := filepath.Join(t.TempDir(), "respostas.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestExcelSource_Fetch(t *testing.T) {
	tests := []struct {
		name  string
		sheet string
		tab   string
	}{
		{"first sheet by default", "Sheet1", ""},
		{"named tab", "plan01", "plan01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSurveyWorkbook(t, tt.sheet)
			src := NewExcelSource(path, tt.tab)

			raw, err := src.Fetch(context.Background())
			require.NoError(t, err)
			require.Len(t, raw, 3)
			assert.Equal(t, []string{"Nome", "", "Em que ano você se formou", "Qual salário você ganha hoje"}, raw[0])
			assert.Equal(t, []string{"Caio", "", "2020", ""}, raw[2])

			table, err := survey.Clean(raw)
			require.NoError(t, err)
			years, _ := table.Column("Em que ano você se formou")
			assert.Equal(t, []string{"2019", "2020"}, years)
		})
	}
}

func TestExcelSource_Errors(t *testing.T) {
	path := writeSurveyWorkbook(t, "Sheet1")

	tests := []struct {
		name string
		src  *ExcelSource
	}{
		{"missing file", NewExcelSource(filepath.Join(t.TempDir(), "nope.xlsx"), "")},
		{"missing tab", NewExcelSource(path, "plan99")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.src.Fetch(context.Background())
			var fetchErr *FetchError
			require.True(t, errors.As(err, &fetchErr), "want *FetchError, got %v", err)
			assert.Equal(t, tt.src.Describe(), fetchErr.Source)
		})
	}

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewExcelSource(path, "").Fetch(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCSVSource_Fetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "respostas.csv")
	content := "\ufeffNome;;Ano\nAna;;2019\nCaio;\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	src, err := NewCSVSource(path, ";")
	require.NoError(t, err)

	raw, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, survey.RawTable{
		{"Nome", "", "Ano"},
		{"Ana", "", "2019"},
		{"Caio", "", ""},
	}, raw)
}

func TestCSVSource_Errors(t *testing.T) {
	t.Run("invalid delimiter", func(t *testing.T) {
		for _, d := range []string{";;", "\"", "\n"} {
			_, err := NewCSVSource("x.csv", d)
			assert.Error(t, err, "delimiter %q", d)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		src, err := NewCSVSource(filepath.Join(t.TempDir(), "nope.csv"), "")
		require.NoError(t, err)
		_, err = src.Fetch(context.Background())
		var fetchErr *FetchError
		assert.True(t, errors.As(err, &fetchErr))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.csv")
		require.NoError(t, os.WriteFile(path, nil, 0o644))
		src, err := NewCSVSource(path, ",")
		require.NoError(t, err)
		_, err = src.Fetch(context.Background())
		assert.ErrorIs(t, err, ErrEmptySheet)
	})
}

func TestPadRows(t *testing.T) {
	assert.Nil(t, padRows(nil))

	in := [][]string{{"A", "B", "C"}, {"1"}, {"1", "2", "3", "4"}, {}}
	got := padRows(in)
	assert.Equal(t, survey.RawTable{
		{"A", "B", "C"},
		{"1", "", ""},
		{"1", "2", "3", "4"},
		{"", "", ""},
	}, got)
	// The input is left untouched.
	assert.Equal(t, []string{"1"}, in[1])
}

func TestPadRows_HeaderShorterThanData(t *testing.T) {
	// Trailing empty header cells are trimmed by the Sheets API while data
	// rows keep their values.
	raw := padRows([][]string{{"A", "B"}, {"1", "2", "x"}, {"3"}})

	table, err := survey.Clean(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, table.Columns())
	assert.Equal(t, [][]string{{"1", "2"}, {"3", ""}}, table.Records())
}
