package sheets

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"surveydash/internal/survey"
)

// ExcelSource reads a worksheet of a local .xlsx export.
type ExcelSource struct {
	path string
	tab  string
}

// NewExcelSource reads tab from path; an empty tab selects the first sheet.
func NewExcelSource(path, tab string) *ExcelSource {
	return &ExcelSource{path: path, tab: tab}
}

func (s *ExcelSource) Describe() string {
	if s.tab == "" {
		return fmt.Sprintf("xlsx file %s", s.path)
	}
	return fmt.Sprintf("xlsx file %s sheet %q", s.path, s.tab)
}

func (s *ExcelSource) Fetch(ctx context.Context) (survey.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Source: s.Describe(), Err: err}
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, &FetchError{Source: s.Describe(), Err: fmt.Errorf("failed to open workbook: %w", err)}
	}
	defer f.Close()

	sheet := s.tab
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &FetchError{Source: s.Describe(), Err: fmt.Errorf("failed to read rows: %w", err)}
	}
	if len(rows) == 0 {
		return nil, &FetchError{Source: s.Describe(), Err: ErrEmptySheet}
	}

	return padRows(rows), nil
}
