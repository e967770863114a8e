package sheets

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"surveydash/internal/survey"
)

// CSVSource reads a local CSV export of the survey.
type CSVSource struct {
	path  string
	comma rune
}

// NewCSVSource reads path with the given single-character delimiter; an empty
// delimiter means a comma.
func NewCSVSource(path, delimiter string) (*CSVSource, error) {
	comma := ','
	if delimiter != "" {
		r, size := utf8.DecodeRuneInString(delimiter)
		if size != len(delimiter) || r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
			return nil, fmt.Errorf("invalid csv delimiter %q", delimiter)
		}
		comma = r
	}
	return &CSVSource{path: path, comma: comma}, nil
}

func (s *CSVSource) Describe() string {
	return fmt.Sprintf("csv file %s", s.path)
}

func (s *CSVSource) Fetch(ctx context.Context) (survey.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Source: s.Describe(), Err: err}
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, &FetchError{Source: s.Describe(), Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = s.comma
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, &FetchError{Source: s.Describe(), Err: fmt.Errorf("failed to parse csv: %w", err)}
	}
	if len(rows) == 0 {
		return nil, &FetchError{Source: s.Describe(), Err: ErrEmptySheet}
	}

	// Spreadsheet exports often start with a byte order mark.
	if len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}

	return padRows(rows), nil
}
