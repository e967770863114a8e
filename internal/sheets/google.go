package sheets

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"surveydash/internal/survey"
)

var spreadsheetURLPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)

// SpreadsheetID accepts a spreadsheet URL or a bare ID and returns the ID.
func SpreadsheetID(locator string) (string, error) {
	locator = strings.TrimSpace(locator)
	if m := spreadsheetURLPattern.FindStringSubmatch(locator); m != nil {
		return m[1], nil
	}
	if locator == "" || strings.ContainsAny(locator, "/:?# ") {
		return "", fmt.Errorf("cannot find a spreadsheet id in %q", locator)
	}
	return locator, nil
}

// GoogleSource reads one worksheet through the Sheets v4 API.
type GoogleSource struct {
	svc           *gsheets.Service
	spreadsheetID string
	tab           string
}

// NewGoogleSource creates the API client once. Pass credentials through opts,
// e.g. option.WithCredentialsJSON.
func NewGoogleSource(ctx context.Context, spreadsheet, tab string, opts ...option.ClientOption) (*GoogleSource, error) {
	id, err := SpreadsheetID(spreadsheet)
	if err != nil {
		return nil, &FetchError{Source: "google sheet " + spreadsheet, Err: err}
	}

	opts = append([]option.ClientOption{option.WithScopes(gsheets.SpreadsheetsReadonlyScope)}, opts...)
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, &FetchError{
			Source: "google sheet " + id,
			Err:    fmt.Errorf("failed to create sheets service: %w", err),
		}
	}

	return &GoogleSource{svc: svc, spreadsheetID: id, tab: tab}, nil
}

func (s *GoogleSource) Describe() string {
	return fmt.Sprintf("google sheet %s tab %q", s.spreadsheetID, s.tab)
}

// Fetch reads every formatted cell value of the tab.
func (s *GoogleSource) Fetch(ctx context.Context) (survey.RawTable, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, a1Range(s.tab)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, &FetchError{Source: s.Describe(), Err: err}
	}
	if len(resp.Values) == 0 {
		return nil, &FetchError{Source: s.Describe(), Err: ErrEmptySheet}
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		rows[i] = cells
	}
	return padRows(rows), nil
}

// a1Range quotes a sheet title for use as an A1 range.
func a1Range(tab string) string {
	if tab == "" {
		return "A:ZZZ"
	}
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}
