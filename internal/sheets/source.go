package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"google.golang.org/api/option"

	"surveydash/internal/config"
	"surveydash/internal/survey"
)

// ErrEmptySheet is wrapped by a FetchError when the source has no rows at all.
var ErrEmptySheet = errors.New("sheet has no rows")

// RowSource supplies the raw survey rows, header first.
type RowSource interface {
	Fetch(ctx context.Context) (survey.RawTable, error)
	// Describe names the source for logs and error messages.
	Describe() string
}

// FetchError reports that the rows could not be obtained from a source.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// New builds the source selected by cfg.Kind. Client options are only used by
// the google source; credentials from cfg.CredentialsFile are prepended to them.
func New(ctx context.Context, cfg config.SourceConfig, logger *slog.Logger, opts ...option.ClientOption) (RowSource, error) {
	var (
		src RowSource
		err error
	)

	switch cfg.Kind {
	case config.SourceGoogle:
		if cfg.CredentialsFile != "" {
			creds, readErr := os.ReadFile(cfg.CredentialsFile)
			if readErr != nil {
				return nil, &FetchError{
					Source: "google sheet " + cfg.Spreadsheet,
					Err:    fmt.Errorf("failed to read credentials: %w", readErr),
				}
			}
			opts = append([]option.ClientOption{option.WithCredentialsJSON(creds)}, opts...)
		}
		src, err = NewGoogleSource(ctx, cfg.Spreadsheet, cfg.Tab, opts...)
	case config.SourceXLSX:
		src = NewExcelSource(cfg.FilePath, cfg.Tab)
	case config.SourceCSV:
		src, err = NewCSVSource(cfg.FilePath, cfg.Delimiter)
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
	if err != nil {
		return nil, err
	}

	return &instrumentedSource{
		next:    src,
		timeout: cfg.Timeout,
		logger:  logger.With(slog.String("component", "row_source"), slog.String("source", src.Describe())),
	}, nil
}

// instrumentedSource bounds every fetch by a timeout and logs its outcome.
type instrumentedSource struct {
	next    RowSource
	timeout time.Duration
	logger  *slog.Logger
}

func (s *instrumentedSource) Describe() string { return s.next.Describe() }

func (s *instrumentedSource) Fetch(ctx context.Context) (survey.RawTable, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := s.next.Fetch(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "fetch failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		return nil, err
	}

	s.logger.DebugContext(ctx, "fetch complete",
		slog.Int("rows", len(raw)),
		slog.Duration("duration", time.Since(start)))
	return raw, nil
}

// padRows returns rows with every row shorter than the header extended with
// empty cells. The Sheets API and excelize drop trailing empty cells; longer
// rows are kept as delivered and survey.Clean drops what lies past the header.
func padRows(rows [][]string) survey.RawTable {
	if len(rows) == 0 {
		return nil
	}
	width := len(rows[0])
	out := make(survey.RawTable, len(rows))
	for i, row := range rows {
		if len(row) >= width {
			out[i] = row
			continue
		}
		padded := make([]string, width)
		copy(padded, row)
		out[i] = padded
	}
	return out
}
