package survey

import (
	"fmt"
	"strings"
)

// SchemaError reports a header that cannot produce unique column names.
type SchemaError struct {
	Duplicates []string
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: duplicate column names in header: %s",
		strings.Join(e.Duplicates, ", "))
}

// RowShapeError reports a data row whose cell count, after dropping the
// padding positions, differs from the number of columns.
type RowShapeError struct {
	// Row is the 1-based row number in the sheet (the header is row 1).
	Row  int
	Got  int
	Want int
}

// Error implements the error interface
func (e *RowShapeError) Error() string {
	return fmt.Sprintf("row shape error: row %d has %d cells, want %d", e.Row, e.Got, e.Want)
}

// ColumnNotFoundError reports an aggregation column that the table does not have.
type ColumnNotFoundError struct {
	Column string
}

// Error implements the error interface
func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column %q not found", e.Column)
}

// LabelError reports an unusable label list.
type LabelError struct {
	Label  string
	Reason string
}

// Error implements the error interface
func (e *LabelError) Error() string {
	return fmt.Sprintf("invalid label %q: %s", e.Label, e.Reason)
}
