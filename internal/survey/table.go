package survey

import "errors"

// ErrEmptyRawTable is returned when there is not even a header row.
var ErrEmptyRawTable = errors.New("raw table has no header row")

// RawTable is the unprocessed grid delivered by a row source. Row 0 is the
// header; the rest are data rows.
type RawTable [][]string

// Header returns row 0, or nil for an empty table.
func (r RawTable) Header() []string {
	if len(r) == 0 {
		return nil
	}
	return r[0]
}

// DataRows returns every row after the header.
func (r RawTable) DataRows() [][]string {
	if len(r) < 2 {
		return nil
	}
	return r[1:]
}

// Table is a column-oriented table with unique column names. All columns have
// the same length.
type Table struct {
	columns []string
	index   map[string]int
	cells   [][]string // cells[col][row]
	rows    int
}

// Clean builds a Table from raw rows. Positions whose header cell is empty are
// dropped from every row, as are positions past the end of the header.
// Duplicate non-empty header names fail with *SchemaError; a data row missing
// a cell under a named column fails with *RowShapeError.
func Clean(raw RawTable) (*Table, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyRawTable
	}

	header := raw.Header()
	keep := make([]int, 0, len(header))
	names := make([]string, 0, len(header))
	seen := make(map[string]bool, len(header))
	var dups []string
	for i, name := range header {
		if name == "" {
			continue
		}
		if seen[name] {
			dups = append(dups, name)
			continue
		}
		seen[name] = true
		keep = append(keep, i)
		names = append(names, name)
	}
	if len(dups) > 0 {
		return nil, &SchemaError{Duplicates: dups}
	}

	data := raw.DataRows()
	t := newTable(names, len(data))
	for r, row := range data {
		if got := keptLen(row, keep); got != len(keep) {
			return nil, &RowShapeError{Row: r + 2, Got: got, Want: len(names)}
		}
		for c, pos := range keep {
			t.cells[c][r] = row[pos]
		}
	}
	return t, nil
}

// keptLen counts the named positions present in row. Cells under an empty
// header cell or past the end of the header are not counted.
func keptLen(row []string, keep []int) int {
	n := 0
	for _, pos := range keep {
		if pos < len(row) {
			n++
		}
	}
	return n
}

func newTable(columns []string, rows int) *Table {
	t := &Table{
		columns: columns,
		index:   make(map[string]int, len(columns)),
		cells:   make([][]string, len(columns)),
		rows:    rows,
	}
	for i, name := range columns {
		t.index[name] = i
		t.cells[i] = make([]string, rows)
	}
	return t
}

// Columns returns the column names in header order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of data rows.
func (t *Table) Len() int { return t.rows }

// Column returns the values of the named column.
func (t *Table) Column(name string) ([]string, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	out := make([]string, t.rows)
	copy(out, t.cells[i])
	return out, true
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Row returns data row i in column order.
func (t *Table) Row(i int) []string {
	out := make([]string, len(t.columns))
	for c := range t.columns {
		out[c] = t.cells[c][i]
	}
	return out
}

// Records returns every data row in column order.
func (t *Table) Records() [][]string {
	out := make([][]string, t.rows)
	for i := range out {
		out[i] = t.Row(i)
	}
	return out
}

// Raw converts the table back into a RawTable with no padding columns.
func (t *Table) Raw() RawTable {
	raw := make(RawTable, 0, t.rows+1)
	raw = append(raw, t.Columns())
	return append(raw, t.Records()...)
}
