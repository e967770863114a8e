// Package survey turns raw spreadsheet rows into a clean, column-oriented table
// and aggregates a categorical column into ordered, percentage-labelled counts.
//
// The package is pure: it performs no I/O, keeps no state between calls and
// never logs. Fetching rows and drawing charts belong to the sheets and render
// packages respectively.
//
// # Cleaning
//
// Row 0 of a RawTable is the header. Header cells that are the empty string are
// padding: the cell at the same position is dropped from every row. The
// remaining header cells become the column names and must be unique.
//
//	raw := survey.RawTable{
//	    {"Name", "", "Salary Bracket"},
//	    {"Ana", "", "R$2.000 - R$3.000"},
//	}
//	table, err := survey.Clean(raw)
//
// # Aggregation
//
// Aggregate counts the values of one column against a fixed, ordered list of
// labels. Values outside the list are ignored, including in the total used for
// percentages. When nothing matches, every percentage is zero.
//
//	dist, err := survey.Aggregate(table, "Salary Bracket", []string{
//	    "R$1.000 - R$2.000",
//	    "R$2.000 - R$3.000",
//	})
package survey
