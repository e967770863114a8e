package survey

// CategoryCount is one bar or slice of a distribution.
type CategoryCount struct {
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Distribution is the aggregated view of one column. Categories follow the
// order of the labels passed to Aggregate.
type Distribution struct {
	Column     string          `json:"column"`
	Total      int             `json:"total"`
	Categories []CategoryCount `json:"categories"`
}

// Empty reports whether none of the listed labels occurred.
func (d Distribution) Empty() bool { return d.Total == 0 }

// MaxCount returns the largest category count.
func (d Distribution) MaxCount() int {
	m := 0
	for _, c := range d.Categories {
		if c.Count > m {
			m = c.Count
		}
	}
	return m
}

// Aggregate counts the values of column against orderedLabels. Values that are
// not listed are dropped from both counts and total. Percentages are 0 when the
// total is 0.
func Aggregate(t *Table, column string, orderedLabels []string) (Distribution, error) {
	values, ok := t.Column(column)
	if !ok {
		return Distribution{}, &ColumnNotFoundError{Column: column}
	}

	counts := make(map[string]int, len(orderedLabels))
	for _, label := range orderedLabels {
		if _, dup := counts[label]; dup {
			return Distribution{}, &LabelError{Label: label, Reason: "listed more than once"}
		}
		counts[label] = 0
	}

	for _, v := range values {
		if _, listed := counts[v]; listed {
			counts[v]++
		}
	}

	dist := Distribution{
		Column:     column,
		Categories: make([]CategoryCount, len(orderedLabels)),
	}
	for i, label := range orderedLabels {
		dist.Categories[i] = CategoryCount{Label: label, Count: counts[label]}
		dist.Total += counts[label]
	}
	if dist.Total == 0 {
		return dist, nil
	}

	for i := range dist.Categories {
		dist.Categories[i].Percentage = 100 * float64(dist.Categories[i].Count) / float64(dist.Total)
	}
	return dist, nil
}
