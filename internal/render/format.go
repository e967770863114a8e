package render

import (
	"strconv"
	"strings"
)

// FormatPercent formats p with the given number of decimals and decimal
// separator, without the percent sign.
func FormatPercent(p float64, decimals int, sep string) string {
	s := strconv.FormatFloat(p, 'f', decimals, 64)
	if sep != "" && sep != "." {
		s = strings.Replace(s, ".", sep, 1)
	}
	return s
}

// TickLabel removes every character of strip from label.
func TickLabel(label, strip string) string {
	if strip == "" {
		return label
	}
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if strings.ContainsRune(strip, r) {
			return -1
		}
		return r
	}, label))
}
