package testutil

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"surveydash/internal/config"
	"surveydash/internal/survey"
)

// AgronomistsSheet is a small export of the agronomists survey: a blank
// column, three answers inside the configured labels and one outside them.
func AgronomistsSheet() survey.RawTable {
	return survey.RawTable{
		{"Nome", "", config.SalaryColumn, config.GraduationColumn},
		{"Ana", "", "R$2.000 - R$3.000", "2019"},
		{"Bruno", "", "R$2.000 - R$3.000", "2020"},
		{"Carla", "", "R$4.000 - R$5.000", "2019"},
		{"Davi", "", "Prefiro não dizer", "2017"},
	}
}

// StaticSource is a row source serving fixed rows or a fixed error.
type StaticSource struct {
	Rows survey.RawTable
	Err  error

	fetches atomic.Int32
}

// Describe implements sheets.RowSource
func (s *StaticSource) Describe() string { return "static rows" }

// Fetch implements sheets.RowSource
func (s *StaticSource) Fetch(ctx context.Context) (survey.RawTable, error) {
	s.fetches.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Rows, s.Err
}

// Fetches reports how often Fetch was called
func (s *StaticSource) Fetches() int { return int(s.fetches.Load()) }

// WriteCSV writes rows to a CSV file in a temporary directory and returns
// its path.
func WriteCSV(t *testing.T, rows survey.RawTable) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "respostas.csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create csv: %v", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}
