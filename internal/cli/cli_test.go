package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"surveydash/internal/config"
	"surveydash/internal/shared/testutil"
	"surveydash/internal/sheets"
	"surveydash/internal/survey"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "surveydash.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// run executes the command line against src and returns stdout
func run(t *testing.T, src sheets.RowSource, args ...string) (string, error) {
	t.Helper()
	opts := &options{
		newSource: func(ctx context.Context, cfg config.SourceConfig, logger *slog.Logger) (sheets.RowSource, error) {
			return src, nil
		},
	}

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(opts)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", writeConfig(t, "logging:\n  level: error\n")}, args...))

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, &testutil.StaticSource{}, "version")
	require.NoError(t, err)
	assert.Equal(t, "surveydash v"+config.AppVersion+"\n", out)
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, &testutil.StaticSource{Rows: testutil.AgronomistsSheet()}, "export", "--out", dir, "--png")
	require.NoError(t, err)

	for _, name := range []string{
		workbookFile, tableFile, distributionsFile,
		"salario.svg", "salario.png", "formatura.svg", "formatura.png",
	} {
		assert.FileExists(t, filepath.Join(dir, name))
		assert.Contains(t, out, filepath.Join(dir, name))
	}

	svg, err := os.ReadFile(filepath.Join(dir, "salario.svg"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(svg, []byte("<svg")))

	f, err := excelize.OpenFile(filepath.Join(dir, workbookFile))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "salario")

	table, err := os.ReadFile(filepath.Join(dir, tableFile))
	require.NoError(t, err)
	assert.Contains(t, string(table), "Carla")
}

func TestExportCommand_SkipsBrokenAndEmptyCharts(t *testing.T) {
	rows := survey.RawTable{
		{"Nome", config.SalaryColumn},
		{"Ana", "Prefiro não dizer"},
	}
	dir := t.TempDir()

	out, err := run(t, &testutil.StaticSource{Rows: rows}, "export", "-o", dir)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, workbookFile))
	assert.NoFileExists(t, filepath.Join(dir, "salario.svg"))
	assert.NoFileExists(t, filepath.Join(dir, "formatura.svg"))
	assert.Contains(t, out, "skipped salario.svg")
	assert.Contains(t, out, "skipped formatura")
}

func TestExportCommand_SourceError(t *testing.T) {
	src := &testutil.StaticSource{Err: &sheets.FetchError{Source: "static rows", Err: errors.New("boom")}}

	_, err := run(t, src, "export", "--out", t.TempDir())
	require.Error(t, err)

	var fetchErr *sheets.FetchError
	assert.ErrorAs(t, err, &fetchErr)
}

func TestPrintCommand(t *testing.T) {
	out, err := run(t, &testutil.StaticSource{Rows: testutil.AgronomistsSheet()}, "print")
	require.NoError(t, err)

	assert.Contains(t, out, "Agrônomos 2024 (4 respostas)")
	assert.Contains(t, out, "Distribuição Percentual dos Salários [salario]")
	assert.Contains(t, out, "R$2.000 - R$3.000")
	assert.Contains(t, out, "66,7%")
	assert.Contains(t, out, "Ano de Formatura [formatura]")
}

func TestPrintCommand_ChartError(t *testing.T) {
	rows := survey.RawTable{
		{"Nome", config.SalaryColumn},
		{"Ana", "R$1.000 - R$2.000"},
	}

	out, err := run(t, &testutil.StaticSource{Rows: rows}, "print")
	require.NoError(t, err)
	assert.Contains(t, out, "100,0%")
	assert.Contains(t, out, "erro:")
}

func TestRootCommand_BadConfig(t *testing.T) {
	opts := newOptions()
	cmd := newRootCmd(opts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", writeConfig(t, "server:\n  nope: 1\n"), "print"})

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestLoadService_ResolvesSourcePaths(t *testing.T) {
	base := t.TempDir()
	var got config.SourceConfig
	opts := &options{
		cfgFile: writeConfig(t, "logging:\n  level: error\nsource:\n  kind: csv\n  file_path: exports-in/respostas.csv\n  credentials_file: keys/cred.json\n"),
		newSource: func(ctx context.Context, cfg config.SourceConfig, logger *slog.Logger) (sheets.RowSource, error) {
			got = cfg
			return &testutil.StaticSource{Rows: testutil.AgronomistsSheet()}, nil
		},
		paths: func() (*config.Paths, error) { return config.NewPaths(base), nil },
	}

	var stderr bytes.Buffer
	_, _, err := opts.loadService(context.Background(), &stderr)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "exports-in/respostas.csv"), got.FilePath)
	assert.Equal(t, filepath.Join(base, "keys/cred.json"), got.CredentialsFile)
}

func TestLoadService_KeepsAbsolutePaths(t *testing.T) {
	csvPath := testutil.WriteCSV(t, testutil.AgronomistsSheet())
	var got config.SourceConfig
	opts := &options{
		cfgFile: writeConfig(t, "logging:\n  level: error\nsource:\n  kind: csv\n  file_path: "+csvPath+"\n"),
		newSource: func(ctx context.Context, cfg config.SourceConfig, logger *slog.Logger) (sheets.RowSource, error) {
			got = cfg
			return &testutil.StaticSource{}, nil
		},
		paths: func() (*config.Paths, error) { return config.NewPaths(t.TempDir()), nil },
	}

	var stderr bytes.Buffer
	_, _, err := opts.loadService(context.Background(), &stderr)
	require.NoError(t, err)
	assert.Equal(t, csvPath, got.FilePath)
}
