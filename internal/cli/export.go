package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"surveydash/internal/config"
	"surveydash/internal/exporter"
	"surveydash/internal/render"
	"surveydash/internal/services"
)

const (
	workbookFile      = "dashboard.xlsx"
	tableFile         = "respostas.csv"
	distributionsFile = "distribuicoes.csv"
)

func newExportCmd(opts *options) *cobra.Command {
	var (
		outDir string
		png    bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the workbook, chart images and CSV files",
		Long: `Fetch the sheet once and write, into --out:

  dashboard.xlsx     cleaned answers plus one sheet per chart
  respostas.csv      cleaned answers
  distribuicoes.csv  counts and percentages of every chart
  <chart>.svg        one image per chart (and <chart>.png with --png)

Charts that cannot be aggregated or have no matching answers are reported
and skipped; the other files are still written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, svc, err := opts.loadService(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			if outDir == "" {
				paths, err := opts.getPaths()
				if err != nil {
					return err
				}
				outDir = paths.ExportsDir
			}
			outDir, err = filepath.Abs(outDir)
			if err != nil {
				return fmt.Errorf("invalid output directory: %w", err)
			}

			return runExport(cmd.Context(), svc, outDir, png, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default: exports/ next to the executable)")
	cmd.Flags().BoolVar(&png, "png", false, "also write PNG images")
	return cmd
}

// runExport builds the dashboard once and writes every export into outDir,
// listing the written files on out.
func runExport(ctx context.Context, svc *services.DashboardService, outDir string, png bool, out io.Writer) error {
	d, err := svc.Build(ctx)
	if err != nil {
		return err
	}

	written := func(name string) {
		fmt.Fprintln(out, filepath.Join(outDir, name))
	}

	if err := exporter.WriteFile(filepath.Join(outDir, workbookFile), func(w io.Writer) error {
		return exporter.NewWorkbookExporter().Export(w, d.Table, d.Charts)
	}); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	written(workbookFile)

	csvWriter := exporter.NewCSVWriter(config.NewPaths(outDir))
	if err := csvWriter.WriteTable(filepath.Join(outDir, tableFile), d.Table); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	written(tableFile)

	if err := csvWriter.WriteDistributions(filepath.Join(outDir, distributionsFile), d.Charts); err != nil {
		return fmt.Errorf("failed to write distributions: %w", err)
	}
	written(distributionsFile)

	renderers := map[string]render.ChartRenderer{"svg": render.NewSVGRenderer()}
	if png {
		renderers["png"] = render.NewPNGRenderer()
	}

	for _, ch := range d.Charts {
		if ch.Err != nil {
			fmt.Fprintf(out, "skipped %s: %v\n", ch.Spec.ID, ch.Err)
			continue
		}
		for _, ext := range []string{"svg", "png"} {
			renderer, ok := renderers[ext]
			if !ok {
				continue
			}
			name := ch.Spec.ID + "." + ext
			err := exporter.WriteFile(filepath.Join(outDir, name), func(w io.Writer) error {
				return svc.Draw(ctx, ch, renderer, w)
			})
			if errors.Is(err, render.ErrNoData) {
				fmt.Fprintf(out, "skipped %s: %v\n", name, err)
				break
			}
			if err != nil {
				return err
			}
			written(name)
		}
	}

	return nil
}
