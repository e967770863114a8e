package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"surveydash/internal/config"
	"surveydash/internal/infrastructure"
	"surveydash/internal/services"
	"surveydash/internal/sheets"
)

// options are the persistent flags shared by every subcommand
type options struct {
	cfgFile string
	verbose bool

	// newSource and paths are replaced in tests
	newSource func(ctx context.Context, cfg config.SourceConfig, logger *slog.Logger) (sheets.RowSource, error)
	paths     func() (*config.Paths, error)
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return newRootCmd(newOptions()).ExecuteContext(ctx)
}

func newOptions() *options {
	return &options{
		newSource: func(ctx context.Context, cfg config.SourceConfig, logger *slog.Logger) (sheets.RowSource, error) {
			return sheets.New(ctx, cfg, logger)
		},
		paths: config.GetPaths,
	}
}

func (o *options) getPaths() (*config.Paths, error) {
	if o.paths == nil {
		return config.GetPaths()
	}
	return o.paths()
}

func newRootCmd(opts *options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "surveyreport",
		Short: "Offline reports for the survey dashboard",
		Long: `surveyreport runs the same fetch, clean and aggregate pipeline as the
dashboard server without starting it. Use it to export the workbook, the
chart images and the distribution CSVs, or to print the distributions.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default: surveydash.yaml in the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging on stderr")

	rootCmd.AddCommand(
		newExportCmd(opts),
		newPrintCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s v%s\n", config.AppName, config.AppVersion)
		},
	}
}

// loadService loads the configuration and builds a dashboard service reading
// from the configured source. Relative source paths are resolved against the
// executable directory like the server does. Logs go to stderr so stdout
// stays clean.
func (o *options) loadService(ctx context.Context, stderr io.Writer) (*config.Config, *services.DashboardService, error) {
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return nil, nil, err
	}

	level := "warn"
	if o.verbose {
		level = "debug"
	}
	logger := infrastructure.NewLogger(stderr, level)

	paths, err := o.getPaths()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get paths: %w", err)
	}
	cfg.Source.CredentialsFile = paths.Resolve(cfg.Source.CredentialsFile)
	cfg.Source.FilePath = paths.Resolve(cfg.Source.FilePath)

	source, err := o.newSource(ctx, cfg.Source, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize row source: %w", err)
	}

	return cfg, services.NewDashboardService(source, cfg.Dashboard, nil, nil, logger), nil
}
