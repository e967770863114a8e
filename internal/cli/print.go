package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"surveydash/internal/render"
	"surveydash/internal/services"
)

func newPrintCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "print",
		Short: "Print the distribution of every chart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, svc, err := opts.loadService(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return runPrint(cmd.Context(), svc, cmd.OutOrStdout())
		},
	}
}

// runPrint writes one aligned block per chart with the percentages formatted
// the way the charts label them.
func runPrint(ctx context.Context, svc *services.DashboardService, out io.Writer) error {
	d, err := svc.Build(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s (%d respostas)\n", d.Title, d.Table.Len())
	for _, ch := range d.Charts {
		fmt.Fprintf(out, "\n%s [%s]\n", ch.Spec.Title, ch.Spec.ID)
		if ch.Err != nil {
			fmt.Fprintf(out, "  erro: %v\n", ch.Err)
			continue
		}
		if err := writeDistribution(out, ch); err != nil {
			return err
		}
	}
	return nil
}

func writeDistribution(out io.Writer, ch render.ChartData) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, c := range ch.Distribution.Categories {
		fmt.Fprintf(tw, "  %s\t%d\t%s\t\n", c.Label, c.Count, ch.Spec.Percent(c.Percentage))
	}
	fmt.Fprintf(tw, "  total\t%d\t\t\n", ch.Distribution.Total)
	return tw.Flush()
}
