package main

import (
	"context"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/neexbeast/routecost/internal/enrich"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Compute distance, duration and fuel cost for unenriched pairs",
	Long: `Geocodes both addresses of every pair still missing metrics, asks the
directions API for the fastest route and stores the result. Pairs that cannot
be geocoded or routed are reported and retried on the next run.`,
	Args: cobra.NoArgs,
	RunE: runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, _ []string) error {
	return withDriver(cmd, func(ctx context.Context, d *enrich.Driver) error {
		report, err := d.Run(ctx)
		cmd.Printf("Run %s: scanned %d, enriched %d, skipped %d.\n",
			report.RunID, report.Scanned, report.Enriched, len(report.Failures))

		if len(report.Failures) > 0 {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = tw.Write([]byte("ID\tSTAGE\tREASON\n"))
			for _, f := range report.Failures {
				_, _ = fmtRow(tw, f.ID, f.Stage, f.Reason)
			}
			_ = tw.Flush()
		}
		return err
	})
}
