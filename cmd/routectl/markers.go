package main

import (
	"context"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/neexbeast/routecost/internal/enrich"
)

var markersCmd = &cobra.Command{
	Use:   "markers",
	Short: "Geocode arrival addresses for a map view",
	Args:  cobra.NoArgs,
	RunE:  runMarkers,
}

func init() {
	rootCmd.AddCommand(markersCmd)
}

func runMarkers(cmd *cobra.Command, _ []string) error {
	return withDriver(cmd, func(ctx context.Context, d *enrich.Driver) error {
		markers, err := d.Markers(ctx)
		if err != nil {
			return err
		}
		if len(markers) == 0 {
			cmd.Println("No markers.")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		_, _ = tw.Write([]byte("ID\tNAME\tADDRESS\tLAT\tLON\tGEOHASH\n"))
		for _, m := range markers {
			_, _ = fmtRow(tw, m.ID, m.Name, m.Address,
				strconv.FormatFloat(m.Lat, 'f', 6, 64), strconv.FormatFloat(m.Lon, 'f', 6, 64), m.Geohash)
		}
		return tw.Flush()
	})
}
