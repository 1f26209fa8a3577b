package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/neexbeast/routecost/internal/config"
	"github.com/neexbeast/routecost/internal/location"
)

var listUnenriched bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show stored location pairs",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listUnenriched, "unenriched", false, "only show pairs missing metrics")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	return withStore(cmd, func(ctx context.Context, _ config.Config, store location.Store) error {
		list := store.ListAll
		if listUnenriched {
			list = store.ListUnenriched
		}

		pairs, err := list(ctx)
		if err != nil {
			return err
		}
		if len(pairs) == 0 {
			cmd.Println("No location pairs.")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		_, _ = tw.Write([]byte("ID\tDEPARTURE\tDEPARTURE ADDRESS\tARRIVAL\tARRIVAL ADDRESS\tDISTANCE (m)\tDURATION (ms)\tFUEL COST\n"))
		for _, p := range pairs {
			_, _ = fmtRow(tw, p.ID, p.DepartureName, p.DepartureAddress, p.ArrivalName, p.ArrivalAddress,
				metric(p.Distance), metric(p.Duration), metric(p.FuelCost))
		}
		return tw.Flush()
	})
}

// metric renders a nullable metric, "-" when unset.
func metric(v *int64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatInt(*v, 10)
}

// fmtRow writes one tab-separated line.
func fmtRow(w io.Writer, cells ...any) (int, error) {
	s := make([]string, len(cells))
	for i, c := range cells {
		s[i] = fmt.Sprint(c)
	}
	return io.WriteString(w, strings.Join(s, "\t")+"\n")
}
