package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neexbeast/routecost/internal/config"
	"github.com/neexbeast/routecost/internal/ingest"
	"github.com/neexbeast/routecost/internal/location"
)

var (
	ingestSkipHeader bool
	ingestSheet      string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.xlsx>",
	Short: "Load location pairs from a workbook",
	Long: `Reads columns A-D (departure name, departure address, arrival name,
arrival address) of the first sheet and stores every new address pair.
Pairs already in the store are counted as duplicates and left untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestSkipHeader, "skip-header", false, "treat the first row as a header")
	ingestCmd.Flags().StringVar(&ingestSheet, "sheet", "", "sheet to read (default: first sheet)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheet, err := ingest.ReadXLSX(f, ingest.Options{Sheet: ingestSheet, SkipHeader: ingestSkipHeader})
	if err != nil {
		return err
	}

	return withStore(cmd, func(ctx context.Context, _ config.Config, store location.Store) error {
		res, err := ingest.Ingest(ctx, store, sheet.Rows)
		if err != nil {
			return err
		}

		cmd.Printf("Inserted %d, duplicates %d.\n", res.Inserted, res.Duplicates)
		for _, e := range sheet.Errors {
			cmd.Printf("  row %d skipped: %s\n", e.Row, e.Reason)
		}
		return nil
	})
}
