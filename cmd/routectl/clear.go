package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/neexbeast/routecost/internal/config"
	"github.com/neexbeast/routecost/internal/location"
)

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every stored location pair",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

func init() {
	clearCmd.Flags().BoolVar(&clearYes, "yes", false, "confirm deletion")
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, _ []string) error {
	if !clearYes {
		return errors.New("refusing to delete all location pairs without --yes")
	}

	return withStore(cmd, func(ctx context.Context, _ config.Config, store location.Store) error {
		if err := store.ClearAll(ctx); err != nil {
			return err
		}
		cmd.Println("All location pairs deleted.")
		return nil
	})
}
