package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/winemaps/vinegeo/internal/dataset"
	"github.com/winemaps/vinegeo/internal/pipeline"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Join resolved coordinates onto the dataset",
	Long:  "Attaches the most specific resolved coordinates to each record, drops records with no resolution at any specificity, verifies consistency, and writes the cleaned CSV. Performs no network calls.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")
		cachePath, _ := cmd.Flags().GetString("cache")

		ds, err := loadDataset(input)
		if err != nil {
			return err
		}

		cache, err := openCache(cachePath)
		if err != nil {
			return err
		}

		merged, stats, err := pipeline.Merge(ds.Records, cache)
		if err != nil {
			// A consistency violation is a correctness bug, never
			// something to paper over with partial output.
			return err
		}

		if err := dataset.WriteFile(output, ds.Header, merged); err != nil {
			return err
		}

		zap.L().Info("merge complete",
			zap.String("output", output),
			zap.Int("input", stats.Input),
			zap.Int("merged", stats.Merged),
			zap.Int("dropped", stats.Dropped),
		)
		fmt.Printf("Merge complete: %d of %d records geocoded (%d dropped) -> %s\n",
			stats.Merged, stats.Input, stats.Dropped, output)
		for level, n := range stats.ByLevel {
			fmt.Printf("  %s: %d\n", level, n)
		}
		return nil
	},
}

func init() {
	mergeCmd.Flags().String("input", "winemag-data.csv", "input dataset CSV")
	mergeCmd.Flags().String("output", "winemag-geocoded.csv", "cleaned output CSV")
	mergeCmd.Flags().String("cache", "", "cache file path (overrides config)")
	rootCmd.AddCommand(mergeCmd)
}
