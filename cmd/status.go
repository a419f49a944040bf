package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/winemaps/vinegeo/internal/pipeline"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report cache contents and remaining work",
	Long:  "Loads the resolution cache and scans the input dataset to report coverage, per-level counts, and how many unique keys still need resolving. Performs no network calls.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		input, _ := cmd.Flags().GetString("input")
		cachePath, _ := cmd.Flags().GetString("cache")

		cache, err := openCache(cachePath)
		if err != nil {
			return err
		}

		fmt.Printf("Cache: %d entries", cache.Len())
		if dropped := cache.Dropped(); dropped > 0 {
			fmt.Printf(" (%d corrupt entries dropped at load)", dropped)
		}
		fmt.Println()
		for level, n := range cache.Levels() {
			fmt.Printf("  %s: %d\n", level, n)
		}

		if input == "" {
			return nil
		}
		ds, err := loadDataset(input)
		if err != nil {
			return err
		}

		cov := pipeline.ComputeCoverage(ds.Records, cache)
		fmt.Printf("Input: %d records, %d unique keys\n", cov.TotalRecords, cov.TotalUniqueKeys)
		fmt.Printf("Coverage: %.1f%% of records, %.1f%% of unique keys (%d keys unresolved)\n",
			cov.RecordRate*100, cov.UniqueKeyRate*100, cov.TotalUniqueKeys-cov.ResolvedKeys)
		return nil
	},
}

func init() {
	statusCmd.Flags().String("input", "", "input dataset CSV (omit for cache-only status)")
	statusCmd.Flags().String("cache", "", "cache file path (overrides config)")
	rootCmd.AddCommand(statusCmd)
}
