package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/winemaps/vinegeo/internal/dataset"
	"github.com/winemaps/vinegeo/internal/pipeline"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export geocoded records as JSON Lines with GeoJSON points",
	Long:  "Merges resolved coordinates onto the dataset and writes one JSON document per record, each with a GeoJSON Point location field, ready for a document-store load with a geospatial index. Performs no network calls.",
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
			return err
		}

		if err := dataset.ExportFile(output, ds.Header, merged); err != nil {
			return err
		}

		fmt.Printf("Exported %d documents -> %s\n", stats.Merged, output)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("input", "winemag-data.csv", "input dataset CSV")
	exportCmd.Flags().String("output", "winemag-geocoded.jsonl", "JSON Lines output path")
	exportCmd.Flags().String("cache", "", "cache file path (overrides config)")
	rootCmd.AddCommand(exportCmd)
}
