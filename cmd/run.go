package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/winemaps/vinegeo/internal/dataset"
	"github.com/winemaps/vinegeo/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: resolve, verify, merge",
	Long:  "Runs the primary resolution pass, the secondary verification pass for whatever stayed unresolved, and the merge stage, sharing one upstream client so the global rate budget holds end to end. Writes the cleaned CSV and a YAML run report.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")
		cachePath, _ := cmd.Flags().GetString("cache")
		reportPath, _ := cmd.Flags().GetString("report")
		limit, _ := cmd.Flags().GetInt("limit")

		if reportPath == "" {
			reportPath = cfg.Report.Path
		}

		report := pipeline.NewReport()
		log := zap.L().With(
			zap.String("command", "run"),
			zap.String("run_id", report.RunID),
		)

		ds, err := loadDataset(input)
		if err != nil {
			return err
		}
		records := ds.Records
		if limit > 0 && limit < len(records) {
			records = records[:limit]
		}

		cache, err := openCache(cachePath)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := cache.Close(); closeErr != nil {
				log.Error("cache close failed", zap.Error(closeErr))
			}
		}()

		// One client, one rate budget, both passes.
		resolver := pipeline.NewResolver(newGeocodeClient(), cache)

		log.Info("primary pass", zap.Int("records", len(records)), zap.Int("cached_keys", cache.Len()))
		bar := newBar(len(records), "Resolving")
		for _, rec := range records {
			if _, err := resolver.Resolve(ctx, rec); err != nil {
				return eris.Wrap(err, "run: primary pass aborted")
			}
			barAdd(bar)
		}

		unresolved := unresolvedRecords(records, cache)
		log.Info("secondary pass", zap.Int("unresolved", len(unresolved)))
		bar = newBar(len(unresolved), "Verifying")
		for _, rec := range unresolved {
			if _, err := resolver.VerifySecondary(ctx, rec); err != nil {
				return eris.Wrap(err, "run: secondary pass aborted")
			}
			barAdd(bar)
		}

		merged, mergeStats, err := pipeline.Merge(records, cache)
		if err != nil {
			return err
		}
		if err := dataset.WriteFile(output, ds.Header, merged); err != nil {
			return err
		}

		report.Resolution = resolver.Stats()
		report.Merge = mergeStats
		report.Coverage = pipeline.ComputeCoverage(records, cache)
		report.CacheEntries = cache.Len()
		report.CacheDropped = cache.Dropped()
		report.Finish()
		if err := report.WriteFile(reportPath); err != nil {
			return err
		}

		fmt.Printf("Run %s complete: %d of %d records geocoded -> %s\n",
			report.RunID, mergeStats.Merged, mergeStats.Input, output)
		fmt.Printf("Coverage: %.1f%% of records, %.1f%% of %d unique keys (report: %s)\n",
			report.Coverage.RecordRate*100, report.Coverage.UniqueKeyRate*100,
			report.Coverage.TotalUniqueKeys, reportPath)
		return nil
	},
}

func init() {
	runCmd.Flags().String("input", "winemag-data.csv", "input dataset CSV")
	runCmd.Flags().String("output", "winemag-geocoded.csv", "cleaned output CSV")
	runCmd.Flags().String("cache", "", "cache file path (overrides config)")
	runCmd.Flags().String("report", "", "run report path (overrides config)")
	runCmd.Flags().Int("limit", 0, "process at most N records (0 = all)")
	rootCmd.AddCommand(runCmd)
}
