package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/winemaps/vinegeo/internal/pipeline"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Run the primary resolution pass",
	Long:  "Resolves every record's candidate keys through the cache and the rate-limited upstream geocoder, most specific level first, falling back on failure. Safe to interrupt and re-run: resolved keys checkpoint to the cache file.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		input, _ := cmd.Flags().GetString("input")
		cachePath, _ := cmd.Flags().GetString("cache")
		limit, _ := cmd.Flags().GetInt("limit")

		log := zap.L().With(zap.String("command", "resolve"))

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

		log.Info("starting primary resolution",
			zap.Int("records", len(records)),
			zap.Int("cached_keys", cache.Len()),
		)

		resolver := pipeline.NewResolver(newGeocodeClient(), cache)
		bar := newBar(len(records), "Resolving")

		for _, rec := range records {
			if _, err := resolver.Resolve(ctx, rec); err != nil {
				return eris.Wrap(err, "resolve: pass aborted")
			}
			barAdd(bar)
		}

		stats := resolver.Stats()
		fmt.Printf("Primary pass complete: %d records, %d cache hits, %d calls, %d resolved, %d no-match, %d rejected, %d unavailable, %d without country\n",
			stats.Records, stats.CacheHits, stats.Calls, stats.Resolved,
			stats.NoMatches, stats.Rejected, stats.Unavailable, stats.LocalRejects)
		return nil
	},
}

func init() {
	resolveCmd.Flags().String("input", "winemag-data.csv", "input dataset CSV")
	resolveCmd.Flags().String("cache", "", "cache file path (overrides config)")
	resolveCmd.Flags().Int("limit", 0, "resolve at most N records (0 = all)")
	rootCmd.AddCommand(resolveCmd)
}
