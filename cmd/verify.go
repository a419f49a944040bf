package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/winemaps/vinegeo/internal/geocache"
	"github.com/winemaps/vinegeo/internal/model"
	"github.com/winemaps/vinegeo/internal/pipeline"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run the secondary verification pass",
	Long:  "Re-resolves records the primary pass left unresolved, querying province and country regardless of region, through the same global rate budget.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		input, _ := cmd.Flags().GetString("input")
		cachePath, _ := cmd.Flags().GetString("cache")

		log := zap.L().With(zap.String("command", "verify"))

		ds, err := loadDataset(input)
		if err != nil {
			return err
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

		// Re-derive the unresolved subset by scanning the input against
		// the cache: idempotent, safe to repeat after interruption.
		unresolved := unresolvedRecords(ds.Records, cache)
		if len(unresolved) == 0 {
			fmt.Println("No unresolved records found")
			return nil
		}

		log.Info("starting secondary verification",
			zap.Int("unresolved", len(unresolved)),
			zap.Int("cached_keys", cache.Len()),
		)

		resolver := pipeline.NewResolver(newGeocodeClient(), cache)
		bar := newBar(len(unresolved), "Verifying")

		var recovered int
		for _, rec := range unresolved {
			res, err := resolver.VerifySecondary(ctx, rec)
			if err != nil {
				return eris.Wrap(err, "verify: pass aborted")
			}
			if res.Resolved() {
				recovered++
			}
			barAdd(bar)
		}

		stats := resolver.Stats()
		fmt.Printf("Secondary pass complete: %d unresolved records, %d recovered, %d calls\n",
			len(unresolved), recovered, stats.Calls)
		return nil
	},
}

// unresolvedRecords returns records with no cached entry at any
// candidate specificity.
func unresolvedRecords(records []model.Record, cache *geocache.Cache) []model.Record {
	var out []model.Record
	for _, rec := range records {
		keys := pipeline.CandidateKeys(rec)
		if len(keys) == 0 {
			continue
		}
		found := false
		for _, key := range keys {
			if _, ok := cache.Lookup(key); ok {
				found = true
				break
			}
		}
		if !found {
			out = append(out, rec)
		}
	}
	return out
}

func init() {
	verifyCmd.Flags().String("input", "winemag-data.csv", "input dataset CSV")
	verifyCmd.Flags().String("cache", "", "cache file path (overrides config)")
	rootCmd.AddCommand(verifyCmd)
}
