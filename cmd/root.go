package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/winemaps/vinegeo/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "vinegeo",
	Short: "Wine-review geocoding resolution pipeline",
	Long:  "Resolves free-text country/province/region triples to verified coordinates through a rate-limited upstream geocoder, with a durable resolution cache, a secondary verification pass, and a merge stage that emits the coordinate-complete dataset.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
