package main

import (
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/winemaps/vinegeo/internal/dataset"
	"github.com/winemaps/vinegeo/internal/geocache"
	"github.com/winemaps/vinegeo/internal/resilience"
	"github.com/winemaps/vinegeo/pkg/geocode"
)

// newGeocodeClient builds the single upstream client shared by every
// pass of an invocation. The rate budget is per-process, so commands
// must never construct more than one.
func newGeocodeClient() geocode.Client {
	gc := cfg.Geocoder
	return geocode.NewClient(
		geocode.WithBaseURL(gc.BaseURL),
		geocode.WithUserAgent(gc.UserAgent),
		geocode.WithMinInterval(time.Duration(gc.MinIntervalMS)*time.Millisecond),
		geocode.WithRetry(resilience.RetryConfig{
			MaxAttempts:    gc.MaxAttempts,
			InitialBackoff: time.Duration(gc.InitialBackoffMS) * time.Millisecond,
			MaxBackoff:     time.Duration(gc.MaxBackoffMS) * time.Millisecond,
		}),
	)
}

// openCache opens the durable resolution cache, honoring a --cache
// flag override when non-empty.
func openCache(override string) (*geocache.Cache, error) {
	path := cfg.Cache.Path
	if override != "" {
		path = override
	}
	return geocache.Open(path, cfg.Cache.CheckpointEvery)
}

// loadDataset reads the input CSV with the configured column names.
func loadDataset(path string) (*dataset.File, error) {
	return dataset.ReadFile(path, dataset.Columns{
		Country:        cfg.Dataset.CountryColumn,
		Province:       cfg.Dataset.ProvinceColumn,
		Region:         cfg.Dataset.RegionColumn,
		RegionFallback: cfg.Dataset.RegionFallback,
	})
}

// newBar returns a progress bar when stderr is a terminal, nil otherwise.
func newBar(n int, description string) *progressbar.ProgressBar {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return nil
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func barAdd(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Add(1)
	}
}
