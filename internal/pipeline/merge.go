package pipeline

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/winemaps/vinegeo/internal/geocache"
	"github.com/winemaps/vinegeo/internal/model"
)

// MergeInconsistencyError means two records with identical location
// text were assigned different coordinates. That indicates cache
// corruption, not a coverage gap, so the batch must abort rather than
// emit inconsistent data.
type MergeInconsistencyError struct {
	LocationText string
	First        [2]float64
	Second       [2]float64
}

func (e *MergeInconsistencyError) Error() string {
	return fmt.Sprintf("pipeline: records sharing %q merged to different coordinates (%f, %f) vs (%f, %f)",
		e.LocationText, e.First[0], e.First[1], e.Second[0], e.Second[1])
}

// MergeStats summarizes the merge stage.
type MergeStats struct {
	Input   int                           `yaml:"input"`
	Merged  int                           `yaml:"merged"`
	Dropped int                           `yaml:"dropped"`
	ByLevel map[model.ResolutionLevel]int `yaml:"by_level"`
}

// Merge joins the final cache contents back onto the full record set:
// each record gets the coordinates of its most specific candidate key
// with a successful cache entry, and records with no entry at any
// specificity are dropped. Because keys are derived identically to the
// resolution passes, one cached geocode serves every record sharing the
// key. After merging, records that share identical trimmed location
// text are verified to carry identical coordinates.
func Merge(records []model.Record, cache *geocache.Cache) ([]model.GeocodedRecord, MergeStats, error) {
	stats := MergeStats{
		Input:   len(records),
		ByLevel: make(map[model.ResolutionLevel]int),
	}

	merged := make([]model.GeocodedRecord, 0, len(records))
	seen := make(map[string][2]float64)

	for _, rec := range records {
		res, ok := bestEntry(rec, cache)
		if !ok {
			stats.Dropped++
			continue
		}

		text := locationText(rec)
		if prev, dup := seen[text]; dup {
			if prev[0] != res.Latitude || prev[1] != res.Longitude {
				return nil, stats, &MergeInconsistencyError{
					LocationText: text,
					First:        prev,
					Second:       [2]float64{res.Latitude, res.Longitude},
				}
			}
		} else {
			seen[text] = [2]float64{res.Latitude, res.Longitude}
		}

		merged = append(merged, model.GeocodedRecord{
			Record:    rec,
			Latitude:  res.Latitude,
			Longitude: res.Longitude,
			Level:     res.Level,
		})
		stats.Merged++
		stats.ByLevel[res.Level]++
	}

	return merged, stats, nil
}

// bestEntry finds the most specific cached resolution for a record.
func bestEntry(rec model.Record, cache *geocache.Cache) (model.ResolutionResult, bool) {
	for _, key := range CandidateKeys(rec) {
		if res, ok := cache.Lookup(key); ok {
			return res, true
		}
	}
	return model.ResolutionResult{}, false
}

// locationText canonicalizes the record's raw location triple for the
// consistency check.
func locationText(rec model.Record) string {
	folder := cases.Fold()
	return strings.Join([]string{
		folder.String(strings.TrimSpace(rec.Country)),
		folder.String(strings.TrimSpace(rec.Province)),
		folder.String(strings.TrimSpace(rec.Region)),
	}, "|")
}
