package pipeline

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/winemaps/vinegeo/internal/geocache"
	"github.com/winemaps/vinegeo/internal/model"
)

// Coverage reports resolution rates two ways. Per-record coverage is
// what the cleaned output retains; per-unique-key coverage is the
// quantity that actually bounds it, since one key serves every record
// sharing it.
type Coverage struct {
	TotalRecords    int     `yaml:"total_records"`
	CoveredRecords  int     `yaml:"covered_records"`
	RecordRate      float64 `yaml:"record_rate"`
	TotalUniqueKeys int     `yaml:"total_unique_keys"`
	ResolvedKeys    int     `yaml:"resolved_unique_keys"`
	UniqueKeyRate   float64 `yaml:"unique_key_rate"`
}

// Report is the per-run summary written after the pipeline finishes.
type Report struct {
	RunID        string     `yaml:"run_id"`
	StartedAt    time.Time  `yaml:"started_at"`
	FinishedAt   time.Time  `yaml:"finished_at"`
	DurationSecs float64    `yaml:"duration_secs"`
	Resolution   Stats      `yaml:"resolution"`
	Merge        MergeStats `yaml:"merge"`
	Coverage     Coverage   `yaml:"coverage"`
	CacheEntries int        `yaml:"cache_entries"`
	CacheDropped int        `yaml:"cache_dropped"`
}

// NewReport starts a report with a fresh run ID.
func NewReport() *Report {
	return &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
}

// Finish stamps the end time and duration.
func (r *Report) Finish() {
	r.FinishedAt = time.Now().UTC()
	r.DurationSecs = r.FinishedAt.Sub(r.StartedAt).Seconds()
}

// WriteFile serializes the report as YAML.
func (r *Report) WriteFile(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return eris.Wrap(err, "pipeline: marshal report")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "pipeline: write report")
	}
	return nil
}

// ComputeCoverage measures resolution rates against the final cache. A
// unique key is a distinct trimmed location triple; it counts as
// resolved when any of its candidate keys has a cache entry.
func ComputeCoverage(records []model.Record, cache *geocache.Cache) Coverage {
	cov := Coverage{TotalRecords: len(records)}

	keyResolved := make(map[string]bool)
	for _, rec := range records {
		text := locationText(rec)
		resolved, known := keyResolved[text]
		if !known {
			_, resolved = bestEntry(rec, cache)
			keyResolved[text] = resolved
		}
		if resolved {
			cov.CoveredRecords++
		}
	}

	cov.TotalUniqueKeys = len(keyResolved)
	for _, ok := range keyResolved {
		if ok {
			cov.ResolvedKeys++
		}
	}

	if cov.TotalRecords > 0 {
		cov.RecordRate = float64(cov.CoveredRecords) / float64(cov.TotalRecords)
	}
	if cov.TotalUniqueKeys > 0 {
		cov.UniqueKeyRate = float64(cov.ResolvedKeys) / float64(cov.TotalUniqueKeys)
	}
	return cov
}
