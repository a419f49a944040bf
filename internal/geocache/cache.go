// Package geocache is the durable key→result store for resolved
// locations. The whole cache loads into memory at open and flushes
// incrementally via temp-file-plus-rename, so an interrupted run loses
// at most the last partial checkpoint batch.
package geocache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/winemaps/vinegeo/internal/model"
)

// DefaultCheckpointEvery is the number of new entries between flushes.
const DefaultCheckpointEvery = 50

// entry is the on-disk form of one resolved location.
type entry struct {
	Latitude   float64                `json:"latitude"`
	Longitude  float64                `json:"longitude"`
	Level      model.ResolutionLevel  `json:"level"`
	Source     model.ResolutionSource `json:"source"`
	ResolvedAt time.Time              `json:"resolved_at"`
}

// document is the single structured file mapping canonical key strings
// to entries.
type document struct {
	Entries map[string]json.RawMessage `json:"entries"`
}

// Cache holds resolved locations keyed by canonical key string. Only
// successful resolutions are stored; negative outcomes are never
// durable, so a later run may retry them.
type Cache struct {
	path            string
	checkpointEvery int

	entries map[string]entry
	pending int
	dropped int
}

// Open loads the cache file at path, dropping malformed or out-of-range
// entries rather than failing. A missing file yields an empty cache.
func Open(path string, checkpointEvery int) (*Cache, error) {
	if checkpointEvery <= 0 {
		checkpointEvery = DefaultCheckpointEvery
	}
	c := &Cache{
		path:            path,
		checkpointEvery: checkpointEvery,
		entries:         make(map[string]entry),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "geocache: read file")
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "geocache: parse file")
	}

	for key, raw := range doc.Entries {
		var e entry
		if err := json.Unmarshal(raw, &e); err != nil {
			c.dropped++
			zap.L().Warn("geocache: dropping malformed entry", zap.String("key", key), zap.Error(err))
			continue
		}
		if key == "" || !model.ValidCoordinates(e.Latitude, e.Longitude) || !validLevel(e.Level) {
			c.dropped++
			zap.L().Warn("geocache: dropping invalid entry",
				zap.String("key", key),
				zap.Float64("latitude", e.Latitude),
				zap.Float64("longitude", e.Longitude),
				zap.String("level", string(e.Level)),
			)
			continue
		}
		c.entries[key] = e
	}

	zap.L().Info("geocache: loaded",
		zap.String("path", path),
		zap.Int("entries", len(c.entries)),
		zap.Int("dropped", c.dropped),
	)
	return c, nil
}

func validLevel(l model.ResolutionLevel) bool {
	switch l {
	case model.LevelRegion, model.LevelProvince, model.LevelCountry:
		return true
	default:
		return false
	}
}

// Lookup returns the stored result for key, if present. The returned
// result carries the caller's key and the source recorded at store time.
func (c *Cache) Lookup(key model.LocationKey) (model.ResolutionResult, bool) {
	e, ok := c.entries[key.Canonical()]
	if !ok {
		return model.ResolutionResult{}, false
	}
	return model.ResolutionResult{
		Key:        key,
		Latitude:   e.Latitude,
		Longitude:  e.Longitude,
		Level:      e.Level,
		Source:     e.Source,
		ResolvedAt: e.ResolvedAt,
	}, true
}

// Store records a successful resolution. Storing is idempotent: a key
// already present keeps its original entry, so a success is never
// overwritten by a later attempt. Unresolved results are ignored — the
// cache is never allowed to pin a negative outcome.
func (c *Cache) Store(res model.ResolutionResult) error {
	if !res.Resolved() {
		return nil
	}
	if !model.ValidCoordinates(res.Latitude, res.Longitude) {
		return eris.Errorf("geocache: coordinates out of range (%f, %f) for %q",
			res.Latitude, res.Longitude, res.Key.Canonical())
	}

	canon := res.Key.Canonical()
	if canon == "" {
		return eris.New("geocache: empty canonical key")
	}
	if _, exists := c.entries[canon]; exists {
		return nil
	}

	c.entries[canon] = entry{
		Latitude:   res.Latitude,
		Longitude:  res.Longitude,
		Level:      res.Level,
		Source:     res.Source,
		ResolvedAt: res.ResolvedAt,
	}
	c.pending++

	if c.pending >= c.checkpointEvery {
		return c.Flush()
	}
	return nil
}

// Flush writes the full cache document atomically: temp file in the
// same directory, then rename, so a kill mid-write leaves the previous
// file intact.
func (c *Cache) Flush() error {
	doc := document{Entries: make(map[string]json.RawMessage, len(c.entries))}
	for key, e := range c.entries {
		raw, err := json.Marshal(e)
		if err != nil {
			return eris.Wrap(err, "geocache: marshal entry")
		}
		doc.Entries[key] = raw
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return eris.Wrap(err, "geocache: marshal document")
	}

	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, ".geocache-*.json")
	if err != nil {
		return eris.Wrap(err, "geocache: create temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		os.Remove(tmpName)
		return eris.Wrap(err, "geocache: write temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck
		os.Remove(tmpName)
		return eris.Wrap(err, "geocache: sync temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "geocache: close temp file")
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "geocache: rename temp file")
	}

	c.pending = 0
	return nil
}

// Close flushes any pending entries.
func (c *Cache) Close() error {
	if c.pending > 0 {
		return c.Flush()
	}
	return nil
}

// Len returns the number of cached resolutions.
func (c *Cache) Len() int { return len(c.entries) }

// Dropped returns the number of corrupt entries discarded at load.
func (c *Cache) Dropped() int { return c.dropped }

// Levels returns per-level counts of cached resolutions.
func (c *Cache) Levels() map[model.ResolutionLevel]int {
	counts := make(map[model.ResolutionLevel]int)
	for _, e := range c.entries {
		counts[e.Level]++
	}
	return counts
}
