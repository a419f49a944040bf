package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/winemaps/vinegeo/internal/geocache"
	"github.com/winemaps/vinegeo/internal/model"
	"github.com/winemaps/vinegeo/pkg/geocode"
)

// Resolver orchestrates key derivation, the cache and the upstream
// client to resolve one record at a time. It is single-worker by
// design: the upstream rate budget is global, so record-level work is
// never parallelized even though it would otherwise be independent.
type Resolver struct {
	client geocode.Client
	cache  *geocache.Cache

	// failed marks canonical keys that were tried and failed during
	// this run. Fallback must distinguish "tried and failed" from "not
	// yet tried", and records sharing a failed key must not repeat the
	// call — but the marks are never persisted, so a later run retries.
	failed          map[string]struct{}
	failedSecondary map[string]struct{}

	stats Stats
}

// Stats counts resolution outcomes across both passes.
type Stats struct {
	Records      int `yaml:"records"`
	CacheHits    int `yaml:"cache_hits"`
	Calls        int `yaml:"calls"`
	Resolved     int `yaml:"resolved"`
	NoMatches    int `yaml:"no_matches"`
	Rejected     int `yaml:"rejected"`
	Unavailable  int `yaml:"unavailable"`
	LocalRejects int `yaml:"local_rejects"`
}

// NewResolver builds a Resolver sharing the given client and cache.
// Both passes must share one client instance so the global rate budget
// holds across them.
func NewResolver(client geocode.Client, cache *geocache.Cache) *Resolver {
	return &Resolver{
		client:          client,
		cache:           cache,
		failed:          make(map[string]struct{}),
		failedSecondary: make(map[string]struct{}),
	}
}

// Stats returns the outcome counters accumulated so far.
func (r *Resolver) Stats() Stats { return r.stats }

// Resolve resolves one record through the hierarchical fallback chain:
// for each candidate key, most specific first, a cache hit returns
// immediately with no network call; otherwise one scheduled upstream
// search runs. An upstream failure at one level is recorded against
// that key and resolution falls through to the next less-specific key,
// so a transient outage never silently masquerades as "no data exists".
// When every candidate is exhausted the record is UNRESOLVED — a
// terminal classification, not an error. The returned error is non-nil
// only for cancellation or cache persistence failures.
func (r *Resolver) Resolve(ctx context.Context, rec model.Record) (model.ResolutionResult, error) {
	r.stats.Records++

	keys := CandidateKeys(rec)
	if len(keys) == 0 {
		r.stats.LocalRejects++
		return model.Unresolved(model.LocationKey{}), nil
	}

	for _, key := range keys {
		if res, ok := r.cache.Lookup(key); ok {
			r.stats.CacheHits++
			res.Source = model.SourceCache
			return res, nil
		}

		canon := key.Canonical()
		if _, tried := r.failed[canon]; tried {
			continue
		}

		res, err := r.search(ctx, key, model.SourcePrimary)
		if err != nil {
			return model.ResolutionResult{}, err
		}
		if res.Resolved() {
			r.stats.Resolved++
			return res, nil
		}
		r.failed[canon] = struct{}{}
	}

	return model.Unresolved(keys[0]), nil
}

// search performs one scheduled upstream call for key and stores a
// successful result in the cache. A zero result means the key failed
// (no match, rejected, or upstream unavailable after retries); the
// outcome is counted but swallowed so the caller can fall back.
func (r *Resolver) search(ctx context.Context, key model.LocationKey, source model.ResolutionSource) (model.ResolutionResult, error) {
	r.stats.Calls++

	match, err := r.client.Search(ctx, key.Query())
	if ctx.Err() != nil {
		return model.ResolutionResult{}, eris.Wrap(ctx.Err(), "pipeline: resolve cancelled")
	}
	if err != nil {
		switch {
		case geocode.IsQueryRejected(err):
			r.stats.Rejected++
		case geocode.IsUpstreamUnavailable(err):
			r.stats.Unavailable++
		}
		zap.L().Warn("upstream search failed",
			zap.String("query", key.Query()),
			zap.String("level", string(key.Level())),
			zap.Error(err),
		)
		return model.ResolutionResult{}, nil
	}
	if match == nil {
		r.stats.NoMatches++
		return model.ResolutionResult{}, nil
	}

	if !model.ValidCoordinates(match.Latitude, match.Longitude) {
		r.stats.NoMatches++
		zap.L().Warn("discarding out-of-range match",
			zap.String("query", key.Query()),
			zap.Float64("latitude", match.Latitude),
			zap.Float64("longitude", match.Longitude),
		)
		return model.ResolutionResult{}, nil
	}

	res := model.ResolutionResult{
		Key:        key,
		Latitude:   match.Latitude,
		Longitude:  match.Longitude,
		Level:      key.Level(),
		Source:     source,
		ResolvedAt: time.Now().UTC(),
	}
	if err := r.cache.Store(res); err != nil {
		return model.ResolutionResult{}, eris.Wrap(err, "pipeline: store result")
	}
	return res, nil
}
