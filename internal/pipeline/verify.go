package pipeline

import (
	"context"

	"github.com/winemaps/vinegeo/internal/model"
)

// VerifySecondary re-resolves a record the primary pass left
// unresolved, through the alternate query path: province and country
// regardless of region. The call goes through the same shared client,
// so the global rate budget holds across both passes, and a success is
// stored in the same cache under the key actually satisfied with
// source=secondary. Keys that failed during the primary pass are
// retried here — upstream outages are transient, geography is not.
func (r *Resolver) VerifySecondary(ctx context.Context, rec model.Record) (model.ResolutionResult, error) {
	key := SecondaryKey(rec)
	if key.IsZero() {
		return model.Unresolved(key), nil
	}

	if res, ok := r.cache.Lookup(key); ok {
		r.stats.CacheHits++
		res.Source = model.SourceCache
		return res, nil
	}

	canon := key.Canonical()
	if _, tried := r.failedSecondary[canon]; tried {
		return model.Unresolved(key), nil
	}

	res, err := r.search(ctx, key, model.SourceSecondary)
	if err != nil {
		return model.ResolutionResult{}, err
	}
	if res.Resolved() {
		r.stats.Resolved++
		return res, nil
	}
	r.failedSecondary[canon] = struct{}{}
	return model.Unresolved(key), nil
}
