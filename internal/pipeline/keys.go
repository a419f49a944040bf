// Package pipeline implements the offline geocoding resolution passes:
// candidate key derivation, primary resolution with hierarchical
// fallback, secondary verification, and the merge stage that joins
// resolved coordinates back onto the full record set.
package pipeline

import (
	"strings"

	"github.com/winemaps/vinegeo/internal/model"
)

// CandidateKeys derives the ordered candidate lookup keys for a record,
// most specific first: a region-level key when the record has a region,
// a province-level key when it has a province, and always the country
// key. Whitespace-only fields never reach the upstream query. A record
// with no country yields no candidates and is rejected locally with
// zero network calls. The sequence is deterministic and recomputable
// from the record alone; it never exceeds three entries.
func CandidateKeys(rec model.Record) []model.LocationKey {
	if strings.TrimSpace(rec.Country) == "" {
		return nil
	}

	var keys []model.LocationKey
	if strings.TrimSpace(rec.Region) != "" {
		keys = append(keys, model.RegionKey(rec.Region, rec.Province, rec.Country))
	}
	if strings.TrimSpace(rec.Province) != "" {
		keys = append(keys, model.ProvinceKey(rec.Province, rec.Country))
	}
	keys = append(keys, model.CountryKey(rec.Country))
	return keys
}

// SecondaryKey is the alternate query path for the verification pass:
// province and country regardless of region, or the bare country when
// the record has no province. Zero when the record has no country.
func SecondaryKey(rec model.Record) model.LocationKey {
	if strings.TrimSpace(rec.Country) == "" {
		return model.LocationKey{}
	}
	if strings.TrimSpace(rec.Province) == "" {
		return model.CountryKey(rec.Country)
	}
	return model.ProvinceKey(rec.Province, rec.Country)
}
