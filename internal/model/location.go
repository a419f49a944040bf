package model

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// ResolutionLevel is the geographic specificity at which a coordinate
// was ultimately obtained.
type ResolutionLevel string

const (
	LevelRegion     ResolutionLevel = "region"
	LevelProvince   ResolutionLevel = "province"
	LevelCountry    ResolutionLevel = "country"
	LevelUnresolved ResolutionLevel = "unresolved"
)

// ResolutionSource records which pass produced a result.
type ResolutionSource string

const (
	SourcePrimary   ResolutionSource = "primary"
	SourceSecondary ResolutionSource = "secondary"
	SourceCache     ResolutionSource = "cache"
)

// LocationKey is a geographic lookup tuple at one specificity level,
// ordered most specific part first. Empty or whitespace-only parts are
// excluded at construction, so a region-level key for a record without
// a province is simply (region, country). Immutable once constructed.
type LocationKey struct {
	parts []string
	level ResolutionLevel
}

// RegionKey builds a region-level key from the raw triple.
func RegionKey(region, province, country string) LocationKey {
	return newKey(LevelRegion, region, province, country)
}

// ProvinceKey builds a province-level key.
func ProvinceKey(province, country string) LocationKey {
	return newKey(LevelProvince, province, country)
}

// CountryKey builds a country-level key.
func CountryKey(country string) LocationKey {
	return newKey(LevelCountry, country)
}

func newKey(level ResolutionLevel, parts ...string) LocationKey {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return LocationKey{}
	}
	return LocationKey{parts: kept, level: level}
}

// IsZero reports whether the key has no parts.
func (k LocationKey) IsZero() bool { return len(k.parts) == 0 }

// Parts returns a copy of the key's parts.
func (k LocationKey) Parts() []string {
	out := make([]string, len(k.parts))
	copy(out, k.parts)
	return out
}

// Level is the specificity this key queries at.
func (k LocationKey) Level() ResolutionLevel {
	if k.IsZero() {
		return LevelUnresolved
	}
	return k.level
}

// Query formats the key as free text for the upstream search endpoint,
// e.g. "Mosel, Rheinland-Pfalz, Germany".
func (k LocationKey) Query() string {
	return strings.Join(k.parts, ", ")
}

// Canonical returns the case-folded pipe-joined form used as the cache
// key. Two keys are equal iff their canonical forms are equal; the same
// canonicalization must be applied on store and lookup.
func (k LocationKey) Canonical() string {
	folder := cases.Fold()
	folded := make([]string, len(k.parts))
	for i, p := range k.parts {
		folded[i] = folder.String(p)
	}
	return strings.Join(folded, "|")
}

// Equal reports whether two keys canonicalize identically.
func (k LocationKey) Equal(other LocationKey) bool {
	return k.Canonical() == other.Canonical()
}

// ResolutionResult is the outcome of resolving one LocationKey.
// Latitude and Longitude are meaningful only when Resolved reports true.
type ResolutionResult struct {
	Key        LocationKey
	Latitude   float64
	Longitude  float64
	Level      ResolutionLevel
	Source     ResolutionSource
	ResolvedAt time.Time
}

// Resolved reports whether the result carries coordinates.
func (r ResolutionResult) Resolved() bool {
	return r.Level != LevelUnresolved && r.Level != ""
}

// Unresolved returns the terminal no-coordinates result for a key.
func Unresolved(key LocationKey) ResolutionResult {
	return ResolutionResult{Key: key, Level: LevelUnresolved, ResolvedAt: time.Now().UTC()}
}

// ValidCoordinates reports whether lat/lon fall inside valid WGS84
// ranges. Out-of-range pairs are never stored or emitted.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
