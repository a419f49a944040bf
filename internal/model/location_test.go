package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocationKeyCanonical_FoldsCaseAndTrims(t *testing.T) {
	a := ProvinceKey("  Mendoza ", "Argentina")
	b := ProvinceKey("mendoza", " ARGENTINA ")

	assert.Equal(t, a.Canonical(), b.Canonical())
	assert.True(t, a.Equal(b))
	assert.Equal(t, "mendoza|argentina", a.Canonical())
}

func TestLocationKeyQuery(t *testing.T) {
	k := RegionKey("Mosel", "Rheinland-Pfalz", "Germany")
	assert.Equal(t, "Mosel, Rheinland-Pfalz, Germany", k.Query())
}

func TestLocationKey_DropsEmptyParts(t *testing.T) {
	// A region-level key for a record with no province still queries at
	// region specificity, just with a two-part tuple.
	k := RegionKey("Mosel", "  ", "Germany")
	assert.Equal(t, []string{"Mosel", "Germany"}, k.Parts())
	assert.Equal(t, LevelRegion, k.Level())
	assert.Equal(t, "Mosel, Germany", k.Query())
}

func TestLocationKey_Zero(t *testing.T) {
	k := CountryKey("   ")
	assert.True(t, k.IsZero())
	assert.Equal(t, LevelUnresolved, k.Level())
	assert.Equal(t, "", k.Query())
}

func TestLocationKeyLevels(t *testing.T) {
	assert.Equal(t, LevelRegion, RegionKey("Willamette Valley", "Oregon", "US").Level())
	assert.Equal(t, LevelProvince, ProvinceKey("Oregon", "US").Level())
	assert.Equal(t, LevelCountry, CountryKey("US").Level())
}

func TestResolutionResult_Resolved(t *testing.T) {
	assert.False(t, Unresolved(CountryKey("US")).Resolved())
	assert.True(t, ResolutionResult{Level: LevelProvince}.Resolved())
	assert.False(t, ResolutionResult{}.Resolved())
}

func TestValidCoordinates(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"valid", 45.2, -123.1, true},
		{"boundary", -90, 180, true},
		{"lat too high", 90.01, 0, false},
		{"lat too low", -90.01, 0, false},
		{"lon too high", 0, 180.5, false},
		{"lon too low", 0, -181, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidCoordinates(tt.lat, tt.lon))
		})
	}
}
