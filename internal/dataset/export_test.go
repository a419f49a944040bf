package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winemaps/vinegeo/internal/model"
)

func TestExport_GeoJSONPointOrdering(t *testing.T) {
	header := []string{"title", "country", "province"}
	rows := []model.GeocodedRecord{
		{
			Record:    model.Record{Country: "US", Province: "Oregon", Row: []string{"Rainstorm", "US", "Oregon"}},
			Latitude:  43.9793,
			Longitude: -120.7372,
			Level:     model.LevelProvince,
		},
		{
			Record:    model.Record{Country: "Argentina", Province: "Mendoza", Row: []string{"Felix", "Argentina", "Mendoza"}},
			Latitude:  -32.88,
			Longitude: -68.85,
			Level:     model.LevelProvince,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, header, rows))

	scanner := bufio.NewScanner(&buf)
	var docs []map[string]any
	for scanner.Scan() {
		var doc map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &doc))
		docs = append(docs, doc)
	}
	require.Len(t, docs, 2)

	first := docs[0]
	assert.Equal(t, "Rainstorm", first["title"])
	assert.Equal(t, "US", first["country"])
	assert.InDelta(t, 43.9793, first["latitude"].(float64), 1e-9)
	assert.Equal(t, "province", first["resolution_level"])

	location, ok := first["location"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Point", location["type"])

	coords, ok := location["coordinates"].([]any)
	require.True(t, ok)
	require.Len(t, coords, 2)
	// GeoJSON mandates [longitude, latitude].
	assert.InDelta(t, -120.7372, coords[0].(float64), 1e-9)
	assert.InDelta(t, 43.9793, coords[1].(float64), 1e-9)
}
