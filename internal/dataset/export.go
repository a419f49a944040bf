package dataset

import (
	"bufio"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/winemaps/vinegeo/internal/model"
)

// Export writes the cleaned dataset as JSON Lines documents shaped for
// the downstream document-store load: one object per record with the
// original columns keyed by header name, the resolved coordinates, and
// a GeoJSON Point "location" field in [longitude, latitude] order ready
// for a geospatial index.
func Export(w io.Writer, header []string, rows []model.GeocodedRecord) error {
	buf := bufio.NewWriter(w)
	enc := json.NewEncoder(buf)

	for _, row := range rows {
		point := geom.NewPointFlat(geom.XY, []float64{row.Longitude, row.Latitude})
		location, err := geojson.Marshal(point)
		if err != nil {
			return eris.Wrap(err, "dataset: marshal location")
		}

		doc := make(map[string]any, len(header)+4)
		for i, name := range header {
			if i < len(row.Row) && name != "" {
				doc[name] = row.Row[i]
			}
		}
		doc["latitude"] = row.Latitude
		doc["longitude"] = row.Longitude
		doc["resolution_level"] = string(row.Level)
		doc["location"] = json.RawMessage(location)

		if err := enc.Encode(doc); err != nil {
			return eris.Wrap(err, "dataset: encode document")
		}
	}

	if err := buf.Flush(); err != nil {
		return eris.Wrap(err, "dataset: flush export")
	}
	return nil
}

// ExportFile writes the JSON Lines export to path.
func ExportFile(path string, header []string, rows []model.GeocodedRecord) error {
	fh, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "dataset: create export")
	}
	defer fh.Close() //nolint:errcheck
	return Export(fh, header, rows)
}
