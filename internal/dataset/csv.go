// Package dataset reads and writes the tabular wine-review data. The
// geographic columns are configurable; every other column passes
// through to the output unchanged.
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/winemaps/vinegeo/internal/model"
)

// Columns names the geographic columns in the input header. The
// fallback region column is consulted when the primary one is absent.
type Columns struct {
	Country        string
	Province       string
	Region         string
	RegionFallback string
}

// DefaultColumns matches the winemag review export.
func DefaultColumns() Columns {
	return Columns{
		Country:        "country",
		Province:       "province",
		Region:         "region_1",
		RegionFallback: "region",
	}
}

// File is a fully loaded input dataset.
type File struct {
	Header  []string
	Records []model.Record
}

// Read parses CSV rows from r. The first row must be a header
// containing at least the country column; province and region columns
// are optional. Rows with a variable number of fields are padded or
// truncated to the header width so descriptive columns stay aligned.
func Read(r io.Reader, cols Columns) (*File, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow variable fields
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("dataset: empty input")
	}
	if err != nil {
		return nil, eris.Wrap(err, "dataset: read header")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	countryIdx := columnIndex(header, cols.Country)
	if countryIdx < 0 {
		return nil, eris.Errorf("dataset: column %q not found in header", cols.Country)
	}
	provinceIdx := columnIndex(header, cols.Province)
	regionIdx := columnIndex(header, cols.Region)
	if regionIdx < 0 {
		regionIdx = columnIndex(header, cols.RegionFallback)
	}

	f := &File{Header: header}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "dataset: read row")
		}

		// Align the row to the header width.
		if len(row) < len(header) {
			padded := make([]string, len(header))
			copy(padded, row)
			row = padded
		} else if len(row) > len(header) {
			row = row[:len(header)]
		}

		rec := model.Record{
			Country: strings.TrimSpace(row[countryIdx]),
			Row:     row,
		}
		if provinceIdx >= 0 {
			rec.Province = strings.TrimSpace(row[provinceIdx])
		}
		if regionIdx >= 0 {
			rec.Region = strings.TrimSpace(row[regionIdx])
		}
		f.Records = append(f.Records, rec)
	}

	return f, nil
}

// ReadFile loads the dataset at path.
func ReadFile(path string, cols Columns) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: open input")
	}
	defer fh.Close() //nolint:errcheck
	return Read(fh, cols)
}

// columnIndex finds a header column by case-insensitive name.
func columnIndex(header []string, name string) int {
	if name == "" {
		return -1
	}
	for i, h := range header {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

// Write emits the cleaned dataset: the original header plus latitude,
// longitude and resolution_level, one row per geocoded record. Records
// without coordinates were already dropped by the merge stage.
func Write(w io.Writer, header []string, rows []model.GeocodedRecord) error {
	writer := csv.NewWriter(w)

	outHeader := make([]string, 0, len(header)+3)
	outHeader = append(outHeader, header...)
	outHeader = append(outHeader, "latitude", "longitude", "resolution_level")
	if err := writer.Write(outHeader); err != nil {
		return eris.Wrap(err, "dataset: write header")
	}

	for _, row := range rows {
		out := make([]string, 0, len(row.Row)+3)
		out = append(out, row.Row...)
		out = append(out,
			strconv.FormatFloat(row.Latitude, 'f', -1, 64),
			strconv.FormatFloat(row.Longitude, 'f', -1, 64),
			string(row.Level),
		)
		if err := writer.Write(out); err != nil {
			return eris.Wrap(err, "dataset: write row")
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return eris.Wrap(err, "dataset: flush output")
	}
	return nil
}

// WriteFile writes the cleaned dataset to path.
func WriteFile(path string, header []string, rows []model.GeocodedRecord) error {
	fh, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "dataset: create output")
	}
	defer fh.Close() //nolint:errcheck
	return Write(fh, header, rows)
}
