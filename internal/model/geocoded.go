package model

// GeocodedRecord is a Record annotated with the coordinates of the most
// specific location key that resolved for it.
type GeocodedRecord struct {
	Record
	Latitude  float64
	Longitude float64
	Level     ResolutionLevel
}
