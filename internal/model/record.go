package model

// Record is one wine-review row. Country, Province and Region hold the
// raw text used to derive candidate keys; Row carries the full source
// row so descriptive columns pass through the pipeline unchanged.
type Record struct {
	Country  string
	Province string
	Region   string
	Row      []string
}
