// Package plans holds the eSIM plan catalog: the canonical Plan shape, the
// CSV normalizer, the feed fetcher and the in-memory catalog store.
package plans

import "encoding/json"

const DefaultStatus = "active"

// Plan is a purchasable data plan in the catalog. Numeric fields that could
// not be parsed are nil and serialize as null.
//
// Raw holds the vendor record exactly as listed; it is nil for CSV plans.
type Plan struct {
	PackageCode  string   `json:"packageCode"`
	Name         string   `json:"name"`
	Region       string   `json:"region"`
	Country      string   `json:"country"`
	DataGB       *float64 `json:"dataGb"`
	ValidityDays *int     `json:"validityDays"`
	Price        int64    `json:"price"`
	Status       string   `json:"status"`

	Raw json.RawMessage `json:"-"`
}

// Source tags where a sync run read its plans from.
type Source string

const (
	SourceCSV    Source = "csv"
	SourceVendor Source = "vendor"
)

func (s Source) String() string {
	return string(s)
}
