package dataset

import (
	"time"

	"github.com/spektr-org/ekta/engine"
)

// Column names of the enrolment CSV, after header trimming and lower-casing.
const (
	ColState     = "state"
	ColDistrict  = "district"
	ColPincode   = "pincode"
	ColDate      = "date"
	ColAge5To17  = "demo_age_5_17"
	ColAge17Plus = "demo_age_17_"
)

// Derived keys exposed through the table view.
const (
	ColTotal = "total_aadhaar" // ColAge5To17 + ColAge17Plus
	DimMonth = "month"         // "Jan-2024", derived from the date
)

// Levels are the grouping keys a query may aggregate on.
var Levels = []string{ColState, ColDistrict, ColPincode}

// Record is one row of enrolment data.
type Record struct {
	State     string    `json:"state"`
	District  string    `json:"district"`
	Pincode   string    `json:"pincode"`
	Date      time.Time `json:"date"`
	Age5To17  int64     `json:"demo_age_5_17"`
	Age17Plus int64     `json:"demo_age_17_"`
}

// Total is the derived enrolment count across both age brackets.
func (r Record) Total() int64 {
	return r.Age5To17 + r.Age17Plus
}

// Month returns the record's month in engine.MonthLayout.
func (r Record) Month() string {
	return r.Date.Format(engine.MonthLayout)
}

// MeasureLabels are display names for the table's measures.
var MeasureLabels = map[string]string{
	ColAge5To17:  "Youth (5–17)",
	ColAge17Plus: "Adults (17+)",
	ColTotal:     "Total Aadhaar",
}

// newAdapter registers accessors only for the columns the loaded header
// carried, so aggregating on an absent column fails at query time.
func newAdapter(has func(string) bool) *engine.DomainAdapter[Record] {
	a := engine.NewDomainAdapter[Record]()
	if has(ColState) {
		a.Dimension(ColState, func(r Record) string { return r.State })
	}
	if has(ColDistrict) {
		a.Dimension(ColDistrict, func(r Record) string { return r.District })
	}
	if has(ColPincode) {
		a.Dimension(ColPincode, func(r Record) string { return r.Pincode })
	}
	a.Dimension(ColDate, func(r Record) string { return r.Date.Format("2006-01-02") })
	a.Dimension(DimMonth, func(r Record) string { return r.Month() })

	if has(ColAge5To17) {
		a.Measure(ColAge5To17, func(r Record) float64 { return float64(r.Age5To17) })
	}
	if has(ColAge17Plus) {
		a.Measure(ColAge17Plus, func(r Record) float64 { return float64(r.Age17Plus) })
	}
	if has(ColAge5To17) && has(ColAge17Plus) {
		a.Measure(ColTotal, func(r Record) float64 { return float64(r.Total()) })
	}
	return a
}
