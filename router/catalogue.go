package router

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/spektr-org/ekta/dataset"
	"github.com/spektr-org/ekta/engine"
)

// ============================================================================
// ANALYSIS CATALOGUE — Named analyses the label router can pick
// ============================================================================

// Analysis is a preset aggregation over the enrolment table.
type Analysis struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Level       string `json:"level"`
	Measure     string `json:"measure"`
	Denominator string `json:"denominator,omitempty"` // set for ratio analyses
	Aggregation string `json:"aggregation"`
	SortBy      string `json:"sortBy"`
	Chart       string `json:"chart"` // bar | line | table
	Reply       string `json:"reply"` // engine reply template
}

// Temporal analyses plot every month rather than the top N.
func (a Analysis) Temporal() bool {
	return a.Level == dataset.DimMonth
}

// Catalogue lists every analysis in presentation order.
var Catalogue = []Analysis{
	{
		Name:        "Age-wise Aadhaar Coverage Imbalance",
		Description: "youth share of total enrolment per state",
		Level:       dataset.ColState,
		Measure:     dataset.ColAge5To17,
		Denominator: dataset.ColTotal,
		Aggregation: "ratio",
		SortBy:      "value_desc",
		Chart:       "bar",
		Reply:       "{top_label} has the highest youth share at {top_value}%.",
	},
	{
		Name:        "Regional Youth Population Pressure",
		Description: "youth (5–17) enrolment per state",
		Level:       dataset.ColState,
		Measure:     dataset.ColAge5To17,
		Aggregation: "sum",
		SortBy:      "value_desc",
		Chart:       "bar",
		Reply:       "{top_label} carries the most youth enrolments ({top_value}).",
	},
	{
		Name:        "Adult Enrollment Saturation Mapping",
		Description: "adult (17+) enrolment per state",
		Level:       dataset.ColState,
		Measure:     dataset.ColAge17Plus,
		Aggregation: "sum",
		SortBy:      "value_desc",
		Chart:       "bar",
		Reply:       "{top_label} leads adult enrolment with {top_value}; {bottom_label} is lowest of the {groups} shown.",
	},
	{
		Name:        "Temporal Growth Pattern Analysis",
		Description: "total enrolment per month",
		Level:       dataset.DimMonth,
		Measure:     dataset.ColTotal,
		Aggregation: "sum",
		SortBy:      "date_asc",
		Chart:       "line",
		Reply:       "Total enrolment {growth}.",
	},
	{
		Name:        "District-Level Demographic Disparity",
		Description: "total enrolment per district",
		Level:       dataset.ColDistrict,
		Measure:     dataset.ColTotal,
		Aggregation: "sum",
		SortBy:      "value_desc",
		Chart:       "bar",
		Reply:       "{top_label} leads with {top_value}, against {bottom_value} in {bottom_label}.",
	},
	{
		Name:        "Pincode-Level Coverage Gaps",
		Description: "pincodes with the lowest total enrolment",
		Level:       dataset.ColPincode,
		Measure:     dataset.ColTotal,
		Aggregation: "sum",
		SortBy:      "value_asc",
		Chart:       "table",
		Reply:       "{bottom_label} has the lowest enrolment at {bottom_value}.",
	},
	{
		Name:        "Youth-to-Adult Ratio Risk Zones",
		Description: "youth enrolment as a percentage of adult enrolment per district",
		Level:       dataset.ColDistrict,
		Measure:     dataset.ColAge5To17,
		Denominator: dataset.ColAge17Plus,
		Aggregation: "ratio",
		SortBy:      "value_desc",
		Chart:       "bar",
		Reply:       "{top_label} has {top_value} youth enrolments per 100 adults, the highest shown.",
	},
	{
		Name:        "State-wise Demographic Concentration",
		Description: "total enrolment per state",
		Level:       dataset.ColState,
		Measure:     dataset.ColTotal,
		Aggregation: "sum",
		SortBy:      "value_desc",
		Chart:       "bar",
		Reply:       "{top_label} holds the largest share with {top_value} enrolments.",
	},
	{
		Name:        "Longitudinal Stability Assessment",
		Description: "month-by-month total enrolment",
		Level:       dataset.DimMonth,
		Measure:     dataset.ColTotal,
		Aggregation: "sum",
		SortBy:      "date_asc",
		Chart:       "line",
		Reply:       "Enrolment {growth} across {count} records.",
	},
	{
		Name:        "Resource Allocation Optimization",
		Description: "districts carrying the highest enrolment load",
		Level:       dataset.ColDistrict,
		Measure:     dataset.ColTotal,
		Aggregation: "sum",
		SortBy:      "value_desc",
		Chart:       "bar",
		Reply:       "{top_label} carries the heaviest load with {top_value} enrolments.",
	},
}

// AnalysisNames returns catalogue names in order.
func AnalysisNames() []string {
	return lo.Map(Catalogue, func(a Analysis, _ int) string { return a.Name })
}

// LookupAnalysis finds an analysis by name, ignoring case and surrounding
// whitespace.
func LookupAnalysis(name string) (Analysis, bool) {
	name = strings.TrimSpace(name)
	return lo.Find(Catalogue, func(a Analysis) bool {
		return strings.EqualFold(a.Name, name)
	})
}

// ============================================================================
// PLANS
// ============================================================================

// Plan is one executable analysis derived from a decision.
type Plan struct {
	Name  string           `json:"name"`
	Topic string           `json:"topic"`
	Level string           `json:"level"`
	Spec  engine.QuerySpec `json:"spec"`
}

// Plans turns a decision into engine query specs: one per selected analysis,
// or a single top-N chart when no analyses were selected.
func (d Decision) Plans() []Plan {
	n := d.TopN
	if n <= 0 {
		n = DefaultTopN
	}

	if len(d.Analyses) > 0 {
		plans := make([]Plan, 0, len(d.Analyses))
		for _, name := range d.Analyses {
			a, ok := LookupAnalysis(name)
			if !ok {
				continue
			}
			plans = append(plans, a.plan(n))
		}
		if len(plans) > 0 {
			return plans
		}
	}

	title := d.Title
	if title == "" {
		title = fmt.Sprintf("Top %d %s Aadhaar Enrollment", n, TopicLabel(d.Topic))
	}
	return []Plan{{
		Name:  title,
		Topic: d.Topic,
		Level: d.Level,
		Spec: engine.QuerySpec{
			Intent:      "chart",
			Aggregation: "sum",
			Measure:     d.Measure(),
			GroupBy:     []string{d.Level},
			SortBy:      "value_desc",
			Limit:       n,
			Visualize:   "bar",
			Title:       title,
			Reply:       "{top_label} leads with {top_value} of {total} enrolments overall.",
		},
	}}
}

func (a Analysis) plan(n int) Plan {
	limit := n
	if a.Temporal() {
		limit = 0
	}
	intent := "chart"
	if a.Chart == "table" {
		intent = "table"
	}
	return Plan{
		Name:  a.Name,
		Topic: measureTopic(a.Measure),
		Level: a.Level,
		Spec: engine.QuerySpec{
			Intent:      intent,
			Aggregation: a.Aggregation,
			Measure:     a.Measure,
			Denominator: a.Denominator,
			GroupBy:     []string{a.Level},
			SortBy:      a.SortBy,
			Limit:       limit,
			Visualize:   a.Chart,
			Title:       a.Name,
			Reply:       a.Reply,
		},
	}
}

func measureTopic(measure string) string {
	switch measure {
	case dataset.ColAge17Plus:
		return TopicAdult
	case dataset.ColAge5To17:
		return TopicYouth
	default:
		return TopicTotal
	}
}
