package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// ============================================================================
// AGGREGATORS — Grouping, Aggregation, and Sorting via RecordView
// ============================================================================
// Grouping preserves first-appearance order of keys and every sort is stable,
// so ties always resolve to the order in which keys were first seen.
// ============================================================================

// Aggregate describes one group → aggregate → sort → limit pass.
type Aggregate struct {
	GroupBy     string // dimension key; empty = single "Total" group
	Measure     string
	Denominator string // second measure for "ratio"
	Aggregation string // "sum" or "ratio"
	SortBy      string
	Limit       int // 0 = all
}

// TopN groups the view by a dimension, sums the measure per group, and returns
// the n groups with the largest sums in descending order. Ties keep the order in
// which keys first appear. An empty view or a non-positive n yields no groups.
func TopN(view RecordView, groupBy, measure string, n int) []Group {
	if n <= 0 || view.Len() == 0 {
		return []Group{}
	}
	return GroupAndAggregate(view, Aggregate{
		GroupBy:     groupBy,
		Measure:     measure,
		Aggregation: "sum",
		SortBy:      "value_desc",
		Limit:       n,
	})
}

// GroupAndAggregate is the main entry point for the aggregation pipeline.
// Pipeline: group → aggregate → sort → limit.
func GroupAndAggregate(view RecordView, agg Aggregate) []Group {
	if view.Len() == 0 {
		return []Group{}
	}

	// 1. Group
	var groups []Group
	if agg.GroupBy == "" {
		groups = []Group{{
			Key:   "all",
			Label: "Total",
			View:  view,
		}}
	} else {
		groups = groupBySingle(view, agg.GroupBy)
	}

	// 2. Aggregate
	for i := range groups {
		aggregateGroup(&groups[i], agg)
	}

	// 3. Sort
	SortGroups(groups, agg.SortBy)

	// 4. Limit
	if agg.Limit > 0 && len(groups) > agg.Limit {
		groups = groups[:agg.Limit]
	}

	return groups
}

// ============================================================================
// GROUPING
// ============================================================================

func groupBySingle(view RecordView, dimension string) []Group {
	grouped := make(map[string][]int)
	order := make([]string, 0)

	for i := 0; i < view.Len(); i++ {
		key := getDimensionValue(view, i, dimension)
		if _, exists := grouped[key]; !exists {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], i)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		groups = append(groups, Group{
			Key:   key,
			Label: key,
			View:  newSubView(view, grouped[key]),
		})
	}
	return groups
}

// getDimensionValue extracts a dimension value from a view at index.
func getDimensionValue(view RecordView, i int, dimension string) string {
	return view.Dimension(i, dimension)
}

// ============================================================================
// AGGREGATION
// ============================================================================

func aggregateGroup(group *Group, agg Aggregate) {
	group.Count = group.View.Len()
	if group.Count == 0 {
		return
	}

	if agg.Aggregation == "ratio" {
		group.Value = RatioMeasure(group.View, agg.Measure, agg.Denominator)
		return
	}
	group.Value = SumMeasure(group.View, agg.Measure)
}

// SumMeasure sums a named measure across a view.
func SumMeasure(view RecordView, measure string) float64 {
	var total float64
	for i := 0; i < view.Len(); i++ {
		total += view.Measure(i, measure)
	}
	return total
}

// RatioMeasure returns sum(numerator) / sum(denominator) as a percentage.
// A zero denominator yields 0.
func RatioMeasure(view RecordView, numerator, denominator string) float64 {
	den := SumMeasure(view, denominator)
	if den == 0 {
		return 0
	}
	return SumMeasure(view, numerator) / den * 100
}

// ============================================================================
// SORTING
// ============================================================================

// SortGroups sorts aggregate groups by the specified sort mode.
// Sorting is stable: equal groups keep their current relative order.
func SortGroups(groups []Group, sortBy string) {
	switch sortBy {
	case "value_desc":
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Value > groups[j].Value })
	case "value_asc":
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Value < groups[j].Value })
	case "date_asc":
		sort.SliceStable(groups, func(i, j int) bool { return parseSortableDate(groups[i].Key) < parseSortableDate(groups[j].Key) })
	default:
		// preserve grouping order
	}
}

// ============================================================================
// DATES
// ============================================================================

// MonthLayout is the layout of the virtual "month" dimension ("Jan-2024").
const MonthLayout = "Jan-2006"

// ParseMonthOrder converts "Jan-2024" to a sortable int (202401).
func ParseMonthOrder(monthStr string) int {
	t, err := time.Parse(MonthLayout, monthStr)
	if err != nil {
		return 0
	}
	return t.Year()*100 + int(t.Month())
}

func parseSortableDate(key string) int {
	if v := ParseMonthOrder(key); v > 0 {
		return v
	}
	if t, err := time.Parse("2006-01-02", key); err == nil {
		return t.Year()*10000 + int(t.Month())*100 + t.Day()
	}
	return 0
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// FormatNumber formats whole numbers with comma separators and fractional
// values with two decimals.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return FormatInt(int(v))
	}
	negative := v < 0
	if negative {
		v = -v
	}
	intPart := math.Trunc(v)
	dec := int(math.Round((v - intPart) * 100))
	if dec == 100 {
		intPart++
		dec = 0
	}
	out := fmt.Sprintf("%s.%02d", FormatInt(int(intPart)), dec)
	if negative {
		out = "-" + out
	}
	return out
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// FormatPercent formats a percentage with one decimal.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// UniqueValues returns distinct non-empty values for a dimension, in
// first-appearance order.
func UniqueValues(view RecordView, dimension string) []string {
	seen := make(map[string]bool)
	var result []string
	for i := 0; i < view.Len(); i++ {
		val := getDimensionValue(view, i, dimension)
		if val != "" && !seen[val] {
			seen[val] = true
			result = append(result, val)
		}
	}
	return result
}

// LabelForDimension returns a display label for a dimension key
// ("demo_age_5_17" → "Demo Age 5 17").
func LabelForDimension(dimension string) string {
	if dimension == "" {
		return ""
	}
	words := strings.Fields(strings.ReplaceAll(dimension, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// LabelForAggregation returns a human-readable label for an aggregation type.
func LabelForAggregation(aggregation string) string {
	switch aggregation {
	case "sum":
		return "Total"
	case "ratio":
		return "Share (%)"
	default:
		return "Value"
	}
}
