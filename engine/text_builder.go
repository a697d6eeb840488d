package engine

import (
	"fmt"
	"sort"
)

// ============================================================================
// TEXT BUILDER — Month-over-period change for temporal panels
// ============================================================================

// BuildGrowthText compares the earliest and latest month totals of a measure.
func BuildGrowthText(view RecordView, measure string, cfg *config) *TextData {
	if cfg == nil {
		cfg = applyOptions(nil)
	}
	if view.Len() == 0 {
		return &TextData{
			Value:  "No data",
			Period: "No data",
		}
	}

	monthTotals := make(map[string]float64)
	for i := 0; i < view.Len(); i++ {
		month := view.Dimension(i, "month")
		if month == "" {
			continue
		}
		monthTotals[month] += view.Measure(i, measure)
	}

	if len(monthTotals) < 2 {
		total := SumMeasure(view, measure)
		period := DerivePeriod(view)
		return &TextData{
			Value:    cfg.Format(total),
			RawValue: total,
			Period:   period,
			Count:    view.Len(),
			Growth: &GrowthData{
				EarliestValue:  total,
				LatestValue:    total,
				EarliestPeriod: period,
				LatestPeriod:   period,
				Direction:      "insufficient data",
			},
		}
	}

	months := sortedMonths(monthTotals)
	earliest, latest := months[0], months[len(months)-1]
	first, last := monthTotals[earliest], monthTotals[latest]

	change := last - first
	var changePercent float64
	if first != 0 {
		changePercent = change / first * 100
	}

	direction := "unchanged"
	display := "→ No change"
	switch {
	case changePercent > 0.5:
		direction = "increased"
		display = fmt.Sprintf("↑ %.1f%%", changePercent)
	case changePercent < -0.5:
		direction = "decreased"
		display = fmt.Sprintf("↓ %.1f%%", -changePercent)
	}

	return &TextData{
		Value:    display,
		RawValue: changePercent,
		Period:   fmt.Sprintf("%s – %s", earliest, latest),
		Count:    view.Len(),
		Growth: &GrowthData{
			EarliestValue:  first,
			LatestValue:    last,
			EarliestPeriod: earliest,
			LatestPeriod:   latest,
			ChangeAmount:   change,
			ChangePercent:  changePercent,
			Direction:      direction,
		},
	}
}

func sortedMonths(totals map[string]float64) []string {
	months := make([]string, 0, len(totals))
	for m := range totals {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool {
		return ParseMonthOrder(months[i]) < ParseMonthOrder(months[j])
	})
	return months
}

// ============================================================================
// PERIOD HELPER
// ============================================================================

// DerivePeriod builds a human-readable period string ("Jan-2024 – Mar-2024").
func DerivePeriod(view RecordView) string {
	if view.Len() == 0 {
		return "No data"
	}

	seen := make(map[string]float64)
	for i := 0; i < view.Len(); i++ {
		if m := view.Dimension(i, "month"); m != "" {
			seen[m] = 0
		}
	}

	switch len(seen) {
	case 0:
		return "All time"
	case 1:
		for m := range seen {
			return m
		}
	}

	months := sortedMonths(seen)
	return fmt.Sprintf("%s – %s", months[0], months[len(months)-1])
}
