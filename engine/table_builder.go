package engine

import (
	"fmt"
)

// ============================================================================
// TABLE BUILDER — Detail table from QuerySpec + Groups
// ============================================================================

// BuildTable produces the detail table shown under a chart: one row per group
// with its value and record count.
func BuildTable(spec QuerySpec, groups []Group, cfg *config) *TableData {
	if cfg == nil {
		cfg = applyOptions(nil)
	}
	if len(groups) == 0 {
		return &TableData{
			Title:   spec.Title,
			Columns: []Column{},
			Rows:    [][]string{},
		}
	}

	groupLabel := "Group"
	if len(spec.GroupBy) > 0 {
		groupLabel = LabelForDimension(spec.GroupBy[0])
	}

	valueLabel := cfg.measureLabel(spec.Measure)
	valueType := "number"
	if spec.Aggregation == "ratio" {
		valueLabel = LabelForAggregation("ratio")
		valueType = "percent"
	}

	columns := []Column{
		{Key: "group", Label: groupLabel, Type: "text", Align: "left"},
		{Key: "value", Label: valueLabel, Type: valueType, Align: "right"},
		{Key: "count", Label: "Records", Type: "number", Align: "right"},
	}

	rows := make([][]string, 0, len(groups))
	var totalValue float64
	var totalCount int

	for _, g := range groups {
		rows = append(rows, []string{
			g.Label,
			displayValue(spec, g.Value, cfg),
			FormatInt(g.Count),
		})
		totalValue += g.Value
		totalCount += g.Count
	}

	summary := &Summary{
		Label: fmt.Sprintf("Total (%d groups)", len(groups)),
		Values: map[string]string{
			"count": FormatInt(totalCount),
		},
	}
	// Percentages do not add up; only sums get a value total.
	if spec.Aggregation != "ratio" {
		summary.Values["value"] = cfg.Format(totalValue)
	}

	return &TableData{
		Title:   spec.Title,
		Columns: columns,
		Rows:    rows,
		Summary: summary,
	}
}
