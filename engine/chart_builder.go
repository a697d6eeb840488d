package engine

// ============================================================================
// CHART BUILDER — Produces ChartConfig from QuerySpec + Groups
// ============================================================================
// Styling mirrors the dashboard: dark background, blue bars with a violet
// edge, value labels on bars, horizontal grid only.
// ============================================================================

// Chart palette.
const (
	ChartBackground = "#0b0f19"
	ChartPrimary    = "#4f7cff"
	ChartEdge       = "#9b5cff"
	ChartText       = "#e5e7eb"
)

var defaultColors = []string{
	ChartPrimary, ChartEdge, "#10B981", "#F59E0B", "#EF4444",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// BuildChart produces a ChartConfig from a QuerySpec and aggregated groups.
// Returns nil when there is nothing to draw.
func BuildChart(spec QuerySpec, groups []Group, cfg *config) *ChartConfig {
	if len(groups) == 0 {
		return nil
	}
	if cfg == nil {
		cfg = applyOptions(nil)
	}

	chartType := spec.Visualize
	if chartType == "" || chartType == "table" || chartType == "text" {
		chartType = "bar"
	}

	chart := &ChartConfig{
		ChartType:  chartType,
		Title:      spec.Title,
		Background: ChartBackground,
		ShowLegend: false,
		ShowGrid:   true,
		ShowValues: chartType == "bar",
	}

	if len(spec.GroupBy) > 0 {
		chart.XAxis = LabelForDimension(spec.GroupBy[0])
	}
	if spec.Aggregation == "ratio" {
		chart.YAxis = LabelForAggregation("ratio")
	} else {
		chart.YAxis = cfg.measureLabel(spec.Measure)
	}

	chart.Series = []ChartSeries{buildSeries(spec, groups, cfg)}
	chart.Colors = []string{ChartPrimary, ChartEdge}
	return chart
}

func buildSeries(spec QuerySpec, groups []Group, cfg *config) ChartSeries {
	name := spec.Title
	if name == "" {
		name = "Value"
	}

	points := make([]ChartPoint, 0, len(groups))
	for _, g := range groups {
		points = append(points, ChartPoint{
			Label:        g.Label,
			Value:        RoundTo2(g.Value),
			DisplayValue: displayValue(spec, g.Value, cfg),
		})
	}

	return ChartSeries{
		Name:  name,
		Data:  points,
		Color: ChartPrimary,
	}
}

func displayValue(spec QuerySpec, v float64, cfg *config) string {
	if spec.Aggregation == "ratio" {
		return FormatPercent(v)
	}
	return cfg.Format(v)
}
