package engine

// ============================================================================
// ENGINE TYPES — Grouping and aggregation over enrolment-style datasets
// ============================================================================
// The engine knows nothing about Aadhaar, states or age brackets. It reads
// string dimensions and numeric measures through RecordView and returns
// render-ready output (chart config, detail table, or text summary).
//
// Dependency: engine has ZERO external dependencies.
// ============================================================================

// Record is a single data row with string dimensions and numeric measures.
// Used by SliceView for ad-hoc data; typed datasets bind through DomainAdapter.
type Record struct {
	Dimensions map[string]string  `json:"dimensions"`
	Measures   map[string]float64 `json:"measures"`
}

// ============================================================================
// QUERYSPEC — What the engine should compute
// ============================================================================

// QuerySpec defines one computation. Routers and the analysis catalogue
// produce it; Execute consumes it.
type QuerySpec struct {
	Intent      string   `json:"intent"`                // "chart" (default) or "table"
	Filters     Filters  `json:"filters"`               // Which records to include
	Aggregation string   `json:"aggregation"`           // "sum" (default) or "ratio"
	Measure     string   `json:"measure"`               // Measure to aggregate (empty → default)
	Denominator string   `json:"denominator,omitempty"` // Second measure for "ratio"
	GroupBy     []string `json:"groupBy"`               // ["state"], ["district"], ["month"]
	SortBy      string   `json:"sortBy"`                // "value_desc", "value_asc", "date_asc"
	Limit       int      `json:"limit"`                 // 0 = all
	Visualize   string   `json:"visualize"`             // "bar", "line", "table", "text"
	Title       string   `json:"title"`
	Reply       string   `json:"reply"` // Template: "{top_label} leads with {top_value}."
}

// Filters define which records to include.
// Keys are dimension names. Values are allowed values.
// OR within a dimension, AND across dimensions. Empty = all.
type Filters struct {
	Dimensions map[string][]string `json:"dimensions"`
}

// HasFilter returns true if a specific dimension filter is set.
func (f Filters) HasFilter(dimension string) bool {
	if f.Dimensions == nil {
		return false
	}
	vals, ok := f.Dimensions[dimension]
	return ok && len(vals) > 0
}

// IsEmpty returns true if no filters are set.
func (f Filters) IsEmpty() bool {
	for _, vals := range f.Dimensions {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// With returns a copy of f with values added to a dimension filter.
// Empty values are ignored so callers can pass optional selections directly.
func (f Filters) With(dimension string, values ...string) Filters {
	out := Filters{Dimensions: make(map[string][]string, len(f.Dimensions)+1)}
	for k, v := range f.Dimensions {
		out.Dimensions[k] = append([]string(nil), v...)
	}
	for _, v := range values {
		if v != "" {
			out.Dimensions[dimension] = append(out.Dimensions[dimension], v)
		}
	}
	return out
}

// ============================================================================
// RESULT — Render-ready output
// ============================================================================

// Result is the engine's render-ready output.
type Result struct {
	Success bool   `json:"success"`
	Type    string `json:"type"` // "chart", "table", "text"
	Reply   string `json:"reply"`
	Title   string `json:"title"`

	// ChartConfig is set for charts; TableData is set for charts and tables
	// (the detail table under the chart).
	ChartConfig *ChartConfig `json:"chartConfig,omitempty"`
	TableData   *TableData   `json:"tableData,omitempty"`
	Data        *TextData    `json:"data,omitempty"`

	// Groups is the computed aggregate, in display order.
	Groups []Group  `json:"groups,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// ============================================================================
// GROUP — Intermediate computation result
// ============================================================================

// Group represents a grouped/aggregated result.
// Builders convert these into ChartConfig, TableData, or TextData.
type Group struct {
	Key   string     `json:"key"`
	Label string     `json:"label"`
	Value float64    `json:"value"`
	Count int        `json:"count"`
	View  RecordView `json:"-"` // Sub-view for records in this group (zero-copy)
}

// ============================================================================
// CHART TYPES
// ============================================================================

// ChartConfig defines how to render a chart.
type ChartConfig struct {
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	Background string        `json:"background,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
	ShowValues bool          `json:"showValues"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint represents a single data point.
type ChartPoint struct {
	Label        string  `json:"label"`
	Value        float64 `json:"value"`
	DisplayValue string  `json:"displayValue,omitempty"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number", "percent"
	Align string `json:"align"` // "left", "center", "right"
}

// Summary provides totals for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}

// ============================================================================
// TEXT TYPES
// ============================================================================

// TextData summarises a month series: the period covered and its growth.
type TextData struct {
	Value    string      `json:"value"`
	RawValue float64     `json:"rawValue"`
	Period   string      `json:"period"`
	Count    int         `json:"count"`
	Growth   *GrowthData `json:"growth,omitempty"`
}

// GrowthData contains change-over-time metrics.
type GrowthData struct {
	EarliestValue  float64 `json:"earliestValue"`
	LatestValue    float64 `json:"latestValue"`
	EarliestPeriod string  `json:"earliestPeriod"`
	LatestPeriod   string  `json:"latestPeriod"`
	ChangeAmount   float64 `json:"changeAmount"`
	ChangePercent  float64 `json:"changePercent"`
	Direction      string  `json:"direction"` // "increased", "decreased", "unchanged", "insufficient data"
}
