package engine

import (
	"errors"
	"strings"
	"testing"
)

// ============================================================================
// EXECUTOR TESTS
// ============================================================================

func chartSpec() QuerySpec {
	return QuerySpec{
		Intent:      "chart",
		Aggregation: "sum",
		Measure:     "total_aadhaar",
		GroupBy:     []string{"state"},
		SortBy:      "value_desc",
		Limit:       2,
		Visualize:   "bar",
		Title:       "Top 2 Total Aadhaar Enrollment",
	}
}

func TestExecuteChartWithDetailTable(t *testing.T) {
	res, err := Execute(chartSpec(), sampleView())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	assertEqual(t, res.Type, "chart", "result type")
	if res.ChartConfig == nil || res.TableData == nil {
		t.Fatal("chart result must carry chart config and detail table")
	}

	points := res.ChartConfig.Series[0].Data
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	assertEqual(t, points[0].Label, "Uttar Pradesh", "first bar")
	assertFloat(t, points[0].Value, 450, "first bar value")
	assertEqual(t, points[0].DisplayValue, "450", "first bar label")
	assertEqual(t, res.ChartConfig.XAxis, "State", "x axis")
	assertEqual(t, res.ChartConfig.Background, ChartBackground, "background")

	if len(res.TableData.Rows) != 2 {
		t.Fatalf("expected 2 table rows, got %d", len(res.TableData.Rows))
	}
	assertEqual(t, res.TableData.Rows[1][0], "Bihar", "second row label")
	assertEqual(t, res.TableData.Rows[1][1], "260", "second row value")
	if !strings.Contains(res.Reply, "Uttar Pradesh") {
		t.Errorf("default reply should mention the leader, got %q", res.Reply)
	}
}

func TestExecuteFiltersCaseInsensitive(t *testing.T) {
	spec := chartSpec()
	spec.Limit = 0
	spec.GroupBy = []string{"district"}
	spec.Filters = Filters{}.With("state", " kerala ")

	res, err := Execute(spec, sampleView())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(res.Groups) != 1 {
		t.Fatalf("expected only Kochi, got %d groups", len(res.Groups))
	}
	assertEqual(t, res.Groups[0].Key, "Kochi", "district")
	assertFloat(t, res.Groups[0].Value, 105, "Kochi total")
	if res.Groups[0].Count != 2 {
		t.Errorf("Kochi count: got %d, want 2", res.Groups[0].Count)
	}
}

func TestExecuteNoMatches(t *testing.T) {
	spec := chartSpec()
	spec.Filters = Filters{}.With("state", "Atlantis")

	res, err := Execute(spec, sampleView())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	assertEqual(t, res.Type, "text", "type")
	if len(res.Groups) != 0 {
		t.Errorf("expected no groups, got %d", len(res.Groups))
	}
}

func TestExecuteEmptyView(t *testing.T) {
	res, err := Execute(chartSpec(), NewSliceView(nil))
	if err != nil {
		t.Fatalf("empty view must not fail: %v", err)
	}
	if len(res.Groups) != 0 {
		t.Errorf("expected empty result")
	}
}

func TestExecuteUnknownKeys(t *testing.T) {
	spec := chartSpec()
	spec.Measure = "biometric_count"
	if _, err := Execute(spec, sampleView()); !errors.Is(err, ErrUnknownMeasure) {
		t.Errorf("expected ErrUnknownMeasure, got %v", err)
	}

	spec = chartSpec()
	spec.GroupBy = []string{"village"}
	if _, err := Execute(spec, sampleView()); !errors.Is(err, ErrUnknownDimension) {
		t.Errorf("expected ErrUnknownDimension, got %v", err)
	}
}

func TestExecuteReplyTemplate(t *testing.T) {
	spec := chartSpec()
	spec.Reply = "{top_label} leads with {top_value} of {total} {unknown}."
	res, err := Execute(spec, sampleView(), WithFormatter(func(v float64) string { return FormatInt(int(v)) }))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	assertEqual(t, res.Reply, "Uttar Pradesh leads with 450 of 815", "reply")
}

func TestExecuteRatioTable(t *testing.T) {
	spec := QuerySpec{
		Intent:      "table",
		Aggregation: "ratio",
		Measure:     "demo_age_5_17",
		Denominator: "total_aadhaar",
		GroupBy:     []string{"state"},
		SortBy:      "value_desc",
	}
	res, err := Execute(spec, sampleView())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	assertEqual(t, res.TableData.Columns[1].Type, "percent", "value column type")
	assertEqual(t, res.TableData.Rows[0][0], "Uttar Pradesh", "highest youth share")
	assertEqual(t, res.TableData.Rows[0][1], "77.8%", "Uttar Pradesh share")
	if _, ok := res.TableData.Summary.Values["value"]; ok {
		t.Error("ratio tables must not total percentages")
	}
}

func monthView(months ...string) RecordView {
	records := make([]Record, len(months))
	for i, m := range months {
		records[i] = Record{
			Dimensions: map[string]string{"month": m},
			Measures:   map[string]float64{"n": float64(50 * (i + 1))},
		}
	}
	return NewSliceView(records)
}

func monthSpec() QuerySpec {
	return QuerySpec{
		Intent:      "chart",
		Aggregation: "sum",
		Measure:     "n",
		GroupBy:     []string{"month"},
		SortBy:      "date_asc",
		Visualize:   "line",
		Reply:       "Monthly enrolment {growth}.",
	}
}

func TestExecuteMonthSeriesCarriesGrowth(t *testing.T) {
	// Feb-2024: 50, Jan-2024: 100, Feb-2024: 150 → Jan 100, Feb 200.
	res, err := Execute(monthSpec(), monthView("Feb-2024", "Jan-2024", "Feb-2024"))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	assertEqual(t, res.Groups[0].Key, "Jan-2024", "first month")
	if res.Data == nil || res.Data.Growth == nil {
		t.Fatal("month series must carry growth data")
	}
	assertEqual(t, res.Data.Growth.Direction, "increased", "direction")
	assertEqual(t, res.Data.Period, "Jan-2024 – Feb-2024", "period")
	assertEqual(t, res.Reply, "Monthly enrolment rose 100.0% from Jan-2024 to Feb-2024", "reply")
}

func TestExecuteMonthSeriesSingleMonth(t *testing.T) {
	res, err := Execute(monthSpec(), monthView("Mar-2024", "Mar-2024"))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	assertEqual(t, res.Data.Growth.Direction, "insufficient data", "direction")
	assertEqual(t, res.Reply, "Monthly enrolment could not be measured (one month of data)", "reply")
}

func TestExecuteNonMonthSeriesHasNoGrowth(t *testing.T) {
	res, err := Execute(chartSpec(), sampleView())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.Data != nil {
		t.Errorf("state chart should not carry growth data: %+v", res.Data)
	}
}

func TestBuildGrowthText(t *testing.T) {
	view := NewSliceView([]Record{
		{Dimensions: map[string]string{"month": "Feb-2024"}, Measures: map[string]float64{"n": 150}},
		{Dimensions: map[string]string{"month": "Jan-2024"}, Measures: map[string]float64{"n": 100}},
		{Dimensions: map[string]string{"month": "Feb-2024"}, Measures: map[string]float64{"n": 50}},
	})
	text := BuildGrowthText(view, "n", nil)
	assertEqual(t, text.Growth.Direction, "increased", "direction")
	assertFloat(t, text.Growth.ChangePercent, 100, "change percent")
	assertEqual(t, text.Period, "Jan-2024 – Feb-2024", "period")
}
