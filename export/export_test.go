package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/ekta/engine"
)

func chartResult(t *testing.T) *engine.Result {
	t.Helper()
	view := engine.NewSliceView([]engine.Record{
		{Dimensions: map[string]string{"state": "Bihar"}, Measures: map[string]float64{"total_aadhaar": 260}},
		{Dimensions: map[string]string{"state": "Uttar Pradesh"}, Measures: map[string]float64{"total_aadhaar": 450}},
		{Dimensions: map[string]string{"state": "Kerala"}, Measures: map[string]float64{"total_aadhaar": 1234.5}},
	})
	res, err := engine.Execute(engine.QuerySpec{
		Intent:      "chart",
		Aggregation: "sum",
		Measure:     "total_aadhaar",
		GroupBy:     []string{"state"},
		SortBy:      "value_desc",
		Visualize:   "bar",
		Title:       "Top 3 Total Aadhaar Enrollment",
	}, view)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	return res
}

func TestWriteCSVChart(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, chartResult(t)); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %q", buf.String())
	}
	if lines[0] != "State,Total Aadhaar" && !strings.HasPrefix(lines[0], "State,") {
		t.Errorf("header: %q", lines[0])
	}
	if lines[1] != "Kerala,1234.50" || lines[2] != "Uttar Pradesh,450" {
		t.Errorf("rows: %q", lines[1:])
	}
}

func TestWriteCSVText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, &engine.Result{Type: "text", Reply: "No records match"}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "Summary,Value\nNo records match,\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestWriteXLSX(t *testing.T) {
	res := chartResult(t)
	var buf bytes.Buffer
	err := WriteXLSX(&buf, []Sheet{
		{Name: "Top 3 Total Aadhaar Enrollment", Result: res},
		{Name: "Top 3 Total Aadhaar Enrollment", Result: &engine.Result{Reply: "nothing"}},
	})
	if err != nil {
		t.Fatalf("WriteXLSX failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Top 3 Total Aadhaar Enrollment" || sheets[1] != "Top 3 Total Aadhaar Enrollmen 2" {
		t.Fatalf("sheets: %q", sheets)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 || rows[0][2] != "Records" || rows[1][0] != "Kerala" || rows[1][1] != "1234.5" {
		t.Errorf("rows: %q", rows)
	}
	text, _ := f.GetRows(sheets[1])
	if len(text) != 2 || text[1][0] != "nothing" {
		t.Errorf("text sheet: %q", text)
	}
}

func TestSheetName(t *testing.T) {
	taken := map[string]bool{}
	if got := SheetName("a/b: [c]?", taken); got != "a b  (c)" {
		t.Errorf("got %q", got)
	}
	if got := SheetName("", taken); got != "Panel" {
		t.Errorf("got %q", got)
	}
	if got := SheetName("panel", taken); got != "panel 2" {
		t.Errorf("got %q", got)
	}
}

func TestWriteTable(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	WriteTable(&buf, chartResult(t))
	out := buf.String()
	for _, want := range []string{"Top 3 Total Aadhaar Enrollment", "Uttar Pradesh", "Records", "Total (3 groups)"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	WriteTable(&buf, &engine.Result{Title: "Empty", Reply: "No records match your query filters."})
	if !strings.Contains(buf.String(), "No records match") {
		t.Errorf("text fallback: %q", buf.String())
	}
}
