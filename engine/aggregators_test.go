package engine

import (
	"fmt"
	"testing"
)

// ============================================================================
// AGGREGATION TESTS
// ============================================================================

func rec(state, district, pincode string, youth, adult float64) Record {
	return Record{
		Dimensions: map[string]string{
			"state":    state,
			"district": district,
			"pincode":  pincode,
		},
		Measures: map[string]float64{
			"demo_age_5_17": youth,
			"demo_age_17_":  adult,
			"total_aadhaar": youth + adult,
		},
	}
}

func sampleView() RecordView {
	return NewSliceView([]Record{
		rec("Bihar", "Patna", "800001", 120, 40),
		rec("Uttar Pradesh", "Lucknow", "226001", 300, 90),
		rec("Bihar", "Gaya", "823001", 80, 20),
		rec("Kerala", "Kochi", "682001", 15, 60),
		rec("Uttar Pradesh", "Agra", "282001", 50, 10),
		rec("Kerala", "Kochi", "682002", 5, 25),
		rec("Goa", "Panaji", "403001", 0, 0),
	})
}

func TestTopNScenario(t *testing.T) {
	view := NewSliceView([]Record{
		rec("stateA", "", "", 100, 50),
		rec("stateA", "", "", 10, 5),
		rec("stateB", "", "", 200, 20),
	})

	groups := TopN(view, "state", "demo_age_5_17", 1)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	assertEqual(t, groups[0].Key, "stateB", "top key")
	assertFloat(t, groups[0].Value, 200, "top value")
}

func TestTopNValuesNonIncreasing(t *testing.T) {
	for _, measure := range []string{"demo_age_5_17", "demo_age_17_", "total_aadhaar"} {
		for _, dim := range []string{"state", "district", "pincode"} {
			groups := TopN(sampleView(), dim, measure, 100)
			for i := 1; i < len(groups); i++ {
				if groups[i].Value > groups[i-1].Value {
					t.Errorf("%s/%s: value at %d (%v) exceeds previous (%v)",
						dim, measure, i, groups[i].Value, groups[i-1].Value)
				}
			}
		}
	}
}

func TestTopNLargeNReturnsEveryKeyOnce(t *testing.T) {
	view := sampleView()
	for _, dim := range []string{"state", "district", "pincode"} {
		distinct := UniqueValues(view, dim)
		groups := TopN(view, dim, "total_aadhaar", len(distinct)+50)
		if len(groups) != len(distinct) {
			t.Errorf("%s: expected %d groups, got %d", dim, len(distinct), len(groups))
		}
		seen := map[string]bool{}
		for _, g := range groups {
			if seen[g.Key] {
				t.Errorf("%s: key %q returned twice", dim, g.Key)
			}
			seen[g.Key] = true
		}
	}
}

func TestTopNKeysAreSubsetOfColumn(t *testing.T) {
	view := sampleView()
	for _, dim := range []string{"state", "district", "pincode"} {
		values := map[string]bool{}
		for _, v := range UniqueValues(view, dim) {
			values[v] = true
		}
		for n := 1; n <= 8; n++ {
			for _, g := range TopN(view, dim, "demo_age_17_", n) {
				if !values[g.Key] {
					t.Errorf("%s n=%d: key %q not present in column", dim, n, g.Key)
				}
			}
		}
	}
}

func TestTopNGrandTotalAcrossGranularities(t *testing.T) {
	view := sampleView()
	for _, measure := range []string{"demo_age_5_17", "demo_age_17_", "total_aadhaar"} {
		var fine, coarse float64
		for _, g := range TopN(view, "pincode", measure, view.Len()) {
			fine += g.Value
		}
		for _, g := range TopN(view, "state", measure, view.Len()) {
			coarse += g.Value
		}
		assertFloat(t, coarse, fine, measure+" grand total")
		assertFloat(t, fine, SumMeasure(view, measure), measure+" view total")
	}
}

func TestTopNEmptyView(t *testing.T) {
	groups := TopN(NewSliceView(nil), "state", "total_aadhaar", 5)
	if groups == nil || len(groups) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", groups)
	}
}

func TestTopNNonPositiveN(t *testing.T) {
	for _, n := range []int{0, -1, -100} {
		if got := TopN(sampleView(), "state", "total_aadhaar", n); len(got) != 0 {
			t.Errorf("n=%d: expected no groups, got %d", n, len(got))
		}
	}
}

func TestTopNTiesKeepFirstAppearance(t *testing.T) {
	view := NewSliceView([]Record{
		rec("Zeta", "", "", 10, 0),
		rec("Alpha", "", "", 30, 0),
		rec("Mid", "", "", 10, 0),
		rec("Beta", "", "", 10, 0),
	})
	groups := TopN(view, "state", "demo_age_5_17", 4)
	got := make([]string, len(groups))
	for i, g := range groups {
		got[i] = g.Key
	}
	want := []string{"Alpha", "Zeta", "Mid", "Beta"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("tie order: got %v, want %v", got, want)
	}
}

func TestGroupAndAggregateRatio(t *testing.T) {
	groups := GroupAndAggregate(sampleView(), Aggregate{
		GroupBy:     "state",
		Measure:     "demo_age_5_17",
		Denominator: "total_aadhaar",
		Aggregation: "ratio",
		SortBy:      "value_desc",
	})
	byKey := map[string]Group{}
	for _, g := range groups {
		byKey[g.Key] = g
	}
	// Bihar: 200 / 260
	assertFloat(t, RoundTo2(byKey["Bihar"].Value), 76.92, "Bihar youth share")
	// Goa has a zero denominator.
	assertFloat(t, byKey["Goa"].Value, 0, "Goa youth share")
}

func TestSortGroupsChronological(t *testing.T) {
	groups := []Group{{Key: "Mar-2024"}, {Key: "Jan-2024"}, {Key: "Dec-2023"}}
	SortGroups(groups, "date_asc")
	assertEqual(t, groups[0].Key, "Dec-2023", "first month")
	assertEqual(t, groups[2].Key, "Mar-2024", "last month")
}

func TestFormatNumber(t *testing.T) {
	cases := map[float64]string{
		0:          "0",
		999:        "999",
		1234567:    "1,234,567",
		-4500:      "-4,500",
		1234.5:     "1,234.50",
		12.999:     "13.00",
		-0.25:      "-0.25",
		1000000.01: "1,000,000.01",
	}
	for in, want := range cases {
		assertEqual(t, FormatNumber(in), want, fmt.Sprintf("FormatNumber(%v)", in))
	}
}

func TestLabelForDimension(t *testing.T) {
	assertEqual(t, LabelForDimension("state"), "State", "state")
	assertEqual(t, LabelForDimension("total_aadhaar"), "Total Aadhaar", "total_aadhaar")
	assertEqual(t, LabelForDimension(""), "", "empty")
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func assertEqual(t *testing.T, got, want, msg string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %q, want %q", msg, got, want)
	}
}

func assertFloat(t *testing.T, got, want float64, msg string) {
	t.Helper()
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	if diff > 1e-9 {
		t.Errorf("%s: got %v, want %v", msg, got, want)
	}
}
