package dataset

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/spektr-org/ekta/engine"
)

// Filters narrows the table. Values match case-insensitively; several values
// in one field are alternatives, separate fields must all match.
type Filters struct {
	States    []string `json:"states,omitempty"`
	Districts []string `json:"districts,omitempty"`
	Pincodes  []string `json:"pincodes,omitempty"`
}

// Engine converts the filters into engine form.
func (f Filters) Engine() engine.Filters {
	return engine.Filters{}.
		With(ColState, f.States...).
		With(ColDistrict, f.Districts...).
		With(ColPincode, f.Pincodes...)
}

// FilterOptions lists the values a filter UI may offer.
type FilterOptions struct {
	States    []string `json:"states"`
	Districts []string `json:"districts"`
	Pincodes  []string `json:"pincodes"`
}

// Options returns cascading filter choices: every state, the districts of the
// selected states (all districts when none are selected), and the pincodes of
// the selected districts within those states.
func Options(t *Table, states, districts []string) FilterOptions {
	stateSet := foldSet(states)
	districtSet := foldSet(districts)

	inStates := t.records
	if len(stateSet) > 0 {
		inStates = lo.Filter(t.records, func(r Record, _ int) bool {
			return stateSet[fold(r.State)]
		})
	}
	inDistricts := inStates
	if len(districtSet) > 0 {
		inDistricts = lo.Filter(inStates, func(r Record, _ int) bool {
			return districtSet[fold(r.District)]
		})
	}

	return FilterOptions{
		States:    sortedUnique(lo.Map(t.records, func(r Record, _ int) string { return r.State })),
		Districts: sortedUnique(lo.Map(inStates, func(r Record, _ int) string { return r.District })),
		Pincodes:  sortedUnique(lo.Map(inDistricts, func(r Record, _ int) string { return r.Pincode })),
	}
}

func sortedUnique(values []string) []string {
	out := lo.Uniq(lo.Compact(values))
	sort.Strings(out)
	return out
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func foldSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v = fold(v); v != "" {
			set[v] = true
		}
	}
	return set
}
