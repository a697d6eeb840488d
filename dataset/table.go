package dataset

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spektr-org/ekta/engine"
)

// ErrUnknownColumn is returned when an aggregation names a column the loaded
// table does not carry.
var ErrUnknownColumn = errors.New("unknown column")

// LoadStats counts what the parser skipped or defaulted.
type LoadStats struct {
	Rows            int `json:"rows"`            // data lines read
	DroppedDates    int `json:"droppedDates"`    // rows dropped for an unparseable date
	Malformed       int `json:"malformed"`       // lines the CSV reader rejected
	DefaultedCounts int `json:"defaultedCounts"` // count cells read as zero
}

// Table is the loaded dataset. It is not mutated after load.
type Table struct {
	records []Record
	columns []string
	index   map[string]int
	stats   LoadStats

	Path     string
	ModTime  time.Time
	LoadedAt time.Time

	viewOnce sync.Once
	view     engine.RecordView
}

// NewTable builds a table from records already in memory. Every known
// column is treated as present.
func NewTable(records []Record) *Table {
	columns := []string{ColState, ColDistrict, ColPincode, ColDate, ColAge5To17, ColAge17Plus}
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}
	return &Table{records: records, columns: columns, index: index, LoadedAt: time.Now()}
}

// Len returns the number of loaded records.
func (t *Table) Len() int { return len(t.records) }

// Records returns the loaded records. Callers must not modify them.
func (t *Table) Records() []Record { return t.records }

// Columns returns the trimmed header names in file order.
func (t *Table) Columns() []string { return t.columns }

// Stats returns parse statistics.
func (t *Table) Stats() LoadStats { return t.stats }

// Has reports whether the header carried a column (case-insensitive).
// The derived total is present when both count columns are.
func (t *Table) Has(column string) bool {
	column = strings.ToLower(strings.TrimSpace(column))
	switch column {
	case ColTotal:
		return t.Has(ColAge5To17) && t.Has(ColAge17Plus)
	case DimMonth:
		return t.Has(ColDate)
	}
	_, ok := t.index[column]
	return ok
}

// View returns the engine view over the table.
func (t *Table) View() engine.RecordView {
	t.viewOnce.Do(func() {
		t.view = newAdapter(t.Has).Bind(t.records)
	})
	return t.view
}

// TopN groups records by a column, sums a measure, and returns the n largest
// sums in descending order (ties keep first-appearance order). An empty table
// yields an empty result. Columns absent from the header fail with
// ErrUnknownColumn.
func (t *Table) TopN(groupBy, measure string, n int) ([]engine.Group, error) {
	if t.Len() == 0 {
		return []engine.Group{}, nil
	}
	for _, col := range []string{groupBy, measure} {
		if !t.Has(col) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, col)
		}
	}
	return engine.TopN(t.View(), groupBy, measure, n), nil
}
