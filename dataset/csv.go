package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"
)

// ============================================================================
// CSV PARSER — Enrolment CSV → Table
// ============================================================================
// Headers are trimmed and matched case-insensitively. Dates are day-first;
// rows whose date does not parse are dropped. Count cells that are not
// non-negative integers are read as zero.
// ============================================================================

// ErrBadDate is returned by ParseDate for values no day-first layout accepts.
var ErrBadDate = errors.New("unparseable date")

// ErrMissingDateColumn is returned when the header has no date column.
var ErrMissingDateColumn = errors.New("missing date column")

var dayFirstLayouts = []string{
	"2-1-2006",
	"2/1/2006",
	"2.1.2006",
	"2-1-06",
	"2/1/06",
	"2.1.06",
	"2-Jan-2006",
	"2 Jan 2006",
	"2-Jan-06",
	"2 January 2006",
	"2-1-2006 15:04:05",
	"2-1-2006 15:04",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2006-01-02",
	"2006/1/2",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseDate parses a date string day-first ("31-01-2024" → 31 January 2024).
// Two-digit years, month names and year-first dates ("2024/01/31") are
// accepted as well.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
}

// ParseCSV reads an enrolment CSV into a Table.
func ParseCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty input", ErrMissingDateColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	columns := make([]string, len(headers))
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
		columns[i] = h
		key := strings.ToLower(h)
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	dateIdx, ok := index[ColDate]
	if !ok {
		return nil, fmt.Errorf("%w (header: %s)", ErrMissingDateColumn, strings.Join(columns, ", "))
	}

	field := func(row []string, col string) string {
		if i, ok := index[col]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	t := &Table{columns: columns, index: index}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.stats.Malformed++
			continue
		}
		t.stats.Rows++

		date, err := ParseDate(row[dateIdx])
		if err != nil {
			t.stats.DroppedDates++
			continue
		}

		rec := Record{
			State:    field(row, ColState),
			District: field(row, ColDistrict),
			Pincode:  field(row, ColPincode),
			Date:     date,
		}
		rec.Age5To17 = t.parseCount(field(row, ColAge5To17), ColAge5To17)
		rec.Age17Plus = t.parseCount(field(row, ColAge17Plus), ColAge17Plus)

		t.records = append(t.records, rec)
	}

	if t.stats.DroppedDates > 0 || t.stats.Malformed > 0 || t.stats.DefaultedCounts > 0 {
		log.Printf("⚠️ Dataset: %d rows dropped (unparseable date), %d malformed lines skipped, %d count cells read as 0",
			t.stats.DroppedDates, t.stats.Malformed, t.stats.DefaultedCounts)
	}

	return t, nil
}

func (t *Table) parseCount(val, col string) int64 {
	if !t.Has(col) {
		return 0
	}
	if val == "" {
		t.stats.DefaultedCounts++
		return 0
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// Some exports write counts as "12.0".
		f, ferr := strconv.ParseFloat(val, 64)
		if ferr != nil || f != float64(int64(f)) {
			t.stats.DefaultedCounts++
			return 0
		}
		n = int64(f)
	}
	if n < 0 {
		t.stats.DefaultedCounts++
		return 0
	}
	return n
}
