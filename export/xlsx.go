package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/ekta/engine"
)

// Sheet is one panel written to its own worksheet.
type Sheet struct {
	Name   string
	Result *engine.Result
}

const maxSheetName = 31

var sheetNameReplacer = strings.NewReplacer(
	":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")",
)

// SheetName makes a valid, unique worksheet name from a panel title.
func SheetName(title string, taken map[string]bool) string {
	name := strings.TrimSpace(sheetNameReplacer.Replace(title))
	if name == "" {
		name = "Panel"
	}
	if r := []rune(name); len(r) > maxSheetName {
		name = strings.TrimSpace(string(r[:maxSheetName]))
	}
	base := name
	for i := 2; taken[strings.ToLower(name)]; i++ {
		suffix := fmt.Sprintf(" %d", i)
		r := []rune(base)
		if len(r)+len(suffix) > maxSheetName {
			r = r[:maxSheetName-len(suffix)]
		}
		name = string(r) + suffix
	}
	taken[strings.ToLower(name)] = true
	return name
}

// WriteXLSX writes one worksheet per panel. Values are written as numbers.
func WriteXLSX(w io.Writer, sheets []Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4F7CFF"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if len(sheets) == 0 {
		sheets = []Sheet{{Name: "Results"}}
	}

	taken := map[string]bool{}
	for i, s := range sheets {
		name := SheetName(s.Name, taken)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to add sheet %q: %w", name, err)
		}

		rows := sheetRows(s.Result)
		for r, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				return fmt.Errorf("failed to write %s row %d: %w", name, r+1, err)
			}
		}
		if len(rows) > 0 {
			last, _ := excelize.CoordinatesToCellName(len(rows[0]), 1)
			if err := f.SetCellStyle(name, "A1", last, header); err != nil {
				return fmt.Errorf("failed to style %s: %w", name, err)
			}
		}
		if err := f.SetColWidth(name, "A", "A", 32); err != nil {
			return err
		}
		if err := f.SetColWidth(name, "B", "C", 16); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// sheetRows returns header plus one row per group. Text results become a
// two-cell summary.
func sheetRows(result *engine.Result) [][]any {
	if result == nil {
		return [][]any{{"Result", "No data"}}
	}
	if len(result.Groups) == 0 {
		reply := result.Reply
		if reply == "" {
			reply = "No data"
		}
		return [][]any{{"Summary"}, {reply}}
	}

	groupLabel, valueLabel := "Group", "Value"
	if result.TableData != nil && len(result.TableData.Columns) >= 2 {
		groupLabel = result.TableData.Columns[0].Label
		valueLabel = result.TableData.Columns[1].Label
	}

	rows := make([][]any, 0, len(result.Groups)+1)
	rows = append(rows, []any{groupLabel, valueLabel, "Records"})
	for _, g := range result.Groups {
		label := g.Label
		if label == "" {
			label = g.Key
		}
		rows = append(rows, []any{label, engine.RoundTo2(g.Value), g.Count})
	}
	return rows
}
