package export

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/spektr-org/ekta/engine"
)

var titleColor = color.New(color.FgCyan, color.Bold)

// WriteTable renders a panel result as a terminal table with a coloured title.
func WriteTable(w io.Writer, result *engine.Result) {
	if result == nil {
		fmt.Fprintln(w, "No result.")
		return
	}
	if result.Title != "" {
		titleColor.Fprintln(w, result.Title)
	}

	td := result.TableData
	if td == nil || len(td.Columns) == 0 || len(td.Rows) == 0 {
		if result.Reply != "" {
			fmt.Fprintln(w, result.Reply)
		} else {
			fmt.Fprintln(w, "No data.")
		}
		return
	}

	table := tablewriter.NewWriter(w)
	headers := make([]string, len(td.Columns))
	aligns := make([]int, len(td.Columns))
	for i, c := range td.Columns {
		headers[i] = c.Label
		aligns[i] = tablewriter.ALIGN_LEFT
		if c.Align == "right" {
			aligns[i] = tablewriter.ALIGN_RIGHT
		}
	}
	table.SetHeader(headers)
	table.SetAutoFormatHeaders(false)
	table.SetColumnAlignment(aligns)
	for _, row := range td.Rows {
		table.Append(row)
	}

	if td.Summary != nil {
		footer := make([]string, len(td.Columns))
		footer[0] = td.Summary.Label
		for i, c := range td.Columns[1:] {
			footer[i+1] = td.Summary.Values[c.Key]
		}
		table.SetFooter(footer)
	}
	table.Render()

	if result.Reply != "" {
		fmt.Fprintln(w, result.Reply)
	}
}
