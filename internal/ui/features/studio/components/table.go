package components

import (
	"context"
	"fmt"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/dqstudio/internal/dataset"
)

// ColumnWidth and VisibleColumns size the scrollable grid.
const (
	ColumnWidth    = 140
	VisibleColumns = 5
)

// MissingCell is shown for empty cell values.
const MissingCell = "-"

// DataTable renders the sample grid. Clicking a header posts the column name
// to the select action.
func DataTable(tbl *dataset.Table, selected string) templ.Component {
	return component(func(_ context.Context, h *writer) {
		cols := tbl.Columns()

		h.raw(`<section id="data-table" class="data-table"`)
		h.attr("style", fmt.Sprintf("max-width: %dpx", ColumnWidth*VisibleColumns))
		h.raw(">")
		h.raw(`<h2 class="table-name">`)
		h.text(tbl.Name())
		h.raw("</h2>")

		h.raw(`<table`)
		h.attr("style", fmt.Sprintf("width: %dpx", ColumnWidth*len(cols)))
		h.raw("><thead><tr>")
		for _, c := range cols {
			h.raw("<th")
			h.attr("class", classes("column-header", selectedClass(c.Name == selected)))
			h.attr("style", fmt.Sprintf("width: %dpx", ColumnWidth))
			h.attr("title", c.Summary())
			h.attr("data-column", c.Name)
			h.attr("data-on:click", "$column = "+jsString(c.Name)+"; @post('/studio/select')")
			h.raw(">")
			h.text(c.Name)
			h.raw("</th>")
		}
		h.raw("</tr></thead><tbody>")

		for _, row := range tbl.Rows() {
			h.raw("<tr>")
			for i, v := range row.Values() {
				h.raw("<td")
				if cols[i].Name == selected {
					h.attr("class", "selected")
				}
				h.raw(">")
				if v == "" {
					v = MissingCell
				}
				h.text(v)
				h.raw("</td>")
			}
			h.raw("</tr>")
		}
		h.raw("</tbody></table></section>")
	})
}

func selectedClass(on bool) string {
	if on {
		return "selected"
	}
	return ""
}
