package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/dqstudio/internal/cli/output"
	"github.com/leapstack-labs/dqstudio/internal/dataset"
	"github.com/spf13/cobra"
)

// ColumnsOptions holds options for the columns command.
type ColumnsOptions struct {
	Preview int
}

// NewColumnsCommand creates the columns command.
func NewColumnsCommand() *cobra.Command {
	opts := &ColumnsOptions{}
	cmd := &cobra.Command{
		Use:   "columns",
		Short: "Show the dataset columns and their statistics",
		Long: `Show the columns of the dataset rules are authored against, with
null and distinct counts.

Output adapts to environment:
  - Terminal: Table
  - Piped/Scripted: Markdown table
  - JSON: Machine-readable format`,
		Example: `  # Columns of the built-in sample table
  dqstudio columns

  # Columns of a CSV file, with the first 5 rows
  dqstudio columns --dataset data/orders.csv --preview 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runColumns(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Preview, "preview", 0, "Also print the first N rows")

	return cmd
}

func runColumns(cmd *cobra.Command, opts *ColumnsOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	tbl, err := loadTable(cmdCtx.Cfg)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(columnsOutput(tbl))
	case output.ModeMarkdown:
		renderColumnsMarkdown(r, tbl)
	default:
		renderColumnsText(r, tbl)
	}

	if opts.Preview > 0 && r.EffectiveMode() != output.ModeJSON {
		r.Println("")
		renderPreview(r, tbl, opts.Preview)
	}
	return nil
}

func columnsOutput(tbl *dataset.Table) output.ColumnsOutput {
	cols := tbl.Columns()
	out := output.ColumnsOutput{
		Table:   tbl.Name(),
		Rows:    tbl.Len(),
		Columns: make([]output.ColumnInfo, len(cols)),
	}
	for i, c := range cols {
		out.Columns[i] = output.ColumnInfo{
			Name:          c.Name,
			Description:   c.Description,
			NullCount:     c.NullCount,
			DistinctCount: c.DistinctCount,
		}
	}
	return out
}

func renderColumnsText(r *output.Renderer, tbl *dataset.Table) {
	r.Header(1, fmt.Sprintf("%s (%d rows)", tbl.Name(), tbl.Len()))

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Column", "Nulls", "Distinct", "Description"})
	for _, c := range tbl.Columns() {
		t.AppendRow(table.Row{c.Name, c.NullCount, c.DistinctCount, c.Description})
	}
	t.Render()
}

func renderColumnsMarkdown(r *output.Renderer, tbl *dataset.Table) {
	r.Println(output.FormatHeader(1, fmt.Sprintf("Columns: %s", tbl.Name())))
	r.Println("")
	r.Println(output.FormatKeyValue("Rows", strconv.Itoa(tbl.Len())))
	r.Println("")
	r.Println("| Column | Nulls | Distinct | Description |")
	r.Println("| --- | --- | --- | --- |")
	for _, c := range tbl.Columns() {
		r.Printf("| %s | %d | %d | %s |\n", c.Name, c.NullCount, c.DistinctCount, c.Description)
	}
}

func renderPreview(r *output.Renderer, tbl *dataset.Table, n int) {
	cols := tbl.Columns()
	header := make(table.Row, len(cols))
	for i, c := range cols {
		header[i] = c.Name
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	for i, row := range tbl.Rows() {
		if i >= n {
			break
		}
		values := row.Values()
		tr := make(table.Row, len(values))
		for j, v := range values {
			tr[j] = strings.ReplaceAll(v, "\n", " ")
		}
		t.AppendRow(tr)
	}

	if r.EffectiveMode() == output.ModeMarkdown {
		t.RenderMarkdown()
		return
	}
	t.Render()
}
