// Package dataset provides the tabular sample data rules are authored against.
//
// A Table is a fixed, ordered set of columns and rows. Rows are stored as a
// positional mapping over the table's columns and are validated when the table
// is constructed, so every row carries exactly one value for every known column.
package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultTableName is the name used for the built-in sample table.
const DefaultTableName = "sample"

// Sentinel errors returned by table construction and lookups.
var (
	ErrNoColumns       = errors.New("table has no columns")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrUnknownColumn   = errors.New("unknown column")
	ErrMissingValue    = errors.New("row is missing a column value")
)

// Column describes one column of a table.
type Column struct {
	Name          string
	Description   string
	NullCount     int
	DistinctCount int
}

// Summary returns the description, falling back to the null/distinct counts.
func (c Column) Summary() string {
	if c.Description != "" {
		return c.Description
	}
	return fmt.Sprintf("Nulls: %d\nDistinct: %d", c.NullCount, c.DistinctCount)
}

// Row is a validated record: one display value per table column, in column order.
type Row struct {
	values []string
}

// Values returns a copy of the row's values in column order.
func (r Row) Values() []string {
	out := make([]string, len(r.values))
	copy(out, r.values)
	return out
}

// Table is an immutable set of named columns and rows.
type Table struct {
	name    string
	columns []Column
	index   map[string]int
	rows    []Row
}

// New builds a table from columns and keyed rows. Every row must contain a
// value for every column and nothing else.
func New(name string, columns []Column, rows []map[string]string) (*Table, error) {
	if len(columns) == 0 {
		return nil, ErrNoColumns
	}

	index := make(map[string]int, len(columns))
	cols := make([]Column, len(columns))
	for i, c := range columns {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("column %d: empty name", i)
		}
		if _, dup := index[c.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColumn, c.Name)
		}
		index[c.Name] = i
		cols[i] = c
	}

	t := &Table{
		name:    name,
		columns: cols,
		index:   index,
		rows:    make([]Row, 0, len(rows)),
	}

	for i, raw := range rows {
		values := make([]string, len(cols))
		for key := range raw {
			if _, ok := index[key]; !ok {
				return nil, fmt.Errorf("row %d: %w: %s", i, ErrUnknownColumn, key)
			}
		}
		for j, c := range cols {
			v, ok := raw[c.Name]
			if !ok {
				return nil, fmt.Errorf("row %d: %w: %s", i, ErrMissingValue, c.Name)
			}
			values[j] = v
		}
		t.rows = append(t.rows, Row{values: values})
	}

	return t, nil
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Columns returns the table columns in display order.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// Column looks up a column by name.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.columns[i], true
}

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Rows returns the table rows.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	copy(out, t.rows)
	return out
}

// Values returns every value of one column, in row order.
func (t *Table) Values(column string) ([]string, error) {
	i, ok := t.index[column]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	out := make([]string, len(t.rows))
	for r, row := range t.rows {
		out[r] = row.values[i]
	}
	return out, nil
}

// Cell returns the value at the given row index and column name.
func (t *Table) Cell(row int, column string) (string, bool) {
	i, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.rows) {
		return "", false
	}
	return t.rows[row].values[i], true
}
