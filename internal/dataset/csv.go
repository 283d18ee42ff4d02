package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LoadCSV reads a table from a CSV file with a header row. The table is named
// after the file (without extension). Column statistics are derived from the
// data: empty cells count as nulls.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from user config
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ReadCSV(name, f)
}

// ReadCSV reads a named table from CSV data with a header row.
func ReadCSV(name string, r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoColumns
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make([]Column, len(header))
	for i, h := range header {
		columns[i] = Column{Name: strings.TrimSpace(h)}
	}

	distinct := make([]map[string]struct{}, len(columns))
	for i := range distinct {
		distinct[i] = make(map[string]struct{})
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(rows)+1, err)
		}

		row := make(map[string]string, len(columns))
		for i, c := range columns {
			v := strings.TrimSpace(record[i])
			row[c.Name] = v
			if v == "" {
				columns[i].NullCount++
				continue
			}
			distinct[i][v] = struct{}{}
		}
		rows = append(rows, row)
	}

	for i := range columns {
		columns[i].DistinctCount = len(distinct[i])
	}

	return New(name, columns, rows)
}
