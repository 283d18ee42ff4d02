package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSample(t *testing.T) {
	tbl := Sample()

	assert.Equal(t, DefaultTableName, tbl.Name())
	assert.Equal(t, SampleRowCount, tbl.Len())

	cols := tbl.Columns()
	require.Len(t, cols, 6)
	assert.Equal(t, "Column A", cols[0].Name)
	assert.Equal(t, "Column F", cols[5].Name)
	assert.Equal(t, "Nulls: 10\nDistinct: 25", cols[0].Summary())

	v, ok := tbl.Cell(0, "Column A")
	require.True(t, ok)
	assert.Equal(t, "a-0", v)

	v, ok = tbl.Cell(19, "Column C")
	require.True(t, ok)
	assert.Equal(t, "c-19", v)
}

func TestNew_Validation(t *testing.T) {
	cols := []Column{{Name: "id"}, {Name: "name"}}

	tests := []struct {
		name    string
		columns []Column
		rows    []map[string]string
		wantErr error
	}{
		{
			name:    "no columns",
			columns: nil,
			wantErr: ErrNoColumns,
		},
		{
			name:    "duplicate column",
			columns: []Column{{Name: "id"}, {Name: "id"}},
			wantErr: ErrDuplicateColumn,
		},
		{
			name:    "unknown key in row",
			columns: cols,
			rows:    []map[string]string{{"id": "1", "name": "x", "extra": "y"}},
			wantErr: ErrUnknownColumn,
		},
		{
			name:    "missing key in row",
			columns: cols,
			rows:    []map[string]string{{"id": "1"}},
			wantErr: ErrMissingValue,
		},
		{
			name:    "valid",
			columns: cols,
			rows:    []map[string]string{{"id": "1", "name": "x"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("t", tt.columns, tt.rows)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTable_Values(t *testing.T) {
	tbl := Sample()

	values, err := tbl.Values("Column B")
	require.NoError(t, err)
	require.Len(t, values, SampleRowCount)
	assert.Equal(t, "b-7", values[7])

	_, err = tbl.Values("Column Z")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestTable_RowsAreCopies(t *testing.T) {
	tbl := Sample()

	vals := tbl.Rows()[0].Values()
	vals[0] = "mutated"

	v, _ := tbl.Cell(0, "Column A")
	assert.Equal(t, "a-0", v)
}

func TestReadCSV(t *testing.T) {
	data := "email, country\nalice@example.com,DE\n,DE\nbob@example.com,\n"

	tbl, err := ReadCSV("customers", strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, "customers", tbl.Name())
	assert.Equal(t, 3, tbl.Len())

	email, ok := tbl.Column("email")
	require.True(t, ok)
	assert.Equal(t, 1, email.NullCount)
	assert.Equal(t, 2, email.DistinctCount)

	country, ok := tbl.Column("country")
	require.True(t, ok)
	assert.Equal(t, 1, country.NullCount)
	assert.Equal(t, 1, country.DistinctCount)
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV("empty", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoColumns)
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plants.csv")
	require.NoError(t, os.WriteFile(path, []byte("postcode\n10115\n80331\n"), 0600))

	tbl, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, "plants", tbl.Name())
	assert.Equal(t, 2, tbl.Len())
}
