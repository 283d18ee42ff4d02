package dataset

import "fmt"

// SampleRowCount is the number of rows in the built-in sample table.
const SampleRowCount = 20

// sampleColumns mirrors the sample dataset shown by the studio page.
var sampleColumns = []Column{
	{Name: "Column A", NullCount: 10, DistinctCount: 25},
	{Name: "Column B", NullCount: 5, DistinctCount: 40},
	{Name: "Column C", NullCount: 0, DistinctCount: 60},
	{Name: "Column D", NullCount: 3, DistinctCount: 15},
	{Name: "Column E", NullCount: 7, DistinctCount: 35},
	{Name: "Column F", NullCount: 2, DistinctCount: 45},
}

// Sample returns the built-in sample table. Cell values follow the pattern
// "<letter>-<row>", e.g. "a-0" … "a-19" for Column A.
func Sample() *Table {
	rows := make([]map[string]string, SampleRowCount)
	for i := range rows {
		row := make(map[string]string, len(sampleColumns))
		for _, c := range sampleColumns {
			row[c.Name] = fmt.Sprintf("%s-%d", prefix(c.Name), i)
		}
		rows[i] = row
	}

	t, err := New(DefaultTableName, sampleColumns, rows)
	if err != nil {
		panic(fmt.Sprintf("dataset: invalid sample table: %v", err))
	}
	return t
}

// prefix turns "Column A" into "a".
func prefix(name string) string {
	last := name[len(name)-1]
	if last >= 'A' && last <= 'Z' {
		last += 'a' - 'A'
	}
	return string(last)
}
