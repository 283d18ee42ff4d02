package output

import "time"

// ColumnInfo is the JSON shape of one dataset column.
type ColumnInfo struct {
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	NullCount     int    `json:"null_count"`
	DistinctCount int    `json:"distinct_count"`
}

// ColumnsOutput is the JSON output of the columns command.
type ColumnsOutput struct {
	Table   string       `json:"table"`
	Rows    int          `json:"rows"`
	Columns []ColumnInfo `json:"columns"`
}

// EvaluateOutput is the JSON output of the evaluate command.
type EvaluateOutput struct {
	Table    string `json:"table"`
	Column   string `json:"column"`
	Rule     string `json:"rule"`
	Matched  int    `json:"matched"`
	Total    int    `json:"total"`
	PassRate int    `json:"pass_rate"`
	SQL      string `json:"sql"`
}

// SuggestOutput is the JSON output of the suggest command.
type SuggestOutput struct {
	Column string `json:"column"`
	Rule   string `json:"rule"`
	SQL    string `json:"sql"`
	Failed bool   `json:"failed,omitempty"`
}

// RuleInfo is the JSON shape of a saved rule.
type RuleInfo struct {
	ID        string    `json:"id"`
	Table     string    `json:"table"`
	Column    string    `json:"column"`
	Rule      string    `json:"rule"`
	SQL       string    `json:"sql"`
	Severity  string    `json:"severity"`
	PassRate  int       `json:"pass_rate"`
	CreatedAt time.Time `json:"created_at"`
}

// RulesOutput is the JSON output of rules list.
type RulesOutput struct {
	Table string     `json:"table,omitempty"`
	Rules []RuleInfo `json:"rules"`
}
