// Package rules evaluates draft data-quality rules against a sample table.
//
// Evaluation is a preview only: a row passes when the selected column's value
// contains the rule text, compared case-insensitively. The SQL shown next to a
// rule is never parsed or executed.
package rules

import (
	"fmt"
	"math"
	"strings"

	"github.com/leapstack-labs/dqstudio/internal/dataset"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Result is the outcome of evaluating a rule against one column.
type Result struct {
	Matched  int
	Total    int
	PassRate int // 0-100
}

// Evaluate computes the pass rate of ruleText over column. An empty (after
// trimming) rule text yields a zero result without scanning the table.
func Evaluate(tbl *dataset.Table, column, ruleText string) (Result, error) {
	needle := strings.ToLower(strings.TrimSpace(ruleText))
	if needle == "" {
		return Result{}, nil
	}

	values, err := tbl.Values(column)
	if err != nil {
		return Result{}, err
	}

	res := Result{Total: len(values)}
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), needle) {
			res.Matched++
		}
	}
	res.PassRate = PassRate(res.Matched, res.Total)
	return res, nil
}

// PassRate returns round(100 * matched / total), or 0 for an empty table.
func PassRate(matched, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(matched) / float64(total) * 100))
}

// NaiveSQL wraps rule text into the placeholder query shown when no AI
// suggestion is available.
func NaiveSQL(ruleText string) string {
	return "SELECT * FROM table WHERE " + ruleText
}

// Severity is the category a saved rule reports under.
type Severity string

// Known severities.
const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Severities lists the severities in display order.
var Severities = []Severity{SeverityError, SeverityInfo, SeverityWarn}

var titleCaser = cases.Title(language.English)

// ParseSeverity parses a severity name. "warning" is accepted as an alias.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return SeverityInfo, nil
	case "warn", "warning":
		return SeverityWarn, nil
	case "error":
		return SeverityError, nil
	}
	return "", fmt.Errorf("unknown severity %q (want error, info or warn)", s)
}

// Label returns the display label, e.g. "Warn".
func (s Severity) Label() string {
	return titleCaser.String(string(s))
}
