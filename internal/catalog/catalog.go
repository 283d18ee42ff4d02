// Package catalog stores the data-quality rules submitted from the studio.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/leapstack-labs/dqstudio/internal/rules"
)

// ErrNotFound is returned when a rule id does not exist.
var ErrNotFound = errors.New("rule not found")

// Rule is a saved data-quality rule.
type Rule struct {
	ID         string         `json:"id" yaml:"id"`
	TableName  string         `json:"table" yaml:"table"`
	ColumnName string         `json:"column" yaml:"column"`
	RuleText   string         `json:"rule" yaml:"rule"`
	SQL        string         `json:"sql" yaml:"sql"`
	Severity   rules.Severity `json:"severity" yaml:"severity"`
	PassRate   int            `json:"pass_rate" yaml:"pass_rate"`
	CreatedAt  time.Time      `json:"created_at" yaml:"created_at"`
}

// Store is the saved-rule catalog.
type Store interface {
	// Add assigns an id and creation time to rule and saves it.
	Add(ctx context.Context, rule Rule) (*Rule, error)
	Get(ctx context.Context, id string) (*Rule, error)
	// List returns the rules of one table, oldest first. An empty table name
	// lists every rule.
	List(ctx context.Context, tableName string) ([]Rule, error)
	Delete(ctx context.Context, id string) error
	Close() error
}
