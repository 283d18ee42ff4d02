// Package workspace holds the rule-authoring state of one studio page: the
// selected column, the rule text, the SQL shown for it, its severity and the
// last computed pass rate.
//
// All operations are safe for concurrent use. Suggestion calls run outside the
// lock; every call is tagged with a generation number and its reply is only
// applied while that generation is still current, so a column change or
// Close discards replies that arrive late.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/leapstack-labs/dqstudio/internal/catalog"
	"github.com/leapstack-labs/dqstudio/internal/dataset"
	"github.com/leapstack-labs/dqstudio/internal/rules"
	"github.com/leapstack-labs/dqstudio/internal/suggest"
)

// Text shown in the SQL panel while a suggestion is loading or before any
// SQL exists.
const (
	LoadingText     = "Loading AI response..."
	PlaceholderText = "Validated SQL query will appear here."
)

// Guard errors. Remote failures are never returned; see RequestSuggestion.
var (
	ErrNoColumn      = errors.New("no column selected")
	ErrUnknownColumn = errors.New("unknown column")
	ErrEmptyRule     = errors.New("rule text is empty")
	ErrBusy          = errors.New("a suggestion is already in flight")
	ErrClosed        = errors.New("workspace closed")
	ErrNoCatalog     = errors.New("no rule catalog configured")
)

// SQLSource records where the SQL field came from.
type SQLSource int

// SQL sources.
const (
	SQLNone SQLSource = iota
	SQLSuggested
	SQLFailed
	SQLDerived
)

// RuleSaver persists submitted rules.
type RuleSaver interface {
	Add(ctx context.Context, rule catalog.Rule) (*catalog.Rule, error)
}

// Config configures a Workspace.
type Config struct {
	Table     *dataset.Table
	Completer suggest.Completer
	Saver     RuleSaver

	// ResetOnSelect clears the whole draft whenever a different column is
	// selected. When false the rule text and severity survive and only the
	// SQL and pass rate are cleared.
	ResetOnSelect bool

	// OnChange is called after every state change, outside the lock.
	OnChange func()
	Logger   *slog.Logger
}

// State is a point-in-time copy of the workspace.
type State struct {
	Column    string
	RuleText  string
	SQL       string
	SQLSource SQLSource
	PassRate  int
	Evaluated bool
	Severity  rules.Severity
	Loading   bool
}

// HasColumn reports whether a column is selected.
func (s State) HasColumn() bool { return s.Column != "" }

// HasRule reports whether the rule text is non-empty after trimming.
func (s State) HasRule() bool { return strings.TrimSpace(s.RuleText) != "" }

// SQLDisplay is the text for the SQL panel.
func (s State) SQLDisplay() string {
	switch {
	case s.Loading:
		return LoadingText
	case s.SQL == "":
		return PlaceholderText
	default:
		return s.SQL
	}
}

// Workspace is the rule-authoring state of one page.
type Workspace struct {
	table     *dataset.Table
	completer suggest.Completer
	saver     RuleSaver
	reset     bool
	onChange  func()
	logger    *slog.Logger

	mu     sync.Mutex
	state  State
	gen    uint64
	cancel context.CancelFunc
	closed bool
}

// New creates an empty workspace over cfg.Table.
func New(cfg Config) *Workspace {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Workspace{
		table:     cfg.Table,
		completer: cfg.Completer,
		saver:     cfg.Saver,
		reset:     cfg.ResetOnSelect,
		onChange:  cfg.OnChange,
		logger:    logger,
	}
}

// Table returns the table rules are evaluated against.
func (w *Workspace) Table() *dataset.Table {
	return w.table
}

// State returns a copy of the current state.
func (w *Workspace) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// SelectColumn makes name the selected column. Selecting the current column
// again is a no-op. Any in-flight suggestion is cancelled and its reply
// discarded.
func (w *Workspace) SelectColumn(name string) error {
	if !w.table.HasColumn(name) {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	if w.state.Column == name {
		w.mu.Unlock()
		return nil
	}

	w.supersedeLocked()
	if w.reset {
		w.state = State{Column: name}
	} else {
		w.state = State{Column: name, RuleText: w.state.RuleText, Severity: w.state.Severity}
	}
	w.mu.Unlock()

	w.logger.Debug("column selected", "column", name, "reset", w.reset)
	w.changed()
	return nil
}

// SetRuleText replaces the rule text. When the trimmed text changes, SQL
// written for the old text is dropped and an in-flight suggestion for it is
// cancelled.
func (w *Workspace) SetRuleText(text string) {
	w.mu.Lock()
	if w.state.RuleText == text || w.closed {
		w.mu.Unlock()
		return
	}
	if strings.TrimSpace(text) != strings.TrimSpace(w.state.RuleText) {
		w.supersedeLocked()
		w.state.SQL = ""
		w.state.SQLSource = SQLNone
		w.state.Evaluated = false
	}
	w.state.RuleText = text
	w.mu.Unlock()

	w.changed()
}

// SetSeverity sets the severity the rule is saved under.
func (w *Workspace) SetSeverity(sev rules.Severity) error {
	w.mu.Lock()
	if strings.TrimSpace(w.state.RuleText) == "" {
		w.mu.Unlock()
		return ErrEmptyRule
	}
	w.state.Severity = sev
	w.mu.Unlock()

	w.changed()
	return nil
}

// RequestSuggestion asks the suggestion service for SQL implementing the
// current rule text and stores the reply verbatim as the SQL field. It
// returns an error only when a guard fails (no column, empty text, call
// already in flight, closed). A failed call stores suggest.FailureText.
//
// The call runs with a child of ctx that is cancelled when the selection
// changes or the workspace is closed.
func (w *Workspace) RequestSuggestion(ctx context.Context) error {
	w.mu.Lock()
	switch {
	case w.closed:
		w.mu.Unlock()
		return ErrClosed
	case w.state.Column == "":
		w.mu.Unlock()
		return ErrNoColumn
	case strings.TrimSpace(w.state.RuleText) == "":
		w.mu.Unlock()
		return ErrEmptyRule
	case w.state.Loading:
		w.mu.Unlock()
		return ErrBusy
	}

	w.gen++
	gen := w.gen
	callCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.state.Loading = true
	column := w.state.Column
	messages := suggest.RuleRequest(column, w.state.RuleText)
	w.mu.Unlock()
	defer cancel()

	w.changed()

	reply, err := w.completer.Complete(callCtx, messages)

	w.mu.Lock()
	if gen != w.gen {
		w.mu.Unlock()
		w.logger.Debug("discarding superseded suggestion", "column", column)
		return nil
	}
	w.cancel = nil
	w.state.Loading = false
	if err != nil {
		w.logger.Warn("rule suggestion failed", "column", column, "error", err)
		w.state.SQL = suggest.FailureText
		w.state.SQLSource = SQLFailed
	} else {
		w.state.SQL = reply
		w.state.SQLSource = SQLSuggested
	}
	w.mu.Unlock()

	w.changed()
	return nil
}

// Evaluate recomputes the pass rate of the rule text over the selected
// column. With no selection or empty rule text the SQL field is cleared and
// the pass rate reset to zero without scanning the table. When the SQL field
// holds no AI suggestion it is replaced by the naive query for the rule.
func (w *Workspace) Evaluate() rules.Result {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return rules.Result{}
	}

	var res rules.Result
	if w.state.Column == "" || strings.TrimSpace(w.state.RuleText) == "" {
		w.state.SQL = ""
		w.state.SQLSource = SQLNone
		w.state.PassRate = 0
		w.state.Evaluated = false
	} else {
		// the column was validated on selection
		res, _ = rules.Evaluate(w.table, w.state.Column, w.state.RuleText)
		w.state.PassRate = res.PassRate
		w.state.Evaluated = true
		if w.state.SQLSource != SQLSuggested {
			w.state.SQL = rules.NaiveSQL(w.state.RuleText)
			w.state.SQLSource = SQLDerived
		}
	}
	w.mu.Unlock()

	w.changed()
	return res
}

// Submit saves the current draft to the rule catalog. The draft is left as is.
func (w *Workspace) Submit(ctx context.Context) (*catalog.Rule, error) {
	if w.saver == nil {
		return nil, ErrNoCatalog
	}

	w.mu.Lock()
	st := w.state
	closed := w.closed
	w.mu.Unlock()

	switch {
	case closed:
		return nil, ErrClosed
	case st.Column == "":
		return nil, ErrNoColumn
	case !st.HasRule():
		return nil, ErrEmptyRule
	}

	res, err := rules.Evaluate(w.table, st.Column, st.RuleText)
	if err != nil {
		return nil, err
	}

	sql := st.SQL
	if st.SQLSource != SQLSuggested {
		sql = rules.NaiveSQL(st.RuleText)
	}
	sev := st.Severity
	if sev == "" {
		sev = rules.SeverityInfo
	}

	saved, err := w.saver.Add(ctx, catalog.Rule{
		TableName:  w.table.Name(),
		ColumnName: st.Column,
		RuleText:   strings.TrimSpace(st.RuleText),
		SQL:        sql,
		Severity:   sev,
		PassRate:   res.PassRate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save rule: %w", err)
	}

	w.logger.Info("rule saved", "id", saved.ID, "column", saved.ColumnName, "severity", saved.Severity)
	return saved, nil
}

// Close cancels any in-flight suggestion. Later operations fail with ErrClosed.
func (w *Workspace) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.supersedeLocked()
	w.closed = true
}

// supersedeLocked invalidates the in-flight call, if any.
func (w *Workspace) supersedeLocked() {
	w.gen++
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.state.Loading = false
}

func (w *Workspace) changed() {
	if w.onChange != nil {
		w.onChange()
	}
}
