package workspace

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/dqstudio/internal/catalog"
	"github.com/leapstack-labs/dqstudio/internal/dataset"
	"github.com/leapstack-labs/dqstudio/internal/rules"
	"github.com/leapstack-labs/dqstudio/internal/suggest"
	"github.com/leapstack-labs/dqstudio/internal/testutil"
)

type memSaver struct {
	mu    sync.Mutex
	rules []catalog.Rule
	err   error
}

func (m *memSaver) Add(_ context.Context, r catalog.Rule) (*catalog.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	r.ID = "rule-1"
	m.rules = append(m.rules, r)
	return &r, nil
}

func newWorkspace(t *testing.T, c suggest.Completer, reset bool) (*Workspace, *atomic.Int32) {
	t.Helper()
	var changes atomic.Int32
	w := New(Config{
		Table:         dataset.Sample(),
		Completer:     c,
		Saver:         &memSaver{},
		ResetOnSelect: reset,
		OnChange:      func() { changes.Add(1) },
		Logger:        testutil.NewTestLogger(t),
	})
	t.Cleanup(w.Close)
	return w, &changes
}

func waitStarted(t *testing.T, fc *testutil.FakeCompleter) {
	t.Helper()
	select {
	case <-fc.Started():
	case <-time.After(2 * time.Second):
		t.Fatal("suggestion call never started")
	}
}

func TestWorkspace_InitialState(t *testing.T) {
	w, _ := newWorkspace(t, testutil.NewFakeCompleter(), true)
	st := w.State()

	assert.False(t, st.HasColumn())
	assert.False(t, st.HasRule())
	assert.Empty(t, st.SQL)
	assert.Equal(t, PlaceholderText, st.SQLDisplay())
	assert.Zero(t, st.PassRate)
}

func TestWorkspace_SelectColumn(t *testing.T) {
	w, changes := newWorkspace(t, testutil.NewFakeCompleter(), true)

	require.NoError(t, w.SelectColumn("Column A"))
	assert.Equal(t, "Column A", w.State().Column)
	assert.Equal(t, int32(1), changes.Load())

	// reselecting is a no-op
	require.NoError(t, w.SelectColumn("Column A"))
	assert.Equal(t, int32(1), changes.Load())

	err := w.SelectColumn("Column Z")
	assert.ErrorIs(t, err, ErrUnknownColumn)
	assert.Equal(t, "Column A", w.State().Column)
}

func TestWorkspace_SelectColumn_ResetPolicy(t *testing.T) {
	tests := []struct {
		name     string
		reset    bool
		wantText string
	}{
		{name: "reset", reset: true},
		{name: "keep", reset: false, wantText: "a-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := newWorkspace(t, testutil.NewFakeCompleter(), tt.reset)
			require.NoError(t, w.SelectColumn("Column A"))
			w.SetRuleText("a-1")
			w.Evaluate()

			require.NoError(t, w.SelectColumn("Column B"))
			st := w.State()
			assert.Equal(t, "Column B", st.Column)
			assert.Equal(t, tt.wantText, st.RuleText)
			assert.Empty(t, st.SQL)
			assert.Zero(t, st.PassRate)
			assert.False(t, st.Evaluated)
		})
	}
}

func TestWorkspace_Evaluate(t *testing.T) {
	w, _ := newWorkspace(t, testutil.NewFakeCompleter(), true)
	require.NoError(t, w.SelectColumn("Column A"))
	w.SetRuleText("a-1")

	res := w.Evaluate()
	assert.Equal(t, 11, res.Matched)

	st := w.State()
	assert.Equal(t, 55, st.PassRate)
	assert.True(t, st.Evaluated)
	assert.Equal(t, "SELECT * FROM table WHERE a-1", st.SQL)
	assert.Equal(t, SQLDerived, st.SQLSource)
}

func TestWorkspace_Evaluate_Guards(t *testing.T) {
	t.Run("no column", func(t *testing.T) {
		w, _ := newWorkspace(t, testutil.NewFakeCompleter(), true)
		w.SetRuleText("a-1")
		w.Evaluate()

		st := w.State()
		assert.Empty(t, st.SQL)
		assert.Zero(t, st.PassRate)
		assert.False(t, st.Evaluated)
	})

	t.Run("blank text clears previous result", func(t *testing.T) {
		w, _ := newWorkspace(t, testutil.NewFakeCompleter(), true)
		require.NoError(t, w.SelectColumn("Column A"))
		w.SetRuleText("a-1")
		w.Evaluate()
		w.SetRuleText("   ")
		w.Evaluate()

		st := w.State()
		assert.Empty(t, st.SQL)
		assert.Zero(t, st.PassRate)
	})
}

func TestWorkspace_Evaluate_KeepsSuggestion(t *testing.T) {
	fc := testutil.NewFakeCompleter(testutil.Reply{Text: "SELECT 1"})
	w, _ := newWorkspace(t, fc, true)
	require.NoError(t, w.SelectColumn("Column A"))
	w.SetRuleText("a-1")

	require.NoError(t, w.RequestSuggestion(context.Background()))
	w.Evaluate()

	st := w.State()
	assert.Equal(t, "SELECT 1", st.SQL)
	assert.Equal(t, 55, st.PassRate)
}

func TestWorkspace_SetRuleText_DropsSuggestion(t *testing.T) {
	fc := testutil.NewFakeCompleter(testutil.Reply{Text: "SELECT * FROM t WHERE a LIKE '%a-1%'"})
	saver := &memSaver{}
	w := New(Config{Table: dataset.Sample(), Completer: fc, Saver: saver, ResetOnSelect: true})
	t.Cleanup(w.Close)
	require.NoError(t, w.SelectColumn("Column A"))
	w.SetRuleText("a-1")
	require.NoError(t, w.RequestSuggestion(context.Background()))
	require.Equal(t, SQLSuggested, w.State().SQLSource)

	// whitespace-only edits keep the suggestion
	w.SetRuleText(" a-1 ")
	assert.Equal(t, SQLSuggested, w.State().SQLSource)

	w.SetRuleText("b-1")
	st := w.State()
	assert.Empty(t, st.SQL)
	assert.Equal(t, SQLNone, st.SQLSource)

	w.Evaluate()
	assert.Equal(t, rules.NaiveSQL("b-1"), w.State().SQL)

	saved, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b-1", saved.RuleText)
	assert.Equal(t, rules.NaiveSQL("b-1"), saved.SQL)
}

func TestWorkspace_Submit_UsesCurrentText(t *testing.T) {
	saver := &memSaver{}
	w := New(Config{Table: dataset.Sample(), Completer: testutil.NewFakeCompleter(), Saver: saver, ResetOnSelect: true})
	t.Cleanup(w.Close)
	require.NoError(t, w.SelectColumn("Column A"))
	w.SetRuleText("a-1")
	w.Evaluate()

	w.SetRuleText("a-2")
	saved, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rules.NaiveSQL("a-2"), saved.SQL)
}

func TestWorkspace_RequestSuggestion_SupersededByEdit(t *testing.T) {
	fc := testutil.NewFakeCompleter(testutil.Reply{Text: "SELECT stale", Gate: make(chan struct{})})
	w, _ := newWorkspace(t, fc, true)
	require.NoError(t, w.SelectColumn("Column A"))
	w.SetRuleText("a-1")

	done := make(chan error, 1)
	go func() { done <- w.RequestSuggestion(context.Background()) }()
	waitStarted(t, fc)

	w.SetRuleText("must not be null")
	require.NoError(t, <-done)

	st := w.State()
	assert.False(t, st.Loading)
	assert.Empty(t, st.SQL)
	assert.Equal(t, SQLNone, st.SQLSource)
	assert.Equal(t, "must not be null", st.RuleText)
}

func TestWorkspace_RequestSuggestion(t *testing.T) {
	fc := testutil.NewFakeCompleter(testutil.Reply{Text: "SELECT * FROM t WHERE col_a IS NOT NULL"})
	w, changes := newWorkspace(t, fc, true)
	require.NoError(t, w.SelectColumn("Column A"))
	w.SetRuleText("not null")
	before := changes.Load()

	require.NoError(t, w.RequestSuggestion(context.Background()))

	st := w.State()
	assert.False(t, st.Loading)
	assert.Equal(t, "SELECT * FROM t WHERE col_a IS NOT NULL", st.SQL)
	assert.Equal(t, SQLSuggested, st.SQLSource)
	// loading on, loading off
	assert.Equal(t, before+2, changes.Load())

	calls := fc.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, suggest.RuleRequest("Column A", "not null"), calls[0])
}

func TestWorkspace_RequestSuggestion_Guards(t *testing.T) {
	fc := testutil.NewFakeCompleter(testutil.Reply{Text: "x"})
	w, _ := newWorkspace(t, fc, true)

	w.SetRuleText("not null")
	assert.ErrorIs(t, w.RequestSuggestion(context.Background()), ErrNoColumn)

	require.NoError(t, w.SelectColumn("Column A"))
	w.SetRuleText("  ")
	assert.ErrorIs(t, w.RequestSuggestion(context.Background()), ErrEmptyRule)

	assert.Empty(t, fc.Calls())
}

func TestWorkspace_RequestSuggestion_Failure(t *testing.T) {
	fc := testutil.NewFakeCompleter(testutil.Reply{Err: suggest.ErrCallFailed})
	w, _ := newWorkspace(t, fc, true)
	require.NoError(t, w.SelectColumn("Column A"))
	w.SetRuleText("a-1")

	require.NoError(t, w.RequestSuggestion(context.Background()))

	st := w.State()
	assert.Equal(t, suggest.FailureText, st.SQL)
	assert.Equal(t, SQLFailed, st.SQLSource)
	assert.False(t, st.Loading)

	// a failure message is not kept as a suggestion
	w.Evaluate()
	assert.Equal(t, rules.NaiveSQL("a-1"), w.State().SQL)
}

func TestWorkspace_RequestSuggestion_Busy(t *testing.T) {
	gate := make(chan struct{})
	fc := testutil.NewFakeCompleter(testutil.Reply{Text: "SELECT 1", Gate: gate})
	w, _ := newWorkspace(t, fc, true)
	require.NoError(t, w.SelectColumn("Column A"))
	w.SetRuleText("a-1")

	done := make(chan error, 1)
	go func() { done <- w.RequestSuggestion(context.Background()) }()
	waitStarted(t, fc)

	st := w.State()
	assert.True(t, st.Loading)
	assert.Equal(t, LoadingText, st.SQLDisplay())
	assert.ErrorIs(t, w.RequestSuggestion(context.Background()), ErrBusy)

	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, "SELECT 1", w.State().SQL)
	assert.Len(t, fc.Calls(), 1)
}

func TestWorkspace_RequestSuggestion_SupersededByColumnChange(t *testing.T) {
	fc := testutil.NewFakeCompleter(testutil.Reply{Text: "SELECT stale", Gate: make(chan struct{})})
	w, _ := newWorkspace(t, fc, false)
	require.NoError(t, w.SelectColumn("Column A"))
	w.SetRuleText("a-1")

	done := make(chan error, 1)
	go func() { done <- w.RequestSuggestion(context.Background()) }()
	waitStarted(t, fc)

	require.NoError(t, w.SelectColumn("Column B"))
	require.NoError(t, <-done)

	st := w.State()
	assert.False(t, st.Loading)
	assert.Empty(t, st.SQL)
	assert.Equal(t, "Column B", st.Column)
}

func TestWorkspace_Close(t *testing.T) {
	fc := testutil.NewFakeCompleter(testutil.Reply{Text: "late", Gate: make(chan struct{})})
	w, _ := newWorkspace(t, fc, true)
	require.NoError(t, w.SelectColumn("Column A"))
	w.SetRuleText("a-1")

	done := make(chan error, 1)
	go func() { done <- w.RequestSuggestion(context.Background()) }()
	waitStarted(t, fc)

	w.Close()
	require.NoError(t, <-done)
	assert.Empty(t, w.State().SQL)

	assert.ErrorIs(t, w.SelectColumn("Column B"), ErrClosed)
	assert.ErrorIs(t, w.RequestSuggestion(context.Background()), ErrClosed)
	_, err := w.Submit(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestWorkspace_SetSeverity(t *testing.T) {
	w, _ := newWorkspace(t, testutil.NewFakeCompleter(), true)
	assert.ErrorIs(t, w.SetSeverity(rules.SeverityWarn), ErrEmptyRule)

	w.SetRuleText("a-1")
	require.NoError(t, w.SetSeverity(rules.SeverityWarn))
	assert.Equal(t, rules.SeverityWarn, w.State().Severity)
}

func TestWorkspace_Submit(t *testing.T) {
	saver := &memSaver{}
	w := New(Config{Table: dataset.Sample(), Completer: testutil.NewFakeCompleter(), Saver: saver, ResetOnSelect: true})
	t.Cleanup(w.Close)

	_, err := w.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNoColumn)

	require.NoError(t, w.SelectColumn("Column A"))
	_, err = w.Submit(context.Background())
	assert.ErrorIs(t, err, ErrEmptyRule)

	w.SetRuleText(" a-1 ")
	saved, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rule-1", saved.ID)
	assert.Equal(t, dataset.DefaultTableName, saved.TableName)
	assert.Equal(t, "Column A", saved.ColumnName)
	assert.Equal(t, "a-1", saved.RuleText)
	assert.Equal(t, rules.NaiveSQL(" a-1 "), saved.SQL)
	assert.Equal(t, rules.SeverityInfo, saved.Severity)
	assert.Equal(t, 55, saved.PassRate)
	require.Len(t, saver.rules, 1)
}

func TestWorkspace_Submit_Errors(t *testing.T) {
	t.Run("no catalog", func(t *testing.T) {
		w := New(Config{Table: dataset.Sample()})
		_, err := w.Submit(context.Background())
		assert.ErrorIs(t, err, ErrNoCatalog)
	})

	t.Run("store failure", func(t *testing.T) {
		boom := errors.New("disk full")
		w := New(Config{Table: dataset.Sample(), Saver: &memSaver{err: boom}})
		require.NoError(t, w.SelectColumn("Column A"))
		w.SetRuleText("a-1")
		_, err := w.Submit(context.Background())
		assert.ErrorIs(t, err, boom)
	})
}
