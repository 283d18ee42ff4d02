package registry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/dqstudio/internal/dataset"
	"github.com/leapstack-labs/dqstudio/internal/testutil"
	"github.com/leapstack-labs/dqstudio/internal/workspace"
)

type recordingNotifier struct {
	mu     sync.Mutex
	topics []string
}

func (n *recordingNotifier) Notify(topic string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.topics = append(n.topics, topic)
}

func (n *recordingNotifier) count(topic string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, t := range n.topics {
		if t == topic {
			c++
		}
	}
	return c
}

func newRegistry(t *testing.T, maxPages int, fc *testutil.FakeCompleter) (*Registry, *recordingNotifier) {
	t.Helper()
	tbl := dataset.Sample()
	n := &recordingNotifier{}
	r, err := New(Config{
		MaxPages:      maxPages,
		Table:         func() *dataset.Table { return tbl },
		Completer:     fc,
		ResetOnSelect: true,
		Notifier:      n,
		Logger:        testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r, n
}

func TestNew_RequiresTable(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestRegistry_CreateGet(t *testing.T) {
	r, _ := newRegistry(t, 4, testutil.NewFakeCompleter())

	p := r.Create("client-1")
	require.NotEmpty(t, p.ID)
	assert.Equal(t, 1, r.Len())

	got, err := r.Get(p.ID, "client-1")
	require.NoError(t, err)
	assert.Same(t, p, got)

	_, err = r.Get(p.ID, "client-2")
	assert.ErrorIs(t, err, ErrPageNotFound, "pages are scoped to their owner")

	_, err = r.Get("missing", "client-1")
	assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestRegistry_PagesAreIndependent(t *testing.T) {
	r, _ := newRegistry(t, 4, testutil.NewFakeCompleter())

	a := r.Create("client")
	b := r.Create("client")
	require.NoError(t, a.Workspace.SelectColumn("Column A"))

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "Column A", a.Workspace.State().Column)
	assert.Empty(t, b.Workspace.State().Column)
}

func TestRegistry_NotifiesPageTopic(t *testing.T) {
	r, n := newRegistry(t, 4, testutil.NewFakeCompleter())

	p := r.Create("client")
	require.NoError(t, p.Workspace.SelectColumn("Column B"))
	assert.True(t, p.ToggleChat())
	assert.True(t, p.ChatOpen())

	assert.Equal(t, 2, n.count(p.ID))
}

func TestRegistry_EvictionClosesPage(t *testing.T) {
	fc := testutil.NewFakeCompleter(testutil.Reply{Text: "late", Gate: make(chan struct{})})
	r, _ := newRegistry(t, 1, fc)

	first := r.Create("client")
	require.NoError(t, first.Workspace.SelectColumn("Column A"))
	first.Workspace.SetRuleText("a-1")

	done := make(chan error, 1)
	go func() { done <- first.Workspace.RequestSuggestion(first.Context()) }()
	select {
	case <-fc.Started():
	case <-time.After(2 * time.Second):
		t.Fatal("suggestion never started")
	}

	second := r.Create("client")

	require.NoError(t, <-done)
	assert.True(t, first.Closed())
	assert.ErrorIs(t, first.Context().Err(), context.Canceled)
	assert.Empty(t, first.Workspace.State().SQL)

	_, err := r.Get(first.ID, "client")
	assert.ErrorIs(t, err, ErrPageNotFound)
	_, err = r.Get(second.ID, "client")
	assert.NoError(t, err)
}

func TestRegistry_Remove(t *testing.T) {
	r, _ := newRegistry(t, 4, testutil.NewFakeCompleter())

	p := r.Create("client")
	r.Remove(p.ID)

	assert.True(t, p.Closed())
	assert.ErrorIs(t, p.Workspace.SelectColumn("Column A"), workspace.ErrClosed)
	assert.Zero(t, r.Len())
}
