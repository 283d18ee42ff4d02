// Package features provides shared test utilities for UI feature tests.
package features

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/dqstudio/internal/catalog"
	"github.com/leapstack-labs/dqstudio/internal/dataset"
	"github.com/leapstack-labs/dqstudio/internal/testutil"
	"github.com/leapstack-labs/dqstudio/internal/ui/notifier"
	"github.com/leapstack-labs/dqstudio/internal/ui/registry"
)

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Completer    *testutil.FakeCompleter
	Catalog      *catalog.SQLStore
	Pages        *registry.Registry
	Notifier     *notifier.Notifier
	SessionStore *sessions.CookieStore

	table atomic.Pointer[dataset.Table]
}

// SetupTestFixture creates a fixture serving the sample table, an in-memory
// sqlite catalog and a completer answering with replies.
func SetupTestFixture(t *testing.T, replies ...testutil.Reply) *TestFixture {
	t.Helper()

	logger := testutil.NewTestLogger(t)

	store, err := catalog.Open(catalog.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { _ = store.Close() })

	f := &TestFixture{
		Completer:    testutil.NewFakeCompleter(replies...),
		Catalog:      store,
		Notifier:     NewTestNotifier(),
		SessionStore: NewTestSessionStore(),
	}
	f.table.Store(dataset.Sample())

	pages, err := registry.New(registry.Config{
		MaxPages:      16,
		Table:         f.Table,
		Completer:     f.Completer,
		Saver:         store,
		ResetOnSelect: true,
		Notifier:      f.Notifier,
		Logger:        logger,
	})
	require.NoError(t, err)
	t.Cleanup(pages.Close)
	f.Pages = pages

	return f
}

// Table returns the table currently served.
func (f *TestFixture) Table() *dataset.Table {
	return f.table.Load()
}

// SetTable swaps the served table, as a dataset reload does.
func (f *TestFixture) SetTable(tbl *dataset.Table) {
	f.table.Store(tbl)
}

// PostSignals builds a datastar action request carrying signals as JSON.
func PostSignals(t *testing.T, path string, signals any, cookies []*http.Cookie) *http.Request {
	t.Helper()
	body, err := json.Marshal(signals)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

// GetSignals builds a datastar GET request with signals in the query string.
func GetSignals(t *testing.T, path string, signals any, cookies []*http.Cookie) *http.Request {
	t.Helper()
	body, err := json.Marshal(signals)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, path+"?datastar="+url.QueryEscape(string(body)), nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

// RequestWithTimeout wraps a request with a context timeout.
func RequestWithTimeout(r *http.Request, timeout time.Duration) (*http.Request, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	return r.WithContext(ctx), cancel
}

// NewTestNotifier creates a notifier for testing.
func NewTestNotifier() *notifier.Notifier {
	return notifier.New()
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}
