package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/dqstudio/internal/catalog"
	"github.com/leapstack-labs/dqstudio/internal/chat"
	"github.com/leapstack-labs/dqstudio/internal/dataset"
	"github.com/leapstack-labs/dqstudio/internal/rules"
	"github.com/leapstack-labs/dqstudio/internal/ui/features/studio/components"
	"github.com/leapstack-labs/dqstudio/internal/ui/notifier"
	"github.com/leapstack-labs/dqstudio/internal/ui/registry"
	"github.com/leapstack-labs/dqstudio/internal/workspace"
)

const (
	// SessionName is the cookie holding the browser's client id.
	SessionName = "dqstudio"
	clientIDKey = "client_id"

	pageTitle    = "Studio"
	reloadScript = "window.location.reload()"
	savedNotice  = "Rule saved."
)

var errNoSession = errors.New("no studio session")

// Deps are the collaborators of the studio handlers.
type Deps struct {
	Pages        *registry.Registry
	SessionStore sessions.Store
	Notifier     *notifier.Notifier
	// Catalog is optional; without it submit and saved rules are hidden.
	Catalog catalog.Store
	// Table returns the table currently served; pages opened on an older
	// table are reloaded when it changes.
	Table  func() *dataset.Table
	Logger *slog.Logger
}

// Handlers provides HTTP handlers for the studio feature.
type Handlers struct {
	pages        *registry.Registry
	sessionStore sessions.Store
	notifier     *notifier.Notifier
	catalog      catalog.Store
	table        func() *dataset.Table
	logger       *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps Deps) (*Handlers, error) {
	if deps.Pages == nil || deps.SessionStore == nil || deps.Notifier == nil || deps.Table == nil {
		return nil, fmt.Errorf("studio: pages, session store, notifier and table are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{
		pages:        deps.Pages,
		sessionStore: deps.SessionStore,
		notifier:     deps.Notifier,
		catalog:      deps.Catalog,
		table:        deps.Table,
		logger:       logger,
	}, nil
}

// StudioPage opens a fresh page for the browser and renders it in full.
func (h *Handlers) StudioPage(w http.ResponseWriter, r *http.Request) {
	owner, err := h.clientID(w, r, true)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	page := h.pages.Create(owner)
	data, err := h.buildAppData(r.Context(), page)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := components.StudioPage(pageTitle, data).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// StudioUpdates is the long-lived SSE endpoint of one page. It re-renders the
// app whenever the page's state changes. The initial state is already part
// of StudioPage, so nothing is sent until the first ping.
func (h *Handlers) StudioUpdates(w http.ResponseWriter, r *http.Request) {
	page, _, err := h.lookup(w, r)
	sse := datastar.NewSSE(w, r)
	if err != nil {
		h.fail(sse, err)
		return
	}

	updates := h.notifier.Subscribe(page.ID)
	defer h.notifier.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			if page.Closed() {
				_ = sse.ConsoleError(errors.New("studio page expired, reload to continue"))
				return
			}
			if page.Workspace.Table() != h.table() {
				_ = sse.ExecuteScript(reloadScript)
				return
			}
			if err := h.sendApp(ctx, sse, page); err != nil {
				_ = sse.ConsoleError(err)
				// keep the stream open for the next ping
			}
		}
	}
}

// SelectColumn selects the clicked column.
func (h *Handlers) SelectColumn(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(sse *datastar.ServerSentEventGenerator, page *registry.Page, s Signals) error {
		if err := page.Workspace.SelectColumn(s.Column); err != nil {
			return err
		}
		// the reset policy may have cleared the draft text
		return sse.MarshalAndPatchSignals(map[string]any{
			"ruleText": page.Workspace.State().RuleText,
			"notice":   "",
		})
	})
}

// SetRuleText stores the typed rule text.
func (h *Handlers) SetRuleText(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(_ *datastar.ServerSentEventGenerator, page *registry.Page, s Signals) error {
		page.Workspace.SetRuleText(s.RuleText)
		return nil
	})
}

// Suggest asks the suggestion service for SQL. The loading state reaches the
// browser through the updates stream while this request waits.
func (h *Handlers) Suggest(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(_ *datastar.ServerSentEventGenerator, page *registry.Page, s Signals) error {
		page.Workspace.SetRuleText(s.RuleText)
		return page.Workspace.RequestSuggestion(page.Context())
	})
}

// Evaluate recomputes the pass rate.
func (h *Handlers) Evaluate(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(_ *datastar.ServerSentEventGenerator, page *registry.Page, s Signals) error {
		page.Workspace.SetRuleText(s.RuleText)
		page.Workspace.Evaluate()
		return nil
	})
}

// SetSeverity records the chosen severity.
func (h *Handlers) SetSeverity(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(_ *datastar.ServerSentEventGenerator, page *registry.Page, s Signals) error {
		sev, err := rules.ParseSeverity(s.Severity)
		if err != nil {
			return err
		}
		return page.Workspace.SetSeverity(sev)
	})
}

// Submit saves the draft to the catalog.
func (h *Handlers) Submit(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(sse *datastar.ServerSentEventGenerator, page *registry.Page, s Signals) error {
		page.Workspace.SetRuleText(s.RuleText)
		if _, err := page.Workspace.Submit(r.Context()); err != nil {
			return err
		}
		// other pages list saved rules too
		h.notifier.Broadcast()
		return sse.MarshalAndPatchSignals(map[string]any{"notice": savedNotice})
	})
}

// DeleteRule removes a saved rule.
func (h *Handlers) DeleteRule(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(_ *datastar.ServerSentEventGenerator, _ *registry.Page, s Signals) error {
		if h.catalog == nil {
			return workspace.ErrNoCatalog
		}
		if err := h.catalog.Delete(r.Context(), s.RuleID); err != nil {
			return err
		}
		h.logger.Info("rule deleted", "id", s.RuleID)
		h.notifier.Broadcast()
		return nil
	})
}

// ToggleChat opens or closes the chat panel.
func (h *Handlers) ToggleChat(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(_ *datastar.ServerSentEventGenerator, page *registry.Page, _ Signals) error {
		page.ToggleChat()
		return nil
	})
}

// SendChat sends the chat input to the assistant and waits for the reply.
func (h *Handlers) SendChat(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(sse *datastar.ServerSentEventGenerator, page *registry.Page, s Signals) error {
		if page.Chat.Loading() {
			return chat.ErrBusy
		}
		if err := sse.MarshalAndPatchSignals(map[string]any{"chatInput": ""}); err != nil {
			return err
		}
		return page.Chat.Send(page.Context(), s.ChatInput)
	})
}

type actionFunc func(sse *datastar.ServerSentEventGenerator, page *registry.Page, s Signals) error

// action resolves the page, runs fn and answers with the re-rendered app.
// Guard violations are ignored: the UI disables those controls anyway.
func (h *Handlers) action(w http.ResponseWriter, r *http.Request, fn actionFunc) {
	// Read signals before creating the SSE generator
	page, signals, err := h.lookup(w, r)
	sse := datastar.NewSSE(w, r)
	if err != nil {
		h.fail(sse, err)
		return
	}

	if err := fn(sse, page, signals); err != nil {
		if !isGuard(err) {
			h.fail(sse, err)
			return
		}
		h.logger.Debug("studio action ignored", "path", r.URL.Path, "reason", err)
	}

	if err := h.sendApp(r.Context(), sse, page); err != nil {
		_ = sse.ConsoleError(err)
	}
}

func (h *Handlers) lookup(w http.ResponseWriter, r *http.Request) (*registry.Page, Signals, error) {
	var signals Signals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		return nil, signals, fmt.Errorf("failed to read signals: %w", err)
	}

	owner, err := h.clientID(w, r, false)
	if err != nil {
		return nil, signals, err
	}

	page, err := h.pages.Get(signals.PageID, owner)
	return page, signals, err
}

// clientID returns the browser's id from its session cookie, creating one
// when create is set.
func (h *Handlers) clientID(w http.ResponseWriter, r *http.Request, create bool) (string, error) {
	sess, err := h.sessionStore.Get(r, SessionName)
	if sess == nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}
	if id, ok := sess.Values[clientIDKey].(string); ok && id != "" {
		return id, nil
	}
	if !create {
		return "", errNoSession
	}

	id := uuid.NewString()
	sess.Values[clientIDKey] = id
	if err := sess.Save(r, w); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}
	return id, nil
}

func (h *Handlers) fail(sse *datastar.ServerSentEventGenerator, err error) {
	if errors.Is(err, registry.ErrPageNotFound) || errors.Is(err, errNoSession) {
		h.logger.Debug("unknown studio page, reloading", "error", err)
		_ = sse.ExecuteScript(reloadScript)
		return
	}
	h.logger.Warn("studio action failed", "error", err)
	_ = sse.ConsoleError(err)
}

func (h *Handlers) sendApp(ctx context.Context, sse *datastar.ServerSentEventGenerator, page *registry.Page) error {
	data, err := h.buildAppData(ctx, page)
	if err != nil {
		return err
	}
	return sse.PatchElementTempl(components.App(data))
}

// buildAppData assembles everything the app container renders.
func (h *Handlers) buildAppData(ctx context.Context, page *registry.Page) (components.AppData, error) {
	tbl := page.Workspace.Table()
	data := components.AppData{
		PageID:         page.ID,
		Table:          tbl,
		Draft:          page.Workspace.State(),
		ChatOpen:       page.ChatOpen(),
		ChatLoading:    page.Chat.Loading(),
		Messages:       page.Chat.Messages(),
		CatalogEnabled: h.catalog != nil,
	}

	if h.catalog != nil {
		saved, err := h.catalog.List(ctx, tbl.Name())
		if err != nil {
			return data, err
		}
		data.SavedRules = saved
	}
	return data, nil
}

func isGuard(err error) bool {
	for _, target := range []error{
		workspace.ErrNoColumn,
		workspace.ErrEmptyRule,
		workspace.ErrBusy,
		chat.ErrEmptyMessage,
		chat.ErrBusy,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
