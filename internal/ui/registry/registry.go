// Package registry keeps the server-side state of every open studio page.
//
// Each GET of the studio creates a Page owned by the browser session that
// requested it. Pages live in a bounded LRU; evicting or removing a page
// cancels its in-flight remote calls.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/leapstack-labs/dqstudio/internal/chat"
	"github.com/leapstack-labs/dqstudio/internal/dataset"
	"github.com/leapstack-labs/dqstudio/internal/suggest"
	"github.com/leapstack-labs/dqstudio/internal/workspace"
)

// DefaultMaxPages bounds the registry when Config.MaxPages is zero.
const DefaultMaxPages = 256

// ErrPageNotFound is returned for unknown, evicted or foreign page ids.
var ErrPageNotFound = errors.New("page not found")

// Notifier receives a ping whenever a page's state changes.
type Notifier interface {
	Notify(topic string)
}

// Page is the state behind one open studio page.
type Page struct {
	ID    string
	Owner string

	Workspace *workspace.Workspace
	Chat      *chat.Conversation

	ctx    context.Context
	cancel context.CancelFunc
	notify func()

	mu       sync.Mutex
	chatOpen bool
	closed   bool
}

// Context is cancelled when the page is closed. Remote calls made for the
// page run under it.
func (p *Page) Context() context.Context {
	return p.ctx
}

// ToggleChat flips the chat panel visibility and returns the new state.
func (p *Page) ToggleChat() bool {
	p.mu.Lock()
	p.chatOpen = !p.chatOpen
	open := p.chatOpen
	p.mu.Unlock()

	p.notify()
	return open
}

// ChatOpen reports whether the chat panel is visible.
func (p *Page) ChatOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.chatOpen
}

// Closed reports whether the page has been closed.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Close cancels the page's in-flight calls. It is idempotent.
func (p *Page) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.Workspace.Close()
	p.Chat.Close()
}

// Config configures a Registry.
type Config struct {
	MaxPages int

	// Table returns the table new pages work on.
	Table         func() *dataset.Table
	Completer     suggest.Completer
	Saver         workspace.RuleSaver
	ResetOnSelect bool

	Notifier Notifier
	Logger   *slog.Logger
}

// Registry is a bounded set of pages keyed by id.
type Registry struct {
	cfg    Config
	pages  *lru.Cache[string, *Page]
	logger *slog.Logger
}

// New creates a registry.
func New(cfg Config) (*Registry, error) {
	if cfg.Table == nil {
		return nil, fmt.Errorf("registry: table source is required")
	}
	size := cfg.MaxPages
	if size <= 0 {
		size = DefaultMaxPages
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	pages, err := lru.NewWithEvict(size, func(id string, p *Page) {
		logger.Debug("page closed", "page", id)
		p.Close()
	})
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}

	return &Registry{cfg: cfg, pages: pages, logger: logger}, nil
}

// Create opens a new page for owner.
func (r *Registry) Create(owner string) *Page {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())

	notify := func() {}
	if r.cfg.Notifier != nil {
		notify = func() { r.cfg.Notifier.Notify(id) }
	}
	logger := r.logger.With("page", id)

	p := &Page{
		ID:     id,
		Owner:  owner,
		ctx:    ctx,
		cancel: cancel,
		notify: notify,
		Workspace: workspace.New(workspace.Config{
			Table:         r.cfg.Table(),
			Completer:     r.cfg.Completer,
			Saver:         r.cfg.Saver,
			ResetOnSelect: r.cfg.ResetOnSelect,
			OnChange:      notify,
			Logger:        logger,
		}),
		Chat: chat.New(chat.Config{
			Completer: r.cfg.Completer,
			OnChange:  notify,
			Logger:    logger,
		}),
	}

	r.pages.Add(id, p)
	r.logger.Debug("page opened", "page", id, "pages", r.pages.Len())
	return p
}

// Get returns the page with id if owner opened it.
func (r *Registry) Get(id, owner string) (*Page, error) {
	p, ok := r.pages.Get(id)
	if !ok || p.Owner != owner {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, id)
	}
	return p, nil
}

// Remove closes and forgets a page.
func (r *Registry) Remove(id string) {
	r.pages.Remove(id)
}

// Len returns the number of open pages.
func (r *Registry) Len() int {
	return r.pages.Len()
}

// Close closes every page.
func (r *Registry) Close() {
	r.pages.Purge()
}
