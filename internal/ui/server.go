// Package ui provides the web-based rule authoring studio.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/dqstudio/internal/catalog"
	"github.com/leapstack-labs/dqstudio/internal/dataset"
	"github.com/leapstack-labs/dqstudio/internal/suggest"
	studioFeature "github.com/leapstack-labs/dqstudio/internal/ui/features/studio"
	"github.com/leapstack-labs/dqstudio/internal/ui/notifier"
	"github.com/leapstack-labs/dqstudio/internal/ui/registry"
	"github.com/leapstack-labs/dqstudio/internal/ui/router"
)

// Server is the main UI server.
type Server struct {
	table        atomic.Pointer[dataset.Table]
	reload       func() (*dataset.Table, error)
	watchPath    string
	catalog      catalog.Store
	pages        *registry.Registry
	sessionStore *sessions.CookieStore
	notifier     *notifier.Notifier
	port         int
	watch        bool
	origins      []string
	logger       *slog.Logger
}

// Config holds configuration for the UI server.
type Config struct {
	Table     *dataset.Table
	Completer suggest.Completer
	// Catalog is optional.
	Catalog catalog.Store

	Port           int
	MaxPages       int
	ResetOnSelect  bool
	SessionSecret  string
	AllowedOrigins []string

	// Watch reloads the table with Reload whenever WatchPath changes.
	Watch     bool
	WatchPath string
	Reload    func() (*dataset.Table, error)

	Logger *slog.Logger
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Table == nil {
		return nil, errors.New("ui: a table is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	s := &Server{
		reload:       cfg.Reload,
		watchPath:    cfg.WatchPath,
		catalog:      cfg.Catalog,
		sessionStore: sessionStore,
		notifier:     notifier.New(),
		port:         cfg.Port,
		watch:        cfg.Watch && cfg.WatchPath != "" && cfg.Reload != nil,
		origins:      cfg.AllowedOrigins,
		logger:       logger,
	}
	s.table.Store(cfg.Table)

	pages, err := registry.New(registry.Config{
		MaxPages:      cfg.MaxPages,
		Table:         s.Table,
		Completer:     cfg.Completer,
		Saver:         cfg.Catalog,
		ResetOnSelect: cfg.ResetOnSelect,
		Notifier:      s.notifier,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}
	s.pages = pages

	return s, nil
}

// Table returns the table new pages are opened on.
func (s *Server) Table() *dataset.Table {
	return s.table.Load()
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// Handler builds the HTTP handler with middleware and all routes.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)
	if len(s.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.origins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "Datastar-Request"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	err := router.SetupRoutes(r, studioFeature.Deps{
		Pages:        s.pages,
		SessionStore: s.sessionStore,
		Notifier:     s.notifier,
		Catalog:      s.catalog,
		Table:        s.Table,
		Logger:       s.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Serve starts the UI server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	defer s.pages.Close()

	handler, err := s.Handler()
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting UI server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch {
		eg.Go(func() error {
			return s.watchDataset(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// watchDataset reloads the table when the dataset file changes. The parent
// directory is watched so editors that replace the file are noticed too.
func (s *Server) watchDataset(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	target := filepath.Clean(s.watchPath)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		s.logger.Error("failed to watch dataset", "path", target, "error", err)
		// Don't fail - continue without watching
		<-ctx.Done()
		return nil
	}

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || filepath.Clean(event.Name) != target {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
				s.logger.Debug("dataset changed, reloading", "file", event.Name)
				s.reloadTable()
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}

// reloadTable swaps in a freshly loaded table and pings every page. A table
// that fails to load leaves the current one in place.
func (s *Server) reloadTable() {
	tbl, err := s.reload()
	if err != nil {
		s.logger.Error("dataset reload failed", "error", err)
		return
	}
	s.table.Store(tbl)
	s.logger.Info("dataset reloaded", "table", tbl.Name(), "rows", tbl.Len())
	s.notifier.Broadcast()
}
