package commands

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"

	"github.com/leapstack-labs/dqstudio/internal/catalog"
	"github.com/leapstack-labs/dqstudio/internal/cli/config"
	"github.com/leapstack-labs/dqstudio/internal/dataset"
	"github.com/leapstack-labs/dqstudio/internal/ui"
	"github.com/spf13/cobra"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	NoBrowser bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"ui"},
		Short:   "Start the rule authoring studio",
		Long: `Start a local web server with the rule authoring studio.

The studio provides:
- A scrollable preview of the dataset with column statistics
- A rule workspace with AI suggested SQL and a live pass rate
- A chat assistant for rule ideas
- Saved rules for the table (unless catalog.driver is none)`,
		Example: `  # Start on the built-in sample table
  dqstudio serve

  # Author rules against a CSV file and reload it when it changes
  dqstudio serve --dataset data/orders.csv --watch

  # Start on a custom port without opening a browser
  dqstudio serve --port 3000 --no-browser`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().Int("port", 0, "Port to serve on (default: 8765)")
	cmd.Flags().Bool("watch", false, "Reload the dataset file when it changes")
	cmd.Flags().Int("max-pages", 0, "Maximum number of open studio pages kept in memory")
	cmd.Flags().StringSlice("allowed-origins", nil, "Origins allowed to call the studio (CORS)")
	cmd.Flags().Bool("reset-on-select", true, "Clear the rule text when another column is selected")
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Don't auto-open browser")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	logger := cmdCtx.Logger
	r := cmdCtx.Renderer

	uiCfg := cfg.GetUIConfig()

	tbl, err := loadTable(cfg)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	store, err := openCatalog(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	var rulesStore catalog.Store
	if store != nil {
		defer func() { _ = store.Close() }()
		rulesStore = store
	}

	serverCfg := ui.Config{
		Table:          tbl,
		Completer:      newCompleter(cfg, logger),
		Catalog:        rulesStore,
		Port:           uiCfg.Port,
		MaxPages:       uiCfg.MaxPages,
		ResetOnSelect:  cfg.Workspace.ResetOnSelect,
		SessionSecret:  sessionSecret(uiCfg, logger),
		AllowedOrigins: uiCfg.AllowedOrigins,
		Watch:          uiCfg.Watch && cfg.Dataset.Path != "",
		WatchPath:      cfg.Dataset.Path,
		Reload: func() (*dataset.Table, error) {
			return loadTable(cfg)
		},
		Logger: logger,
	}

	server, err := ui.NewServer(serverCfg)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://localhost:%d", uiCfg.Port)
	if uiCfg.AutoOpen && !opts.NoBrowser {
		go openBrowser(url)
	}

	r.Printf("Authoring rules for %s (%d rows, %d columns)\n", tbl.Name(), tbl.Len(), len(tbl.Columns()))
	r.Printf("Starting studio on %s\n", url)
	r.Muted("Press Ctrl+C to stop")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	return server.Serve(ctx)
}

// sessionSecret returns the configured cookie secret, or a random one that
// lasts for this process only.
func sessionSecret(uiCfg *config.UIConfig, logger *slog.Logger) string {
	if uiCfg.SessionSecret != "" {
		return uiCfg.SessionSecret
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// Default secret for development (nolint:gosec)
		return "dqstudio-dev-secret-change-in-production" //nolint:gosec
	}
	logger.Debug("no ui.session_secret configured, sessions end when the server stops")
	return hex.EncodeToString(buf)
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
