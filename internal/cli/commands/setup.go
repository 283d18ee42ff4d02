package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/dqstudio/internal/catalog"
	"github.com/leapstack-labs/dqstudio/internal/cli/config"
	"github.com/leapstack-labs/dqstudio/internal/cli/output"
	"github.com/leapstack-labs/dqstudio/internal/dataset"
	"github.com/leapstack-labs/dqstudio/internal/suggest"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext collects the loaded config, logger and a renderer for cmd.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Helper functions shared across commands

// getConfig returns the current configuration, or defaults when none was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// loadTable returns the configured dataset, or the built-in sample table.
func loadTable(cfg *config.Config) (*dataset.Table, error) {
	if cfg.Dataset.Path == "" {
		return renameTable(dataset.Sample(), cfg.Dataset.TableName)
	}
	tbl, err := dataset.LoadCSV(cfg.Dataset.Path)
	if err != nil {
		return nil, err
	}
	return renameTable(tbl, cfg.Dataset.TableName)
}

func renameTable(tbl *dataset.Table, name string) (*dataset.Table, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == tbl.Name() {
		return tbl, nil
	}
	rows := make([]map[string]string, 0, tbl.Len())
	cols := tbl.Columns()
	for _, row := range tbl.Rows() {
		values := row.Values()
		m := make(map[string]string, len(cols))
		for i, c := range cols {
			m[c.Name] = values[i]
		}
		rows = append(rows, m)
	}
	return dataset.New(name, cols, rows)
}

// newCompleter builds the suggestion client from the api section.
func newCompleter(cfg *config.Config, logger *slog.Logger) *suggest.Client {
	return suggest.NewClient(suggest.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Logger:  logger,
	})
}

// openCatalog opens and migrates the saved-rules store. It returns nil when
// the catalog is disabled.
func openCatalog(cfg *config.Config, logger *slog.Logger) (*catalog.SQLStore, error) {
	if !cfg.Catalog.Enabled() {
		return nil, nil
	}

	dsn := cfg.Catalog.DSN
	if cfg.Catalog.Driver == config.CatalogSQLite && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create catalog directory: %w", err)
			}
		}
	}

	store, err := catalog.Open(cfg.Catalog.Driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, err
	}
	logger.Debug("catalog ready", "driver", cfg.Catalog.Driver)
	return store, nil
}

// requireCatalog is openCatalog for commands that cannot run without one.
func requireCatalog(cfg *config.Config, logger *slog.Logger) (*catalog.SQLStore, error) {
	if !cfg.Catalog.Enabled() {
		return nil, fmt.Errorf("the rule catalog is disabled (catalog.driver = %q)", cfg.Catalog.Driver)
	}
	return openCatalog(cfg, logger)
}
