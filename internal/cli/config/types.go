// Package config provides configuration management for the dqstudio CLI.
//
// Values are layered with koanf: built-in defaults, then dqstudio.yaml, then
// environment variables (DQSTUDIO_ prefix, plus the API_BASE_URL alias), then
// flags that were explicitly set on the command line.
package config

import "time"

// APIConfig configures the remote suggestion service.
type APIConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

// UIConfig holds configuration for the UI server.
type UIConfig struct {
	Port           int      `koanf:"port"`
	AutoOpen       bool     `koanf:"auto_open"`
	Watch          bool     `koanf:"watch"`
	MaxPages       int      `koanf:"max_pages"`
	SessionSecret  string   `koanf:"session_secret"`
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// DefaultUIConfig returns a UIConfig with default values.
func DefaultUIConfig() *UIConfig {
	return &UIConfig{
		Port:     DefaultPort,
		AutoOpen: true,
		Watch:    false,
		MaxPages: DefaultMaxPages,
	}
}

// GetUIConfig returns the UI config with defaults applied for any unset values.
func (c *Config) GetUIConfig() *UIConfig {
	if c.UI == nil {
		return DefaultUIConfig()
	}
	ui := c.UI
	if ui.Port == 0 {
		ui.Port = DefaultPort
	}
	if ui.MaxPages == 0 {
		ui.MaxPages = DefaultMaxPages
	}
	return ui
}

// WorkspaceConfig controls rule draft behavior.
type WorkspaceConfig struct {
	// ResetOnSelect clears the rule text when another column is selected.
	ResetOnSelect bool `koanf:"reset_on_select"`
}

// DatasetConfig points at the table rules are authored against. An empty
// path selects the built-in sample table.
type DatasetConfig struct {
	Path      string `koanf:"path"`
	TableName string `koanf:"table_name"`
}

// CatalogConfig selects the saved-rules store.
type CatalogConfig struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

// Enabled reports whether saved rules are available.
func (c CatalogConfig) Enabled() bool {
	return c.Driver != CatalogNone
}

// Config holds all CLI configuration options.
type Config struct {
	API          APIConfig       `koanf:"api"`
	UI           *UIConfig       `koanf:"ui"`
	Workspace    WorkspaceConfig `koanf:"workspace"`
	Dataset      DatasetConfig   `koanf:"dataset"`
	Catalog      CatalogConfig   `koanf:"catalog"`
	Verbose      bool            `koanf:"verbose"`
	OutputFormat string          `koanf:"output"`
}

// Default configuration values.
const (
	DefaultBaseURL     = "http://localhost:8000"
	DefaultTimeout     = 60 * time.Second
	DefaultPort        = 8765
	DefaultMaxPages    = 256
	DefaultCatalogDSN  = ".dqstudio/catalog.db"
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	CatalogSQLite      = "sqlite"
	CatalogPostgres    = "postgres"
	CatalogNone        = "none"
	DefaultCatalogType = CatalogSQLite
)

// Default returns the configuration used when nothing has been loaded.
func Default() *Config {
	return &Config{
		API:          APIConfig{BaseURL: DefaultBaseURL, Timeout: DefaultTimeout},
		UI:           DefaultUIConfig(),
		Workspace:    WorkspaceConfig{ResetOnSelect: true},
		Catalog:      CatalogConfig{Driver: DefaultCatalogType, DSN: DefaultCatalogDSN},
		OutputFormat: DefaultOutput,
	}
}
