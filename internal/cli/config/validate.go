package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url must be an http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}

	ui := c.GetUIConfig()
	if ui.Port < 1 || ui.Port > 65535 {
		return fmt.Errorf("ui.port out of range: %d", ui.Port)
	}
	if ui.MaxPages < 0 {
		return fmt.Errorf("ui.max_pages must not be negative, got %d", ui.MaxPages)
	}

	switch strings.ToLower(c.Catalog.Driver) {
	case CatalogSQLite, CatalogPostgres, "pgx", CatalogNone:
	default:
		return fmt.Errorf("unknown catalog.driver %q (want sqlite, postgres or none)", c.Catalog.Driver)
	}
	if (c.Catalog.Driver == CatalogPostgres || c.Catalog.Driver == "pgx") && c.Catalog.DSN == "" {
		return fmt.Errorf("catalog.dsn is required for the postgres catalog\nHint: set DQSTUDIO_CATALOG_DSN")
	}

	switch strings.ToLower(c.OutputFormat) {
	case "", "auto", "text", "markdown", "md", "json":
	default:
		return fmt.Errorf("unknown output format %q (want auto, text, markdown or json)", c.OutputFormat)
	}
	return nil
}
