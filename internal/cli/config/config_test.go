package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/dqstudio/internal/testutil"
)

// chdir moves into a fresh temp dir so no stray config or .env file is picked up.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	ResetConfig()
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadConfig_Defaults(t *testing.T) {
	chdir(t)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, DefaultTimeout, cfg.API.Timeout)
	assert.Equal(t, DefaultPort, cfg.GetUIConfig().Port)
	assert.Equal(t, DefaultMaxPages, cfg.GetUIConfig().MaxPages)
	assert.True(t, cfg.GetUIConfig().AutoOpen)
	assert.True(t, cfg.Workspace.ResetOnSelect)
	assert.Equal(t, CatalogSQLite, cfg.Catalog.Driver)
	assert.Equal(t, DefaultCatalogDSN, cfg.Catalog.DSN)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_File(t *testing.T) {
	dir := chdir(t)
	writeFile(t, filepath.Join(dir, "dqstudio.yaml"), `
api:
  base_url: http://suggest.internal:9000/
  timeout: 5s
ui:
  port: 9100
  allowed_origins: [http://a.example, http://b.example]
workspace:
  reset_on_select: false
dataset:
  path: data/orders.csv
  table_name: orders
catalog:
  dsn: rules.db
`)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "dqstudio.yaml", GetConfigFileUsed())
	assert.Equal(t, "http://suggest.internal:9000", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 9100, cfg.GetUIConfig().Port)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.GetUIConfig().AllowedOrigins)
	assert.False(t, cfg.Workspace.ResetOnSelect)
	assert.Equal(t, "data/orders.csv", cfg.Dataset.Path)
	assert.Equal(t, "orders", cfg.Dataset.TableName)
	assert.Equal(t, "rules.db", cfg.Catalog.DSN)
}

func TestLoadConfig_ExplicitFileAnchorsSQLite(t *testing.T) {
	dir := chdir(t)
	sub := filepath.Join(dir, "conf")
	require.NoError(t, os.MkdirAll(sub, 0o750))
	path := filepath.Join(sub, "studio.yaml")
	writeFile(t, path, "catalog:\n  dsn: rules.db\n")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(sub, "rules.db"), cfg.Catalog.DSN)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	chdir(t)

	_, err := LoadConfig("nope.yaml", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.yaml")
}

func TestLoadConfig_Env(t *testing.T) {
	chdir(t)
	t.Setenv("DQSTUDIO_UI_MAX_PAGES", "12")
	t.Setenv("DQSTUDIO_API_TIMEOUT", "250ms")
	t.Setenv("DQSTUDIO_WORKSPACE_RESET_ON_SELECT", "false")
	t.Setenv("DQSTUDIO_UI_ALLOWED_ORIGINS", "http://a.example,http://b.example")
	t.Setenv("DQSTUDIO_OUTPUT", "json")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.GetUIConfig().MaxPages)
	assert.Equal(t, 250*time.Millisecond, cfg.API.Timeout)
	assert.False(t, cfg.Workspace.ResetOnSelect)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.GetUIConfig().AllowedOrigins)
	assert.Equal(t, "json", cfg.OutputFormat)
}

func TestLoadConfig_BaseURLAlias(t *testing.T) {
	chdir(t)
	t.Setenv("API_BASE_URL", "http://alias.example:8000")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://alias.example:8000", cfg.API.BaseURL)

	t.Setenv("DQSTUDIO_API_BASE_URL", "http://prefixed.example")
	cfg, err = LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://prefixed.example", cfg.API.BaseURL)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := chdir(t)
	writeFile(t, filepath.Join(dir, ".env"), "DQSTUDIO_UI_PORT=9300\n")
	t.Cleanup(func() { _ = os.Unsetenv("DQSTUDIO_UI_PORT") })

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, 9300, cfg.GetUIConfig().Port)
}

func TestLoadConfig_Flags(t *testing.T) {
	dir := chdir(t)
	writeFile(t, filepath.Join(dir, "dqstudio.yaml"), "ui:\n  port: 9100\n")
	t.Setenv("DQSTUDIO_UI_PORT", "9200")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 0, "")
	flags.String("dataset", "", "")
	flags.String("catalog-driver", "", "")
	flags.Bool("verbose", false, "")
	require.NoError(t, flags.Parse([]string{"--port", "9400", "--catalog-driver", "none"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, 9400, cfg.GetUIConfig().Port, "flags beat env and file")
	assert.Equal(t, CatalogNone, cfg.Catalog.Driver)
	assert.False(t, cfg.Catalog.Enabled())
	assert.Empty(t, cfg.Dataset.Path, "unchanged flags are ignored")
	assert.False(t, cfg.Verbose)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "bad url", env: map[string]string{"DQSTUDIO_API_BASE_URL": "ftp://x"}, want: "api.base_url"},
		{name: "bad port", env: map[string]string{"DQSTUDIO_UI_PORT": "70000"}, want: "ui.port"},
		{name: "bad driver", env: map[string]string{"DQSTUDIO_CATALOG_DRIVER": "mysql"}, want: "catalog.driver"},
		{name: "postgres without dsn", env: map[string]string{"DQSTUDIO_CATALOG_DRIVER": "postgres", "DQSTUDIO_CATALOG_DSN": ""}, want: "catalog.dsn"},
		{name: "postgres with default dsn", env: map[string]string{"DQSTUDIO_CATALOG_DRIVER": "postgres"}, want: "catalog.dsn"},
		{name: "pgx with default dsn", env: map[string]string{"DQSTUDIO_CATALOG_DRIVER": "PGX"}, want: "catalog.dsn"},
		{name: "bad output", env: map[string]string{"DQSTUDIO_OUTPUT": "yaml"}, want: "output format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t)
			for key, val := range tt.env {
				t.Setenv(key, val)
			}
			_, err := LoadConfig("", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "ui.max_pages", envKey("DQSTUDIO_UI_MAX_PAGES"))
	assert.Equal(t, "workspace.reset_on_select", envKey("DQSTUDIO_WORKSPACE_RESET_ON_SELECT"))
	assert.Equal(t, "verbose", envKey("DQSTUDIO_VERBOSE"))
	assert.Equal(t, "uix", envKey("DQSTUDIO_UIX"))
}

func TestFlagKey(t *testing.T) {
	assert.Equal(t, "dataset.path", flagKey("dataset"))
	assert.Equal(t, "api.base_url", flagKey("base-url"))
	assert.Equal(t, "output", flagKey("output"))
}

func TestDefaultUIConfig_Fill(t *testing.T) {
	cfg := &Config{UI: &UIConfig{Watch: true}}
	ui := cfg.GetUIConfig()
	assert.Equal(t, DefaultPort, ui.Port)
	assert.Equal(t, DefaultMaxPages, ui.MaxPages)
	assert.True(t, ui.Watch)

	assert.Equal(t, DefaultPort, (&Config{}).GetUIConfig().Port)
}

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()), "fallback logger")

	logger := testutil.NewTestLogger(t)
	ctx := context.WithValue(context.Background(), LoggerKey(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}
