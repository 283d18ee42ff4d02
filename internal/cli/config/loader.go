package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// EnvPrefix prefixes every environment variable read by the loader.
const EnvPrefix = "DQSTUDIO_"

// BaseURLEnv is the unprefixed variable that also sets api.base_url.
const BaseURLEnv = "API_BASE_URL"

// configNames are searched in the working directory, in order.
var configNames = []string{"dqstudio.yaml", "dqstudio.yml", ".dqstudio.yaml"}

// sections are the nested config groups; DQSTUDIO_UI_MAX_PAGES maps to ui.max_pages.
var sections = []string{"api", "ui", "workspace", "dataset", "catalog"}

// flagKeys maps CLI flag names to config keys when they differ.
var flagKeys = map[string]string{
	"base-url":        "api.base_url",
	"timeout":         "api.timeout",
	"port":            "ui.port",
	"open":            "ui.auto_open",
	"watch":           "ui.watch",
	"max-pages":       "ui.max_pages",
	"allowed-origins": "ui.allowed_origins",
	"reset-on-select": "workspace.reset_on_select",
	"dataset":         "dataset.path",
	"table":           "dataset.table_name",
	"catalog-driver":  "catalog.driver",
	"catalog-dsn":     "catalog.dsn",
}

// ignoredFlags never become config keys.
var ignoredFlags = map[string]bool{"config": true, "help": true, "version": true}

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// findConfigFile finds the config file to use.
// Priority: explicit path > dqstudio.yaml > dqstudio.yml > .dqstudio.yaml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range configNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// envKey turns DQSTUDIO_CATALOG_DSN into catalog.dsn.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, section := range sections {
		if strings.HasPrefix(key, section+"_") {
			return section + "." + strings.TrimPrefix(key, section+"_")
		}
	}
	return key
}

// flagKey maps a changed flag to its config key.
func flagKey(name string) string {
	if key, ok := flagKeys[name]; ok {
		return key
	}
	return strings.ReplaceAll(name, "-", "_")
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// A .env file in the working directory is read first and never overrides
// variables that are already set.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	_ = godotenv.Load()

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"api.base_url":              DefaultBaseURL,
		"api.timeout":               DefaultTimeout.String(),
		"ui.port":                   DefaultPort,
		"ui.auto_open":              true,
		"ui.watch":                  false,
		"ui.max_pages":              DefaultMaxPages,
		"workspace.reset_on_select": true,
		"catalog.driver":            DefaultCatalogType,
		"catalog.dsn":               DefaultCatalogDSN,
		"verbose":                   false,
		"output":                    DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables. API_BASE_URL first so that
	// DQSTUDIO_API_BASE_URL wins when both are set.
	if err := k.Load(env.Provider(BaseURLEnv, ".", func(s string) string {
		if s != BaseURLEnv {
			return ""
		}
		return "api.base_url"
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed || ignoredFlags[f.Name] {
				return "", nil
			}
			return flagKey(f.Name), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.Catalog.Driver = strings.ToLower(cfg.Catalog.Driver)
	switch cfg.Catalog.Driver {
	case CatalogSQLite:
		cfg.Catalog.DSN = resolveSQLitePath(cfg.Catalog.DSN, configFileUsed)
	case CatalogPostgres, "pgx":
		// the default DSN is a sqlite path
		if cfg.Catalog.DSN == DefaultCatalogDSN {
			cfg.Catalog.DSN = ""
		}
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

// resolveSQLitePath anchors a relative sqlite file next to the config file.
func resolveSQLitePath(dsn, cfgFile string) string {
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") || filepath.IsAbs(dsn) || cfgFile == "" {
		return dsn
	}
	return filepath.Join(filepath.Dir(cfgFile), dsn)
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}
