package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// APIConfig holds settings for the remote mailbox API.
type APIConfig struct {
	// BaseURL is the root URL of the mailbox service.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds a single HTTP round trip.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// MaxRetries is how many times a rate-limited (429) request is retried.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`

	// MaxPages caps how many pages of a paginated list are followed.
	MaxPages int `mapstructure:"max_pages" yaml:"max_pages"`
}

// StorageConfig holds settings for the durable key-value store.
type StorageConfig struct {
	// Path is the SQLite database file. ":memory:" keeps nothing on disk.
	Path string `mapstructure:"path" yaml:"path"`
}

// SessionConfig holds settings for the session provider.
type SessionConfig struct {
	// Backend selects where the session is persisted: "keyring" or "sqlite".
	Backend string `mapstructure:"backend" yaml:"backend"`

	// KeyringDir is used by the file keyring backend.
	KeyringDir string `mapstructure:"keyring_dir" yaml:"keyring_dir"`

	// TokenURL is the OAuth2 token endpoint used for password login.
	TokenURL string `mapstructure:"token_url" yaml:"token_url"`

	ClientID     string `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret string `mapstructure:"client_secret" yaml:"client_secret"`
}

// SyncConfig holds settings for background refresh and fetch retries.
type SyncConfig struct {
	RefreshIntervalSec int `mapstructure:"refresh_interval_sec" yaml:"refresh_interval_sec"`
	RetryAttempts      int `mapstructure:"retry_attempts" yaml:"retry_attempts"`
	RetryInitialMs     int `mapstructure:"retry_initial_ms" yaml:"retry_initial_ms"`
	RetryMaxMs         int `mapstructure:"retry_max_ms" yaml:"retry_max_ms"`
}

// DisplayConfig holds presentation preferences for derived views.
type DisplayConfig struct {
	// Locale is a BCP 47 tag used to collate contact names.
	Locale string `mapstructure:"locale" yaml:"locale"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
	Sync    SyncConfig    `mapstructure:"sync" yaml:"sync"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/mailbox/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "mailbox", "config.yaml")
}

// DefaultDataDir returns the directory holding the database and the file
// keyring, ~/.local/share/mailbox.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "mailbox")
}

// DefaultAppConfig returns a sensible default configuration.
func DefaultAppConfig() *AppConfig {
	dataDir := DefaultDataDir()
	return &AppConfig{
		API: APIConfig{
			BaseURL:    "http://localhost:8000",
			TimeoutSec: 30,
			MaxRetries: 3,
			MaxPages:   50,
		},
		Storage: StorageConfig{
			Path: filepath.Join(dataDir, "mailbox.db"),
		},
		Session: SessionConfig{
			Backend:    "keyring",
			KeyringDir: filepath.Join(dataDir, "credentials"),
		},
		Sync: SyncConfig{
			RefreshIntervalSec: 120,
			RetryAttempts:      3,
			RetryInitialMs:     500,
			RetryMaxMs:         5000,
		},
		Display: DisplayConfig{
			Locale: "en",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultAppConfig()
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout_sec", d.API.TimeoutSec)
	v.SetDefault("api.max_retries", d.API.MaxRetries)
	v.SetDefault("api.max_pages", d.API.MaxPages)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("session.backend", d.Session.Backend)
	v.SetDefault("session.keyring_dir", d.Session.KeyringDir)
	v.SetDefault("session.token_url", "")
	v.SetDefault("session.client_id", "")
	v.SetDefault("session.client_secret", "")
	v.SetDefault("sync.refresh_interval_sec", d.Sync.RefreshIntervalSec)
	v.SetDefault("sync.retry_attempts", d.Sync.RetryAttempts)
	v.SetDefault("sync.retry_initial_ms", d.Sync.RetryInitialMs)
	v.SetDefault("sync.retry_max_ms", d.Sync.RetryMaxMs)
	v.SetDefault("display.locale", d.Display.Locale)
	v.SetDefault("log.level", d.Log.Level)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Every key can be overridden by an environment variable with the MAILBOX_
// prefix (e.g. MAILBOX_API_BASE_URL). A missing file yields the defaults
// plus environment overrides.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("mailbox")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail much later.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}
	switch c.Session.Backend {
	case "keyring", "sqlite":
	default:
		return fmt.Errorf("session.backend must be keyring or sqlite, got %q",
			c.Session.Backend)
	}
	if c.API.MaxPages < 1 {
		c.API.MaxPages = 1
	}
	if c.Sync.RetryAttempts < 1 {
		c.Sync.RetryAttempts = 1
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("storage", cfg.Storage)
	v.Set("session", cfg.Session)
	v.Set("sync", cfg.Sync)
	v.Set("display", cfg.Display)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
