package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Vault   VaultConfig       `yaml:"vault"`
	Extract ExtractConfig     `yaml:"extract"`
	History HistoryConfig     `yaml:"history"`
	Watch   WatchConfig       `yaml:"watch"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.Extract.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig describes the note vault: where it lives, the name used in
// deep-links, which subfolders may be scanned, and where summaries go.
type VaultConfig struct {
	Path           string   `yaml:"path"`
	Name           string   `yaml:"name"`
	AllowedFolders []string `yaml:"allowed_folders"`
	SummaryFolder  string   `yaml:"summary_folder"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.SummaryFolder, validation.Required),
	)
}

// ExtractConfig holds the extraction service settings. The API key is
// deliberately absent: it comes from the OPENAI_API_KEY environment
// variable only, never from the config file.
type ExtractConfig struct {
	Model          string  `yaml:"model"`
	BaseURL        string  `yaml:"base_url"`
	WindowDays     int     `yaml:"window_days"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	Concurrency    int     `yaml:"concurrency"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`
}

// Timeout returns the per-call timeout as a duration.
func (c *ExtractConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate validates the extraction configuration.
func (c *ExtractConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.WindowDays, validation.Required, validation.Min(1), validation.Max(365)),
		validation.Field(&c.TimeoutSeconds, validation.Required, validation.Min(1)),
		validation.Field(&c.Concurrency, validation.Required, validation.Min(1), validation.Max(32)),
		validation.Field(&c.MaxTokens, validation.Required, validation.Min(1)),
	)
}

// HistoryConfig holds the run journal database path. An empty path
// disables journaling and the extraction cache.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// Enabled reports whether the journal is configured.
func (c *HistoryConfig) Enabled() bool {
	return c.Path != ""
}

// WatchConfig controls watch mode: automatic pipeline runs after note
// edits.
type WatchConfig struct {
	Enabled         bool `yaml:"enabled"`
	DebounceSeconds int  `yaml:"debounce_seconds"`
}

// Debounce returns the debounce interval as a duration.
func (c *WatchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceSeconds) * time.Second
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path:          "./vault",
			Name:          "vault",
			SummaryFolder: "Sirimal",
		},
		Extract: ExtractConfig{
			Model:          "gpt-4o",
			WindowDays:     2,
			TimeoutSeconds: 60,
			Concurrency:    4,
			MaxTokens:      600,
			Temperature:    0.2,
		},
		History: HistoryConfig{
			Path: "./sirimal.db",
		},
		Watch: WatchConfig{
			DebounceSeconds: 30,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
