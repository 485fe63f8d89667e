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
	GitHub  GitHubConfig      `yaml:"github"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Auth    AuthConfig        `yaml:"auth"`
	Scanner ScannerConfig     `yaml:"scanner"`
	OCR     OCRConfig         `yaml:"ocr"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.GitHub.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Scanner.Validate(); err != nil {
		return err
	}
	return c.OCR.Validate()
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

// VaultConfig holds the path to the local vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// GitHubConfig holds the optional remote vault repository. When
// Enabled, synced notes are mirrored to the repository through the
// contents API.
type GitHubConfig struct {
	Enabled bool   `yaml:"enabled"`
	Owner   string `yaml:"owner"`
	Repo    string `yaml:"repo"`
	Branch  string `yaml:"branch"`
	Token   string `yaml:"token"`
}

// Validate validates the GitHub configuration.
func (c *GitHubConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Branch == "" {
		c.Branch = "main"
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Owner, validation.Required),
		validation.Field(&c.Repo, validation.Required),
		validation.Field(&c.Token, validation.Required),
	)
}

// SQLiteConfig holds the sync history database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
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

// ScannerConfig holds eSCL scanner client configuration.
type ScannerConfig struct {
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	DiscoveryTimeout time.Duration `yaml:"discovery_timeout"`
}

// Validate validates the scanner configuration.
func (c *ScannerConfig) Validate() error {
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.DiscoveryTimeout == 0 {
		c.DiscoveryTimeout = 10 * time.Second
	}
	return nil
}

// OCR provider names.
const (
	OCRProviderOllama = "ollama"
	OCRProviderGemini = "gemini"
)

// OCRProviderConfig is one entry in the fallback chain, tried in
// listed order.
type OCRProviderConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
}

// Validate validates one OCR provider entry.
func (c *OCRProviderConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.Required, validation.In(OCRProviderOllama, OCRProviderGemini)),
		validation.Field(&c.Model, validation.Required),
	); err != nil {
		return err
	}
	if c.Provider == OCRProviderOllama && c.BaseURL == "" {
		return fmt.Errorf("ocr: provider %q requires base_url", c.Provider)
	}
	if c.Provider == OCRProviderGemini && c.APIKey == "" {
		return fmt.Errorf("ocr: provider %q requires api_key", c.Provider)
	}
	return nil
}

// OCRConfig holds the extraction provider chain. An empty chain
// disables the extract endpoint.
type OCRConfig struct {
	Providers      []OCRProviderConfig `yaml:"providers"`
	RequestTimeout time.Duration       `yaml:"request_timeout"`
}

// Validate validates the OCR configuration.
func (c *OCRConfig) Validate() error {
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 2 * time.Minute
	}
	for i := range c.Providers {
		if err := c.Providers[i].Validate(); err != nil {
			return fmt.Errorf("ocr provider %d: %w", i, err)
		}
	}
	return nil
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
			Path: "./vault",
		},
		GitHub: GitHubConfig{
			Branch: "main",
		},
		SQLite: SQLiteConfig{
			Path: "./papersync.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Scanner: ScannerConfig{
			RequestTimeout:   30 * time.Second,
			DiscoveryTimeout: 10 * time.Second,
		},
		OCR: OCRConfig{
			RequestTimeout: 2 * time.Minute,
		},
	}
}
