package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/andy/rapport/internal/billing"
	"github.com/andy/rapport/internal/domain"
	ierr "github.com/andy/rapport/internal/errors"
	"github.com/andy/rapport/internal/logger"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "RAPPORT_CONFIG"

type Config struct {
	// Database settings
	Database DatabaseConfig `yaml:"database"`

	// Invoice settings
	Invoice InvoiceConfig `yaml:"invoice"`

	// Cost computation
	Billing BillingConfig `yaml:"billing"`

	// Issuer shown on invoices and payment slips
	Payee domain.PayeeProfile `yaml:"payee"`

	// HTTP API
	Server ServerConfig `yaml:"server"`

	Log LogConfig `yaml:"log"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"` // Path to SQLite database
}

type InvoiceConfig struct {
	OutputDir string `yaml:"output_dir"` // Directory for generated PDFs
}

type BillingConfig struct {
	DefaultRate string `yaml:"default_rate"` // Hourly rate for new clients (CHF)
	Rounding    string `yaml:"rounding"`     // half_up or half_even
}

type ServerConfig struct {
	Addr         string `yaml:"addr"`
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"` // bcrypt, see `rapport passwd`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

func configDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "rapport")
	}
	return filepath.Join(homeDir, ".config", "rapport")
}

// DefaultConfigPath returns $RAPPORT_CONFIG or ~/.config/rapport/config.yaml
func DefaultConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return filepath.Join(configDir(), "config.yaml")
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	dir := configDir()
	logDefaults := logger.DefaultConfig()

	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(dir, "rapport.db"),
		},
		Invoice: InvoiceConfig{
			OutputDir: filepath.Join(dir, "invoices"),
		},
		Billing: BillingConfig{
			DefaultRate: domain.DefaultHourlyRate.StringFixed(2),
			Rounding:    string(billing.RoundHalfUp),
		},
		Payee: domain.PayeeProfile{
			CountryCode: "CH",
		},
		Server: ServerConfig{
			Addr:     "127.0.0.1:8080",
			Username: "admin",
		},
		Log: LogConfig{
			Level:  logDefaults.Level,
			Format: logDefaults.Format,
			Output: logDefaults.Output,
		},
	}
}

// Load loads config from the given path, or returns defaults if file doesn't exist
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Konfigurationsdatei %s ist ungültig", path).
			Mark(ierr.ErrConfiguration)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads from the default config path
func LoadDefault() (*Config, error) {
	return Load(DefaultConfigPath())
}

// Validate checks the settings that are needed at startup. Payee fields are
// checked where they are used.
func (c *Config) Validate() error {
	if _, err := c.DefaultRate(); err != nil {
		return err
	}
	if _, err := c.RoundingMode(); err != nil {
		return err
	}
	return nil
}

// DefaultRate parses billing.default_rate.
func (c *Config) DefaultRate() (decimal.Decimal, error) {
	if c.Billing.DefaultRate == "" {
		return domain.DefaultHourlyRate, nil
	}
	rate, err := decimal.NewFromString(c.Billing.DefaultRate)
	if err != nil || rate.IsNegative() {
		return decimal.Zero, ierr.NewErrorf("invalid default rate %q", c.Billing.DefaultRate).
			WithHint("billing.default_rate muss ein Betrag >= 0 sein").
			Mark(ierr.ErrConfiguration)
	}
	return rate, nil
}

// RoundingMode parses billing.rounding.
func (c *Config) RoundingMode() (billing.Rounding, error) {
	return billing.ParseRounding(c.Billing.Rounding)
}

// Logger converts the log section for logger.Setup.
func (c *Config) Logger() logger.LogConfig {
	return logger.LogConfig{
		Level:  c.Log.Level,
		Format: c.Log.Format,
		Output: c.Log.Output,
	}
}

// Save writes the config to the given path
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The file may carry the password hash and bank details.
	return os.WriteFile(path, data, 0600)
}

// EnsureDirectories creates all necessary directories (for database, invoices, etc.)
func (c *Config) EnsureDirectories() error {
	dbDir := filepath.Dir(c.Database.Path)
	if err := os.MkdirAll(dbDir, 0700); err != nil {
		return err
	}

	if err := os.MkdirAll(c.Invoice.OutputDir, 0755); err != nil {
		return err
	}

	return nil
}
