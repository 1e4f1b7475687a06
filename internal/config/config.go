// Package config loads and persists costlens configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all costlens configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Plans      PlansConfig      `toml:"plans"`
	Routing    RoutingConfig    `toml:"routing"`
	Billing    BillingConfig    `toml:"billing"`
	Appearance AppearanceConfig `toml:"appearance"`
	Pricing    PricingOverrides `toml:"pricing"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DefaultDays int    `toml:"default_days"`
	DataDir     string `toml:"data_dir,omitempty"`
	DefaultUser string `toml:"default_user,omitempty"`
}

// PlansConfig allows overriding the monthly spend ceilings per plan tier.
type PlansConfig struct {
	FreeUSD       *float64 `toml:"free_usd,omitempty"`
	ProUSD        *float64 `toml:"pro_usd,omitempty"`
	EnterpriseUSD *float64 `toml:"enterprise_usd,omitempty"`
}

// RoutingConfig holds routing behavior settings.
type RoutingConfig struct {
	Enabled     bool   `toml:"enabled"`
	DefaultPlan string `toml:"default_plan,omitempty"`
}

// BillingConfig holds provider billing API settings for actuals reconciliation.
type BillingConfig struct {
	APIKey  string `toml:"api_key,omitempty"`
	BaseURL string `toml:"base_url,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// PricingOverrides allows user-defined pricing for specific models.
type PricingOverrides struct {
	Overrides map[string]ModelPricingOverride `toml:"overrides,omitempty"`
}

// ModelPricingOverride holds per-model pricing overrides.
type ModelPricingOverride struct {
	InputPerMTok  *float64 `toml:"input_per_mtok,omitempty"`
	OutputPerMTok *float64 `toml:"output_per_mtok,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DefaultDays: 30,
		},
		Routing: RoutingConfig{
			Enabled:     true,
			DefaultPlan: "FREE",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "costlens")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "costlens")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the directory holding the ledger database, honoring the
// config override and XDG_DATA_HOME.
func DataDir(cfg Config) string {
	if cfg.General.DataDir != "" {
		return cfg.General.DataDir
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "costlens")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "costlens")
}

// DBPath returns the full path to the ledger database.
func DBPath(cfg Config) string {
	return filepath.Join(DataDir(cfg), "ledger.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// GetBillingAPIKey returns the billing API key from env var or config, in
// that order.
func GetBillingAPIKey(cfg Config) string {
	if key := os.Getenv("COSTLENS_BILLING_KEY"); key != "" {
		return key
	}
	return cfg.Billing.APIKey
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
