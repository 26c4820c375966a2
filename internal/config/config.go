// Package config loads fxsim's YAML configuration and applies environment
// variable overrides.
package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for fxsim.
type Config struct {
	Storage Storage `yaml:"storage"`
	Trading Trading `yaml:"trading"`
	Logging Logging `yaml:"logging"`
}

// Ledger backend selectors.
const (
	LedgerBackendFile   = "file"
	LedgerBackendSQLite = "sqlite"
)

// Storage holds paths for data persistence.
type Storage struct {
	DataDir       string `yaml:"data_dir"`
	LedgerBackend string `yaml:"ledger_backend"` // "file" or "sqlite"
	LedgerPath    string `yaml:"ledger_path"`
	SQLitePath    string `yaml:"sqlite_path"`
}

// Trading holds the engine's cost model and account defaults as decimal
// strings. Empty fields fall back to the documented defaults.
type Trading struct {
	Spread          string `yaml:"spread"`
	Commission      string `yaml:"commission"`
	DefaultQuantity string `yaml:"default_quantity"`
	OpeningBalance  string `yaml:"opening_balance"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TradingParams is the parsed form of Trading.
type TradingParams struct {
	Spread          decimal.Decimal
	Commission      decimal.Decimal
	DefaultQuantity decimal.Decimal
	OpeningBalance  decimal.Decimal
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Default returns the configuration used when no file is supplied: a
// file-backed ledger in the working directory and the documented trading
// defaults.
func Default() *Config {
	cfg := &Config{
		Storage: Storage{
			DataDir:       "data",
			LedgerBackend: LedgerBackendFile,
			LedgerPath:    "account.json",
			SQLitePath:    "fxsim.db",
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
	}
	applyEnvOverrides(cfg)
	return cfg
}

// Load reads the YAML configuration file at the given path, fills unset
// fields with defaults, and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.LedgerBackend {
	case LedgerBackendFile, LedgerBackendSQLite:
		return nil
	default:
		return fmt.Errorf("unknown ledger backend %q", c.Storage.LedgerBackend)
	}
}

// TradingParams parses the trading section. Empty fields take the
// documented defaults: spread 0.2, commission 100, quantity 10000,
// opening balance 100000.
func (c *Config) TradingParams() (TradingParams, error) {
	p := TradingParams{}
	for _, field := range []struct {
		name     string
		raw      string
		fallback string
		dst      *decimal.Decimal
	}{
		{"spread", c.Trading.Spread, "0.2", &p.Spread},
		{"commission", c.Trading.Commission, "100", &p.Commission},
		{"default_quantity", c.Trading.DefaultQuantity, "10000", &p.DefaultQuantity},
		{"opening_balance", c.Trading.OpeningBalance, "100000", &p.OpeningBalance},
	} {
		raw := field.raw
		if raw == "" {
			raw = field.fallback
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return TradingParams{}, fmt.Errorf("trading.%s: invalid decimal %q: %w", field.name, field.raw, err)
		}
		*field.dst = d
	}
	return p, nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("LEDGER_BACKEND"); v != "" {
		cfg.Storage.LedgerBackend = v
	}
	if v := os.Getenv("LEDGER_PATH"); v != "" {
		cfg.Storage.LedgerPath = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
