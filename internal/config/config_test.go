package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fxsim.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
storage:
  data_dir: "/tmp/fxsim/data"
  ledger_backend: "sqlite"
  ledger_path: "/tmp/fxsim/account.json"
  sqlite_path: "/tmp/fxsim/fxsim.db"
trading:
  spread: "0.1"
  commission: "50"
  default_quantity: "5000"
  opening_balance: "250000"
logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Storage.DataDir != "/tmp/fxsim/data" {
		t.Errorf("data_dir = %q", cfg.Storage.DataDir)
	}
	if cfg.Storage.LedgerBackend != LedgerBackendSQLite {
		t.Errorf("ledger_backend = %q, want sqlite", cfg.Storage.LedgerBackend)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging level = %q, want debug", cfg.Logging.Level)
	}

	params, err := cfg.TradingParams()
	if err != nil {
		t.Fatalf("TradingParams returned error: %v", err)
	}
	if params.Spread.String() != "0.1" {
		t.Errorf("spread = %s, want 0.1", params.Spread)
	}
	if params.Commission.String() != "50" {
		t.Errorf("commission = %s, want 50", params.Commission)
	}
	if params.DefaultQuantity.String() != "5000" {
		t.Errorf("default_quantity = %s, want 5000", params.DefaultQuantity)
	}
	if params.OpeningBalance.String() != "250000" {
		t.Errorf("opening_balance = %s, want 250000", params.OpeningBalance)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadUnknownLedgerBackend(t *testing.T) {
	path := writeConfig(t, `
storage:
  ledger_backend: "etcd"
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown ledger backend")
	}
}

func TestTradingParamsDefaults(t *testing.T) {
	params, err := Default().TradingParams()
	if err != nil {
		t.Fatalf("TradingParams returned error: %v", err)
	}

	if params.Spread.String() != "0.2" {
		t.Errorf("default spread = %s, want 0.2", params.Spread)
	}
	if params.Commission.String() != "100" {
		t.Errorf("default commission = %s, want 100", params.Commission)
	}
	if params.DefaultQuantity.String() != "10000" {
		t.Errorf("default quantity = %s, want 10000", params.DefaultQuantity)
	}
	if params.OpeningBalance.String() != "100000" {
		t.Errorf("default opening balance = %s, want 100000", params.OpeningBalance)
	}
}

func TestTradingParamsInvalidDecimal(t *testing.T) {
	cfg := Default()
	cfg.Trading.Spread = "wide"
	if _, err := cfg.TradingParams(); err == nil {
		t.Error("expected error for invalid spread")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LEDGER_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", "/var/lib/fxsim/fxsim.db")
	t.Setenv("LOG_LEVEL", "warn")

	cfg := Default()
	if cfg.Storage.LedgerBackend != LedgerBackendSQLite {
		t.Errorf("ledger_backend = %q, want sqlite", cfg.Storage.LedgerBackend)
	}
	if cfg.Storage.SQLitePath != "/var/lib/fxsim/fxsim.db" {
		t.Errorf("sqlite_path = %q", cfg.Storage.SQLitePath)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("level = %q, want warn", cfg.Logging.Level)
	}
}
