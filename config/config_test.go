package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleTOML = `
PoolID = "main"

[[asset]]
Symbol = "USDC"
ReserveFactorBps = 1000

[asset.rate_parameters]
OptimalUsageRatio = "800000000000000000000000000"
OptimalStableToTotalDebtRatio = "200000000000000000000000000"
BaseVariableBorrowRate = "0"
VariableRateSlope1 = "40000000000000000000000000"
VariableRateSlope2 = "750000000000000000000000000"
StableRateSlope1 = "0"
StableRateSlope2 = "0"
BaseStableRateOffset = "0"
StableRateExcessOffset = "0"
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "pool.toml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadParsesAssetsAndRateParameters(t *testing.T) {
	path := writeTempConfig(t, sampleTOML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PoolID != "main" {
		t.Fatalf("PoolID = %q, want main", cfg.PoolID)
	}
	if len(cfg.Assets) != 1 {
		t.Fatalf("expected 1 asset, got %d", len(cfg.Assets))
	}
	asset := cfg.Assets[0]
	if asset.Symbol != "USDC" || asset.ReserveFactorBps != 1000 {
		t.Fatalf("unexpected asset: %+v", asset)
	}

	params, err := asset.RateParameters.ToParameters()
	if err != nil {
		t.Fatalf("ToParameters: %v", err)
	}
	if params.OptimalUsageRatio.IsZero() {
		t.Fatalf("expected non-zero optimal usage ratio")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestLoadRejectsDuplicateSymbols(t *testing.T) {
	contents := sampleTOML + `
[[asset]]
Symbol = "USDC"
ReserveFactorBps = 500
`
	path := writeTempConfig(t, contents)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for duplicate asset symbol")
	}
}

func TestLoadRejectsOutOfRangeReserveFactor(t *testing.T) {
	contents := `
PoolID = "main"

[[asset]]
Symbol = "USDC"
ReserveFactorBps = 10001

[asset.rate_parameters]
OptimalUsageRatio = "0"
OptimalStableToTotalDebtRatio = "0"
BaseVariableBorrowRate = "0"
VariableRateSlope1 = "0"
VariableRateSlope2 = "0"
StableRateSlope1 = "0"
StableRateSlope2 = "0"
BaseStableRateOffset = "0"
StableRateExcessOffset = "0"
`
	path := writeTempConfig(t, contents)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for out-of-range reserve factor")
	}
}

func TestLoadRejectsUnrecognizedKey(t *testing.T) {
	contents := sampleTOML + "\nUnknownKey = true\n"
	path := writeTempConfig(t, contents)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unrecognized key")
	}
}
