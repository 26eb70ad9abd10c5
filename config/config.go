// Package config loads the TOML-encoded bootstrap configuration for a
// reservecore pool: the rate-strategy parameters and the initial reserve
// factor for each asset it governs.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// RateParameters mirrors ratemodel.Parameters in decimal string form so it
// can round-trip through TOML without losing ray precision to a float64.
// Each field is the decimal string of a ray-scaled integer (1 ray = 1e27).
type RateParameters struct {
	OptimalUsageRatio             string `toml:"OptimalUsageRatio"`
	OptimalStableToTotalDebtRatio string `toml:"OptimalStableToTotalDebtRatio"`
	BaseVariableBorrowRate        string `toml:"BaseVariableBorrowRate"`
	VariableRateSlope1            string `toml:"VariableRateSlope1"`
	VariableRateSlope2            string `toml:"VariableRateSlope2"`
	StableRateSlope1              string `toml:"StableRateSlope1"`
	StableRateSlope2              string `toml:"StableRateSlope2"`
	BaseStableRateOffset          string `toml:"BaseStableRateOffset"`
	StableRateExcessOffset        string `toml:"StableRateExcessOffset"`
}

// AssetConfig bundles one reserve's bootstrap settings.
type AssetConfig struct {
	Symbol           string         `toml:"Symbol"`
	ReserveFactorBps uint64         `toml:"ReserveFactorBps"`
	RateParameters   RateParameters `toml:"rate_parameters"`
}

// Config is the top-level document: a pool identifier plus the assets it
// reports reserves for.
type Config struct {
	PoolID string        `toml:"PoolID"`
	Assets []AssetConfig `toml:"asset"`
}

// Load decodes the TOML document at path. Unlike the teacher's own Load,
// this core never bootstraps a missing file with generated defaults: a
// missing or malformed rate-parameter set is a configuration error the
// operator must fix, not a condition the reserve math should paper over.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	for _, undecoded := range meta.Undecoded() {
		return nil, fmt.Errorf("config: %s: unrecognized key %q", path, undecoded.String())
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.Assets) == 0 {
		return fmt.Errorf("config: no assets configured")
	}
	seen := make(map[string]struct{}, len(c.Assets))
	for _, asset := range c.Assets {
		if asset.Symbol == "" {
			return fmt.Errorf("config: asset entry missing Symbol")
		}
		if _, dup := seen[asset.Symbol]; dup {
			return fmt.Errorf("config: duplicate asset symbol %q", asset.Symbol)
		}
		seen[asset.Symbol] = struct{}{}
		if asset.ReserveFactorBps > 10_000 {
			return fmt.Errorf("config: asset %q: ReserveFactorBps %d exceeds 10000", asset.Symbol, asset.ReserveFactorBps)
		}
	}
	return nil
}
