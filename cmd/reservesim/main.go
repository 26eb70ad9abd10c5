// Command reservesim drives a single reserve through a scripted sequence of
// supply, borrow, and accrual ticks, logging and metering each
// updateInterestRates call. It exists to exercise the reserve core end to
// end outside of any host ledger; every collaborator it wires in is an
// in-memory stand-in for the real aToken/debt-token/asset-token contracts an
// integrator would supply.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"time"

	"github.com/holiman/uint256"

	"reservecore/config"
	"reservecore/fixedpoint"
	"reservecore/identity"
	"reservecore/observability"
	"reservecore/observability/logging"
	"reservecore/reserve"
)

func main() {
	configFile := flag.String("config", "./reservesim.toml", "Path to the pool configuration file")
	ticks := flag.Int("ticks", 6, "Number of accrual ticks to simulate")
	stepSeconds := flag.Int("step", 30*86400, "Seconds of logical time advanced per tick")
	supplyWad := flag.Uint64("supply", 1_000_000, "Initial underlying supplied to the reserve, in whole tokens")
	borrowWad := flag.Uint64("borrow", 400_000, "Variable debt drawn against the reserve after the first tick, in whole tokens")
	flag.Parse()

	logger := logging.Setup("reservesim", "")

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	if len(cfg.Assets) == 0 {
		logger.Error("config has no assets")
		os.Exit(1)
	}
	asset := cfg.Assets[0]

	params, err := asset.RateParameters.ToParameters()
	if err != nil {
		logger.Error("failed to parse rate parameters", slog.Any("error", err))
		os.Exit(1)
	}
	strategy := reserve.StrategyFromParameters{Parameters: params}

	sim, err := newSimulation(asset.Symbol, cfg.PoolID, asset.ReserveFactorBps, wholeTokens(*supplyWad))
	if err != nil {
		logger.Error("failed to initialize reserve", slog.Any("error", err))
		os.Exit(1)
	}

	sink := observability.Multi{
		observability.SlogSink{Logger: logger},
		observability.PrometheusSink{},
	}

	ctx := context.Background()
	now := uint64(0)
	for tick := 0; tick < *ticks; tick++ {
		var liquidityAdded, liquidityTaken fixedpoint.Wad
		if tick == 1 {
			sim.borrow(wholeTokens(*borrowWad))
			liquidityTaken = wholeTokens(*borrowWad)
		}

		start := time.Now()
		updated, err := sim.tick(now, strategy, liquidityAdded, liquidityTaken)
		if err != nil {
			logger.Error("tick failed", slog.Int("tick", tick), slog.Any("error", err))
			observability.Reserve().RecordInvariantViolation(cfg.PoolID, asset.Symbol, err.Error())
			os.Exit(1)
		}
		observability.Reserve().ObserveUpdateLatency(cfg.PoolID, asset.Symbol, time.Since(start))
		observability.Reserve().RecordAccruedToTreasury(cfg.PoolID, asset.Symbol, sim.accruedToTreasuryBig())

		sink.ObserveReserveUpdated(ctx, observability.ReserveUpdated{
			CorrelationID:          observability.NewCorrelationID(),
			Pool:                   cfg.PoolID,
			Asset:                  asset.Symbol,
			LiquidityRateRay:       updated.LiquidityRate.String(),
			StableBorrowRateRay:    updated.StableBorrowRate.String(),
			VariableBorrowRateRay:  updated.VariableBorrowRate.String(),
			LiquidityIndexRay:      updated.LiquidityIndex.String(),
			VariableBorrowIndexRay: updated.VariableBorrowIndex.String(),
			At:                     time.Now(),
		})

		now += uint64(*stepSeconds)
	}

	fmt.Printf("simulation complete: %d ticks over %d seconds\n", *ticks, (*stepSeconds)*(*ticks))
}

func wholeTokens(n uint64) fixedpoint.Wad {
	scaled := new(uint256.Int).Mul(uint256.NewInt(n), uint256.NewInt(1_000_000_000_000_000_000))
	u, _ := fixedpoint.NewUint128(scaled) // any uint64 times 1e18 fits in 128 bits
	return fixedpoint.NewWadFromUint128(u)
}

// simulation bundles a reserve.Data with the in-memory collaborators it
// needs, advancing the reserve one action at a time the way an integrator's
// pool contract would.
type simulation struct {
	reserveData     *reserve.Data
	assetBalance    fixedpoint.Wad
	scaledVariable  fixedpoint.Wad
	reserveFactorBp uint64
}

func newSimulation(symbol, pool string, reserveFactorBps uint64, initialSupply fixedpoint.Wad) (*simulation, error) {
	addr, err := identity.Generate(identity.ReservePrefix)
	if err != nil {
		return nil, err
	}
	aToken, err := identity.Generate(identity.ReservePrefix)
	if err != nil {
		return nil, err
	}
	stableDebt, err := identity.Generate(identity.ReservePrefix)
	if err != nil {
		return nil, err
	}
	variableDebt, err := identity.Generate(identity.ReservePrefix)
	if err != nil {
		return nil, err
	}
	strategyAddr, err := identity.Generate(identity.StrategyPrefix)
	if err != nil {
		return nil, err
	}

	d := &reserve.Data{Symbol: symbol, PoolID: pool}
	if err := reserve.Init(d, addr, aToken, stableDebt, variableDebt, strategyAddr, 0); err != nil {
		return nil, err
	}

	return &simulation{
		reserveData:     d,
		assetBalance:    initialSupply,
		reserveFactorBp: reserveFactorBps,
	}, nil
}

// borrow draws amount of variable debt against the reserve. The scaled
// balance a real variable debt token would track is, at a unit index,
// numerically equal to the amount borrowed; subsequent ticks roll the index
// forward without mutating this scaled balance, matching how a real debt
// token's scaledBalanceOf never changes except on mint/burn.
func (s *simulation) borrow(amount fixedpoint.Wad) {
	s.scaledVariable = s.scaledVariable.Add(amount)
	s.assetBalance = s.assetBalance.Sub(amount)
}

func (s *simulation) accruedToTreasuryBig() *big.Int {
	return s.reserveData.AccruedToTreasury.Int().ToBig()
}

func (s *simulation) tick(now uint64, strategy reserve.InterestRateStrategy, liquidityAdded, liquidityTaken fixedpoint.Wad) (reserve.Updated, error) {
	stableDebt := staticStableDebt{}
	variableDebt := staticVariableDebt{scaled: s.scaledVariable}
	config := staticConfiguration{reserveFactorBps: s.reserveFactorBp}
	assetToken := staticAssetToken{balance: s.assetBalance}

	cache, err := reserve.BuildCache(s.reserveData, stableDebt, variableDebt, config)
	if err != nil {
		return reserve.Updated{}, err
	}
	if err := reserve.UpdateState(s.reserveData, &cache, now); err != nil {
		return reserve.Updated{}, err
	}
	return reserve.UpdateInterestRates(s.reserveData, &cache, strategy, assetToken, liquidityAdded, liquidityTaken)
}

type staticStableDebt struct{}

func (staticStableDebt) SupplyData() (fixedpoint.Wad, fixedpoint.Wad, fixedpoint.Ray, uint64, error) {
	return fixedpoint.ZeroWad(), fixedpoint.ZeroWad(), fixedpoint.ZeroRay(), 0, nil
}

type staticVariableDebt struct{ scaled fixedpoint.Wad }

func (s staticVariableDebt) ScaledTotalSupply() (fixedpoint.Wad, error) {
	return s.scaled, nil
}

type staticAssetToken struct{ balance fixedpoint.Wad }

func (s staticAssetToken) BalanceOf(identity.Address) (fixedpoint.Wad, error) {
	return s.balance, nil
}

type staticConfiguration struct{ reserveFactorBps uint64 }

func (s staticConfiguration) ReserveFactorBps(uint64) uint64 {
	return s.reserveFactorBps
}
