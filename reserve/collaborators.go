package reserve

import (
	"reservecore/fixedpoint"
	"reservecore/identity"
	"reservecore/ratemodel"
)

// StableDebtSnapshot is the external stable-debt-token collaborator
// (spec.md §6): StableDebtTokenSnapshot.getSupplyData().
type StableDebtSnapshot interface {
	SupplyData() (principal, total fixedpoint.Wad, avgRate fixedpoint.Ray, lastUpdate uint64, err error)
}

// VariableDebtToken is the external variable-debt-token collaborator
// (spec.md §6): VariableDebtToken.scaledTotalSupply().
type VariableDebtToken interface {
	ScaledTotalSupply() (fixedpoint.Wad, error)
}

// AssetToken is the external underlying-asset-token collaborator (spec.md
// §6): AssetToken.balanceOf(holder).
type AssetToken interface {
	BalanceOf(holder identity.Address) (fixedpoint.Wad, error)
}

// ReserveConfiguration decodes the packed configuration bitmap (spec.md
// §6): ReserveConfiguration.getReserveFactor(configBitmap).
type ReserveConfiguration interface {
	ReserveFactorBps(configuration uint64) uint64
}

// StrategyParams bundles the rate-curve inputs of spec.md §4.3 together with
// the reserve and aToken handles the strategy is evaluated for, matching
// InterestRateStrategy.calculateInterestRates' full argument list.
type StrategyParams struct {
	ratemodel.Params
	ReserveAddress identity.Address
	ATokenAddress  identity.Address
}

// InterestRateStrategy is the external rate-strategy collaborator (spec.md
// §6): InterestRateStrategy.calculateInterestRates(params). It must be pure
// and deterministic. ratemodel.Parameters satisfies this interface via the
// adapter in ratestrategy.go.
type InterestRateStrategy interface {
	CalculateInterestRates(params StrategyParams) (ratemodel.Rates, error)
}
