// Package reserve implements the per-asset reserve state machine of
// spec.md §4.4: init brings a reserve from Uninitialized to Initialized;
// BuildCache takes a stack-local snapshot for one action; UpdateState rolls the
// liquidity and variable-borrow indexes forward and mints the treasury's
// accrued share; UpdateInterestRates asks the configured strategy for the
// next rates and commits them; CumulateToLiquidityIndex folds an external
// amount (e.g. a bridged fee) directly into the liquidity index.
package reserve

import (
	"fmt"

	"reservecore/fixedpoint"
	"reservecore/identity"
	"reservecore/interest"
	"reservecore/ratemodel"
)

// Init transitions a reserve from Uninitialized to Initialized(Active,
// Empty). Both indexes start at one ray; all three rates start at zero. Returns
// ErrAlreadyInitialized if the reserve already carries a collaborator set.
func Init(
	reserve *Data,
	address identity.Address,
	aToken identity.Address,
	stableDebtToken identity.Address,
	variableDebtToken identity.Address,
	interestRateStrategy identity.Address,
	now uint64,
) error {
	if reserve.IsInitialized() {
		return ErrAlreadyInitialized
	}
	if now > MaxTimestamp {
		return ErrTimestampOverflow
	}

	unitIndex, err := fixedpoint.RayScale().Narrow()
	if err != nil {
		return fmt.Errorf("reserve: init: %w", err)
	}

	reserve.Address = address
	reserve.LiquidityIndex = unitIndex
	reserve.VariableBorrowIndex = unitIndex
	reserve.CurrentLiquidityRate = fixedpoint.Uint128{}
	reserve.CurrentStableBorrowRate = fixedpoint.Uint128{}
	reserve.CurrentVariableBorrowRate = fixedpoint.Uint128{}
	reserve.AccruedToTreasury = fixedpoint.Uint128{}
	reserve.Unbacked = fixedpoint.ZeroWad()
	reserve.LastUpdateTimestamp = now
	reserve.ATokenAddress = aToken
	reserve.StableDebtTokenAddress = stableDebtToken
	reserve.VariableDebtTokenAddress = variableDebtToken
	reserve.InterestRateStrategyAddress = interestRateStrategy
	return nil
}

// BuildCache takes the stack-local snapshot of spec.md §4.4's cache step,
// reading the reserve's persistent fields plus the two debt-token
// collaborators and the configuration decoder. The returned Cache's Next*
// fields start equal to the corresponding Curr* fields; callers mutate them
// (e.g. after minting or burning debt) before calling UpdateInterestRates.
func BuildCache(
	reserve *Data,
	stableDebt StableDebtSnapshot,
	variableDebt VariableDebtToken,
	config ReserveConfiguration,
) (Cache, error) {
	if !reserve.IsInitialized() {
		return Cache{}, ErrNotInitialized
	}

	principal, total, avgRate, stableLastUpdate, err := stableDebt.SupplyData()
	if err != nil {
		return Cache{}, fmt.Errorf("reserve: cache: stable debt snapshot: %w", err)
	}
	scaledVariable, err := variableDebt.ScaledTotalSupply()
	if err != nil {
		return Cache{}, fmt.Errorf("reserve: cache: variable debt token: %w", err)
	}

	liquidityIndex := fixedpoint.NewRayFromUint128(reserve.LiquidityIndex)
	variableBorrowIndex := fixedpoint.NewRayFromUint128(reserve.VariableBorrowIndex)

	return Cache{
		CurrConfiguration: reserve.Configuration,

		CurrLiquidityIndex:      liquidityIndex,
		NextLiquidityIndex:      liquidityIndex,
		CurrVariableBorrowIndex: variableBorrowIndex,
		NextVariableBorrowIndex: variableBorrowIndex,

		CurrLiquidityRate:      fixedpoint.NewRayFromUint128(reserve.CurrentLiquidityRate),
		CurrStableBorrowRate:   fixedpoint.NewRayFromUint128(reserve.CurrentStableBorrowRate),
		CurrVariableBorrowRate: fixedpoint.NewRayFromUint128(reserve.CurrentVariableBorrowRate),

		ReserveFactorBps:           config.ReserveFactorBps(reserve.Configuration),
		ReserveLastUpdateTimestamp: reserve.LastUpdateTimestamp,

		CurrScaledVariableDebt: scaledVariable,
		NextScaledVariableDebt: scaledVariable,

		CurrPrincipalStableDebt: principal,
		CurrTotalStableDebt:     total,
		NextTotalStableDebt:     total,

		CurrAvgStableBorrowRate: avgRate,
		NextAvgStableBorrowRate: avgRate,

		StableDebtLastUpdateTimestamp: stableLastUpdate,

		ReserveAddress:              reserve.Address,
		ATokenAddress:               reserve.ATokenAddress,
		StableDebtTokenAddress:      reserve.StableDebtTokenAddress,
		VariableDebtTokenAddress:    reserve.VariableDebtTokenAddress,
		InterestRateStrategyAddress: reserve.InterestRateStrategyAddress,
	}, nil
}

// UpdateState rolls the liquidity and variable-borrow indexes forward to now
// and mints the treasury's accrued share, then commits both indexes and the
// new timestamp to reserve. Calling it twice with the same now is a no-op
// (property 5, scenario A); calling it with a now before the reserve's last
// update is a fatal error (time never runs backwards).
func UpdateState(reserve *Data, cache *Cache, now uint64) error {
	if !reserve.IsInitialized() {
		return ErrNotInitialized
	}
	if now == reserve.LastUpdateTimestamp {
		return nil
	}
	if now < reserve.LastUpdateTimestamp {
		return ErrTimeWentBackwards
	}
	if now > MaxTimestamp {
		return ErrTimestampOverflow
	}

	updateIndexes(cache, now)

	liquidityIndex, err := cache.NextLiquidityIndex.Narrow()
	if err != nil {
		return fmt.Errorf("reserve: update state: liquidity index: %w", err)
	}
	variableBorrowIndex, err := cache.NextVariableBorrowIndex.Narrow()
	if err != nil {
		return fmt.Errorf("reserve: update state: variable borrow index: %w", err)
	}
	if err := accrueToTreasury(reserve, cache); err != nil {
		return err
	}

	reserve.LiquidityIndex = liquidityIndex
	reserve.VariableBorrowIndex = variableBorrowIndex
	reserve.LastUpdateTimestamp = now
	return nil
}

// updateIndexes is the _updateIndexes sub-step of spec.md §4.4: the
// liquidity index rolls forward under linear interest, the variable-borrow
// index under compounded interest. An index with a zero current rate does
// not move; this is the common case for a reserve nobody has borrowed from
// yet (scenario A).
func updateIndexes(cache *Cache, now uint64) {
	delta := elapsed(cache.ReserveLastUpdateTimestamp, now)

	if !cache.CurrLiquidityRate.IsZero() {
		cumulated := interest.Linear(cache.CurrLiquidityRate, delta)
		cache.NextLiquidityIndex = fixedpoint.RayMul(cumulated, cache.CurrLiquidityIndex)
	} else {
		cache.NextLiquidityIndex = cache.CurrLiquidityIndex
	}

	if !cache.CurrScaledVariableDebt.IsZero() {
		cumulated := interest.Compounded(cache.CurrVariableBorrowRate, delta)
		cache.NextVariableBorrowIndex = fixedpoint.RayMul(cumulated, cache.CurrVariableBorrowIndex)
	} else {
		cache.NextVariableBorrowIndex = cache.CurrVariableBorrowIndex
	}
}

// accrueToTreasury is the _accrueToTreasury sub-step of spec.md §4.4. It
// compares the total debt (variable plus stable) valued at the old indexes
// against the same debt valued at the freshly rolled-forward indexes; the
// difference is the interest accrued since the last update, of which
// reserveFactor bps belongs to the treasury. A reserveFactor of zero is the
// common fast path and accrues nothing.
func accrueToTreasury(reserve *Data, cache *Cache) error {
	if cache.ReserveFactorBps == 0 {
		return nil
	}

	prevTotalVariableDebt := fixedpoint.RayMulWad(cache.CurrScaledVariableDebt, cache.CurrVariableBorrowIndex)
	currTotalVariableDebt := fixedpoint.RayMulWad(cache.CurrScaledVariableDebt, cache.NextVariableBorrowIndex)

	stableDelta := elapsed(cache.StableDebtLastUpdateTimestamp, cache.ReserveLastUpdateTimestamp)
	stableCompounding := interest.Compounded(cache.CurrAvgStableBorrowRate, stableDelta)
	prevTotalStableDebt := fixedpoint.RayMulWad(cache.CurrPrincipalStableDebt, stableCompounding)

	gains := currTotalVariableDebt.Add(cache.CurrTotalStableDebt)
	losses := prevTotalVariableDebt.Add(prevTotalStableDebt)
	if losses.Cmp(gains) > 0 {
		return ErrInvariantViolation
	}
	totalDebtAccrued := gains.Sub(losses)

	amountToMintRay := fixedpoint.PercentMul(fixedpoint.WadToRay(totalDebtAccrued), cache.ReserveFactorBps)
	if amountToMintRay.IsZero() {
		return nil
	}
	amountToMintWad := fixedpoint.RayToWad(amountToMintRay)

	increment, err := fixedpoint.RayDivWad(amountToMintWad, cache.NextLiquidityIndex)
	if err != nil {
		return fmt.Errorf("reserve: accrue to treasury: %w", err)
	}

	newAccrued := fixedpoint.NewWadFromUint128(reserve.AccruedToTreasury).Add(increment)
	narrowed, err := newAccrued.Narrow()
	if err != nil {
		return fmt.Errorf("reserve: accrue to treasury: %w", err)
	}
	reserve.AccruedToTreasury = narrowed
	return nil
}

// UpdateInterestRates is the updateInterestRates step of spec.md §4.4: it
// reads the aToken's underlying balance from the asset-token collaborator,
// asks the configured strategy for the next rates given the cache's Next*
// debt totals and the liquidity that is about to be added or taken, then
// commits the three rates to reserve. The caller supplies liquidityAdded
// and liquidityTaken as the net effect of the action in progress (e.g. a
// supply adds, a borrow takes); both are typically zero for a pure accrual
// tick.
func UpdateInterestRates(
	reserve *Data,
	cache *Cache,
	strategy InterestRateStrategy,
	asset AssetToken,
	liquidityAdded fixedpoint.Wad,
	liquidityTaken fixedpoint.Wad,
) (Updated, error) {
	if !reserve.IsInitialized() {
		return Updated{}, ErrNotInitialized
	}

	assetBalance, err := asset.BalanceOf(cache.ATokenAddress)
	if err != nil {
		return Updated{}, fmt.Errorf("reserve: update interest rates: asset balance: %w", err)
	}

	totalVariableDebt := fixedpoint.RayMulWad(cache.NextScaledVariableDebt, cache.NextVariableBorrowIndex)

	rates, err := strategy.CalculateInterestRates(StrategyParams{
		Params: ratemodel.Params{
			Unbacked:                reserve.Unbacked,
			LiquidityAdded:          liquidityAdded,
			LiquidityTaken:          liquidityTaken,
			TotalStableDebt:         cache.NextTotalStableDebt,
			TotalVariableDebt:       totalVariableDebt,
			AverageStableBorrowRate: cache.NextAvgStableBorrowRate,
			ReserveFactorBps:        cache.ReserveFactorBps,
			AssetBalance:            assetBalance,
		},
		ReserveAddress: cache.ReserveAddress,
		ATokenAddress:  cache.ATokenAddress,
	})
	if err != nil {
		return Updated{}, fmt.Errorf("reserve: update interest rates: strategy: %w", err)
	}

	liquidityRate, err := rates.Liquidity.Narrow()
	if err != nil {
		return Updated{}, fmt.Errorf("reserve: update interest rates: liquidity rate: %w", err)
	}
	stableBorrowRate, err := rates.StableBorrow.Narrow()
	if err != nil {
		return Updated{}, fmt.Errorf("reserve: update interest rates: stable borrow rate: %w", err)
	}
	variableBorrowRate, err := rates.VariableBorrow.Narrow()
	if err != nil {
		return Updated{}, fmt.Errorf("reserve: update interest rates: variable borrow rate: %w", err)
	}

	reserve.CurrentLiquidityRate = liquidityRate
	reserve.CurrentStableBorrowRate = stableBorrowRate
	reserve.CurrentVariableBorrowRate = variableBorrowRate

	return Updated{
		ReserveAddress:      cache.ReserveAddress,
		LiquidityRate:       rates.Liquidity,
		StableBorrowRate:    rates.StableBorrow,
		VariableBorrowRate:  rates.VariableBorrow,
		LiquidityIndex:      cache.NextLiquidityIndex,
		VariableBorrowIndex: cache.NextVariableBorrowIndex,
	}, nil
}

// CumulateToLiquidityIndex folds amount directly into the liquidity index
// against a base of totalLiquidity, without going through the interest
// curve. It is the mechanism external callers use to socialize a one-off
// amount (e.g. a bridged fee or a liquidation bonus shortfall) across every
// aToken holder proportionally, per spec.md §4.5.
func CumulateToLiquidityIndex(reserve *Data, totalLiquidity, amount fixedpoint.Wad) (fixedpoint.Uint128, error) {
	if !reserve.IsInitialized() {
		return fixedpoint.Uint128{}, ErrNotInitialized
	}
	if totalLiquidity.IsZero() {
		return fixedpoint.Uint128{}, ErrDivisionByZero
	}

	ratio, err := fixedpoint.RayDiv(fixedpoint.WadToRay(amount), fixedpoint.WadToRay(totalLiquidity))
	if err != nil {
		return fixedpoint.Uint128{}, fmt.Errorf("reserve: cumulate to liquidity index: %w", err)
	}
	factor := ratio.Add(fixedpoint.RayScale())

	currentIndex := fixedpoint.NewRayFromUint128(reserve.LiquidityIndex)
	result := fixedpoint.RayMul(factor, currentIndex)

	narrowed, err := result.Narrow()
	if err != nil {
		return fixedpoint.Uint128{}, fmt.Errorf("reserve: cumulate to liquidity index: %w", err)
	}
	reserve.LiquidityIndex = narrowed
	return narrowed, nil
}

// elapsed returns to - from, saturating at zero when the interval is
// non-positive so a caller that has already validated monotonicity at the
// top level never sees an underflowed uint64.
func elapsed(from, to uint64) uint64 {
	if to <= from {
		return 0
	}
	return to - from
}
