// Package ratemodel implements the stateless, parameterized two-slope
// interest rate curve described in spec.md §4.3: given a reserve's current
// liquidity, debts, and reserve factor, it returns the next (supply,
// stable-borrow, variable-borrow) rates. CalculateInterestRates is pure and
// deterministic, independent of any reserve's stored state.
package ratemodel

import (
	"errors"
	"fmt"

	"reservecore/fixedpoint"
)

// ErrInvalidOptimalUsageRatio is returned when constructing Parameters with
// an optimalUsageRatio greater than one ray (100%).
var ErrInvalidOptimalUsageRatio = errors.New("ratemodel: optimal usage ratio exceeds one ray")

// ErrInvalidOptimalStableToTotalDebtRatio is returned when constructing
// Parameters with an optimalStableToTotalDebtRatio greater than one ray.
var ErrInvalidOptimalStableToTotalDebtRatio = errors.New("ratemodel: optimal stable-to-total-debt ratio exceeds one ray")

// Parameters is the immutable configuration of one rate-strategy instance,
// matching spec.md §3's RateParameters.
type Parameters struct {
	OptimalUsageRatio               fixedpoint.Ray
	maxExcessUsageRatio             fixedpoint.Ray
	OptimalStableToTotalDebtRatio    fixedpoint.Ray
	maxExcessStableToTotalDebtRatio fixedpoint.Ray
	BaseVariableBorrowRate           fixedpoint.Ray
	VariableRateSlope1               fixedpoint.Ray
	VariableRateSlope2               fixedpoint.Ray
	StableRateSlope1                 fixedpoint.Ray
	StableRateSlope2                 fixedpoint.Ray
	BaseStableRateOffset             fixedpoint.Ray
	StableRateExcessOffset           fixedpoint.Ray
}

// NewParameters validates and constructs a Parameters instance. Construction
// rejects optimalUsageRatio or optimalStableToTotalDebtRatio greater than
// one ray, per spec.md §3.
func NewParameters(
	optimalUsageRatio fixedpoint.Ray,
	optimalStableToTotalDebtRatio fixedpoint.Ray,
	baseVariableBorrowRate fixedpoint.Ray,
	variableRateSlope1 fixedpoint.Ray,
	variableRateSlope2 fixedpoint.Ray,
	stableRateSlope1 fixedpoint.Ray,
	stableRateSlope2 fixedpoint.Ray,
	baseStableRateOffset fixedpoint.Ray,
	stableRateExcessOffset fixedpoint.Ray,
) (Parameters, error) {
	one := fixedpoint.RayScale()
	if optimalUsageRatio.Cmp(one) > 0 {
		return Parameters{}, ErrInvalidOptimalUsageRatio
	}
	if optimalStableToTotalDebtRatio.Cmp(one) > 0 {
		return Parameters{}, ErrInvalidOptimalStableToTotalDebtRatio
	}
	return Parameters{
		OptimalUsageRatio:               optimalUsageRatio,
		maxExcessUsageRatio:             one.Sub(optimalUsageRatio),
		OptimalStableToTotalDebtRatio:   optimalStableToTotalDebtRatio,
		maxExcessStableToTotalDebtRatio: one.Sub(optimalStableToTotalDebtRatio),
		BaseVariableBorrowRate:          baseVariableBorrowRate,
		VariableRateSlope1:              variableRateSlope1,
		VariableRateSlope2:              variableRateSlope2,
		StableRateSlope1:                stableRateSlope1,
		StableRateSlope2:                stableRateSlope2,
		BaseStableRateOffset:            baseStableRateOffset,
		StableRateExcessOffset:          stableRateExcessOffset,
	}, nil
}

// MaxExcessUsageRatio returns R - OptimalUsageRatio.
func (p Parameters) MaxExcessUsageRatio() fixedpoint.Ray { return p.maxExcessUsageRatio }

// MaxExcessStableToTotalDebtRatio returns R - OptimalStableToTotalDebtRatio.
func (p Parameters) MaxExcessStableToTotalDebtRatio() fixedpoint.Ray {
	return p.maxExcessStableToTotalDebtRatio
}

// Params bundles the per-call inputs to CalculateInterestRates, matching
// spec.md §4.3.
type Params struct {
	Unbacked                fixedpoint.Wad
	LiquidityAdded          fixedpoint.Wad
	LiquidityTaken          fixedpoint.Wad
	TotalStableDebt         fixedpoint.Wad
	TotalVariableDebt       fixedpoint.Wad
	AverageStableBorrowRate fixedpoint.Ray
	ReserveFactorBps        uint64
	// AssetBalance is the underlying balance held by the reserve's aToken,
	// read from the external asset-token collaborator (spec.md §4.3 step 3).
	AssetBalance fixedpoint.Wad
}

// Rates is the tuple CalculateInterestRates returns.
type Rates struct {
	Liquidity      fixedpoint.Ray
	StableBorrow   fixedpoint.Ray
	VariableBorrow fixedpoint.Ray
}

// CalculateInterestRates runs the two-slope curve of spec.md §4.3. It is
// pure and deterministic: the same Parameters and Params always produce the
// same Rates, independent of any reserve's stored state.
func (p Parameters) CalculateInterestRates(params Params) (Rates, error) {
	totalDebt := params.TotalStableDebt.Add(params.TotalVariableDebt)

	supplyRate := fixedpoint.ZeroRay()
	variableRate := p.BaseVariableBorrowRate
	stableRate := p.StableRateSlope1Plus(p.BaseStableRateOffset)

	var stableToTotalDebtRatio fixedpoint.Ray
	var borrowUsage fixedpoint.Ray
	var supplyUsage fixedpoint.Ray

	if !totalDebt.IsZero() {
		var err error
		stableToTotalDebtRatio, err = fixedpoint.RayDiv(fixedpoint.WadToRay(params.TotalStableDebt), fixedpoint.WadToRay(totalDebt))
		if err != nil {
			return Rates{}, err
		}

		availableLiquidity := params.AssetBalance.Add(params.LiquidityAdded).Sub(params.LiquidityTaken)
		availableLiquidityPlusDebt := availableLiquidity.Add(totalDebt)

		borrowUsage, err = fixedpoint.RayDiv(fixedpoint.WadToRay(totalDebt), fixedpoint.WadToRay(availableLiquidityPlusDebt))
		if err != nil {
			return Rates{}, err
		}

		supplyDenominator := availableLiquidityPlusDebt.Add(params.Unbacked)
		supplyUsage, err = fixedpoint.RayDiv(fixedpoint.WadToRay(totalDebt), fixedpoint.WadToRay(supplyDenominator))
		if err != nil {
			return Rates{}, err
		}

		if borrowUsage.Cmp(p.OptimalUsageRatio) > 0 {
			excess, err := fixedpoint.RayDiv(borrowUsage.Sub(p.OptimalUsageRatio), p.maxExcessUsageRatio)
			if err != nil {
				return Rates{}, err
			}
			variableRate = variableRate.Add(p.VariableRateSlope1).Add(fixedpoint.RayMul(p.VariableRateSlope2, excess))
			stableRate = stableRate.Add(p.StableRateSlope1).Add(fixedpoint.RayMul(p.StableRateSlope2, excess))
		} else {
			vTerm, err := fixedpoint.RayDiv(fixedpoint.RayMul(p.VariableRateSlope1, borrowUsage), p.OptimalUsageRatio)
			if err != nil {
				return Rates{}, err
			}
			sTerm, err := fixedpoint.RayDiv(fixedpoint.RayMul(p.StableRateSlope1, borrowUsage), p.OptimalUsageRatio)
			if err != nil {
				return Rates{}, err
			}
			variableRate = variableRate.Add(vTerm)
			stableRate = stableRate.Add(sTerm)
		}

		if stableToTotalDebtRatio.Cmp(p.OptimalStableToTotalDebtRatio) > 0 {
			excessStable, err := fixedpoint.RayDiv(stableToTotalDebtRatio.Sub(p.OptimalStableToTotalDebtRatio), p.maxExcessStableToTotalDebtRatio)
			if err != nil {
				return Rates{}, err
			}
			stableRate = stableRate.Add(fixedpoint.RayMul(p.StableRateExcessOffset, excessStable))
		}

		weightedVariable := fixedpoint.RayMul(fixedpoint.WadToRay(params.TotalVariableDebt), variableRate)
		weightedStable := fixedpoint.RayMul(fixedpoint.WadToRay(params.TotalStableDebt), params.AverageStableBorrowRate)
		overall, err := fixedpoint.RayDiv(weightedVariable.Add(weightedStable), fixedpoint.WadToRay(totalDebt))
		if err != nil {
			return Rates{}, err
		}

		if params.ReserveFactorBps > 10_000 {
			return Rates{}, fmt.Errorf("ratemodel: reserve factor %d exceeds 10000 bps", params.ReserveFactorBps)
		}
		supplyRate = fixedpoint.PercentMul(fixedpoint.RayMul(overall, supplyUsage), 10_000-params.ReserveFactorBps)
	}

	return Rates{
		Liquidity:      supplyRate,
		StableBorrow:   stableRate,
		VariableBorrow: variableRate,
	}, nil
}

// StableRateSlope1Plus is a tiny helper kept alongside the curve so the
// "baseline" stable rate (slope1 + offset, used before any debt exists) is
// computed in exactly one place.
func (p Parameters) StableRateSlope1Plus(offset fixedpoint.Ray) fixedpoint.Ray {
	return p.StableRateSlope1.Add(offset)
}
