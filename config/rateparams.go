package config

import (
	"fmt"

	"github.com/holiman/uint256"

	"reservecore/fixedpoint"
	"reservecore/ratemodel"
)

// ToParameters parses the decimal ray-scaled strings into a
// ratemodel.Parameters, the form the reserve core actually computes with.
func (r RateParameters) ToParameters() (ratemodel.Parameters, error) {
	optimalUsageRatio, err := parseRay("OptimalUsageRatio", r.OptimalUsageRatio)
	if err != nil {
		return ratemodel.Parameters{}, err
	}
	optimalStableToTotalDebtRatio, err := parseRay("OptimalStableToTotalDebtRatio", r.OptimalStableToTotalDebtRatio)
	if err != nil {
		return ratemodel.Parameters{}, err
	}
	baseVariableBorrowRate, err := parseRay("BaseVariableBorrowRate", r.BaseVariableBorrowRate)
	if err != nil {
		return ratemodel.Parameters{}, err
	}
	variableRateSlope1, err := parseRay("VariableRateSlope1", r.VariableRateSlope1)
	if err != nil {
		return ratemodel.Parameters{}, err
	}
	variableRateSlope2, err := parseRay("VariableRateSlope2", r.VariableRateSlope2)
	if err != nil {
		return ratemodel.Parameters{}, err
	}
	stableRateSlope1, err := parseRay("StableRateSlope1", r.StableRateSlope1)
	if err != nil {
		return ratemodel.Parameters{}, err
	}
	stableRateSlope2, err := parseRay("StableRateSlope2", r.StableRateSlope2)
	if err != nil {
		return ratemodel.Parameters{}, err
	}
	baseStableRateOffset, err := parseRay("BaseStableRateOffset", r.BaseStableRateOffset)
	if err != nil {
		return ratemodel.Parameters{}, err
	}
	stableRateExcessOffset, err := parseRay("StableRateExcessOffset", r.StableRateExcessOffset)
	if err != nil {
		return ratemodel.Parameters{}, err
	}

	return ratemodel.NewParameters(
		optimalUsageRatio,
		optimalStableToTotalDebtRatio,
		baseVariableBorrowRate,
		variableRateSlope1,
		variableRateSlope2,
		stableRateSlope1,
		stableRateSlope2,
		baseStableRateOffset,
		stableRateExcessOffset,
	)
}

// parseRay parses a decimal integer string (ray-scaled, 1e27 = 1.0) into a
// fixedpoint.Ray. An empty string is treated as zero.
func parseRay(field, decimal string) (fixedpoint.Ray, error) {
	if decimal == "" {
		return fixedpoint.ZeroRay(), nil
	}
	v, err := uint256.FromDecimal(decimal)
	if err != nil {
		return fixedpoint.Ray{}, fmt.Errorf("config: rate parameter %s: invalid ray decimal %q: %w", field, decimal, err)
	}
	return fixedpoint.NewRayFromUint64(v), nil
}
