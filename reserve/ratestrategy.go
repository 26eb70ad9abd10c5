package reserve

import "reservecore/ratemodel"

// StrategyFromParameters adapts a ratemodel.Parameters instance into the
// InterestRateStrategy collaborator interface the reserve logic consumes.
// The reserve/aToken handles carried on StrategyParams are accepted for
// interface symmetry with spec.md §6 but are not inputs to the pure curve.
type StrategyFromParameters struct {
	Parameters ratemodel.Parameters
}

// CalculateInterestRates implements InterestRateStrategy.
func (s StrategyFromParameters) CalculateInterestRates(params StrategyParams) (ratemodel.Rates, error) {
	return s.Parameters.CalculateInterestRates(params.Params)
}
