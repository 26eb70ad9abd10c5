package ratemodel

import (
	"testing"

	"github.com/holiman/uint256"

	"reservecore/fixedpoint"
)

func rayFraction(num, den uint64) fixedpoint.Ray {
	scaled := new(uint256.Int).Mul(fixedpoint.RayScale().Int(), uint256.NewInt(num))
	scaled.Div(scaled, uint256.NewInt(den))
	return fixedpoint.NewRayFromUint64(scaled)
}

func wad(units uint64) fixedpoint.Wad {
	scaled := new(uint256.Int).Mul(uint256.NewInt(units), uint256.NewInt(1_000_000_000_000_000_000))
	u, _ := fixedpoint.NewUint128(scaled) // any uint64 times 1e18 fits in 128 bits
	return fixedpoint.NewWadFromUint128(u)
}

func defaultParams(t *testing.T) Parameters {
	t.Helper()
	p, err := NewParameters(
		rayFraction(8, 10),  // optimalUsageRatio = 0.8
		rayFraction(1, 5),   // optimalStableToTotalDebtRatio = 0.2, unused in D/E
		fixedpoint.ZeroRay(), // baseVariableBorrowRate = 0
		rayFraction(4, 100), // variableRateSlope1 = 0.04
		rayFraction(75, 100), // variableRateSlope2 = 0.75
		fixedpoint.ZeroRay(), // stableRateSlope1 = 0 (not exercised by D/E)
		fixedpoint.ZeroRay(), // stableRateSlope2
		fixedpoint.ZeroRay(), // baseStableRateOffset
		fixedpoint.ZeroRay(), // stableRateExcessOffset
	)
	if err != nil {
		t.Fatalf("NewParameters: %v", err)
	}
	return p
}

func TestNewParametersRejectsOutOfRange(t *testing.T) {
	tooHigh := rayFraction(11, 10) // 1.1 ray
	valid := rayFraction(1, 2)
	if _, err := NewParameters(tooHigh, valid, fixedpoint.ZeroRay(), fixedpoint.ZeroRay(), fixedpoint.ZeroRay(), fixedpoint.ZeroRay(), fixedpoint.ZeroRay(), fixedpoint.ZeroRay(), fixedpoint.ZeroRay()); err != ErrInvalidOptimalUsageRatio {
		t.Fatalf("expected ErrInvalidOptimalUsageRatio, got %v", err)
	}
	if _, err := NewParameters(valid, tooHigh, fixedpoint.ZeroRay(), fixedpoint.ZeroRay(), fixedpoint.ZeroRay(), fixedpoint.ZeroRay(), fixedpoint.ZeroRay(), fixedpoint.ZeroRay(), fixedpoint.ZeroRay()); err != ErrInvalidOptimalStableToTotalDebtRatio {
		t.Fatalf("expected ErrInvalidOptimalStableToTotalDebtRatio, got %v", err)
	}
}

func TestCalculateInterestRatesZeroDebtBaseline(t *testing.T) {
	// Property 2: totalDebt == 0 returns (0, slope1+offset, baseVariable).
	p, err := NewParameters(
		rayFraction(8, 10), rayFraction(1, 5),
		rayFraction(1, 100),  // base variable 1%
		rayFraction(4, 100), rayFraction(75, 100),
		rayFraction(2, 100), rayFraction(60, 100),
		rayFraction(1, 1000), // base stable offset 0.1%
		rayFraction(8, 100),
	)
	if err != nil {
		t.Fatalf("NewParameters: %v", err)
	}

	rates, err := p.CalculateInterestRates(Params{ReserveFactorBps: 1000})
	if err != nil {
		t.Fatalf("CalculateInterestRates: %v", err)
	}
	if !rates.Liquidity.IsZero() {
		t.Fatalf("expected zero supply rate, got %s", rates.Liquidity.String())
	}
	wantVariable := rayFraction(1, 100)
	if rates.VariableBorrow.Cmp(wantVariable) != 0 {
		t.Fatalf("expected baseVariableBorrowRate, got %s want %s", rates.VariableBorrow.String(), wantVariable.String())
	}
	wantStable := p.StableRateSlope1.Add(p.BaseStableRateOffset)
	if rates.StableBorrow.Cmp(wantStable) != 0 {
		t.Fatalf("expected slope1+offset, got %s want %s", rates.StableBorrow.String(), wantStable.String())
	}
}

func TestScenarioDSlope1(t *testing.T) {
	p := defaultParams(t)
	rates, err := p.CalculateInterestRates(Params{
		TotalVariableDebt: wad(400),
		TotalStableDebt:   fixedpoint.ZeroWad(),
		AssetBalance:      wad(600),
		ReserveFactorBps:  1000,
	})
	if err != nil {
		t.Fatalf("CalculateInterestRates: %v", err)
	}
	wantVariable := rayFraction(2, 100) // 0.02
	if rates.VariableBorrow.Cmp(wantVariable) != 0 {
		t.Fatalf("variableRate = %s, want %s", rates.VariableBorrow.String(), wantVariable.String())
	}
	wantSupply := rayFraction(72, 10_000) // 0.0072
	if rates.Liquidity.Cmp(wantSupply) != 0 {
		t.Fatalf("supplyRate = %s, want %s", rates.Liquidity.String(), wantSupply.String())
	}
}

func TestScenarioESlope2(t *testing.T) {
	p := defaultParams(t)
	rates, err := p.CalculateInterestRates(Params{
		TotalVariableDebt: wad(900),
		TotalStableDebt:   fixedpoint.ZeroWad(),
		AssetBalance:      wad(100),
		ReserveFactorBps:  1000,
	})
	if err != nil {
		t.Fatalf("CalculateInterestRates: %v", err)
	}
	wantVariable := rayFraction(415, 1000) // 0.415
	if rates.VariableBorrow.Cmp(wantVariable) != 0 {
		t.Fatalf("variableRate = %s, want %s", rates.VariableBorrow.String(), wantVariable.String())
	}
}

func TestCalculateInterestRatesRejectsOutOfRangeReserveFactor(t *testing.T) {
	p := defaultParams(t)
	_, err := p.CalculateInterestRates(Params{
		TotalVariableDebt: wad(1),
		AssetBalance:      wad(1),
		ReserveFactorBps:  10_001,
	})
	if err == nil {
		t.Fatalf("expected error for out-of-range reserve factor")
	}
}
