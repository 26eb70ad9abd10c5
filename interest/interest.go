// Package interest implements the two interest-accrual factors the reserve
// core rolls indexes forward with: linear accrual for the supply side and a
// truncated binomial approximation of compounding for the variable-borrow
// side. Both formulas are taken verbatim from spec.md §4.2; the compounding
// approximation is deliberately not "improved" into a continuous-compounding
// identity, since its slight under-compensation of lenders and
// under-charging of borrowers is part of the protocol-observable behavior.
package interest

import (
	"github.com/holiman/uint256"

	"reservecore/fixedpoint"
)

// SecondsPerYear is the annualization denominator used throughout the
// reserve core (365 days, no leap-year adjustment).
const SecondsPerYear uint64 = 365 * 86400

// Linear returns L(r, delta) = RAY + (r * delta) / SecondsPerYear, the
// interest factor applied to the liquidity index.
func Linear(rate fixedpoint.Ray, delta uint64) fixedpoint.Ray {
	one := fixedpoint.RayScale()
	if delta == 0 {
		return one
	}
	product := new(uint256.Int).Mul(rate.Int(), uint256.NewInt(delta))
	term := plainRayDivByUint64(fixedpoint.NewRayFromUint64(product), SecondsPerYear)
	return one.Add(term)
}

// Compounded returns C(r, delta), the third-order binomial approximation of
// (1 + r/Year)^delta, per spec.md §4.2. Returns RAY exactly when delta is 0.
func Compounded(rate fixedpoint.Ray, delta uint64) fixedpoint.Ray {
	one := fixedpoint.RayScale()
	if delta == 0 {
		return one
	}
	if rate.IsZero() {
		return one
	}

	year := SecondsPerYear
	yearSquared := new(uint256.Int).Mul(uint256.NewInt(year), uint256.NewInt(year))

	// basePow2 = rayMul(r, r) / (Year*Year)
	basePow2 := plainRayDiv(fixedpoint.RayMul(rate, rate), yearSquared)

	// basePow3 = rayMul(basePow2, r) / Year
	basePow3 := plainRayDivByUint64(fixedpoint.RayMul(basePow2, rate), year)

	deltaInt := uint256.NewInt(delta)

	// t1 = (r * delta) / Year
	t1 := plainRayDivByUint64(fixedpoint.NewRayFromUint64(new(uint256.Int).Mul(rate.Int(), deltaInt)), year)

	// t2 = (delta * (delta-1) * basePow2) / 2
	deltaMinus1 := delta - 1 // delta > 0 here, guarded above
	deltaTerm := new(uint256.Int).Mul(deltaInt, uint256.NewInt(deltaMinus1))
	t2 := fixedpoint.NewRayFromUint64(new(uint256.Int).Mul(deltaTerm, basePow2.Int()))
	t2 = plainRayDivByUint64(t2, 2)

	// t3 = (delta * (delta-1) * max(delta-2, 0) * basePow3) / 6
	deltaMinus2 := uint64(0)
	if delta > 2 {
		deltaMinus2 = delta - 2
	}
	t3Coeff := new(uint256.Int).Mul(deltaTerm, uint256.NewInt(deltaMinus2))
	t3 := fixedpoint.NewRayFromUint64(new(uint256.Int).Mul(t3Coeff, basePow3.Int()))
	t3 = plainRayDivByUint64(t3, 6)

	sum := one.Add(t1)
	sum = sum.Add(t2)
	sum = sum.Add(t3)
	return sum
}

// plainRayDivByUint64 divides a ray-scaled value by a plain (unscaled)
// integer divisor, i.e. x / n rather than rayDiv's x*RAY/n. Division by a
// compile-time-nonzero constant such as SecondsPerYear never fails, so this
// helper does not return an error.
func plainRayDivByUint64(x fixedpoint.Ray, n uint64) fixedpoint.Ray {
	return plainRayDiv(x, uint256.NewInt(n))
}

// plainRayDiv divides a ray-scaled value by an unscaled wide integer
// divisor.
func plainRayDiv(x fixedpoint.Ray, n *uint256.Int) fixedpoint.Ray {
	if n.IsZero() {
		return fixedpoint.ZeroRay()
	}
	xi := x.Int()
	xi.Div(xi, n)
	return fixedpoint.NewRayFromUint64(xi)
}
