// Package fixedpoint implements the two fixed-point scales the reserve core
// prices everything in: ray (27 decimals, used for rates and indexes) and
// wad (18 decimals, used for token amounts). All intermediate products are
// carried in a 256-bit unsigned type so that multiplying two 128-bit
// operands never silently wraps; narrowing the result back to 128 bits is
// an explicit, checked step.
package fixedpoint

import (
	"errors"

	"github.com/holiman/uint256"
)

// ErrOverflow is returned when narrowing a 256-bit intermediate to 128 bits
// would lose information.
var ErrOverflow = errors.New("fixedpoint: overflow narrowing to 128 bits")

// ErrDivisionByZero is returned by any division whose denominator is zero.
var ErrDivisionByZero = errors.New("fixedpoint: division by zero")

const uint128Bits = 128

var (
	wadScale   = uint256.NewInt(1_000_000_000_000_000_000)             // 1e18
	rayScale   = mustFromDecimal("1000000000000000000000000000")       // 1e27
	rayPerWad  = mustFromDecimal("1000000000")                          // 1e9 = ray/wad
	halfRay    = new(uint256.Int).Rsh(rayScale, 1)
	halfWad    = new(uint256.Int).Rsh(wadScale, 1)
	halfRayWad = new(uint256.Int).Rsh(rayPerWad, 1)
	tenThousand = uint256.NewInt(10_000)
	fiveThousand = uint256.NewInt(5_000)
)

func mustFromDecimal(s string) *uint256.Int {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		panic("fixedpoint: invalid constant " + s + ": " + err.Error())
	}
	return v
}

// Uint128 is a value that has been asserted to fit within 128 bits. It is
// the only way a Ray or Wad value may be committed to a ReserveData field;
// construction is the "explicit narrowing" spec.md requires.
type Uint128 struct {
	v uint256.Int
}

// NewUint128 narrows a wide intermediate to 128 bits, failing with
// ErrOverflow if the value does not fit.
func NewUint128(v *uint256.Int) (Uint128, error) {
	if v == nil {
		return Uint128{}, nil
	}
	if v.BitLen() > uint128Bits {
		return Uint128{}, ErrOverflow
	}
	var out Uint128
	out.v.Set(v)
	return out, nil
}

// MustUint128 is NewUint128 for compile-time-known constants; it panics on
// overflow and must never be used on runtime-derived values.
func MustUint128(v *uint256.Int) Uint128 {
	out, err := NewUint128(v)
	if err != nil {
		panic(err)
	}
	return out
}

// Int returns a defensive copy of the underlying wide integer.
func (u Uint128) Int() *uint256.Int {
	c := u.v
	return &c
}

// IsZero reports whether the value is zero.
func (u Uint128) IsZero() bool { return u.v.IsZero() }

// Cmp compares two Uint128 values.
func (u Uint128) Cmp(other Uint128) int { return u.v.Cmp(&other.v) }

// String renders the decimal value.
func (u Uint128) String() string { return u.v.String() }

// Bytes16 returns the big-endian 16-byte packed representation used by the
// canonical persisted layout (spec.md §6).
func (u Uint128) Bytes16() [16]byte {
	full := u.v.Bytes32()
	var out [16]byte
	copy(out[:], full[16:])
	return out
}

// Uint128FromBytes reconstructs a Uint128 from its packed 16-byte form.
func Uint128FromBytes(b [16]byte) Uint128 {
	var full [32]byte
	copy(full[16:], b[:])
	var out Uint128
	out.v.SetBytes32(full[:])
	return out
}

// Ray is a value scaled by 10^27, used for rates and cumulative indexes.
type Ray struct{ v uint256.Int }

// RayScale returns the ray unit (10^27) as a Ray value, i.e. "1.0" in ray.
func RayScale() Ray { return Ray{v: *rayScale} }

// ZeroRay returns the ray-scaled zero value.
func ZeroRay() Ray { return Ray{} }

// NewRayFromUint128 lifts a narrowed 128-bit value into ray-space with no
// rescaling; use this to load a persisted index/rate field back into the
// wide arithmetic type.
func NewRayFromUint128(u Uint128) Ray { return Ray{v: u.v} }

// NewRayFromUint64 constructs a Ray directly from a raw (already ray-scaled)
// wide integer, with no further scaling applied. Used to lift plain integers
// such as a seconds count or a parsed decimal string into Ray-typed operands
// for RayMul/RayDiv.
func NewRayFromUint64(units *uint256.Int) Ray {
	if units == nil {
		return Ray{}
	}
	var out Ray
	out.v.Set(units)
	return out
}

// Int exposes the wide integer backing the Ray value.
func (r Ray) Int() *uint256.Int { c := r.v; return &c }

// Narrow asserts the Ray value fits in 128 bits, the required step before
// committing it to a ReserveData field.
func (r Ray) Narrow() (Uint128, error) { return NewUint128(&r.v) }

// IsZero reports whether the ray value is zero.
func (r Ray) IsZero() bool { return r.v.IsZero() }

// Cmp compares two Ray values.
func (r Ray) Cmp(other Ray) int { return r.v.Cmp(&other.v) }

// String renders the underlying integer in ray units (not divided by 1e27).
func (r Ray) String() string { return r.v.String() }

// Wad is a value scaled by 10^18, used for token amounts.
type Wad struct{ v uint256.Int }

// ZeroWad returns the wad-scaled zero value.
func ZeroWad() Wad { return Wad{} }

// NewWadFromUint64 constructs a Wad directly from an integer number of wei
// (base) units, i.e. already scaled by 1e18 upstream.
func NewWadFromUint64(units uint64) Wad {
	var out Wad
	out.v.SetUint64(units)
	return out
}

// NewWadFromUint128 lifts a narrowed 128-bit value into wad-space.
func NewWadFromUint128(u Uint128) Wad { return Wad{v: u.v} }

// Int exposes the wide integer backing the Wad value.
func (w Wad) Int() *uint256.Int { c := w.v; return &c }

// Narrow asserts the Wad value fits in 128 bits.
func (w Wad) Narrow() (Uint128, error) { return NewUint128(&w.v) }

// IsZero reports whether the wad value is zero.
func (w Wad) IsZero() bool { return w.v.IsZero() }

// Cmp compares two Wad values.
func (w Wad) Cmp(other Wad) int { return w.v.Cmp(&other.v) }

// String renders the underlying integer in wad units (not divided by 1e18).
func (w Wad) String() string { return w.v.String() }

// Add returns w + other, exact (both operands are 128-bit-narrowed in
// practice, so the 256-bit sum never wraps).
func (w Wad) Add(other Wad) Wad {
	var out Wad
	out.v.Add(&w.v, &other.v)
	return out
}

// Sub returns w - other. Negative results saturate at zero, matching the
// "available liquidity never goes negative" convention used throughout the
// reserve logic.
func (w Wad) Sub(other Wad) Wad {
	var out Wad
	if w.v.Cmp(&other.v) < 0 {
		return Wad{}
	}
	out.v.Sub(&w.v, &other.v)
	return out
}

func (r Ray) Add(other Ray) Ray {
	var out Ray
	out.v.Add(&r.v, &other.v)
	return out
}

func (r Ray) Sub(other Ray) Ray {
	var out Ray
	if r.v.Cmp(&other.v) < 0 {
		return Ray{}
	}
	out.v.Sub(&r.v, &other.v)
	return out
}

// RayMul computes round((a*b)/RAY), half-up.
func RayMul(a, b Ray) Ray {
	product := new(uint256.Int).Mul(&a.v, &b.v)
	product.Add(product, halfRay)
	product.Div(product, rayScale)
	return Ray{v: *product}
}

// RayDiv computes round((a*RAY)/b), half-up. Returns ErrDivisionByZero when
// b is zero.
func RayDiv(a, b Ray) (Ray, error) {
	if b.v.IsZero() {
		return Ray{}, ErrDivisionByZero
	}
	numerator := new(uint256.Int).Mul(&a.v, rayScale)
	numerator.Add(numerator, halfUp(&b.v))
	numerator.Div(numerator, &b.v)
	return Ray{v: *numerator}, nil
}

// WadMul computes round((a*b)/WAD), half-up.
func WadMul(a, b Wad) Wad {
	product := new(uint256.Int).Mul(&a.v, &b.v)
	product.Add(product, halfWad)
	product.Div(product, wadScale)
	return Wad{v: *product}
}

// WadDiv computes round((a*WAD)/b), half-up. Returns ErrDivisionByZero when
// b is zero.
func WadDiv(a, b Wad) (Wad, error) {
	if b.v.IsZero() {
		return Wad{}, ErrDivisionByZero
	}
	numerator := new(uint256.Int).Mul(&a.v, wadScale)
	numerator.Add(numerator, halfUp(&b.v))
	numerator.Div(numerator, &b.v)
	return Wad{v: *numerator}, nil
}

// WadToRay rescales a wad value into ray space: x * (RAY/WAD).
func WadToRay(w Wad) Ray {
	scaled := new(uint256.Int).Mul(&w.v, rayPerWad)
	return Ray{v: *scaled}
}

// RayToWad rescales a ray value into wad space, half-up:
// (x + (RAY/WAD)/2) / (RAY/WAD).
func RayToWad(r Ray) Wad {
	scaled := new(uint256.Int).Add(&r.v, halfRayWad)
	scaled.Div(scaled, rayPerWad)
	return Wad{v: *scaled}
}

// PercentMul computes round((x*bps)/10000), half-up. bps must be in
// [0, 10000]; callers that derive bps from configuration should validate the
// range before calling.
func PercentMul(x Ray, bps uint64) Ray {
	bpsInt := new(uint256.Int).SetUint64(bps)
	product := new(uint256.Int).Mul(&x.v, bpsInt)
	product.Add(product, fiveThousand)
	product.Div(product, tenThousand)
	return Ray{v: *product}
}

// RayMulWad multiplies a wad-magnitude scaled balance by a ray-scaled index
// or factor, returning a wad-magnitude result: round((w*r)/RAY). This is the
// operation a scaled balance undergoes when priced against its accrual
// index; the balance itself carries no ray precision, only the index does,
// so the result stays at wad magnitude even though one operand is a Ray.
func RayMulWad(w Wad, r Ray) Wad {
	product := new(uint256.Int).Mul(&w.v, &r.v)
	product.Add(product, halfRay)
	product.Div(product, rayScale)
	return Wad{v: *product}
}

// RayDivWad divides a wad-magnitude value by a ray-scaled index, returning a
// wad-magnitude scaled balance: round((w*RAY)/r). Returns ErrDivisionByZero
// when r is zero.
func RayDivWad(w Wad, r Ray) (Wad, error) {
	if r.v.IsZero() {
		return Wad{}, ErrDivisionByZero
	}
	numerator := new(uint256.Int).Mul(&w.v, rayScale)
	numerator.Add(numerator, halfUp(&r.v))
	numerator.Div(numerator, &r.v)
	return Wad{v: *numerator}, nil
}

// halfUp returns floor(x/2), the offset added to a numerator so that the
// following division by x rounds half-up.
func halfUp(x *uint256.Int) *uint256.Int {
	if x.IsZero() {
		return new(uint256.Int)
	}
	return new(uint256.Int).Rsh(x, 1)
}
