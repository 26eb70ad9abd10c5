package fixedpoint

import (
	"testing"

	"github.com/holiman/uint256"
)

func rayFromUint64(u uint64) Ray {
	return NewRayFromUint64(uint256.NewInt(u))
}

func TestRayMulHalfUpRounding(t *testing.T) {
	// a*b/RAY has an exact remainder of RAY/2, which must round up.
	one := RayScale()
	oneInt := one.Int()
	halfRayUnits := new(uint256.Int).Rsh(oneInt, 1) // RAY/2, raw units (not "0.5 ray")
	a := NewRayFromUint64(halfRayUnits)
	b := rayFromUint64(3)
	got := RayMul(a, b)
	// (RAY/2 * 3 + RAY/2) / RAY = ceil(3/2) = 2 raw units.
	if got.Cmp(rayFromUint64(2)) != 0 {
		t.Fatalf("expected half-up rounding to 2 raw units, got %s", got.String())
	}
}

func TestRayMulIdentity(t *testing.T) {
	one := RayScale()
	half := RayScale()
	halfInt := half.Int()
	halfInt.Rsh(halfInt, 1)
	half = NewRayFromUint64(halfInt)

	got := RayMul(one, half)
	if got.Cmp(half) != 0 {
		t.Fatalf("RayMul(1, x) should equal x; got %s want %s", got.String(), half.String())
	}
}

func TestRayDivByZero(t *testing.T) {
	if _, err := RayDiv(RayScale(), Ray{}); err != ErrDivisionByZero {
		t.Fatalf("expected ErrDivisionByZero, got %v", err)
	}
}

func TestWadDivByZero(t *testing.T) {
	if _, err := WadDiv(NewWadFromUint64(1), Wad{}); err != ErrDivisionByZero {
		t.Fatalf("expected ErrDivisionByZero, got %v", err)
	}
}

func TestWadToRayRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 42, 1_000_000_000_000_000_000}
	for _, v := range values {
		w := NewWadFromUint64(v)
		r := WadToRay(w)
		back := RayToWad(r)
		if back.Cmp(w) != 0 {
			t.Fatalf("round trip failed for %d: got %s", v, back.String())
		}
	}
}

func TestPercentMul(t *testing.T) {
	x := rayFromUint64(10_000)
	got := PercentMul(x, 5_000) // 50%
	want := rayFromUint64(5_000)
	if got.Cmp(want) != 0 {
		t.Fatalf("PercentMul(10000, 50%%) = %s, want %s", got.String(), want.String())
	}
}

func TestPercentMulHalfUpRounding(t *testing.T) {
	// 3 * 5000 / 10000 = 1.5 -> rounds to 2 half-up.
	got := PercentMul(rayFromUint64(3), 5_000)
	if got.Cmp(rayFromUint64(2)) != 0 {
		t.Fatalf("expected half-up rounding to 2, got %s", got.String())
	}
}

func TestUint128NarrowOverflow(t *testing.T) {
	huge := new(uint256.Int)
	huge.SetAllOne() // 2^256 - 1, far beyond 128 bits
	if _, err := NewUint128(huge); err != ErrOverflow {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestUint128RoundTripBytes(t *testing.T) {
	v := uint256.NewInt(123456789)
	u, err := NewUint128(v)
	if err != nil {
		t.Fatalf("NewUint128: %v", err)
	}
	back := Uint128FromBytes(u.Bytes16())
	if back.Cmp(u) != 0 {
		t.Fatalf("byte round trip mismatch: got %s want %s", back.String(), u.String())
	}
}

func TestRayScaleIsOneRay(t *testing.T) {
	one := RayScale()
	half, err := RayDiv(one, rayFromUint64(2))
	if err != nil {
		t.Fatalf("RayDiv: %v", err)
	}
	back := RayMul(half, rayFromUint64(2))
	if back.Cmp(one) != 0 {
		t.Fatalf("expected round-trip to one ray, got %s", back.String())
	}
}
