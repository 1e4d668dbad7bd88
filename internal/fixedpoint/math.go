package fixedpoint

import (
	"cosmossdk.io/errors"
	"github.com/holiman/uint256"
)

// Arithmetic guard rails. Every consumer of pool math routes through this
// package so rounding behaves identically everywhere: floor, toward zero,
// always in favor of the pool.
var (
	ErrOverflow       = errors.Register("fixedpoint", 1, "arithmetic overflow")
	ErrDivisionByZero = errors.Register("fixedpoint", 2, "division by zero")
)

// maxScale is the largest power of ten representable in 256 bits.
const maxScale = 77

var pow10Table [maxScale + 1]*uint256.Int

func init() {
	ten := uint256.NewInt(10)
	acc := uint256.NewInt(1)
	for i := 0; i <= maxScale; i++ {
		pow10Table[i] = acc.Clone()
		acc = new(uint256.Int).Mul(acc, ten)
	}
}

// Pow10 returns 10^n. n above the 256-bit range reports ErrOverflow.
func Pow10(n uint8) (*uint256.Int, error) {
	if int(n) > maxScale {
		return nil, ErrOverflow.Wrapf("10^%d exceeds 256 bits", n)
	}
	return pow10Table[n].Clone(), nil
}

// MulDiv computes floor(a * b / den) with a full-width intermediate product.
func MulDiv(a, b, den *uint256.Int) (*uint256.Int, error) {
	if den == nil || den.IsZero() {
		return nil, ErrDivisionByZero
	}
	result, overflow := new(uint256.Int).MulDivOverflow(a, b, den)
	if overflow {
		return nil, ErrOverflow.Wrapf("%s * %s / %s", a.Dec(), b.Dec(), den.Dec())
	}
	return result, nil
}

// ScaledMulDiv multiplies two fixed-point quantities with scales aScale and
// bScale and rescales the product to outScale, truncating toward zero.
func ScaledMulDiv(a *uint256.Int, aScale uint8, b *uint256.Int, bScale uint8, outScale uint8) (*uint256.Int, error) {
	shift := int(aScale) + int(bScale) - int(outScale)
	if shift >= 0 {
		if shift > maxScale {
			// Product is divided by more digits than 256 bits can hold.
			return uint256.NewInt(0), nil
		}
		return MulDiv(a, b, pow10Table[shift])
	}
	up, err := Pow10(uint8(-shift))
	if err != nil {
		return nil, err
	}
	scaled, overflow := new(uint256.Int).MulOverflow(a, up)
	if overflow {
		return nil, ErrOverflow.Wrapf("%s * 10^%d", a.Dec(), -shift)
	}
	return MulDiv(scaled, b, pow10Table[0])
}

// ScaledDiv divides two fixed-point quantities with scales aScale and bScale
// and rescales the quotient to outScale, truncating toward zero.
func ScaledDiv(a *uint256.Int, aScale uint8, b *uint256.Int, bScale uint8, outScale uint8) (*uint256.Int, error) {
	if b == nil || b.IsZero() {
		return nil, ErrDivisionByZero
	}
	shift := int(bScale) + int(outScale) - int(aScale)
	if shift >= 0 {
		up, err := Pow10(uint8(shift))
		if err != nil {
			return nil, err
		}
		return MulDiv(a, up, b)
	}
	down, err := Pow10(uint8(-shift))
	if err != nil {
		return nil, err
	}
	den, overflow := new(uint256.Int).MulOverflow(b, down)
	if overflow {
		// Denominator exceeds 256 bits, so the floored quotient is zero.
		return uint256.NewInt(0), nil
	}
	return MulDiv(a, pow10Table[0], den)
}

// Rescale converts a quantity from one decimal scale to another, truncating
// toward zero when precision is dropped.
func Rescale(a *uint256.Int, fromScale, toScale uint8) (*uint256.Int, error) {
	if fromScale == toScale {
		return a.Clone(), nil
	}
	if toScale > fromScale {
		up, err := Pow10(toScale - fromScale)
		if err != nil {
			return nil, err
		}
		scaled, overflow := new(uint256.Int).MulOverflow(a, up)
		if overflow {
			return nil, ErrOverflow.Wrapf("rescale %s from %d to %d", a.Dec(), fromScale, toScale)
		}
		return scaled, nil
	}
	down, err := Pow10(fromScale - toScale)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Div(a, down), nil
}
