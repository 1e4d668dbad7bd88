package fixedpoint

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
)

func TestMulDivFloors(t *testing.T) {
	got, err := MulDiv(uint256.NewInt(7), uint256.NewInt(3), uint256.NewInt(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Uint64() != 10 {
		t.Fatalf("7*3/2 = %s, want 10", got.Dec())
	}
}

func TestMulDivFullWidthIntermediate(t *testing.T) {
	// a * b overflows 256 bits but the quotient does not.
	a := new(uint256.Int).Lsh(uint256.NewInt(1), 200)
	b := new(uint256.Int).Lsh(uint256.NewInt(1), 100)
	den := new(uint256.Int).Lsh(uint256.NewInt(1), 150)

	got, err := MulDiv(a, b, den)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := new(uint256.Int).Lsh(uint256.NewInt(1), 150)
	if !got.Eq(want) {
		t.Fatalf("quotient mismatch: %s != %s", got.Dec(), want.Dec())
	}
}

func TestMulDivDivisionByZero(t *testing.T) {
	if _, err := MulDiv(uint256.NewInt(1), uint256.NewInt(1), uint256.NewInt(0)); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected ErrDivisionByZero, got %v", err)
	}
}

func TestMulDivOverflow(t *testing.T) {
	max := new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 255), uint256.NewInt(1))
	if _, err := MulDiv(max, uint256.NewInt(8), uint256.NewInt(1)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestScaledMulDiv(t *testing.T) {
	cases := []struct {
		name             string
		a, b             uint64
		aScale, bScale   uint8
		outScale         uint8
		want             uint64
	}{
		{"price times amount", 5000, 2_000_000, 8, 6, 6, 100},          // 0.00005 * 2.0 = 0.0001
		{"upscale", 3, 4, 0, 0, 6, 12_000_000},                         // 12 at 6 decimals
		{"downscale truncates", 1_234_567, 1, 6, 0, 2, 123},            // 1.234567 -> 1.23
		{"same scale", 1_500_000, 2_000_000, 6, 6, 6, 3_000_000},       // 1.5 * 2.0 = 3.0
	}

	for _, tc := range cases {
		got, err := ScaledMulDiv(uint256.NewInt(tc.a), tc.aScale, uint256.NewInt(tc.b), tc.bScale, tc.outScale)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got.Uint64() != tc.want {
			t.Fatalf("%s: got %s, want %d", tc.name, got.Dec(), tc.want)
		}
	}
}

func TestScaledDiv(t *testing.T) {
	// 1,000,000 USDT (6 decimals) over 1,000,000 tokens (18 decimals)
	// is a spot price of exactly 1.0 at 8 decimals.
	usdt := new(uint256.Int).Mul(uint256.NewInt(1_000_000), uint256.NewInt(1_000_000))
	tokens, err := Rescale(uint256.NewInt(1_000_000), 0, 18)
	if err != nil {
		t.Fatalf("rescale tokens: %v", err)
	}

	price, err := ScaledDiv(usdt, 6, tokens, 18, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price.Uint64() != 100_000_000 {
		t.Fatalf("spot price %s, want 100000000", price.Dec())
	}
}

func TestScaledDivByZero(t *testing.T) {
	if _, err := ScaledDiv(uint256.NewInt(1), 6, uint256.NewInt(0), 18, 8); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected ErrDivisionByZero, got %v", err)
	}
}

func TestRescaleRoundTripTruncates(t *testing.T) {
	a := uint256.NewInt(1_999_999)
	down, err := Rescale(a, 6, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if down.Uint64() != 1 {
		t.Fatalf("downscale got %s, want 1", down.Dec())
	}

	up, err := Rescale(down, 0, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if up.Uint64() != 1_000_000 {
		t.Fatalf("upscale got %s, want 1000000", up.Dec())
	}
}

func TestPow10Bounds(t *testing.T) {
	p, err := Pow10(18)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := uint256.NewInt(1_000_000_000_000_000_000)
	if !p.Eq(want) {
		t.Fatalf("10^18 mismatch: %s", p.Dec())
	}

	if _, err := Pow10(maxScale + 1); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}
