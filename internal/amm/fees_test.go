package amm

import (
	"testing"

	"github.com/holiman/uint256"
)

func TestFeeExact(t *testing.T) {
	f := NewFeeEngine(30)

	// 1000 USDT at 6 decimals, 30 bps -> 3 USDT.
	fee := f.Fee(uint256.NewInt(1_000_000_000))
	if fee.Uint64() != 3_000_000 {
		t.Fatalf("fee = %s, want 3000000", fee.Dec())
	}
}

func TestFeeTruncates(t *testing.T) {
	f := NewFeeEngine(30)

	// 333 * 30 / 10000 = 0.999, truncated to 0.
	fee := f.Fee(uint256.NewInt(333))
	if !fee.IsZero() {
		t.Fatalf("fee = %s, want 0", fee.Dec())
	}

	// 334 * 30 / 10000 = 1.002, truncated to 1.
	fee = f.Fee(uint256.NewInt(334))
	if fee.Uint64() != 1 {
		t.Fatalf("fee = %s, want 1", fee.Dec())
	}
}

func TestFeeNeverExceedsNotional(t *testing.T) {
	f := NewFeeEngine(9_999)

	notional := uint256.NewInt(12345)
	fee := f.Fee(notional)
	if !fee.Lt(notional) {
		t.Fatalf("fee %s not below notional %s", fee.Dec(), notional.Dec())
	}
}

func TestZeroBps(t *testing.T) {
	f := NewFeeEngine(0)

	if fee := f.Fee(uint256.NewInt(1_000_000_000)); !fee.IsZero() {
		t.Fatalf("fee = %s, want 0", fee.Dec())
	}
}
