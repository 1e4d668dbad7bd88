package pricing

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
)

const priceDecimals = 8

func newTestModel(t *testing.T) *InverseModel {
	t.Helper()

	// K anchored at a $20,000 reference price.
	k := uint256.NewInt(20_000 * 100_000_000)
	ceiling := uint256.NewInt(1_000_000_000_000) // 10,000.0 at 8 decimals

	m, err := NewInverseModel(k, priceDecimals, ceiling)
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	return m
}

func TestAntiPriceAtCalibrationPoint(t *testing.T) {
	m := newTestModel(t)

	got, err := m.AntiPrice(uint256.NewInt(20_000 * 100_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Uint64() != 100_000_000 {
		t.Fatalf("anti price at K: %s, want 1.0 (100000000)", got.Dec())
	}
}

func TestAntiPriceDoublesWhenReferenceHalves(t *testing.T) {
	m := newTestModel(t)

	got, err := m.AntiPrice(uint256.NewInt(10_000 * 100_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Uint64() != 200_000_000 {
		t.Fatalf("anti price at K/2: %s, want 2.0 (200000000)", got.Dec())
	}
}

func TestAntiPriceStrictlyInverse(t *testing.T) {
	m := newTestModel(t)

	prev, err := m.AntiPrice(uint256.NewInt(15_000 * 100_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, ref := range []uint64{16_000, 20_000, 30_000, 60_000} {
		cur, err := m.AntiPrice(uint256.NewInt(ref * 100_000_000))
		if err != nil {
			t.Fatalf("anti price at %d: %v", ref, err)
		}
		if !cur.Lt(prev) {
			t.Fatalf("anti price not strictly decreasing at reference %d: %s >= %s", ref, cur.Dec(), prev.Dec())
		}
		prev = cur
	}
}

func TestAntiPriceZeroReference(t *testing.T) {
	m := newTestModel(t)

	if _, err := m.AntiPrice(uint256.NewInt(0)); !errors.Is(err, ErrInvalidReferencePrice) {
		t.Fatalf("expected ErrInvalidReferencePrice, got %v", err)
	}
	if _, err := m.AntiPrice(nil); !errors.Is(err, ErrInvalidReferencePrice) {
		t.Fatalf("expected ErrInvalidReferencePrice for nil, got %v", err)
	}
}

func TestAntiPriceSaturates(t *testing.T) {
	m := newTestModel(t)

	// A one-unit reference price would imply an anti price of 2e12 units;
	// the model must clamp to the ceiling instead.
	got, err := m.AntiPrice(uint256.NewInt(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Uint64() != 1_000_000_000_000 {
		t.Fatalf("saturated anti price %s, want ceiling", got.Dec())
	}
}

func TestAntiPriceDeterministic(t *testing.T) {
	m := newTestModel(t)

	ref := uint256.NewInt(23_456 * 100_000_000)
	first, err := m.AntiPrice(ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := m.AntiPrice(ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.Eq(second) {
		t.Fatalf("model not deterministic: %s != %s", first.Dec(), second.Dec())
	}
}
