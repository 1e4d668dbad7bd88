package amm

import (
	"testing"

	"github.com/holiman/uint256"
)

func e18(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), uint256.NewInt(1_000_000_000_000_000_000))
}

func e6(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), uint256.NewInt(1_000_000))
}

func genesisPool() Pool {
	return Pool{
		Tokens:  e18(1_000_000),
		USDT:    e6(1_000_000),
		Reserve: e18(10_000_000),
	}
}

func TestQuoteTokensOutFormula(t *testing.T) {
	p := genesisPool()

	// 1000 USDT into a 1M/1M pool: 1M * 1000 / 1_001_000 tokens.
	in := e6(1000)
	out, err := p.QuoteTokensOut(in)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	num := new(uint256.Int).Mul(p.Tokens, in)
	den := new(uint256.Int).Add(p.USDT, in)
	want := new(uint256.Int).Div(num, den)
	if !out.Eq(want) {
		t.Fatalf("out = %s, want %s", out.Dec(), want.Dec())
	}

	// Strictly below the proportional amount: slippage.
	if !out.Lt(e18(1000)) {
		t.Fatalf("out = %s, expected slippage below 1000 tokens", out.Dec())
	}
}

func TestQuoteUSDTOutFormula(t *testing.T) {
	p := genesisPool()

	in := e18(500)
	out, err := p.QuoteUSDTOut(in)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	num := new(uint256.Int).Mul(p.USDT, in)
	den := new(uint256.Int).Add(p.Tokens, in)
	want := new(uint256.Int).Div(num, den)
	if !out.Eq(want) {
		t.Fatalf("out = %s, want %s", out.Dec(), want.Dec())
	}
	if !out.Lt(e6(500)) {
		t.Fatalf("out = %s, expected slippage below 500 USDT", out.Dec())
	}
}

func TestProductNeverDecreases(t *testing.T) {
	p := genesisPool()
	before := new(uint256.Int).Mul(p.Tokens, p.USDT)

	for _, whole := range []uint64{1, 137, 1000, 250_000} {
		in := e6(whole)
		out, err := p.QuoteTokensOut(in)
		if err != nil {
			t.Fatalf("quote %d: %v", whole, err)
		}

		// Truncation always rounds the payout down, so k can only grow.
		newTokens := new(uint256.Int).Sub(p.Tokens, out)
		newUSDT := new(uint256.Int).Add(p.USDT, in)
		after := new(uint256.Int).Mul(newTokens, newUSDT)
		if after.Lt(before) {
			t.Fatalf("k decreased on %d USDT in: %s -> %s", whole, before.Dec(), after.Dec())
		}
	}
}

func TestSpotPriceGenesis(t *testing.T) {
	p := genesisPool()

	spot, err := p.SpotPrice(Decimals{Price: 8, USDT: 6, Token: 18})
	if err != nil {
		t.Fatalf("spot: %v", err)
	}

	// 1M USDT over 1M tokens is exactly 1.0 at 8 decimals.
	if spot.Uint64() != 100_000_000 {
		t.Fatalf("spot = %s, want 100000000", spot.Dec())
	}
}

func TestQuoteZeroInput(t *testing.T) {
	p := genesisPool()

	out, err := p.QuoteTokensOut(uint256.NewInt(0))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if !out.IsZero() {
		t.Fatalf("out = %s, want 0", out.Dec())
	}
}
