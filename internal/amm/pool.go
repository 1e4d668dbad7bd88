package amm

import (
	"github.com/holiman/uint256"

	"antibtc/internal/fixedpoint"
)

// Pool holds the tradable reserves and the synthetic-token headroom used for
// rebalancing. Tokens and Reserve are at token decimals, USDT at stable
// decimals.
type Pool struct {
	Tokens  *uint256.Int
	USDT    *uint256.Int
	Reserve *uint256.Int
}

func (p Pool) clone() Pool {
	return Pool{
		Tokens:  p.Tokens.Clone(),
		USDT:    p.USDT.Clone(),
		Reserve: p.Reserve.Clone(),
	}
}

// QuoteTokensOut prices a stable-in swap under the constant-product rule:
// poolTokens * usdtIn / (poolUSDT + usdtIn).
func (p Pool) QuoteTokensOut(usdtIn *uint256.Int) (*uint256.Int, error) {
	den, overflow := new(uint256.Int).AddOverflow(p.USDT, usdtIn)
	if overflow {
		return nil, fixedpoint.ErrOverflow.Wrap("pool usdt plus input")
	}
	return fixedpoint.MulDiv(p.Tokens, usdtIn, den)
}

// QuoteUSDTOut prices a token-in swap under the constant-product rule:
// poolUSDT * tokensIn / (poolTokens + tokensIn).
func (p Pool) QuoteUSDTOut(tokensIn *uint256.Int) (*uint256.Int, error) {
	den, overflow := new(uint256.Int).AddOverflow(p.Tokens, tokensIn)
	if overflow {
		return nil, fixedpoint.ErrOverflow.Wrap("pool tokens plus input")
	}
	return fixedpoint.MulDiv(p.USDT, tokensIn, den)
}

// SpotPrice returns the pool's implied price of one token in USDT, at price
// decimals.
func (p Pool) SpotPrice(d Decimals) (*uint256.Int, error) {
	return fixedpoint.ScaledDiv(p.USDT, d.USDT, p.Tokens, d.Token, d.Price)
}

// PoolInfo is a read-only snapshot of the pool state.
type PoolInfo struct {
	PoolTokens    *uint256.Int
	ReserveTokens *uint256.Int
	PoolUSDT      *uint256.Int
	SpotPrice     *uint256.Int
}
