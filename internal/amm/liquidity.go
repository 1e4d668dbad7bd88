package amm

import (
	"github.com/holiman/uint256"

	"antibtc/internal/fixedpoint"
)

// liquidityMint returns the provider's claim for a stable-side deposit:
// poolTokens * usdtIn / poolUSDT. Depositing at this ratio leaves the spot
// price unchanged.
func liquidityMint(pool Pool, usdtIn *uint256.Int) (*uint256.Int, error) {
	return fixedpoint.MulDiv(pool.Tokens, usdtIn, pool.USDT)
}

// liquidityReturn returns the stable units released for a burned claim:
// poolUSDT * tokensIn / poolTokens.
func liquidityReturn(pool Pool, tokensIn *uint256.Int) (*uint256.Int, error) {
	return fixedpoint.MulDiv(pool.USDT, tokensIn, pool.Tokens)
}
