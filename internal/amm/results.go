package amm

import (
	"time"

	"github.com/holiman/uint256"
)

// SwapResult is the event value returned by a successful buy or sell.
type SwapResult struct {
	User        string
	IsBuy       bool
	TokenAmount *uint256.Int
	USDTAmount  *uint256.Int
	Fee         *uint256.Int
	SpotPrice   *uint256.Int
	// Rebalance is set when the opportunistic rebalance fired inside the
	// same operation.
	Rebalance *RebalanceResult
	At        time.Time
}

// LiquidityResult is the event value returned by add/remove liquidity.
type LiquidityResult struct {
	Provider    string
	Added       bool
	TokenAmount *uint256.Int
	USDTAmount  *uint256.Int
	At          time.Time
}

// RebalanceResult captures a pool reshape: the PoolAdjusted movement between
// pool and reserve plus the settled reference price.
type RebalanceResult struct {
	OldPoolTokens  *uint256.Int
	NewPoolTokens  *uint256.Int
	OldReserve     *uint256.Int
	NewReserve     *uint256.Int
	ReferencePrice *uint256.Int
	TargetPrice    *uint256.Int
	At             time.Time
}

// RebalanceInfo exposes both trigger conditions of the rebalance controller.
type RebalanceInfo struct {
	NeedsRebalance         bool
	TimeSinceLastRebalance time.Duration
	// PriceChangePct is the absolute reference-price drift since the last
	// settle, as a percentage scaled by PercentScale.
	PriceChangePct *uint256.Int
}
