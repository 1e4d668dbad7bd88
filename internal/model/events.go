package model

// Event types emitted by the engine.
const (
	EventTypeSwap             = "swap"
	EventTypeLiquidityAdded   = "liquidity_added"
	EventTypeLiquidityRemoved = "liquidity_removed"
	EventTypePoolAdjusted     = "pool_adjusted"
	EventTypeRebalanced       = "rebalanced"
)

// SwapEventData is the swap event payload. Amounts are decimal strings in
// their unit's native fixed-point scale.
type SwapEventData struct {
	User        string `json:"user"`
	IsBuy       bool   `json:"is_buy"`
	TokenAmount string `json:"token_amount"`
	USDTAmount  string `json:"usdt_amount"`
	Fee         string `json:"fee"`
	SpotPrice   string `json:"spot_price"`
}

// LiquidityEventData is the payload of liquidity add/remove events.
type LiquidityEventData struct {
	Provider    string `json:"provider"`
	TokenAmount string `json:"token_amount"`
	USDTAmount  string `json:"usdt_amount"`
}

// PoolAdjustedEventData records the reserve reshape of a rebalance.
type PoolAdjustedEventData struct {
	OldPoolTokens string `json:"old_pool_tokens"`
	NewPoolTokens string `json:"new_pool_tokens"`
	OldReserve    string `json:"old_reserve"`
	NewReserve    string `json:"new_reserve"`
	TargetPrice   string `json:"target_price"`
}

// RebalancedEventData records the settled price baseline of a rebalance.
type RebalancedEventData struct {
	ReferencePrice string `json:"reference_price"`
	UpdatedAt      string `json:"updated_at"`
}
