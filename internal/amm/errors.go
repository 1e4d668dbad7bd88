package amm

import (
	"cosmossdk.io/errors"
)

// Engine sentinel errors. Ledger and fixed-point failures surface from their
// own packages unmodified.
var (
	ErrInvalidAmount         = errors.Register("amm", 1, "invalid amount")
	ErrInsufficientLiquidity = errors.Register("amm", 2, "insufficient liquidity in pool")
	ErrInvalidOracleData     = errors.Register("amm", 3, "invalid oracle data")
	ErrRebalanceNotNeeded    = errors.Register("amm", 4, "rebalance conditions not met")
	ErrInsufficientReserve   = errors.Register("amm", 5, "insufficient reserve vault")
)
