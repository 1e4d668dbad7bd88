package amm

import (
	"time"

	"github.com/holiman/uint256"

	"antibtc/internal/fixedpoint"
	"antibtc/internal/pricing"
)

// priceChangePct returns |cur - last| * 100 / last as a percentage scaled by
// PercentScale. A zero last price reports full drift so a broken baseline
// always makes a rebalance due.
func priceChangePct(last, cur *uint256.Int) *uint256.Int {
	if last == nil || last.IsZero() {
		return uint256.NewInt(100 * PercentScale)
	}

	var diff *uint256.Int
	if cur.Gt(last) {
		diff = new(uint256.Int).Sub(cur, last)
	} else {
		diff = new(uint256.Int).Sub(last, cur)
	}

	pct, err := fixedpoint.MulDiv(diff, uint256.NewInt(100*PercentScale), last)
	if err != nil {
		// Drift beyond the representable range is still drift.
		return uint256.NewInt(100 * PercentScale)
	}
	return pct
}

// applyRebalance reshapes the pool so its implied spot price matches the
// inverse-price target, holding the stable side fixed and moving synthetic
// tokens between pool and reserve. The pool is mutated only on success.
func applyRebalance(pool *Pool, model *pricing.InverseModel, ref *uint256.Int, d Decimals, minPoolTokens *uint256.Int, now time.Time) (*RebalanceResult, error) {
	target, err := model.AntiPrice(ref)
	if err != nil {
		return nil, err
	}

	newTokens, err := fixedpoint.ScaledDiv(pool.USDT, d.USDT, target, d.Price, d.Token)
	if err != nil {
		return nil, err
	}
	if newTokens.Lt(minPoolTokens) {
		return nil, ErrInsufficientLiquidity.Wrapf("target price %s leaves pool below floor", target.Dec())
	}

	newReserve := pool.Reserve.Clone()
	if newTokens.Gt(pool.Tokens) {
		needed := new(uint256.Int).Sub(newTokens, pool.Tokens)
		if needed.Gt(pool.Reserve) {
			return nil, ErrInsufficientReserve.Wrapf("need %s tokens, reserve holds %s", needed.Dec(), pool.Reserve.Dec())
		}
		newReserve.Sub(newReserve, needed)
	} else {
		returned := new(uint256.Int).Sub(pool.Tokens, newTokens)
		var overflow bool
		newReserve, overflow = new(uint256.Int).AddOverflow(newReserve, returned)
		if overflow {
			return nil, fixedpoint.ErrOverflow.Wrap("reserve vault")
		}
	}

	result := &RebalanceResult{
		OldPoolTokens:  pool.Tokens.Clone(),
		NewPoolTokens:  newTokens.Clone(),
		OldReserve:     pool.Reserve.Clone(),
		NewReserve:     newReserve.Clone(),
		ReferencePrice: ref.Clone(),
		TargetPrice:    target,
		At:             now,
	}

	pool.Tokens = newTokens
	pool.Reserve = newReserve
	return result, nil
}
