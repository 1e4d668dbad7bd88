package amm

import (
	"context"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"antibtc/internal/fixedpoint"
	"antibtc/internal/ledger"
	"antibtc/internal/oracle"
	"antibtc/internal/pricing"
)

// Engine owns the pool, the price state, and the two ledgers, and dispatches
// every user operation against them. Operations are serialized by a single
// mutex and commit all-or-nothing: deltas are computed against a working
// copy of the pool and applied only after every check has passed.
type Engine struct {
	mu sync.Mutex

	cfg   Config
	dec   Decimals
	fees  FeeEngine
	model *pricing.InverseModel
	feed  oracle.Feed

	pool        Pool
	totalSupply *uint256.Int

	lastRefPrice *uint256.Int
	lastUpdate   time.Time

	tokens *ledger.Ledger
	usdt   *ledger.Ledger

	now    func() time.Time
	logger *zap.Logger
}

// NewEngine creates the genesis state: the tradable pool, the reserve vault,
// and the price baseline taken from one oracle read.
func NewEngine(ctx context.Context, cfg Config, feed oracle.Feed, logger *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	model, err := pricing.NewInverseModel(cfg.K, cfg.Decimals.Price, cfg.MaxAntiPrice)
	if err != nil {
		return nil, err
	}

	totalSupply, overflow := new(uint256.Int).AddOverflow(cfg.InitialPoolTokens, cfg.InitialReserveTokens)
	if overflow {
		return nil, fixedpoint.ErrOverflow.Wrap("genesis token supply")
	}

	e := &Engine{
		cfg:   cfg,
		dec:   cfg.Decimals,
		fees:  NewFeeEngine(cfg.FeeBps),
		model: model,
		feed:  feed,
		pool: Pool{
			Tokens:  cfg.InitialPoolTokens.Clone(),
			USDT:    cfg.InitialPoolUSDT.Clone(),
			Reserve: cfg.InitialReserveTokens.Clone(),
		},
		totalSupply: totalSupply,
		tokens:      ledger.New("aBTC"),
		usdt:        ledger.New("USDT"),
		now:         cfg.clock(),
		logger:      logger,
	}

	ref, err := e.readReference(ctx)
	if err != nil {
		return nil, err
	}
	e.lastRefPrice = ref
	e.lastUpdate = e.now()

	logger.Info("engine initialized",
		zap.String("pool_tokens", e.pool.Tokens.Dec()),
		zap.String("pool_usdt", e.pool.USDT.Dec()),
		zap.String("reserve_tokens", e.pool.Reserve.Dec()),
		zap.String("reference_price", ref.Dec()),
	)
	return e, nil
}

// Tokens returns the synthetic token ledger.
func (e *Engine) Tokens() *ledger.Ledger {
	return e.tokens
}

// USDT returns the stable unit ledger.
func (e *Engine) USDT() *ledger.Ledger {
	return e.usdt
}

// TotalSupply returns the fixed genesis supply of the synthetic token.
func (e *Engine) TotalSupply() *uint256.Int {
	return e.totalSupply.Clone()
}

// BuyTokens swaps USDT into synthetic tokens. The fee is taken from the
// input before quoting; the full input stays in the pool.
func (e *Engine) BuyTokens(ctx context.Context, buyer string, usdtIn *uint256.Int) (SwapResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if usdtIn == nil || usdtIn.IsZero() {
		return SwapResult{}, ErrInvalidAmount.Wrap("usdt amount must be positive")
	}

	ref, err := e.readReference(ctx)
	if err != nil {
		return SwapResult{}, err
	}

	now := e.now()
	work := e.pool.clone()
	reb := e.maybeRebalance(&work, ref, now)

	fee := e.fees.Fee(usdtIn)
	netIn := new(uint256.Int).Sub(usdtIn, fee)
	if netIn.IsZero() {
		return SwapResult{}, ErrInvalidAmount.Wrap("amount too small after fee")
	}

	tokensOut, err := work.QuoteTokensOut(netIn)
	if err != nil {
		return SwapResult{}, err
	}
	if tokensOut.IsZero() {
		return SwapResult{}, ErrInvalidAmount.Wrap("quote rounds to zero tokens")
	}
	if !tokensOut.Lt(work.Tokens) {
		return SwapResult{}, ErrInsufficientLiquidity.Wrap("buy would drain the pool")
	}
	remaining := new(uint256.Int).Sub(work.Tokens, tokensOut)
	if remaining.Lt(e.cfg.MinPoolTokens) {
		return SwapResult{}, ErrInsufficientLiquidity.Wrapf("pool tokens would fall below floor %s", e.cfg.MinPoolTokens.Dec())
	}

	// Commit. The buyer debit is the only fallible step and runs first.
	if err := e.usdt.Burn(buyer, usdtIn); err != nil {
		return SwapResult{}, err
	}
	if err := e.tokens.Mint(buyer, tokensOut); err != nil {
		return SwapResult{}, err
	}
	work.Tokens = remaining
	work.USDT = new(uint256.Int).Add(work.USDT, usdtIn)
	e.commit(work, ref, now, reb)

	spot, _ := e.pool.SpotPrice(e.dec)
	e.logger.Info("buy",
		zap.String("buyer", buyer),
		zap.String("usdt_in", usdtIn.Dec()),
		zap.String("tokens_out", tokensOut.Dec()),
		zap.String("fee", fee.Dec()),
		zap.Bool("rebalanced", reb != nil),
	)

	return SwapResult{
		User:        buyer,
		IsBuy:       true,
		TokenAmount: tokensOut,
		USDTAmount:  usdtIn.Clone(),
		Fee:         fee,
		SpotPrice:   spot,
		Rebalance:   reb,
		At:          now,
	}, nil
}

// SellTokens swaps synthetic tokens into USDT. The quote is taken on the
// gross token amount; the fee is withheld from the stable proceeds and
// retained in the pool.
func (e *Engine) SellTokens(ctx context.Context, seller string, tokensIn *uint256.Int) (SwapResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if tokensIn == nil || tokensIn.IsZero() {
		return SwapResult{}, ErrInvalidAmount.Wrap("token amount must be positive")
	}

	ref, err := e.readReference(ctx)
	if err != nil {
		return SwapResult{}, err
	}

	now := e.now()
	work := e.pool.clone()
	reb := e.maybeRebalance(&work, ref, now)

	gross, err := work.QuoteUSDTOut(tokensIn)
	if err != nil {
		return SwapResult{}, err
	}
	fee := e.fees.Fee(gross)
	netOut := new(uint256.Int).Sub(gross, fee)
	if netOut.IsZero() {
		return SwapResult{}, ErrInvalidAmount.Wrap("quote rounds to zero usdt")
	}
	if !netOut.Lt(work.USDT) {
		return SwapResult{}, ErrInsufficientLiquidity.Wrap("sell would drain the pool")
	}
	remaining := new(uint256.Int).Sub(work.USDT, netOut)
	if remaining.Lt(e.cfg.MinPoolUSDT) {
		return SwapResult{}, ErrInsufficientLiquidity.Wrapf("pool usdt would fall below floor %s", e.cfg.MinPoolUSDT.Dec())
	}

	if err := e.tokens.Burn(seller, tokensIn); err != nil {
		return SwapResult{}, err
	}
	if err := e.usdt.Mint(seller, netOut); err != nil {
		return SwapResult{}, err
	}
	work.Tokens = new(uint256.Int).Add(work.Tokens, tokensIn)
	work.USDT = remaining
	e.commit(work, ref, now, reb)

	spot, _ := e.pool.SpotPrice(e.dec)
	e.logger.Info("sell",
		zap.String("seller", seller),
		zap.String("tokens_in", tokensIn.Dec()),
		zap.String("usdt_out", netOut.Dec()),
		zap.String("fee", fee.Dec()),
		zap.Bool("rebalanced", reb != nil),
	)

	return SwapResult{
		User:        seller,
		IsBuy:       false,
		TokenAmount: tokensIn.Clone(),
		USDTAmount:  netOut,
		Fee:         fee,
		SpotPrice:   spot,
		Rebalance:   reb,
		At:          now,
	}, nil
}

// AddLiquidity grows both pool sides proportionally against a stable-side
// deposit. The pool-side tokens and the provider's claim both come out of
// the reserve vault, so total supply is unchanged.
func (e *Engine) AddLiquidity(_ context.Context, provider string, usdtIn *uint256.Int) (LiquidityResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if usdtIn == nil || usdtIn.IsZero() {
		return LiquidityResult{}, ErrInvalidAmount.Wrap("usdt amount must be positive")
	}

	minted, err := liquidityMint(e.pool, usdtIn)
	if err != nil {
		return LiquidityResult{}, err
	}
	if minted.IsZero() {
		return LiquidityResult{}, ErrInvalidAmount.Wrap("deposit rounds to zero tokens")
	}

	needed, overflow := new(uint256.Int).AddOverflow(minted, minted)
	if overflow {
		return LiquidityResult{}, fixedpoint.ErrOverflow.Wrap("liquidity mint")
	}
	if needed.Gt(e.pool.Reserve) {
		return LiquidityResult{}, ErrInsufficientReserve.Wrapf("need %s tokens, reserve holds %s", needed.Dec(), e.pool.Reserve.Dec())
	}

	if err := e.usdt.Burn(provider, usdtIn); err != nil {
		return LiquidityResult{}, err
	}
	if err := e.tokens.Mint(provider, minted); err != nil {
		return LiquidityResult{}, err
	}
	e.pool.Tokens = new(uint256.Int).Add(e.pool.Tokens, minted)
	e.pool.USDT = new(uint256.Int).Add(e.pool.USDT, usdtIn)
	e.pool.Reserve = new(uint256.Int).Sub(e.pool.Reserve, needed)

	now := e.now()
	e.logger.Info("liquidity added",
		zap.String("provider", provider),
		zap.String("usdt_in", usdtIn.Dec()),
		zap.String("tokens_minted", minted.Dec()),
	)

	return LiquidityResult{
		Provider:    provider,
		Added:       true,
		TokenAmount: minted,
		USDTAmount:  usdtIn.Clone(),
		At:          now,
	}, nil
}

// RemoveLiquidity burns the provider's claim and shrinks both pool sides
// proportionally, releasing the pool-side tokens back to the reserve.
func (e *Engine) RemoveLiquidity(_ context.Context, provider string, tokensIn *uint256.Int) (LiquidityResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if tokensIn == nil || tokensIn.IsZero() {
		return LiquidityResult{}, ErrInvalidAmount.Wrap("token amount must be positive")
	}

	usdtOut, err := liquidityReturn(e.pool, tokensIn)
	if err != nil {
		return LiquidityResult{}, err
	}
	if usdtOut.IsZero() {
		return LiquidityResult{}, ErrInvalidAmount.Wrap("withdrawal rounds to zero usdt")
	}

	if !tokensIn.Lt(e.pool.Tokens) {
		return LiquidityResult{}, ErrInsufficientLiquidity.Wrap("withdrawal would drain the pool")
	}
	remainingTokens := new(uint256.Int).Sub(e.pool.Tokens, tokensIn)
	remainingUSDT := new(uint256.Int).Sub(e.pool.USDT, usdtOut)
	if remainingTokens.Lt(e.cfg.MinPoolTokens) || remainingUSDT.Lt(e.cfg.MinPoolUSDT) {
		return LiquidityResult{}, ErrInsufficientLiquidity.Wrap("pool would fall below reserve floor")
	}

	if err := e.tokens.Burn(provider, tokensIn); err != nil {
		return LiquidityResult{}, err
	}
	if err := e.usdt.Mint(provider, usdtOut); err != nil {
		return LiquidityResult{}, err
	}
	returned, _ := new(uint256.Int).AddOverflow(tokensIn, tokensIn)
	e.pool.Tokens = remainingTokens
	e.pool.USDT = remainingUSDT
	e.pool.Reserve = new(uint256.Int).Add(e.pool.Reserve, returned)

	now := e.now()
	e.logger.Info("liquidity removed",
		zap.String("provider", provider),
		zap.String("tokens_in", tokensIn.Dec()),
		zap.String("usdt_out", usdtOut.Dec()),
	)

	return LiquidityResult{
		Provider:    provider,
		Added:       false,
		TokenAmount: tokensIn.Clone(),
		USDTAmount:  usdtOut,
		At:          now,
	}, nil
}

// ManualRebalance reshapes the pool toward the inverse-price target. It
// fails while neither trigger condition holds, and leaves the controller in
// the due state when the reshape itself fails.
func (e *Engine) ManualRebalance(ctx context.Context) (RebalanceResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ref, err := e.readReference(ctx)
	if err != nil {
		return RebalanceResult{}, err
	}

	now := e.now()
	info := e.rebalanceInfo(ref, now)
	if !info.NeedsRebalance {
		return RebalanceResult{}, ErrRebalanceNotNeeded.Wrapf(
			"elapsed %s of %s, drift %s of %s",
			info.TimeSinceLastRebalance, e.cfg.RebalanceInterval,
			info.PriceChangePct.Dec(), e.cfg.DriftThreshold.Dec(),
		)
	}

	work := e.pool.clone()
	result, err := applyRebalance(&work, e.model, ref, e.dec, e.cfg.MinPoolTokens, now)
	if err != nil {
		return RebalanceResult{}, err
	}
	e.commit(work, ref, now, result)

	e.logger.Info("rebalanced",
		zap.String("reference_price", ref.Dec()),
		zap.String("target_price", result.TargetPrice.Dec()),
		zap.String("old_pool_tokens", result.OldPoolTokens.Dec()),
		zap.String("new_pool_tokens", result.NewPoolTokens.Dec()),
	)
	return *result, nil
}

// Price returns the pool's implied spot price at price decimals.
func (e *Engine) Price() (*uint256.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pool.SpotPrice(e.dec)
}

// AntiPrice computes the theoretical inverse price for a reference price at
// price decimals.
func (e *Engine) AntiPrice(referencePrice *uint256.Int) (*uint256.Int, error) {
	return e.model.AntiPrice(referencePrice)
}

// QuoteTokensOut applies the raw constant-product formula to a stable input.
func (e *Engine) QuoteTokensOut(usdtIn *uint256.Int) (*uint256.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pool.QuoteTokensOut(usdtIn)
}

// QuoteUSDTOut applies the raw constant-product formula to a token input.
func (e *Engine) QuoteUSDTOut(tokensIn *uint256.Int) (*uint256.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pool.QuoteUSDTOut(tokensIn)
}

// PoolInfo returns a snapshot of reserves and spot price.
func (e *Engine) PoolInfo() PoolInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	spot, err := e.pool.SpotPrice(e.dec)
	if err != nil {
		spot = uint256.NewInt(0)
	}
	return PoolInfo{
		PoolTokens:    e.pool.Tokens.Clone(),
		ReserveTokens: e.pool.Reserve.Clone(),
		PoolUSDT:      e.pool.USDT.Clone(),
		SpotPrice:     spot,
	}
}

// RebalanceInfo evaluates both trigger conditions against a fresh oracle
// read without mutating anything.
func (e *Engine) RebalanceInfo(ctx context.Context) (RebalanceInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ref, err := e.readReference(ctx)
	if err != nil {
		return RebalanceInfo{}, err
	}
	return e.rebalanceInfo(ref, e.now()), nil
}

// FeeInfo returns the fee schedule with a worked example on a 1000-USDT
// notional.
func (e *Engine) FeeInfo() FeeInfo {
	example, _ := fixedpoint.Rescale(uint256.NewInt(1000), 0, e.dec.USDT)
	return FeeInfo{
		FeeBps:          e.fees.Bps(),
		ExampleNotional: example,
		ExampleFee:      e.fees.Fee(example),
	}
}

// LastReferencePrice returns the baseline price of the rebalance controller.
func (e *Engine) LastReferencePrice() *uint256.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastRefPrice.Clone()
}

func (e *Engine) rebalanceInfo(ref *uint256.Int, now time.Time) RebalanceInfo {
	elapsed := now.Sub(e.lastUpdate)
	change := priceChangePct(e.lastRefPrice, ref)
	due := elapsed >= e.cfg.RebalanceInterval || !change.Lt(e.cfg.DriftThreshold)
	return RebalanceInfo{
		NeedsRebalance:         due,
		TimeSinceLastRebalance: elapsed,
		PriceChangePct:         change,
	}
}

// maybeRebalance runs the opportunistic rebalance check inside a swap. A
// reshape failure never fails the swap; the controller simply stays due.
func (e *Engine) maybeRebalance(work *Pool, ref *uint256.Int, now time.Time) *RebalanceResult {
	info := e.rebalanceInfo(ref, now)
	if !info.NeedsRebalance {
		return nil
	}

	result, err := applyRebalance(work, e.model, ref, e.dec, e.cfg.MinPoolTokens, now)
	if err != nil {
		e.logger.Warn("opportunistic rebalance skipped", zap.Error(err))
		return nil
	}
	return result
}

// commit swaps in the fully validated working pool. A settled rebalance also
// advances the price baseline.
func (e *Engine) commit(work Pool, ref *uint256.Int, now time.Time, reb *RebalanceResult) {
	e.pool = work
	if reb != nil {
		e.lastRefPrice = ref.Clone()
		e.lastUpdate = now
	}
}

// readReference fetches, validates, and normalizes one oracle sample to the
// engine's price decimals.
func (e *Engine) readReference(ctx context.Context) (*uint256.Int, error) {
	sample, err := e.feed.LatestPrice(ctx)
	if err != nil {
		return nil, ErrInvalidOracleData.Wrapf("oracle read failed: %v", err)
	}
	if sample.Value == nil || sample.Value.Sign() <= 0 {
		return nil, ErrInvalidOracleData.Wrap("non-positive reference price")
	}
	if e.cfg.StaleAfter > 0 {
		if age := e.now().Sub(sample.UpdatedAt); age > e.cfg.StaleAfter {
			return nil, ErrInvalidOracleData.Wrapf("sample is %s old", age)
		}
	}

	value, overflow := uint256.FromBig(sample.Value)
	if overflow {
		return nil, ErrInvalidOracleData.Wrap("reference price exceeds 256 bits")
	}
	ref, err := fixedpoint.Rescale(value, sample.Decimals, e.dec.Price)
	if err != nil {
		return nil, ErrInvalidOracleData.Wrapf("rescale feed decimals: %v", err)
	}
	if ref.IsZero() {
		return nil, ErrInvalidOracleData.Wrap("reference price rounds to zero")
	}
	return ref, nil
}
