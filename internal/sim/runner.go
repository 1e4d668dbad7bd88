package sim

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"math/rand"
	"time"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"antibtc/internal/amm"
	"antibtc/internal/fixedpoint"
	"antibtc/internal/ledger"
	"antibtc/internal/model"
	"antibtc/internal/oracle"
	"antibtc/internal/storage"
)

// RunConfig holds runtime settings for a simulation.
type RunConfig struct {
	Steps         int
	Seed          int64
	Traders       int
	// MaxTradeUSDT is the largest single trade, in whole USDT.
	MaxTradeUSDT  uint64
	// FundingUSDT is each trader's genesis balance, in whole USDT.
	FundingUSDT   uint64
	StepInterval  time.Duration
	// VolatilityBps is the largest per-step reference price move.
	VolatilityBps uint64
	SnapshotEvery int
	BatchSize     int
	// InitialReferencePrice is at the engine's price decimals.
	InitialReferencePrice uint64
}

// Runner drives a fresh engine through a random price path and trade
// workload, writing the resulting events to storage.
type Runner struct {
	cfg    RunConfig
	engine *amm.Engine
	feed   *oracle.StaticFeed
	clock  *Clock
	sink   storage.Sink
	logger *zap.Logger

	usdtDecimals uint8

	rng  *rand.Rand
	seq  uint64
	pend []model.EventRecord
}

// NewRunner builds a simulation: clock, feed, engine, and funded traders.
func NewRunner(ctx context.Context, cfg RunConfig, engineCfg amm.Config, sink storage.Sink, logger *zap.Logger) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Steps <= 0 {
		return nil, fmt.Errorf("steps must be positive")
	}
	if cfg.Traders <= 0 {
		return nil, fmt.Errorf("at least one trader is required")
	}
	if cfg.MaxTradeUSDT == 0 {
		return nil, fmt.Errorf("max trade size must be positive")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.StepInterval <= 0 {
		cfg.StepInterval = time.Hour
	}
	if cfg.InitialReferencePrice == 0 {
		cfg.InitialReferencePrice = 2_000_000_000_000 // $20,000 at 8 decimals
	}

	clock := NewClock(time.Unix(1_700_000_000, 0).UTC())
	engineCfg.Now = clock.Now

	feed := oracle.NewStaticFeed(
		new(big.Int).SetUint64(cfg.InitialReferencePrice),
		engineCfg.Decimals.Price,
		clock.Now(),
	)

	engine, err := amm.NewEngine(ctx, engineCfg, feed, logger)
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}

	funding, err := fixedpoint.Rescale(uint256.NewInt(cfg.FundingUSDT), 0, engineCfg.Decimals.USDT)
	if err != nil {
		return nil, fmt.Errorf("rescale funding: %w", err)
	}
	for i := 0; i < cfg.Traders; i++ {
		if err := engine.USDT().Mint(traderName(i), funding); err != nil {
			return nil, fmt.Errorf("fund trader: %w", err)
		}
	}

	return &Runner{
		cfg:          cfg,
		engine:       engine,
		feed:         feed,
		clock:        clock,
		sink:         sink,
		logger:       logger,
		usdtDecimals: engineCfg.Decimals.USDT,
		rng:          rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Engine exposes the simulated engine for inspection after a run.
func (r *Runner) Engine() *amm.Engine {
	return r.engine
}

// Run executes the simulation loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.sink == nil {
		return fmt.Errorf("storage sink is nil")
	}

	var trades, rejected int
	for step := 0; step < r.cfg.Steps; step++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		now := r.clock.Advance(r.cfg.StepInterval)
		r.movePrice(now)

		ok, err := r.step(ctx, step)
		if err != nil {
			return err
		}
		if ok {
			trades++
		} else {
			rejected++
		}

		if r.cfg.SnapshotEvery > 0 && (step+1)%r.cfg.SnapshotEvery == 0 {
			snapshot := model.FromPoolInfo(r.engine.PoolInfo(), now)
			if err := r.sink.PutSnapshots(ctx, []model.PoolSnapshot{snapshot}); err != nil {
				return fmt.Errorf("write snapshot: %w", err)
			}
		}

		if len(r.pend) >= r.cfg.BatchSize {
			if err := r.flush(ctx); err != nil {
				return err
			}
		}
	}

	if err := r.flush(ctx); err != nil {
		return err
	}

	if err := r.checkConservation(); err != nil {
		return err
	}

	info := r.engine.PoolInfo()
	r.logger.Info("simulation done",
		zap.Int("steps", r.cfg.Steps),
		zap.Int("applied", trades),
		zap.Int("rejected", rejected),
		zap.String("pool_tokens", info.PoolTokens.Dec()),
		zap.String("pool_usdt", info.PoolUSDT.Dec()),
		zap.String("spot_price", info.SpotPrice.Dec()),
	)
	return nil
}

// movePrice applies one random-walk move to the reference feed.
func (r *Runner) movePrice(now time.Time) {
	if r.cfg.VolatilityBps == 0 {
		r.feed.SetPrice(r.currentPrice(), now)
		return
	}

	price := r.currentPrice()
	moveBps := r.rng.Int63n(int64(r.cfg.VolatilityBps) + 1)
	delta := new(big.Int).Mul(price, big.NewInt(moveBps))
	delta.Div(delta, big.NewInt(10_000))
	if r.rng.Intn(2) == 0 {
		price.Add(price, delta)
	} else {
		price.Sub(price, delta)
		if price.Sign() <= 0 {
			price.SetUint64(1)
		}
	}
	r.feed.SetPrice(price, now)
}

func (r *Runner) currentPrice() *big.Int {
	sample, err := r.feed.LatestPrice(context.Background())
	if err != nil {
		return new(big.Int).SetUint64(r.cfg.InitialReferencePrice)
	}
	return sample.Value
}

// step performs one random engine operation. Application-level rejections
// (insufficient balance, liquidity, rebalance not due) are expected and only
// counted; anything else aborts the run.
func (r *Runner) step(ctx context.Context, step int) (bool, error) {
	trader := traderName(r.rng.Intn(r.cfg.Traders))

	var err error
	var records []model.EventRecord

	switch roll := r.rng.Intn(100); {
	case roll < 45:
		var res amm.SwapResult
		res, err = r.engine.BuyTokens(ctx, trader, r.randomUSDT())
		if err == nil {
			records, err = model.FromSwap(res)
		}
	case roll < 75:
		amount := r.randomTokens(trader)
		if amount.IsZero() {
			return false, nil
		}
		var res amm.SwapResult
		res, err = r.engine.SellTokens(ctx, trader, amount)
		if err == nil {
			records, err = model.FromSwap(res)
		}
	case roll < 85:
		var res amm.LiquidityResult
		res, err = r.engine.AddLiquidity(ctx, trader, r.randomUSDT())
		if err == nil {
			var record model.EventRecord
			record, err = model.FromLiquidity(res)
			records = []model.EventRecord{record}
		}
	case roll < 92:
		amount := r.randomTokens(trader)
		if amount.IsZero() {
			return false, nil
		}
		var res amm.LiquidityResult
		res, err = r.engine.RemoveLiquidity(ctx, trader, amount)
		if err == nil {
			var record model.EventRecord
			record, err = model.FromLiquidity(res)
			records = []model.EventRecord{record}
		}
	default:
		var res amm.RebalanceResult
		res, err = r.engine.ManualRebalance(ctx)
		if err == nil {
			records, err = model.FromRebalance(res)
		}
	}

	if err != nil {
		if isExpectedRejection(err) {
			r.logger.Debug("operation rejected", zap.Int("step", step), zap.Error(err))
			return false, nil
		}
		return false, fmt.Errorf("step %d: %w", step, err)
	}

	for i := range records {
		r.seq++
		records[i].Seq = r.seq
	}
	r.pend = append(r.pend, records...)
	return true, nil
}

func (r *Runner) flush(ctx context.Context) error {
	if len(r.pend) == 0 {
		return nil
	}
	if err := r.sink.PutEvents(ctx, r.pend); err != nil {
		return fmt.Errorf("write events: %w", err)
	}
	r.pend = r.pend[:0]
	return nil
}

// checkConservation verifies the fixed-supply invariant: holder balances
// plus pool plus reserve equals the genesis supply.
func (r *Runner) checkConservation() error {
	info := r.engine.PoolInfo()
	total := r.engine.Tokens().TotalSupply()
	total.Add(total, info.PoolTokens)
	total.Add(total, info.ReserveTokens)
	if !total.Eq(r.engine.TotalSupply()) {
		return fmt.Errorf("conservation violated: %s != %s", total.Dec(), r.engine.TotalSupply().Dec())
	}
	return nil
}

func (r *Runner) randomUSDT() *uint256.Int {
	whole := uint64(r.rng.Int63n(int64(r.cfg.MaxTradeUSDT)) + 1)
	amount, err := fixedpoint.Rescale(uint256.NewInt(whole), 0, r.usdtDecimals)
	if err != nil {
		return uint256.NewInt(1)
	}
	return amount
}

// randomTokens picks up to half the trader's current token balance.
func (r *Runner) randomTokens(trader string) *uint256.Int {
	balance := r.engine.Tokens().BalanceOf(trader)
	if balance.IsZero() {
		return balance
	}
	half := new(uint256.Int).Rsh(balance, 1)
	if half.IsZero() {
		return balance
	}
	// Scale by a random percentage to vary sizes.
	pct := uint64(r.rng.Int63n(100) + 1)
	scaled, _ := new(uint256.Int).MulDivOverflow(half, uint256.NewInt(pct), uint256.NewInt(100))
	if scaled.IsZero() {
		return half
	}
	return scaled
}

func isExpectedRejection(err error) bool {
	for _, expected := range []error{
		amm.ErrInvalidAmount,
		amm.ErrInsufficientLiquidity,
		amm.ErrRebalanceNotNeeded,
		amm.ErrInsufficientReserve,
	} {
		if errors.Is(err, expected) {
			return true
		}
	}
	// Overdrafts happen when a trader's USDT runs out mid-simulation.
	return errors.Is(err, ledger.ErrInsufficientBalance)
}

func traderName(i int) string {
	return fmt.Sprintf("trader-%03d", i)
}
