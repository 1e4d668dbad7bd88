package amm

import (
	"fmt"
	"time"

	"github.com/holiman/uint256"
)

// PercentScale is the fixed-point scale for percentage ratios: 5% == 5e6.
const PercentScale = 1_000_000

// Decimals groups the fixed-point scales of the three units the engine
// mixes: the reference price feed, the stable unit, and the synthetic token.
type Decimals struct {
	Price uint8
	USDT  uint8
	Token uint8
}

// Config holds the genesis parameters of the engine. All amounts are raw
// fixed-point integers in their unit's native decimals.
type Config struct {
	// K is the calibration constant of the inverse price model, at price
	// decimals: the reference price at which one token is worth one USDT.
	K *uint256.Int

	FeeBps   uint64
	Decimals Decimals

	RebalanceInterval time.Duration
	// DriftThreshold is the reference-price drift that makes a rebalance
	// due, as a percentage scaled by PercentScale.
	DriftThreshold *uint256.Int

	// Reserve floors a swap may never breach.
	MinPoolTokens *uint256.Int
	MinPoolUSDT   *uint256.Int

	// MaxAntiPrice saturates the inverse price model.
	MaxAntiPrice *uint256.Int

	// StaleAfter rejects oracle samples older than this; zero disables the
	// staleness check.
	StaleAfter time.Duration

	InitialPoolTokens    *uint256.Int
	InitialPoolUSDT      *uint256.Int
	InitialReserveTokens *uint256.Int

	// Now supplies the engine clock; nil means time.Now.
	Now func() time.Time
}

// DefaultConfig mirrors the genesis of the original deployment: a 1M/1M
// pool priced at 1.0, calibrated against a $20,000 reference price.
func DefaultConfig() Config {
	e6 := uint256.NewInt(1_000_000)
	e18 := uint256.NewInt(1_000_000_000_000_000_000)

	return Config{
		K:                 uint256.NewInt(2_000_000_000_000), // 20,000 at 8 decimals
		FeeBps:            30,
		Decimals:          Decimals{Price: 8, USDT: 6, Token: 18},
		RebalanceInterval: 8 * time.Hour,
		DriftThreshold:    uint256.NewInt(5 * PercentScale),
		MinPoolTokens:     e18.Clone(),                                       // 1 token
		MinPoolUSDT:       e6.Clone(),                                        // 1 USDT
		MaxAntiPrice:      uint256.NewInt(100_000_000_000_000),               // 1M USDT per token
		StaleAfter:        time.Hour,
		InitialPoolTokens: new(uint256.Int).Mul(e6, e18),                     // 1,000,000 tokens
		InitialPoolUSDT:   new(uint256.Int).Mul(e6, e6),                      // 1,000,000 USDT
		InitialReserveTokens: new(uint256.Int).Mul(uint256.NewInt(10_000_000), e18), // 10M tokens
	}
}

// Validate checks the config for internal consistency.
func (c Config) Validate() error {
	if c.K == nil || c.K.IsZero() {
		return fmt.Errorf("calibration constant K must be positive")
	}
	if c.FeeBps >= 10_000 {
		return fmt.Errorf("fee %d bps must be below 10000", c.FeeBps)
	}
	if c.DriftThreshold == nil || c.DriftThreshold.IsZero() {
		return fmt.Errorf("drift threshold must be positive")
	}
	if c.RebalanceInterval <= 0 {
		return fmt.Errorf("rebalance interval must be positive")
	}
	if c.MaxAntiPrice == nil || c.MaxAntiPrice.IsZero() {
		return fmt.Errorf("max anti price must be positive")
	}
	if c.InitialPoolTokens == nil || c.InitialPoolTokens.IsZero() {
		return fmt.Errorf("initial pool tokens must be positive")
	}
	if c.InitialPoolUSDT == nil || c.InitialPoolUSDT.IsZero() {
		return fmt.Errorf("initial pool usdt must be positive")
	}
	if c.InitialReserveTokens == nil {
		return fmt.Errorf("initial reserve tokens must be set")
	}
	if c.MinPoolTokens == nil || c.MinPoolUSDT == nil {
		return fmt.Errorf("reserve floors must be set")
	}
	if c.InitialPoolTokens.Lt(c.MinPoolTokens) {
		return fmt.Errorf("initial pool tokens below reserve floor")
	}
	if c.InitialPoolUSDT.Lt(c.MinPoolUSDT) {
		return fmt.Errorf("initial pool usdt below reserve floor")
	}
	return nil
}

func (c Config) clock() func() time.Time {
	if c.Now != nil {
		return c.Now
	}
	return time.Now
}
