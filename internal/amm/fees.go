package amm

import (
	"github.com/holiman/uint256"
)

const bpsDenominator = 10_000

// FeeEngine computes the basis-point fee on swap notionals. Fees truncate
// toward zero and are retained inside the pool.
type FeeEngine struct {
	bps *uint256.Int
}

func NewFeeEngine(bps uint64) FeeEngine {
	return FeeEngine{bps: uint256.NewInt(bps)}
}

// Fee returns notional * bps / 10000, truncated.
func (f FeeEngine) Fee(notional *uint256.Int) *uint256.Int {
	// bps < 10000, so the result never exceeds the notional and the
	// full-width intermediate cannot overflow the quotient.
	fee, _ := new(uint256.Int).MulDivOverflow(notional, f.bps, uint256.NewInt(bpsDenominator))
	return fee
}

// Bps returns the configured rate in basis points.
func (f FeeEngine) Bps() uint64 {
	return f.bps.Uint64()
}

// FeeInfo describes the fee schedule, with a worked example on a reference
// notional for external introspection.
type FeeInfo struct {
	FeeBps          uint64
	ExampleNotional *uint256.Int
	ExampleFee      *uint256.Int
}
