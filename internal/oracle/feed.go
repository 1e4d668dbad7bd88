package oracle

import (
	"context"
	"math/big"
	"time"
)

// Sample is one observation from a reference price feed.
type Sample struct {
	Value     *big.Int
	Decimals  uint8
	UpdatedAt time.Time
}

// Feed is a read-only source of the external reference price. The engine
// treats zero, negative, or stale samples as invalid oracle data; transport
// concerns such as retries live in the implementation, not the engine.
type Feed interface {
	LatestPrice(ctx context.Context) (Sample, error)
}
