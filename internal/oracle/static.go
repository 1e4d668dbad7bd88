package oracle

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// StaticFeed is a deterministic in-memory feed for tests and simulations.
type StaticFeed struct {
	mu        sync.RWMutex
	value     *big.Int
	decimals  uint8
	updatedAt time.Time
}

// NewStaticFeed creates a feed holding a fixed price until updated.
func NewStaticFeed(value *big.Int, decimals uint8, updatedAt time.Time) *StaticFeed {
	return &StaticFeed{
		value:     new(big.Int).Set(value),
		decimals:  decimals,
		updatedAt: updatedAt,
	}
}

// LatestPrice returns the current sample.
func (f *StaticFeed) LatestPrice(_ context.Context) (Sample, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.value == nil {
		return Sample{}, fmt.Errorf("static feed has no price")
	}
	return Sample{
		Value:     new(big.Int).Set(f.value),
		Decimals:  f.decimals,
		UpdatedAt: f.updatedAt,
	}, nil
}

// SetPrice replaces the feed value and its observation time.
func (f *StaticFeed) SetPrice(value *big.Int, updatedAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.value = new(big.Int).Set(value)
	f.updatedAt = updatedAt
}
