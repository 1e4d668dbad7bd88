package model

import (
	"encoding/json"
	"fmt"
	"time"

	"antibtc/internal/amm"
)

// EventRecord is the normalized representation of an engine event for
// storage.
type EventRecord struct {
	Seq        uint64          `json:"seq"`
	Type       string          `json:"type"`
	OccurredAt string          `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// PoolSnapshot captures the pool state at a point in time.
type PoolSnapshot struct {
	PoolTokens    string `json:"pool_tokens"`
	PoolUSDT      string `json:"pool_usdt"`
	ReserveTokens string `json:"reserve_tokens"`
	SpotPrice     string `json:"spot_price"`
	TakenAt       string `json:"taken_at"`
}

func newRecord(eventType string, at time.Time, payload any) (EventRecord, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return EventRecord{}, fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	return EventRecord{
		Type:       eventType,
		OccurredAt: at.UTC().Format(time.RFC3339),
		Data:       data,
	}, nil
}

// FromSwap converts a swap result into event records. A swap that settled an
// opportunistic rebalance yields the rebalance records first, matching the
// order state changed.
func FromSwap(res amm.SwapResult) ([]EventRecord, error) {
	var records []EventRecord

	if res.Rebalance != nil {
		rebRecords, err := FromRebalance(*res.Rebalance)
		if err != nil {
			return nil, err
		}
		records = append(records, rebRecords...)
	}

	record, err := newRecord(EventTypeSwap, res.At, SwapEventData{
		User:        res.User,
		IsBuy:       res.IsBuy,
		TokenAmount: res.TokenAmount.Dec(),
		USDTAmount:  res.USDTAmount.Dec(),
		Fee:         res.Fee.Dec(),
		SpotPrice:   res.SpotPrice.Dec(),
	})
	if err != nil {
		return nil, err
	}
	return append(records, record), nil
}

// FromLiquidity converts a liquidity result into one event record.
func FromLiquidity(res amm.LiquidityResult) (EventRecord, error) {
	eventType := EventTypeLiquidityAdded
	if !res.Added {
		eventType = EventTypeLiquidityRemoved
	}
	return newRecord(eventType, res.At, LiquidityEventData{
		Provider:    res.Provider,
		TokenAmount: res.TokenAmount.Dec(),
		USDTAmount:  res.USDTAmount.Dec(),
	})
}

// FromRebalance converts a rebalance result into its PoolAdjusted and
// Rebalanced records.
func FromRebalance(res amm.RebalanceResult) ([]EventRecord, error) {
	adjusted, err := newRecord(EventTypePoolAdjusted, res.At, PoolAdjustedEventData{
		OldPoolTokens: res.OldPoolTokens.Dec(),
		NewPoolTokens: res.NewPoolTokens.Dec(),
		OldReserve:    res.OldReserve.Dec(),
		NewReserve:    res.NewReserve.Dec(),
		TargetPrice:   res.TargetPrice.Dec(),
	})
	if err != nil {
		return nil, err
	}

	rebalanced, err := newRecord(EventTypeRebalanced, res.At, RebalancedEventData{
		ReferencePrice: res.ReferencePrice.Dec(),
		UpdatedAt:      res.At.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, err
	}
	return []EventRecord{adjusted, rebalanced}, nil
}

// FromPoolInfo converts a pool snapshot into its storage form.
func FromPoolInfo(info amm.PoolInfo, at time.Time) PoolSnapshot {
	return PoolSnapshot{
		PoolTokens:    info.PoolTokens.Dec(),
		PoolUSDT:      info.PoolUSDT.Dec(),
		ReserveTokens: info.ReserveTokens.Dec(),
		SpotPrice:     info.SpotPrice.Dec(),
		TakenAt:       at.UTC().Format(time.RFC3339),
	}
}
