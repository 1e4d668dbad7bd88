package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/holiman/uint256"

	"antibtc/internal/amm"
)

func TestFromSwapOrdersRebalanceFirst(t *testing.T) {
	at := time.Unix(1_700_000_000, 0).UTC()
	res := amm.SwapResult{
		User:        "trader-000",
		IsBuy:       true,
		TokenAmount: uint256.NewInt(996),
		USDTAmount:  uint256.NewInt(1000),
		Fee:         uint256.NewInt(3),
		SpotPrice:   uint256.NewInt(100_000_000),
		Rebalance: &amm.RebalanceResult{
			OldPoolTokens:  uint256.NewInt(100),
			NewPoolTokens:  uint256.NewInt(110),
			OldReserve:     uint256.NewInt(50),
			NewReserve:     uint256.NewInt(40),
			ReferencePrice: uint256.NewInt(2_000_000_000_000),
			TargetPrice:    uint256.NewInt(100_000_000),
			At:             at,
		},
		At: at,
	}

	records, err := FromSwap(res)
	if err != nil {
		t.Fatalf("from swap: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	// State changed rebalance-first, so the records follow that order.
	want := []string{EventTypePoolAdjusted, EventTypeRebalanced, EventTypeSwap}
	for i, record := range records {
		if record.Type != want[i] {
			t.Fatalf("record %d type = %s, want %s", i, record.Type, want[i])
		}
	}

	var swap SwapEventData
	if err := json.Unmarshal(records[2].Data, &swap); err != nil {
		t.Fatalf("unmarshal swap: %v", err)
	}
	if swap.User != "trader-000" || !swap.IsBuy || swap.Fee != "3" {
		t.Fatalf("swap data = %+v", swap)
	}
}

func TestFromSwapWithoutRebalance(t *testing.T) {
	res := amm.SwapResult{
		User:        "trader-001",
		TokenAmount: uint256.NewInt(500),
		USDTAmount:  uint256.NewInt(498),
		Fee:         uint256.NewInt(1),
		SpotPrice:   uint256.NewInt(99_000_000),
		At:          time.Unix(1_700_000_000, 0).UTC(),
	}

	records, err := FromSwap(res)
	if err != nil {
		t.Fatalf("from swap: %v", err)
	}
	if len(records) != 1 || records[0].Type != EventTypeSwap {
		t.Fatalf("records = %+v", records)
	}
}

func TestFromLiquidityTypes(t *testing.T) {
	base := amm.LiquidityResult{
		Provider:    "trader-002",
		TokenAmount: uint256.NewInt(10),
		USDTAmount:  uint256.NewInt(10),
		At:          time.Unix(1_700_000_000, 0).UTC(),
	}

	base.Added = true
	record, err := FromLiquidity(base)
	if err != nil {
		t.Fatalf("from liquidity: %v", err)
	}
	if record.Type != EventTypeLiquidityAdded {
		t.Fatalf("type = %s, want %s", record.Type, EventTypeLiquidityAdded)
	}

	base.Added = false
	record, err = FromLiquidity(base)
	if err != nil {
		t.Fatalf("from liquidity: %v", err)
	}
	if record.Type != EventTypeLiquidityRemoved {
		t.Fatalf("type = %s, want %s", record.Type, EventTypeLiquidityRemoved)
	}
}
