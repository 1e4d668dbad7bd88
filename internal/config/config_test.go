package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func simulateFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("simulate", pflag.ContinueOnError)
	flags.Int("steps", 1000, "")
	flags.Int64("seed", 0, "")
	flags.Int("traders", 10, "")
	flags.Uint64("max-trade-usdt", 10_000, "")
	flags.Uint64("funding-usdt", 100_000, "")
	flags.Duration("step-interval", time.Hour, "")
	flags.Uint64("volatility-bps", 100, "")
	flags.Int("snapshot-every", 10, "")
	flags.Int("batch-size", 100, "")
	flags.String("out", "./data/events.jsonl", "")
	flags.String("snapshots-out", "./data/snapshots.jsonl", "")
	flags.String("pg-dsn", "", "")
	flags.Uint64("fee-bps", 30, "")
	flags.Duration("rebalance-interval", 8*time.Hour, "")
	flags.Float64("drift-pct", 5.0, "")
	flags.Uint64("pool-tokens", 1_000_000, "")
	flags.Uint64("pool-usdt", 1_000_000, "")
	flags.Uint64("reserve-tokens", 10_000_000, "")
	flags.Uint64("calibration-price", 2_000_000_000_000, "")
	flags.Duration("stale-after", time.Hour, "")
	flags.String("log-level", "info", "")
	return flags
}

func TestLoadSimulateDefaults(t *testing.T) {
	cfg, err := LoadSimulate("", simulateFlags())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Steps != 1000 {
		t.Fatalf("steps = %d, want 1000", cfg.Steps)
	}
	if cfg.Engine.FeeBps != 30 {
		t.Fatalf("fee bps = %d, want 30", cfg.Engine.FeeBps)
	}
	if cfg.Engine.RebalanceInterval != 8*time.Hour {
		t.Fatalf("rebalance interval = %s, want 8h", cfg.Engine.RebalanceInterval)
	}
	if cfg.Engine.CalibrationPrice != 2_000_000_000_000 {
		t.Fatalf("calibration price = %d", cfg.Engine.CalibrationPrice)
	}
	if cfg.Out != "./data/events.jsonl" {
		t.Fatalf("out = %q", cfg.Out)
	}
}

func TestLoadSimulateEnvOverridesDefault(t *testing.T) {
	t.Setenv("ANTIBTC_STEPS", "50")
	t.Setenv("ANTIBTC_FEE_BPS", "25")

	cfg, err := LoadSimulate("", simulateFlags())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Steps != 50 {
		t.Fatalf("steps = %d, want env value 50", cfg.Steps)
	}
	if cfg.Engine.FeeBps != 25 {
		t.Fatalf("fee bps = %d, want env value 25", cfg.Engine.FeeBps)
	}
}

func TestLoadSimulateFlagOverridesEnv(t *testing.T) {
	t.Setenv("ANTIBTC_STEPS", "50")

	flags := simulateFlags()
	if err := flags.Set("steps", "7"); err != nil {
		t.Fatalf("set flag: %v", err)
	}

	cfg, err := LoadSimulate("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Steps != 7 {
		t.Fatalf("steps = %d, want flag value 7", cfg.Steps)
	}
}

func TestLoadQuoteDefaults(t *testing.T) {
	flags := pflag.NewFlagSet("quote", pflag.ContinueOnError)
	flags.Uint64("ref-price", 2_000_000_000_000, "")
	flags.Uint64("usdt", 0, "")
	flags.Uint64("tokens", 0, "")

	cfg, err := LoadQuote("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ReferencePrice != 2_000_000_000_000 {
		t.Fatalf("ref price = %d", cfg.ReferencePrice)
	}
	if cfg.Engine.DriftPercent != 5.0 {
		t.Fatalf("drift pct = %v, want 5.0", cfg.Engine.DriftPercent)
	}
}
