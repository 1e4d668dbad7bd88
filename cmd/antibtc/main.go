package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "antibtc",
		Short:        "Inverse synthetic asset engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a deterministic trading simulation",
		RunE:  runSimulate,
	}

	simulateCmd.Flags().Int("steps", 1000, "simulation steps")
	simulateCmd.Flags().Int64("seed", 0, "random seed")
	simulateCmd.Flags().Int("traders", 10, "number of traders")
	simulateCmd.Flags().Uint64("max-trade-usdt", 10_000, "largest single trade (whole USDT)")
	simulateCmd.Flags().Uint64("funding-usdt", 100_000, "per-trader genesis balance (whole USDT)")
	simulateCmd.Flags().Duration("step-interval", time.Hour, "simulated time per step")
	simulateCmd.Flags().Uint64("volatility-bps", 100, "largest per-step reference price move")
	simulateCmd.Flags().Int("snapshot-every", 10, "steps between pool snapshots")
	simulateCmd.Flags().Int("batch-size", 100, "events per storage flush")
	simulateCmd.Flags().String("out", "./data/events.jsonl", "output events JSONL path")
	simulateCmd.Flags().String("snapshots-out", "./data/snapshots.jsonl", "output snapshots JSONL path")
	simulateCmd.Flags().String("pg-dsn", "", "Postgres DSN (overrides JSONL output)")
	addEngineFlags(simulateCmd)
	simulateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(simulateCmd)

	priceCmd := &cobra.Command{
		Use:   "price",
		Short: "Read the reference price from a Chainlink aggregator",
		RunE:  runPrice,
	}

	priceCmd.Flags().String("rpc", "", "RPC URL")
	priceCmd.Flags().String("feed", "", "aggregator contract address")
	priceCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	priceCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	priceCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(priceCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote swaps against a fresh genesis pool",
		RunE:  runQuote,
	}

	quoteCmd.Flags().Uint64("ref-price", 2_000_000_000_000, "reference price (8 decimals)")
	quoteCmd.Flags().Uint64("usdt", 0, "buy quote input (whole USDT)")
	quoteCmd.Flags().Uint64("tokens", 0, "sell quote input (whole tokens)")
	addEngineFlags(quoteCmd)
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().Uint64("fee-bps", 30, "swap fee in basis points")
	cmd.Flags().Duration("rebalance-interval", 8*time.Hour, "time between scheduled rebalances")
	cmd.Flags().Float64("drift-pct", 5.0, "reference price drift that forces a rebalance (percent)")
	cmd.Flags().Uint64("pool-tokens", 1_000_000, "genesis pool tokens (whole tokens)")
	cmd.Flags().Uint64("pool-usdt", 1_000_000, "genesis pool USDT (whole USDT)")
	cmd.Flags().Uint64("reserve-tokens", 10_000_000, "genesis reserve tokens (whole tokens)")
	cmd.Flags().Uint64("calibration-price", 2_000_000_000_000, "reference price where one token is one USDT (8 decimals)")
	cmd.Flags().Duration("stale-after", time.Hour, "oldest acceptable oracle sample (0 disables)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
