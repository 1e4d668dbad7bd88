package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"antibtc/internal/amm"
	"antibtc/internal/config"
	"antibtc/internal/fixedpoint"
	"antibtc/internal/sim"
	"antibtc/internal/storage"
	"antibtc/internal/storage/postgres"
)

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSimulate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	engineCfg, err := engineConfig(cfg.Engine)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sink storage.Sink
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		sink = store
	} else {
		sink = storage.NewJsonlSink(cfg.Out, cfg.SnapshotsOut)
	}

	runner, err := sim.NewRunner(ctx, sim.RunConfig{
		Steps:                 cfg.Steps,
		Seed:                  cfg.Seed,
		Traders:               cfg.Traders,
		MaxTradeUSDT:          cfg.MaxTradeUSDT,
		FundingUSDT:           cfg.FundingUSDT,
		StepInterval:          cfg.StepInterval,
		VolatilityBps:         cfg.VolatilityBps,
		SnapshotEvery:         cfg.SnapshotEvery,
		BatchSize:             cfg.BatchSize,
		InitialReferencePrice: cfg.Engine.CalibrationPrice,
	}, engineCfg, sink, logger)
	if err != nil {
		return err
	}

	logger.Info("simulation start",
		zap.Int("steps", cfg.Steps),
		zap.Int64("seed", cfg.Seed),
		zap.Int("traders", cfg.Traders),
		zap.Uint64("max_trade_usdt", cfg.MaxTradeUSDT),
		zap.Uint64("volatility_bps", cfg.VolatilityBps),
		zap.String("out", cfg.Out),
		zap.Bool("postgres", cfg.PGDSN != ""),
	)

	return runner.Run(ctx)
}

// engineConfig converts whole-unit CLI values into the engine's raw
// fixed-point genesis parameters.
func engineConfig(ec config.EngineConfig) (amm.Config, error) {
	cfg := amm.DefaultConfig()

	if ec.CalibrationPrice == 0 {
		return amm.Config{}, fmt.Errorf("calibration price must be positive")
	}
	cfg.K = uint256.NewInt(ec.CalibrationPrice)
	cfg.FeeBps = ec.FeeBps
	cfg.RebalanceInterval = ec.RebalanceInterval
	cfg.StaleAfter = ec.StaleAfter

	if ec.DriftPercent <= 0 || ec.DriftPercent > math.MaxUint64/float64(amm.PercentScale) {
		return amm.Config{}, fmt.Errorf("drift percent %v out of range", ec.DriftPercent)
	}
	cfg.DriftThreshold = uint256.NewInt(uint64(ec.DriftPercent * amm.PercentScale))

	var err error
	cfg.InitialPoolTokens, err = fixedpoint.Rescale(uint256.NewInt(ec.InitialPoolTokens), 0, cfg.Decimals.Token)
	if err != nil {
		return amm.Config{}, fmt.Errorf("pool tokens: %w", err)
	}
	cfg.InitialPoolUSDT, err = fixedpoint.Rescale(uint256.NewInt(ec.InitialPoolUSDT), 0, cfg.Decimals.USDT)
	if err != nil {
		return amm.Config{}, fmt.Errorf("pool usdt: %w", err)
	}
	cfg.InitialReserveTokens, err = fixedpoint.Rescale(uint256.NewInt(ec.ReserveTokens), 0, cfg.Decimals.Token)
	if err != nil {
		return amm.Config{}, fmt.Errorf("reserve tokens: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return amm.Config{}, err
	}
	return cfg, nil
}
