package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"antibtc/internal/amm"
	"antibtc/internal/chain"
	"antibtc/internal/config"
	"antibtc/internal/fixedpoint"
	"antibtc/internal/oracle"
	"antibtc/internal/pricing"
)

func runPrice(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPrice(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if cfg.Feed == "" {
		return fmt.Errorf("feed address is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()

	feed, err := oracle.NewAggregatorFeed(client, cfg.Feed, cfg.MaxRetries, cfg.RetryBackoff)
	if err != nil {
		return err
	}

	sample, err := feed.LatestPrice(ctx)
	if err != nil {
		return fmt.Errorf("read price: %w", err)
	}

	logger.Info("latest price",
		zap.String("feed", cfg.Feed),
		zap.String("value", sample.Value.String()),
		zap.Uint8("decimals", sample.Decimals),
		zap.Time("updated_at", sample.UpdatedAt),
	)

	fmt.Printf("%s (decimals=%d, updated=%s)\n", sample.Value, sample.Decimals, sample.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"))

	// The inverse target implied by the default calibration, for a quick
	// read on where a rebalance would steer the pool.
	defaults := amm.DefaultConfig()
	model, err := pricing.NewInverseModel(defaults.K, defaults.Decimals.Price, defaults.MaxAntiPrice)
	if err != nil {
		return err
	}
	value, overflow := uint256.FromBig(sample.Value)
	if overflow {
		return fmt.Errorf("reference price exceeds 256 bits")
	}
	ref, err := fixedpoint.Rescale(value, sample.Decimals, defaults.Decimals.Price)
	if err != nil {
		return err
	}
	anti, err := model.AntiPrice(ref)
	if err != nil {
		return err
	}
	fmt.Printf("anti price: %s (decimals=%d)\n", anti.Dec(), defaults.Decimals.Price)
	return nil
}
