package main

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"antibtc/internal/amm"
	"antibtc/internal/config"
	"antibtc/internal/fixedpoint"
	"antibtc/internal/oracle"
)

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.ReferencePrice == 0 {
		return fmt.Errorf("reference price is required")
	}

	engineCfg, err := engineConfig(cfg.Engine)
	if err != nil {
		return err
	}

	feed := oracle.NewStaticFeed(
		new(big.Int).SetUint64(cfg.ReferencePrice),
		engineCfg.Decimals.Price,
		time.Now(),
	)

	ctx := context.Background()
	engine, err := amm.NewEngine(ctx, engineCfg, feed, logger)
	if err != nil {
		return err
	}

	spot, err := engine.Price()
	if err != nil {
		return err
	}
	anti, err := engine.AntiPrice(uint256.NewInt(cfg.ReferencePrice))
	if err != nil {
		return err
	}

	fmt.Printf("reference price: %d (8 decimals)\n", cfg.ReferencePrice)
	fmt.Printf("target anti price: %s\n", anti.Dec())
	fmt.Printf("pool spot price: %s\n", spot.Dec())

	fees := engine.FeeInfo()
	fmt.Printf("fee: %d bps\n", fees.FeeBps)

	if cfg.USDTIn > 0 {
		usdtIn, err := fixedpoint.Rescale(uint256.NewInt(cfg.USDTIn), 0, engineCfg.Decimals.USDT)
		if err != nil {
			return err
		}
		out, err := engine.QuoteTokensOut(usdtIn)
		if err != nil {
			return err
		}
		fmt.Printf("buy %d USDT -> %s token units\n", cfg.USDTIn, out.Dec())
	}

	if cfg.TokensIn > 0 {
		tokensIn, err := fixedpoint.Rescale(uint256.NewInt(cfg.TokensIn), 0, engineCfg.Decimals.Token)
		if err != nil {
			return err
		}
		out, err := engine.QuoteUSDTOut(tokensIn)
		if err != nil {
			return err
		}
		fmt.Printf("sell %d tokens -> %s USDT units\n", cfg.TokensIn, out.Dec())
	}

	return nil
}
