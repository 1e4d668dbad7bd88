package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EngineConfig holds the engine genesis knobs shared by subcommands.
type EngineConfig struct {
	FeeBps            uint64
	RebalanceInterval time.Duration
	DriftPercent      float64
	InitialPoolTokens uint64
	InitialPoolUSDT   uint64
	ReserveTokens     uint64
	CalibrationPrice  uint64
	StaleAfter        time.Duration
}

// SimulateConfig holds configuration for the simulate subcommand.
type SimulateConfig struct {
	Engine EngineConfig

	Steps         int
	Seed          int64
	Traders       int
	MaxTradeUSDT  uint64
	FundingUSDT   uint64
	StepInterval  time.Duration
	VolatilityBps uint64
	SnapshotEvery int
	BatchSize     int

	Out          string
	SnapshotsOut string
	PGDSN        string
	LogLevel     string
}

// PriceConfig holds configuration for the price subcommand.
type PriceConfig struct {
	RPCURL       string
	Feed         string
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// QuoteConfig holds configuration for the quote subcommand.
type QuoteConfig struct {
	Engine EngineConfig

	ReferencePrice uint64
	USDTIn         uint64
	TokensIn       uint64
	LogLevel       string
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("ANTIBTC")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	setEngineDefaults(v)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

func setEngineDefaults(v *viper.Viper) {
	v.SetDefault("fee-bps", uint64(30))
	v.SetDefault("rebalance-interval", 8*time.Hour)
	v.SetDefault("drift-pct", 5.0)
	v.SetDefault("pool-tokens", uint64(1_000_000))
	v.SetDefault("pool-usdt", uint64(1_000_000))
	v.SetDefault("reserve-tokens", uint64(10_000_000))
	v.SetDefault("calibration-price", uint64(2_000_000_000_000))
	v.SetDefault("stale-after", time.Hour)
	v.SetDefault("log-level", "info")
}

func engineFromViper(v *viper.Viper) EngineConfig {
	return EngineConfig{
		FeeBps:            v.GetUint64("fee-bps"),
		RebalanceInterval: v.GetDuration("rebalance-interval"),
		DriftPercent:      v.GetFloat64("drift-pct"),
		InitialPoolTokens: v.GetUint64("pool-tokens"),
		InitialPoolUSDT:   v.GetUint64("pool-usdt"),
		ReserveTokens:     v.GetUint64("reserve-tokens"),
		CalibrationPrice:  v.GetUint64("calibration-price"),
		StaleAfter:        v.GetDuration("stale-after"),
	}
}

// LoadSimulate merges config file, environment variables, and flags.
func LoadSimulate(cfgFile string, flags *pflag.FlagSet) (SimulateConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return SimulateConfig{}, err
	}

	v.SetDefault("steps", 1000)
	v.SetDefault("traders", 10)
	v.SetDefault("max-trade-usdt", uint64(10_000))
	v.SetDefault("funding-usdt", uint64(100_000))
	v.SetDefault("step-interval", time.Hour)
	v.SetDefault("volatility-bps", uint64(100))
	v.SetDefault("snapshot-every", 10)
	v.SetDefault("batch-size", 100)
	v.SetDefault("out", "./data/events.jsonl")
	v.SetDefault("snapshots-out", "./data/snapshots.jsonl")

	return SimulateConfig{
		Engine:        engineFromViper(v),
		Steps:         v.GetInt("steps"),
		Seed:          v.GetInt64("seed"),
		Traders:       v.GetInt("traders"),
		MaxTradeUSDT:  v.GetUint64("max-trade-usdt"),
		FundingUSDT:   v.GetUint64("funding-usdt"),
		StepInterval:  v.GetDuration("step-interval"),
		VolatilityBps: v.GetUint64("volatility-bps"),
		SnapshotEvery: v.GetInt("snapshot-every"),
		BatchSize:     v.GetInt("batch-size"),
		Out:           v.GetString("out"),
		SnapshotsOut:  v.GetString("snapshots-out"),
		PGDSN:         v.GetString("pg-dsn"),
		LogLevel:      v.GetString("log-level"),
	}, nil
}

// LoadPrice merges config file, environment variables, and flags.
func LoadPrice(cfgFile string, flags *pflag.FlagSet) (PriceConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return PriceConfig{}, err
	}

	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)

	return PriceConfig{
		RPCURL:       v.GetString("rpc"),
		Feed:         v.GetString("feed"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
	}, nil
}

// LoadQuote merges config file, environment variables, and flags.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return QuoteConfig{}, err
	}

	v.SetDefault("ref-price", uint64(2_000_000_000_000))

	return QuoteConfig{
		Engine:         engineFromViper(v),
		ReferencePrice: v.GetUint64("ref-price"),
		USDTIn:         v.GetUint64("usdt"),
		TokensIn:       v.GetUint64("tokens"),
		LogLevel:       v.GetString("log-level"),
	}, nil
}
