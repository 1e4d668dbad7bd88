package oracle

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"antibtc/internal/chain"
)

const aggregatorABIJSON = `[
  {"inputs": [], "name": "latestRoundData", "outputs": [
    {"internalType": "uint80", "name": "roundId", "type": "uint80"},
    {"internalType": "int256", "name": "answer", "type": "int256"},
    {"internalType": "uint256", "name": "startedAt", "type": "uint256"},
    {"internalType": "uint256", "name": "updatedAt", "type": "uint256"},
    {"internalType": "uint80", "name": "answeredInRound", "type": "uint80"}
  ], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "decimals", "outputs": [
    {"internalType": "uint8", "name": "", "type": "uint8"}
  ], "stateMutability": "view", "type": "function"}
]`

var (
	aggregatorABI    abi.ABI
	aggregatorOnce   sync.Once
	aggregatorABIErr error
)

func getAggregatorABI() (abi.ABI, error) {
	aggregatorOnce.Do(func() {
		aggregatorABI, aggregatorABIErr = abi.JSON(strings.NewReader(aggregatorABIJSON))
	})
	return aggregatorABI, aggregatorABIErr
}

// AggregatorFeed reads a Chainlink-compatible price aggregator contract.
type AggregatorFeed struct {
	client       *chain.Client
	address      common.Address
	maxRetries   int
	retryBackoff time.Duration

	decimalsOnce sync.Once
	decimals     uint8
	decimalsErr  error
}

// NewAggregatorFeed builds a feed reading latestRoundData from the given
// aggregator contract address.
func NewAggregatorFeed(client *chain.Client, address string, maxRetries int, retryBackoff time.Duration) (*AggregatorFeed, error) {
	if client == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid aggregator address %q", address)
	}
	return &AggregatorFeed{
		client:       client,
		address:      common.HexToAddress(address),
		maxRetries:   maxRetries,
		retryBackoff: retryBackoff,
	}, nil
}

// LatestPrice fetches the latest round from the aggregator.
func (f *AggregatorFeed) LatestPrice(ctx context.Context) (Sample, error) {
	decimals, err := f.feedDecimals(ctx)
	if err != nil {
		return Sample{}, err
	}

	var sample Sample
	err = withRetry(ctx, f.maxRetries, f.retryBackoff, func(ctx context.Context) error {
		answer, updatedAt, callErr := f.latestRoundData(ctx)
		if callErr != nil {
			return callErr
		}
		sample = Sample{
			Value:     answer,
			Decimals:  decimals,
			UpdatedAt: time.Unix(updatedAt.Int64(), 0).UTC(),
		}
		return nil
	})
	if err != nil {
		return Sample{}, err
	}
	return sample, nil
}

func (f *AggregatorFeed) feedDecimals(ctx context.Context) (uint8, error) {
	f.decimalsOnce.Do(func() {
		f.decimalsErr = withRetry(ctx, f.maxRetries, f.retryBackoff, func(ctx context.Context) error {
			aggABI, err := getAggregatorABI()
			if err != nil {
				return err
			}

			data, err := aggABI.Pack("decimals")
			if err != nil {
				return fmt.Errorf("pack decimals: %w", err)
			}

			resp, err := f.client.CallContract(ctx, ethereum.CallMsg{To: &f.address, Data: data})
			if err != nil {
				return fmt.Errorf("call decimals: %w", err)
			}

			values, err := aggABI.Unpack("decimals", resp)
			if err != nil {
				return fmt.Errorf("unpack decimals: %w", err)
			}
			if len(values) != 1 {
				return fmt.Errorf("decimals return size %d", len(values))
			}
			dec, ok := values[0].(uint8)
			if !ok {
				return fmt.Errorf("decimals unexpected type %T", values[0])
			}
			f.decimals = dec
			return nil
		})
	})
	return f.decimals, f.decimalsErr
}

func (f *AggregatorFeed) latestRoundData(ctx context.Context) (*big.Int, *big.Int, error) {
	aggABI, err := getAggregatorABI()
	if err != nil {
		return nil, nil, err
	}

	data, err := aggABI.Pack("latestRoundData")
	if err != nil {
		return nil, nil, fmt.Errorf("pack latestRoundData: %w", err)
	}

	resp, err := f.client.CallContract(ctx, ethereum.CallMsg{To: &f.address, Data: data})
	if err != nil {
		return nil, nil, fmt.Errorf("call latestRoundData: %w", err)
	}

	values, err := aggABI.Unpack("latestRoundData", resp)
	if err != nil {
		return nil, nil, fmt.Errorf("unpack latestRoundData: %w", err)
	}
	if len(values) != 5 {
		return nil, nil, fmt.Errorf("latestRoundData return size %d", len(values))
	}

	answer, ok := values[1].(*big.Int)
	if !ok {
		return nil, nil, fmt.Errorf("answer unexpected type %T", values[1])
	}
	updatedAt, ok := values[3].(*big.Int)
	if !ok {
		return nil, nil, fmt.Errorf("updatedAt unexpected type %T", values[3])
	}
	return answer, updatedAt, nil
}
