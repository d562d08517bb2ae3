// Package chain provides the Ethereum client surface, local signers and the
// transaction sender used by the deploy steps and scripts.
package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Client is the subset of the JSON-RPC surface the tooling relies on.
// *ethclient.Client and the in-process development chain both satisfy it.
type Client interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// TimeTraveler moves a development chain's clock forward.
type TimeTraveler interface {
	IncreaseTime(ctx context.Context, seconds uint64) error
	Mine(ctx context.Context) error
}

// RPCClient is a dialed JSON-RPC endpoint.
type RPCClient struct {
	*ethclient.Client
}

var (
	_ Client       = (*RPCClient)(nil)
	_ TimeTraveler = (*RPCClient)(nil)
)

// Dial connects to an Ethereum JSON-RPC endpoint and checks the chain ID it reports.
func Dial(ctx context.Context, url string, wantChainID int64) (*RPCClient, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", url, err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("get chain ID: %w", err)
	}
	if wantChainID != 0 && chainID.Int64() != wantChainID {
		client.Close()
		return nil, fmt.Errorf("endpoint %s reports chain %s, expected %d", url, chainID, wantChainID)
	}

	return &RPCClient{Client: client}, nil
}

// IncreaseTime calls evm_increaseTime, which hardhat and anvil nodes both accept.
func (c *RPCClient) IncreaseTime(ctx context.Context, seconds uint64) error {
	var result any
	if err := c.Client.Client().CallContext(ctx, &result, "evm_increaseTime", seconds); err != nil {
		return fmt.Errorf("evm_increaseTime: %w", err)
	}
	return nil
}

// Mine calls evm_mine.
func (c *RPCClient) Mine(ctx context.Context) error {
	var result any
	if err := c.Client.Client().CallContext(ctx, &result, "evm_mine"); err != nil {
		return fmt.Errorf("evm_mine: %w", err)
	}
	return nil
}
