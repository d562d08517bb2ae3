// Package devchain runs an automining development chain in-process on go-ethereum's
// simulated backend, with the well-known development accounts pre-funded.
package devchain

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/eth/ethconfig"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/node"

	"github.com/nathanTypo/lottery-pc/internal/chain"
	"github.com/nathanTypo/lottery-pc/internal/networks"
)

// DefaultBalance is what each development account starts with: 10000 ETH.
var DefaultBalance = networks.MustParseEther("10000")

// Chain is an in-process development chain. Every accepted transaction is mined into
// its own block immediately, so receipts are available as soon as SendTransaction returns.
type Chain struct {
	simulated.Client

	mu      sync.Mutex
	backend *simulated.Backend
	chainID int64
}

var (
	_ chain.Client       = (*Chain)(nil)
	_ chain.TimeTraveler = (*Chain)(nil)
)

// New starts a chain with the given ID that funds the development accounts.
func New(chainID int64) (*Chain, error) {
	alloc := types.GenesisAlloc{}
	for i, k := range networks.DevPrivateKeys {
		key, err := crypto.HexToECDSA(k)
		if err != nil {
			return nil, fmt.Errorf("parse development key %d: %w", i, err)
		}
		alloc[crypto.PubkeyToAddress(key.PublicKey)] = types.Account{Balance: new(big.Int).Set(DefaultBalance)}
	}
	return NewWithAlloc(chainID, alloc), nil
}

// NewWithAlloc starts a chain with an explicit genesis allocation.
func NewWithAlloc(chainID int64, alloc types.GenesisAlloc) *Chain {
	backend := simulated.NewBackend(alloc, withChainID(chainID))
	return &Chain{
		Client:  backend.Client(),
		backend: backend,
		chainID: chainID,
	}
}

func withChainID(id int64) func(*node.Config, *ethconfig.Config) {
	return func(_ *node.Config, ethConf *ethconfig.Config) {
		cfg := *ethConf.Genesis.Config
		cfg.ChainID = big.NewInt(id)
		ethConf.Genesis.Config = &cfg
	}
}

// ID returns the configured chain ID.
func (c *Chain) ID() int64 {
	return c.chainID
}

// SendTransaction submits the transaction and mines it.
func (c *Chain) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.Client.SendTransaction(ctx, tx); err != nil {
		return err
	}
	c.backend.Commit()
	return nil
}

// IncreaseTime mines an empty block whose timestamp is the given number of seconds
// past its parent's.
func (c *Chain) IncreaseTime(_ context.Context, seconds uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.backend.AdjustTime(time.Duration(seconds) * time.Second); err != nil {
		return fmt.Errorf("adjust time: %w", err)
	}
	return nil
}

// Mine mines an empty block.
func (c *Chain) Mine(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.backend.Commit()
	return nil
}

// Fund transfers amount from a funded account to an address.
func (c *Chain) Fund(ctx context.Context, from *chain.LocalSigner, to common.Address, amount *big.Int) error {
	sender := chain.NewSender(c, from)
	_, err := sender.Send(ctx, chain.TxRequest{To: &to, Value: amount, GasLimit: 21000, Label: "transfer"})
	return err
}

// Close shuts the backend down.
func (c *Chain) Close() error {
	return c.backend.Close()
}
