package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/nathanTypo/lottery-pc/internal/networks"
)

// LocalSigner signs transactions with an in-memory private key.
type LocalSigner struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	chainID    *big.Int
}

// NewLocalSigner creates a LocalSigner from a hex-encoded private key, with or without "0x".
func NewLocalSigner(hexKey string, chainID int64) (*LocalSigner, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("failed to get public key")
	}

	return &LocalSigner{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(*publicKey),
		chainID:    big.NewInt(chainID),
	}, nil
}

// Address returns the signer's Ethereum address.
func (s *LocalSigner) Address() common.Address {
	return s.address
}

// ChainID returns the chain ID for transaction signing.
func (s *LocalSigner) ChainID() *big.Int {
	return s.chainID
}

// SignTransaction signs a transaction using the local private key.
func (s *LocalSigner) SignTransaction(_ context.Context, tx *types.Transaction) (*types.Transaction, error) {
	signer := types.LatestSignerForChainID(s.chainID)
	signedTx, err := types.SignTx(tx, signer, s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return signedTx, nil
}

// Accounts are a network's signers in named account order.
type Accounts struct {
	signers []*LocalSigner
}

// NewAccounts loads one signer per key.
func NewAccounts(keys []string, chainID int64) (*Accounts, error) {
	signers := make([]*LocalSigner, 0, len(keys))
	for i, k := range keys {
		s, err := NewLocalSigner(k, chainID)
		if err != nil {
			return nil, fmt.Errorf("account %d: %w", i, err)
		}
		signers = append(signers, s)
	}
	return &Accounts{signers: signers}, nil
}

// NewDevAccounts loads the well-known development keys. It refuses live chain IDs,
// where those keys are drained the moment they are funded.
func NewDevAccounts(chainID int64) (*Accounts, error) {
	if name, live := networks.LiveChainIDs[chainID]; live {
		return nil, fmt.Errorf("development keys cannot be used on %s (chain_id=%d): keys are publicly known", name, chainID)
	}
	return NewAccounts(networks.DevPrivateKeys, chainID)
}

// Len returns the number of accounts.
func (a *Accounts) Len() int {
	return len(a.signers)
}

// At returns the signer at an index.
func (a *Accounts) At(i int) (*LocalSigner, error) {
	if i < 0 || i >= len(a.signers) {
		return nil, fmt.Errorf("account index %d out of range (have %d)", i, len(a.signers))
	}
	return a.signers[i], nil
}

// Named returns the signer for a named account such as "deployer" or "account1".
func (a *Accounts) Named(name string) (*LocalSigner, error) {
	idx, err := networks.AccountIndex(name)
	if err != nil {
		return nil, err
	}
	return a.At(idx)
}

// Addresses returns every account address in order.
func (a *Accounts) Addresses() []common.Address {
	out := make([]common.Address, len(a.signers))
	for i, s := range a.signers {
		out[i] = s.Address()
	}
	return out
}
