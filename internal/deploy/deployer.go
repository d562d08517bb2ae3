package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/nathanTypo/lottery-pc/internal/artifacts"
	"github.com/nathanTypo/lottery-pc/internal/chain"
	"github.com/nathanTypo/lottery-pc/internal/deployments"
	apperrors "github.com/nathanTypo/lottery-pc/internal/pkg/errors"
)

// ArtifactSource loads compiled contracts by name.
type ArtifactSource interface {
	Load(name string) (*artifacts.Artifact, error)
}

// ArtifactDeployer deploys contracts from compiled artifacts and records them in a store.
type ArtifactDeployer struct {
	artifacts ArtifactSource
	store     deployments.Store
	sender    *chain.Sender
	chainID   int64
	logger    *slog.Logger
}

var _ ContractDeployer = (*ArtifactDeployer)(nil)

// NewArtifactDeployer creates a deployer sending from sender's account.
func NewArtifactDeployer(src ArtifactSource, store deployments.Store, sender *chain.Sender, chainID int64, logger *slog.Logger) *ArtifactDeployer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArtifactDeployer{
		artifacts: src,
		store:     store,
		sender:    sender,
		chainID:   chainID,
		logger:    logger,
	}
}

// Deploy deploys name with the given constructor arguments. A stored deployment built
// from the same bytecode and arguments, whose code is still on chain, is returned
// instead of deploying again.
func (d *ArtifactDeployer) Deploy(ctx context.Context, name string, opts DeployOptions) (*deployments.Deployment, error) {
	art, err := d.artifacts.Load(name)
	if err != nil {
		return nil, err
	}

	code, err := art.Bytecode.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	encoded, err := art.EncodeConstructorArgs(opts.Args...)
	if err != nil {
		return nil, err
	}
	codeHash := crypto.Keccak256Hash(code)
	argsData := hexutil.Encode(encoded)

	existing, err := d.store.Get(name)
	switch {
	case err == nil:
		if existing.Matches(codeHash, argsData) && d.hasCode(ctx, existing.Address) {
			d.logger.Info("reusing deployment",
				slog.String("contract", name),
				slog.String("address", existing.Address.Hex()),
			)
			return existing, nil
		}
	case !errors.Is(err, apperrors.ErrDeploymentNotFound):
		return nil, err
	}

	data := make([]byte, 0, len(code)+len(encoded))
	data = append(data, code...)
	data = append(data, encoded...)

	receipt, err := d.sender.Send(ctx, chain.TxRequest{
		Data:          data,
		Label:         name + ".deploy",
		Confirmations: opts.Confirmations,
	})
	if err != nil {
		return nil, fmt.Errorf("deploy %s: %w", name, err)
	}

	record := &deployments.Deployment{
		Address:         receipt.ContractAddress,
		ABI:             art.ABI,
		TransactionHash: receipt.TxHash,
		GasUsed:         receipt.GasUsed,
		Deployer:        d.sender.From(),
		Args:            jsonArgs(opts.Args),
		ArgsData:        argsData,
		BytecodeHash:    codeHash,
		ChainID:         d.chainID,
		DeployedAt:      time.Now().UTC(),
	}
	if receipt.BlockNumber != nil {
		record.BlockNumber = receipt.BlockNumber.Uint64()
	}
	if err := d.store.Save(name, record); err != nil {
		return nil, err
	}

	d.logger.Info("deployed",
		slog.String("contract", name),
		slog.String("tx_hash", receipt.TxHash.Hex()),
		slog.String("address", receipt.ContractAddress.Hex()),
		slog.Uint64("gas_used", receipt.GasUsed),
	)
	return record, nil
}

func (d *ArtifactDeployer) hasCode(ctx context.Context, addr common.Address) bool {
	code, err := d.sender.Client().CodeAt(ctx, addr, nil)
	return err == nil && len(code) > 0
}

// jsonArgs renders constructor arguments the way they read in deployment files.
func jsonArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case *big.Int:
			out[i] = v.String()
		case [32]byte:
			out[i] = hexutil.Encode(v[:])
		case common.Hash:
			out[i] = v.Hex()
		case common.Address:
			out[i] = v.Hex()
		case []byte:
			out[i] = hexutil.Encode(v)
		default:
			out[i] = v
		}
	}
	return out
}
