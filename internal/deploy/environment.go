// Package deploy runs the ordered, tagged deploy steps that put the Lottery and its
// VRF coordinator mock on a network.
package deploy

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/nathanTypo/lottery-pc/internal/deployments"
	"github.com/nathanTypo/lottery-pc/internal/networks"
)

// ContractDeployer deploys a named contract or reuses an identical earlier deployment.
type ContractDeployer interface {
	Deploy(ctx context.Context, name string, opts DeployOptions) (*deployments.Deployment, error)
}

// DeployOptions are the per-contract deploy settings.
type DeployOptions struct {
	Args []any
	// Confirmations is how many blocks to wait for; zero uses the sender's default.
	Confirmations uint64
}

// Coordinator is the subset of the VRF coordinator mock the lottery step drives.
type Coordinator interface {
	CreateSubscription(ctx context.Context) (uint64, *types.Receipt, error)
	FundSubscription(ctx context.Context, subID uint64, amount *big.Int) (*types.Receipt, error)
	AddConsumer(ctx context.Context, subID uint64, consumer common.Address) (*types.Receipt, error)
}

// CoordinatorFactory binds a coordinator client to a stored mock deployment.
type CoordinatorFactory func(d *deployments.Deployment) (Coordinator, error)

// Verifier submits a deployed contract for block-explorer verification.
type Verifier interface {
	Verify(ctx context.Context, chainID int64, contract string, address common.Address, args ...any) error
}

// FrontEndUpdater receives the Lottery address and ABI.
type FrontEndUpdater interface {
	UpdateContractAddresses(chainID int64, address common.Address) error
	UpdateABI(abiJSON json.RawMessage) error
}

// Environment is everything a step needs to act on one network.
type Environment struct {
	Network *networks.Network
	Params  networks.Params
	// From is the deployer account.
	From        common.Address
	Deployer    ContractDeployer
	Store       deployments.Store
	Coordinator CoordinatorFactory
	// Verifier is nil when no explorer API key is configured.
	Verifier Verifier
	// FrontEnd is nil unless UPDATE_FRONT_END is set.
	FrontEnd FrontEndUpdater
	// Reset drops stored deployments before the run.
	Reset  bool
	Logger *slog.Logger
}

func (e *Environment) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}
