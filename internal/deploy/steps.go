package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nathanTypo/lottery-pc/internal/contracts"
	"github.com/nathanTypo/lottery-pc/internal/networks"
)

// VRFCoordinatorV2Mock constructor values and the amount the dev subscription is funded with.
var (
	// BaseFee is the premium, in LINK, charged per request.
	BaseFee = networks.MustParseEther("0.25")
	// GasPriceLink is the LINK per gas the mock charges for the callback.
	GasPriceLink = big.NewInt(1e9)
	// SubscriptionFundAmount is 2 LINK.
	SubscriptionFundAmount = networks.MustParseEther("2")
)

const separator = "----------------------------------------------------------"

// Step is one deploy script.
type Step interface {
	Name() string
	Tags() []string
	Run(ctx context.Context, env *Environment) error
}

// DefaultSteps returns the deploy scripts in execution order.
func DefaultSteps() []Step {
	return []Step{mocksStep{}, lotteryStep{}, frontEndStep{}}
}

type mocksStep struct{}

func (mocksStep) Name() string   { return "00-deploy-mocks" }
func (mocksStep) Tags() []string { return []string{"all", "mocks"} }

func (mocksStep) Run(ctx context.Context, env *Environment) error {
	if env.Network.ChainID != networks.DevelopmentChainID {
		return nil
	}
	log := env.logger()

	log.Info("Local network detected! Deploying mocks...")
	if _, err := env.Deployer.Deploy(ctx, contracts.VRFCoordinatorMockName, DeployOptions{
		Args: []any{BaseFee, GasPriceLink},
	}); err != nil {
		return err
	}
	log.Info("Mocks Deployed!")
	log.Info(separator)
	log.Info("You are deploying to a local network, you'll need a local network running to interact")
	log.Info("Please run `lottery status --network localhost` to interact with the deployed smart contracts!")
	log.Info(separator)
	return nil
}

type lotteryStep struct{}

func (lotteryStep) Name() string   { return "01-deploy-lottery" }
func (lotteryStep) Tags() []string { return []string{"all", "lottery"} }

func (lotteryStep) Run(ctx context.Context, env *Environment) error {
	log := env.logger()
	params := env.Params

	var (
		coordinatorAddr common.Address
		subID           uint64
		mock            Coordinator
	)

	if env.Network.ChainID == networks.DevelopmentChainID {
		d, err := env.Store.Get(contracts.VRFCoordinatorMockName)
		if err != nil {
			return fmt.Errorf("load coordinator mock: %w", err)
		}
		if env.Coordinator == nil {
			return fmt.Errorf("no coordinator binding configured")
		}
		mock, err = env.Coordinator(d)
		if err != nil {
			return err
		}
		coordinatorAddr = d.Address

		subID, _, err = mock.CreateSubscription(ctx)
		if err != nil {
			return fmt.Errorf("create subscription: %w", err)
		}
		if _, err := mock.FundSubscription(ctx, subID, SubscriptionFundAmount); err != nil {
			return fmt.Errorf("fund subscription: %w", err)
		}
	} else {
		if err := params.Validate(env.Network.ChainID); err != nil {
			return err
		}
		coordinatorAddr = params.VRFCoordinatorV2
		subID = params.SubscriptionID
	}

	confirmations := uint64(1)
	if !env.Network.IsDevelopment() {
		confirmations = networks.VerificationBlockConfirmations
	}

	args := LotteryArgs(coordinatorAddr, params, subID)
	lottery, err := env.Deployer.Deploy(ctx, contracts.LotteryName, DeployOptions{
		Args:          args,
		Confirmations: confirmations,
	})
	if err != nil {
		return err
	}

	if env.Network.IsDevelopment() && mock != nil {
		if _, err := mock.AddConsumer(ctx, subID, lottery.Address); err != nil {
			return fmt.Errorf("add consumer: %w", err)
		}
	}

	if !env.Network.IsDevelopment() && env.Verifier != nil {
		log.Info("Verifying...")
		if err := env.Verifier.Verify(ctx, env.Network.ChainID, contracts.LotteryName, lottery.Address, args...); err != nil {
			log.Warn("verification failed", slog.String("contract", contracts.LotteryName), slog.String("error", err.Error()))
		}
	}
	log.Info(separator)
	return nil
}

// LotteryArgs returns the Lottery constructor arguments in declaration order.
func LotteryArgs(coordinator common.Address, p networks.Params, subID uint64) []any {
	return []any{
		coordinator,
		p.EntranceFee,
		[32]byte(p.GasLane),
		subID,
		p.CallbackGasLimit,
		p.KeepersUpdateInterval,
	}
}

type frontEndStep struct{}

func (frontEndStep) Name() string   { return "99-update-front-end" }
func (frontEndStep) Tags() []string { return []string{"all", "frontend"} }

func (frontEndStep) Run(ctx context.Context, env *Environment) error {
	if env.FrontEnd == nil {
		return nil
	}
	log := env.logger()

	log.Info("Updating front end")
	d, err := env.Store.Get(contracts.LotteryName)
	if err != nil {
		return err
	}
	if err := env.FrontEnd.UpdateContractAddresses(env.Network.ChainID, d.Address); err != nil {
		return fmt.Errorf("update contract addresses: %w", err)
	}
	if err := env.FrontEnd.UpdateABI(d.ABI); err != nil {
		return fmt.Errorf("update abi: %w", err)
	}
	log.Info("Front end updated", slog.Int64("chain_id", env.Network.ChainID), slog.String("address", d.Address.Hex()))
	return nil
}
