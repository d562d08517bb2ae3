// Package app wires configuration, chain access, deployment records and the optional
// run history, lock and metrics into one handle the CLI and tests work from.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/nathanTypo/lottery-pc/internal/artifacts"
	"github.com/nathanTypo/lottery-pc/internal/chain"
	"github.com/nathanTypo/lottery-pc/internal/chain/devchain"
	"github.com/nathanTypo/lottery-pc/internal/config"
	"github.com/nathanTypo/lottery-pc/internal/contracts"
	"github.com/nathanTypo/lottery-pc/internal/deploy"
	"github.com/nathanTypo/lottery-pc/internal/deployments"
	"github.com/nathanTypo/lottery-pc/internal/frontend"
	"github.com/nathanTypo/lottery-pc/internal/lock"
	"github.com/nathanTypo/lottery-pc/internal/metrics"
	"github.com/nathanTypo/lottery-pc/internal/networks"
	apperrors "github.com/nathanTypo/lottery-pc/internal/pkg/errors"
	"github.com/nathanTypo/lottery-pc/internal/repository"
	"github.com/nathanTypo/lottery-pc/internal/verify"
)

// App is an opened network with everything needed to deploy and interact.
type App struct {
	Config    *config.Config
	Network   *networks.Network
	Params    networks.Params
	Client    chain.Client
	Accounts  *chain.Accounts
	Artifacts *artifacts.Loader
	Store     deployments.Store
	Metrics   *metrics.Metrics
	GasReport *metrics.GasReporter
	Logger    *slog.Logger

	dev       *devchain.Chain
	rpc       *chain.RPCClient
	db        *repository.Postgres
	recorder  *repository.Recorder
	locker    *lock.Locker
	observers []chain.ReceiptObserver
}

// Open resolves the configured network and connects to it. The hardhat network runs
// in-process and keeps its deployments in memory.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	network, err := networks.Resolve(cfg.Network, cfg.Endpoints())
	if err != nil {
		return nil, err
	}
	params, err := network.Params()
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:    cfg,
		Network:   network,
		Params:    params,
		Artifacts: artifacts.NewLoader(cfg.Paths.Artifacts),
		Metrics:   metrics.New(),
		Logger:    logger.With(slog.String("network", network.Name)),
	}
	a.observers = append(a.observers, a.Metrics)
	if cfg.GasReporter.Enabled {
		a.GasReport = metrics.NewGasReporter()
		a.observers = append(a.observers, a.GasReport)
	}

	if err := a.connect(ctx); err != nil {
		return nil, err
	}

	if err := a.openHistory(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) connect(ctx context.Context) error {
	n := a.Network

	if n.InProcess() {
		dev, err := devchain.New(n.ChainID)
		if err != nil {
			return fmt.Errorf("start development chain: %w", err)
		}
		a.dev = dev
		a.Client = dev
		a.Store = deployments.NewMemoryStore(n.Name)
	} else {
		rpc, err := chain.Dial(ctx, n.URL, n.ChainID)
		if err != nil {
			return err
		}
		a.rpc = rpc
		a.Client = rpc

		store, err := deployments.NewFileStore(a.Config.Paths.Deployments, n.Name, n.ChainID)
		if err != nil {
			_ = a.Close()
			return err
		}
		a.Store = store
	}

	var err error
	if n.IsDevelopment() {
		a.Accounts, err = chain.NewDevAccounts(n.ChainID)
	} else {
		a.Accounts, err = chain.NewAccounts(n.Accounts, n.ChainID)
	}
	if err != nil {
		_ = a.Close()
		return err
	}
	return nil
}

func (a *App) openHistory(ctx context.Context) error {
	if a.Config.Database.Enabled {
		if err := repository.RunMigrations(a.Config.Database); err != nil {
			return err
		}
		db, err := repository.NewPostgres(ctx, a.Config.Database)
		if err != nil {
			return err
		}
		a.db = db
		a.recorder = repository.NewRecorder(repository.NewPostgresRepository(db.Pool()), a.Logger)
		a.observers = append(a.observers, a.recorder)
		a.Logger.Debug("deploy run history enabled")
	}

	if a.Config.Redis.Enabled {
		l, err := lock.NewRedis(a.Config.Redis)
		if err != nil {
			return err
		}
		a.locker = l
	}
	return nil
}

// Sender returns a transaction sender for a named account ("deployer", "account1", or an index).
func (a *App) Sender(account string) (*chain.Sender, error) {
	signer, err := a.Accounts.Named(account)
	if err != nil {
		return nil, err
	}
	pollInterval := 2 * time.Second
	if a.Network.IsDevelopment() {
		pollInterval = 100 * time.Millisecond
	}
	return chain.NewSender(a.Client, signer,
		chain.WithConfirmations(a.Network.BlockConfirmations),
		chain.WithPollInterval(pollInterval),
		chain.WithObservers(a.observers...),
		chain.WithLogger(a.Logger),
	), nil
}

// Environment builds the deploy environment for the deployer account.
func (a *App) Environment(reset bool) (*deploy.Environment, error) {
	sender, err := a.Sender("deployer")
	if err != nil {
		return nil, err
	}

	env := &deploy.Environment{
		Network:  a.Network,
		Params:   a.Params,
		From:     sender.From(),
		Deployer: deploy.NewArtifactDeployer(a.Artifacts, a.Store, sender, a.Network.ChainID, a.Logger),
		Store:    a.Store,
		Coordinator: func(d *deployments.Deployment) (deploy.Coordinator, error) {
			c, err := contracts.NewFromJSON(contracts.VRFCoordinatorMockName, d.Address, d.ABI, a.Client, sender)
			if err != nil {
				return nil, err
			}
			return contracts.NewVRFCoordinatorMock(c), nil
		},
		Reset:  reset,
		Logger: a.Logger,
	}
	if v := a.verifier(); v != nil {
		env.Verifier = v
	}
	if a.Config.FrontEnd.Enabled() {
		env.FrontEnd = frontend.NewExporter(a.Config.FrontEnd.AddressesFile, a.Config.FrontEnd.ABIFile, a.Logger)
	}
	return env, nil
}

func (a *App) verifier() *verify.ArtifactVerifier {
	ec := a.Config.Etherscan
	if ec.APIKey == "" {
		return nil
	}
	client := verify.NewClient(ec.APIKey,
		verify.WithAPIURL(ec.APIURL),
		verify.WithPolling(ec.PollInterval, ec.MaxAttempts),
		verify.WithLogger(a.Logger),
	)
	return verify.NewArtifactVerifier(client, a.Artifacts)
}

// Runner returns a deploy runner wired to the enabled metrics, history and lock.
func (a *App) Runner() *deploy.Runner {
	opts := []deploy.RunnerOption{
		deploy.WithLogger(a.Logger),
		deploy.WithStepObserver(a.Metrics),
	}
	if a.recorder != nil {
		opts = append(opts, deploy.WithRecorder(a.recorder))
	}
	if a.locker != nil {
		opts = append(opts, deploy.WithLocker(a.locker))
	}
	return deploy.NewRunner(opts...)
}

// Deploy runs the deploy steps selected by tags.
func (a *App) Deploy(ctx context.Context, tags []string, reset bool) error {
	env, err := a.Environment(reset)
	if err != nil {
		return err
	}
	err = a.Runner().Run(ctx, env, tags)
	a.Metrics.RunFinished(time.Now())
	return err
}

// EnsureDeployed runs the full deploy on the in-process chain when the Lottery is not
// there yet, the way a fresh hardhat network deploys before running a script.
func (a *App) EnsureDeployed(ctx context.Context) error {
	if !a.Network.InProcess() {
		return nil
	}
	_, err := a.Store.Get(contracts.LotteryName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperrors.ErrDeploymentNotFound) {
		return err
	}
	return a.Deploy(ctx, []string{deploy.TagAll}, false)
}

// Lottery binds the deployed Lottery to a named account.
func (a *App) Lottery(account string) (*contracts.Lottery, error) {
	c, err := a.bind(contracts.LotteryName, account)
	if err != nil {
		return nil, err
	}
	return contracts.NewLottery(c), nil
}

// Coordinator binds the deployed VRFCoordinatorV2Mock to a named account.
func (a *App) Coordinator(account string) (*contracts.VRFCoordinatorMock, error) {
	c, err := a.bind(contracts.VRFCoordinatorMockName, account)
	if err != nil {
		return nil, err
	}
	return contracts.NewVRFCoordinatorMock(c), nil
}

func (a *App) bind(name, account string) (*contracts.Contract, error) {
	d, err := a.Store.Get(name)
	if err != nil {
		return nil, err
	}
	sender, err := a.Sender(account)
	if err != nil {
		return nil, err
	}
	return contracts.NewFromJSON(name, d.Address, d.ABI, a.Client, sender)
}

// TimeTraveler returns the time controls of a development chain.
func (a *App) TimeTraveler() (chain.TimeTraveler, error) {
	switch {
	case a.dev != nil:
		return a.dev, nil
	case a.rpc != nil && a.Network.IsDevelopment():
		return a.rpc, nil
	default:
		return nil, fmt.Errorf("network %s cannot travel in time", a.Network.Name)
	}
}

// Verify submits a stored deployment for block-explorer verification.
func (a *App) Verify(ctx context.Context, contract string) error {
	if a.Network.IsDevelopment() {
		return fmt.Errorf("network %s has no block explorer", a.Network.Name)
	}
	v := a.verifier()
	if v == nil {
		return apperrors.NewInvalidConfigError("ETHERSCAN_API_KEY", "required for verification")
	}
	d, err := a.Store.Get(contract)
	if err != nil {
		return err
	}
	var encoded []byte
	if d.ArgsData != "" {
		if encoded, err = hexutil.Decode(d.ArgsData); err != nil {
			return fmt.Errorf("decode stored constructor args: %w", err)
		}
	}
	return v.VerifyEncoded(ctx, a.Network.ChainID, contract, d.Address, encoded)
}

// Finish writes the gas report and pushes metrics when configured.
func (a *App) Finish(ctx context.Context) error {
	var errs []error
	if a.GasReport != nil && !a.GasReport.Empty() && a.Config.GasReporter.OutputFile != "" {
		if err := a.GasReport.WriteFile(a.Config.GasReporter.OutputFile); err != nil {
			errs = append(errs, err)
		}
	}
	if url := a.Config.Metrics.PushgatewayURL; url != "" {
		if err := a.Metrics.Push(ctx, url, a.Config.Metrics.Job); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// History returns the deploy run repository, or false when the database is disabled.
func (a *App) History() (repository.Repository, bool) {
	if a.db == nil {
		return nil, false
	}
	return repository.NewPostgresRepository(a.db.Pool()), true
}

// DeployerAddress returns the deployer account's address.
func (a *App) DeployerAddress() (common.Address, error) {
	s, err := a.Accounts.Named("deployer")
	if err != nil {
		return common.Address{}, err
	}
	return s.Address(), nil
}

// Close releases the chain connection, database and Redis client.
func (a *App) Close() error {
	var errs []error
	if a.dev != nil {
		errs = append(errs, a.dev.Close())
		a.dev = nil
	}
	if a.rpc != nil {
		a.rpc.Close()
		a.rpc = nil
	}
	if a.db != nil {
		a.db.Close()
		a.db = nil
	}
	if a.locker != nil {
		errs = append(errs, a.locker.Close())
		a.locker = nil
	}
	return errors.Join(errs...)
}
