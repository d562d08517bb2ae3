package repository

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
)

// Recorder persists a deploy run's progress and every mined transaction.
// It implements chain.ReceiptObserver.
type Recorder struct {
	repo   Repository
	logger *slog.Logger

	mu   sync.Mutex
	run  *Run
	step string
}

// NewRecorder creates a recorder backed by repo.
func NewRecorder(repo Repository, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{repo: repo, logger: logger}
}

// Start creates the run record.
func (r *Recorder) Start(ctx context.Context, network string, chainID int64, tags []string, deployer string) (*Run, error) {
	run := &Run{
		Network:  network,
		ChainID:  chainID,
		Tags:     tags,
		Deployer: deployer,
		Status:   StatusRunning,
	}
	if err := r.repo.CreateRun(ctx, run); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.run = run
	r.step = ""
	r.mu.Unlock()
	return run, nil
}

// RunID returns the active run's ID, or uuid.Nil before Start.
func (r *Recorder) RunID() uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.run == nil {
		return uuid.Nil
	}
	return r.run.ID
}

// SetStep marks the step that subsequent transactions belong to.
func (r *Recorder) SetStep(ctx context.Context, step string) error {
	r.mu.Lock()
	run := r.run
	r.step = step
	r.mu.Unlock()

	if run == nil {
		return nil
	}
	return r.repo.UpdateRunStep(ctx, run.ID, step)
}

// Finish stores the final status. A nil runErr completes the run.
func (r *Recorder) Finish(ctx context.Context, runErr error) error {
	r.mu.Lock()
	run := r.run
	r.mu.Unlock()

	if run == nil {
		return nil
	}

	status := StatusCompleted
	var msg *string
	if runErr != nil {
		status = StatusFailed
		s := runErr.Error()
		msg = &s
	}
	return r.repo.FinishRun(ctx, run.ID, status, msg)
}

// ObserveReceipt records a mined transaction against the current step.
// Failures are logged; they never abort the deploy.
func (r *Recorder) ObserveReceipt(ctx context.Context, label string, receipt *types.Receipt) {
	r.mu.Lock()
	run, step := r.run, r.step
	r.mu.Unlock()

	if run == nil || receipt == nil {
		return
	}

	tx := &Transaction{
		RunID:   run.ID,
		Step:    step,
		Label:   label,
		TxHash:  receipt.TxHash.Hex(),
		GasUsed: receipt.GasUsed,
		Status:  receipt.Status,
	}
	if receipt.BlockNumber != nil {
		tx.BlockNumber = receipt.BlockNumber.Uint64()
	}

	if err := r.repo.RecordTransaction(ctx, tx); err != nil {
		r.logger.Warn("failed to record transaction",
			slog.String("run_id", run.ID.String()),
			slog.String("label", label),
			slog.String("error", err.Error()),
		)
	}
}
