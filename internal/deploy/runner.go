package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/nathanTypo/lottery-pc/internal/lock"
	"github.com/nathanTypo/lottery-pc/internal/repository"
)

// TagAll selects every step.
const TagAll = "all"

// StepObserver is told how each step went.
type StepObserver interface {
	ObserveStep(network, step string, err error, d time.Duration)
}

// RunRecorder persists run progress.
type RunRecorder interface {
	Start(ctx context.Context, network string, chainID int64, tags []string, deployer string) (*repository.Run, error)
	SetStep(ctx context.Context, step string) error
	Finish(ctx context.Context, runErr error) error
}

// Locker serializes runs against one network.
type Locker interface {
	Acquire(ctx context.Context, network string) (lock.ReleaseFunc, error)
}

// Runner executes the steps whose tags intersect the requested ones.
type Runner struct {
	steps    []Step
	logger   *slog.Logger
	observer StepObserver
	recorder RunRecorder
	locker   Locker
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithSteps replaces the default steps.
func WithSteps(steps ...Step) RunnerOption {
	return func(r *Runner) { r.steps = steps }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithStepObserver reports step outcomes, e.g. to metrics.
func WithStepObserver(o StepObserver) RunnerOption {
	return func(r *Runner) { r.observer = o }
}

// WithRecorder persists the run.
func WithRecorder(rec RunRecorder) RunnerOption {
	return func(r *Runner) { r.recorder = rec }
}

// WithLocker holds a per-network lock for the duration of the run.
func WithLocker(l Locker) RunnerOption {
	return func(r *Runner) { r.locker = l }
}

// NewRunner creates a runner over DefaultSteps unless WithSteps is given.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		steps:  DefaultSteps(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Selected returns the names of the steps the tags select, in order.
func (r *Runner) Selected(tags []string) []string {
	var names []string
	for _, s := range r.steps {
		if matches(s, tags) {
			names = append(names, s.Name())
		}
	}
	return names
}

// Run executes the selected steps in order and stops at the first failure.
func (r *Runner) Run(ctx context.Context, env *Environment, tags []string) (err error) {
	if len(tags) == 0 {
		tags = []string{TagAll}
	}
	if env.Logger == nil {
		env.Logger = r.logger
	}
	network := env.Network.Name

	if r.locker != nil {
		release, lerr := r.locker.Acquire(ctx, network)
		if lerr != nil {
			return lerr
		}
		defer func() {
			if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
				r.logger.Warn("failed to release deploy lock", slog.String("error", rerr.Error()))
			}
		}()
	}

	if r.recorder != nil {
		run, serr := r.recorder.Start(ctx, network, env.Network.ChainID, tags, env.From.Hex())
		if serr != nil {
			return fmt.Errorf("record run: %w", serr)
		}
		r.logger.Debug("deploy run recorded", slog.String("run_id", run.ID.String()))
		defer func() {
			if ferr := r.recorder.Finish(context.WithoutCancel(ctx), err); ferr != nil {
				r.logger.Warn("failed to record run result", slog.String("error", ferr.Error()))
			}
		}()
	}

	if env.Reset {
		if rerr := env.Store.Reset(); rerr != nil {
			return fmt.Errorf("reset deployments: %w", rerr)
		}
	}

	r.logger.Info("deploying",
		slog.String("network", network),
		slog.Int64("chain_id", env.Network.ChainID),
		slog.Any("tags", tags),
	)

	for _, s := range r.steps {
		if !matches(s, tags) {
			continue
		}
		if r.recorder != nil {
			if serr := r.recorder.SetStep(ctx, s.Name()); serr != nil {
				r.logger.Warn("failed to record step", slog.String("step", s.Name()), slog.String("error", serr.Error()))
			}
		}

		start := time.Now()
		stepErr := s.Run(ctx, env)
		if r.observer != nil {
			r.observer.ObserveStep(network, s.Name(), stepErr, time.Since(start))
		}
		if stepErr != nil {
			return fmt.Errorf("%s: %w", s.Name(), stepErr)
		}
		r.logger.Debug("step finished", slog.String("step", s.Name()), slog.Duration("took", time.Since(start)))
	}
	return nil
}

func matches(s Step, tags []string) bool {
	for _, t := range s.Tags() {
		if slices.Contains(tags, t) {
			return true
		}
	}
	return false
}
