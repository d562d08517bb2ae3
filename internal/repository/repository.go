package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Repository defines the interface for deploy run data operations.
type Repository interface {
	// Run operations
	CreateRun(ctx context.Context, r *Run) error
	GetRun(ctx context.Context, id uuid.UUID) (*Run, error)
	UpdateRunStep(ctx context.Context, id uuid.UUID, step string) error
	FinishRun(ctx context.Context, id uuid.UUID, status Status, errMsg *string) error
	ListRuns(ctx context.Context, network string, limit int) ([]*Run, error)

	// Transaction operations
	RecordTransaction(ctx context.Context, tx *Transaction) error
	GetTransactionsByRun(ctx context.Context, runID uuid.UUID) ([]Transaction, error)
}
