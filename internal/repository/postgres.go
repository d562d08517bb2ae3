package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a new PostgreSQL repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// CreateRun inserts a new run record.
func (r *PostgresRepository) CreateRun(ctx context.Context, run *Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.Status == "" {
		run.Status = StatusRunning
	}

	query := `
		INSERT INTO deploy_runs (id, network, chain_id, tags, deployer, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		run.ID, run.Network, run.ChainID, run.Tags, run.Deployer, run.Status,
	).Scan(&run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		return fmt.Errorf("CreateRun: %w", err)
	}
	return nil
}

// GetRun retrieves a run by its UUID.
func (r *PostgresRepository) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	query := `
		SELECT id, network, chain_id, tags, deployer, status, current_step, error_message, created_at, updated_at
		FROM deploy_runs
		WHERE id = $1`

	run, err := scanRun(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetRun: %w", err)
	}
	return run, nil
}

// UpdateRunStep records the step a run is executing.
func (r *PostgresRepository) UpdateRunStep(ctx context.Context, id uuid.UUID, step string) error {
	query := `UPDATE deploy_runs SET current_step = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, step)
	if err != nil {
		return fmt.Errorf("UpdateRunStep: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FinishRun sets a run's final status and error.
func (r *PostgresRepository) FinishRun(ctx context.Context, id uuid.UUID, status Status, errMsg *string) error {
	query := `UPDATE deploy_runs SET status = $2, error_message = $3, updated_at = NOW() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, status, errMsg)
	if err != nil {
		return fmt.Errorf("FinishRun: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRuns returns the most recent runs, optionally for one network.
func (r *PostgresRepository) ListRuns(ctx context.Context, network string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, network, chain_id, tags, deployer, status, current_step, error_message, created_at, updated_at
		FROM deploy_runs
		WHERE ($1 = '' OR network = $1)
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, network, limit)
	if err != nil {
		return nil, fmt.Errorf("ListRuns: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("ListRuns scan: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListRuns rows: %w", err)
	}
	return runs, nil
}

// RecordTransaction inserts a transaction record.
func (r *PostgresRepository) RecordTransaction(ctx context.Context, tx *Transaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}

	query := `
		INSERT INTO deploy_transactions (id, run_id, step, label, tx_hash, block_number, gas_used, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	err := r.pool.QueryRow(ctx, query,
		tx.ID, tx.RunID, tx.Step, tx.Label, tx.TxHash,
		int64(tx.BlockNumber), int64(tx.GasUsed), int16(tx.Status),
	).Scan(&tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("RecordTransaction: %w", err)
	}
	return nil
}

// GetTransactionsByRun returns a run's transactions in the order they were recorded.
func (r *PostgresRepository) GetTransactionsByRun(ctx context.Context, runID uuid.UUID) ([]Transaction, error) {
	query := `
		SELECT id, run_id, step, label, tx_hash, block_number, gas_used, status, created_at
		FROM deploy_transactions
		WHERE run_id = $1
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("GetTransactionsByRun: %w", err)
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var (
			tx               Transaction
			blockNumber, gas int64
			status           int16
		)
		if err := rows.Scan(&tx.ID, &tx.RunID, &tx.Step, &tx.Label, &tx.TxHash,
			&blockNumber, &gas, &status, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("GetTransactionsByRun scan: %w", err)
		}
		tx.BlockNumber = uint64(blockNumber)
		tx.GasUsed = uint64(gas)
		tx.Status = uint64(status)
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetTransactionsByRun rows: %w", err)
	}
	return txs, nil
}

func scanRun(row pgx.Row) (*Run, error) {
	var run Run
	err := row.Scan(
		&run.ID, &run.Network, &run.ChainID, &run.Tags, &run.Deployer, &run.Status,
		&run.CurrentStep, &run.ErrorMessage, &run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
