package repository

import (
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathanTypo/lottery-pc/internal/config"
)

// testDatabaseConfig points at the PostgreSQL instance named by LOTTERY_TEST_DB_HOST,
// skipping the test when it is not set.
func testDatabaseConfig(t *testing.T) config.DatabaseConfig {
	t.Helper()

	host := os.Getenv("LOTTERY_TEST_DB_HOST")
	if host == "" {
		t.Skip("LOTTERY_TEST_DB_HOST not set")
	}
	port := 5432
	if p := os.Getenv("LOTTERY_TEST_DB_PORT"); p != "" {
		var err error
		port, err = strconv.Atoi(p)
		require.NoError(t, err)
	}

	cfg := config.DatabaseConfig{
		Host:     host,
		Port:     port,
		User:     "lottery",
		Password: "lottery",
		Database: "lottery",
		SSLMode:  "disable",
	}
	require.NoError(t, RunMigrations(cfg))
	return cfg
}

func testDatabase(t *testing.T) *Postgres {
	t.Helper()
	cfg := testDatabaseConfig(t)

	db, err := NewPostgres(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestPostgresRepository(t *testing.T) {
	db := testDatabase(t)
	repo := NewPostgresRepository(db.Pool())
	ctx := context.Background()

	run := &Run{
		Network:  "it-" + uuid.NewString()[:8],
		ChainID:  31337,
		Tags:     []string{"all"},
		Deployer: "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
	}
	require.NoError(t, repo.CreateRun(ctx, run))
	assert.Equal(t, StatusRunning, run.Status)
	assert.False(t, run.CreatedAt.IsZero())

	require.NoError(t, repo.UpdateRunStep(ctx, run.ID, "01-deploy-lottery"))

	tx := &Transaction{
		RunID:       run.ID,
		Step:        "01-deploy-lottery",
		Label:       "Lottery.deploy",
		TxHash:      "0x01",
		BlockNumber: 3,
		GasUsed:     1_200_000,
		Status:      1,
	}
	require.NoError(t, repo.RecordTransaction(ctx, tx))

	msg := "boom"
	require.NoError(t, repo.FinishRun(ctx, run.ID, StatusFailed, &msg))

	got, err := repo.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	require.NotNil(t, got.CurrentStep)
	assert.Equal(t, "01-deploy-lottery", *got.CurrentStep)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "boom", *got.ErrorMessage)
	assert.Equal(t, []string{"all"}, got.Tags)

	txs, err := repo.GetTransactionsByRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, uint64(1_200_000), txs[0].GasUsed)
	assert.Equal(t, uint64(3), txs[0].BlockNumber)

	runs, err := repo.ListRuns(ctx, run.Network, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
}

func TestPostgresRepositoryNotFound(t *testing.T) {
	db := testDatabase(t)
	repo := NewPostgresRepository(db.Pool())
	ctx := context.Background()

	_, err := repo.GetRun(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.UpdateRunStep(ctx, uuid.New(), "x"), ErrNotFound)
	assert.ErrorIs(t, repo.FinishRun(ctx, uuid.New(), StatusCompleted, nil), ErrNotFound)
}

func TestMigrateDownAndUp(t *testing.T) {
	cfg := testDatabaseConfig(t)
	db, err := NewPostgres(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	tableExists := func() bool {
		var ok bool
		err := db.Pool().QueryRow(context.Background(), "SELECT to_regclass('deploy_runs') IS NOT NULL").Scan(&ok)
		require.NoError(t, err)
		return ok
	}

	require.True(t, tableExists())
	require.NoError(t, MigrateDown(cfg, 1))
	assert.False(t, tableExists())

	require.NoError(t, RunMigrations(cfg))
	assert.True(t, tableExists())
}
