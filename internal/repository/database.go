package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nathanTypo/lottery-pc/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Postgres owns the pool backing the deploy run history.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the history database. The connection must be usable within ten seconds.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig) (*Postgres, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	}
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("open database pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("reach database %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	return &Postgres{pool: pool}, nil
}

// Pool is the pgx pool used by PostgresRepository.
func (p *Postgres) Pool() *pgxpool.Pool {
	return p.pool
}

// Close releases every pooled connection.
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// RunMigrations brings the history schema up to date. An up-to-date schema is not an error.
func RunMigrations(cfg config.DatabaseConfig) error {
	m, err := newMigrate(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// MigrateDown reverts the last steps migrations.
func MigrateDown(cfg config.DatabaseConfig, steps int) error {
	m, err := newMigrate(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down %d: %w", steps, err)
	}
	return nil
}

func newMigrate(cfg config.DatabaseConfig) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("init migrator: %w", err)
	}
	return m, nil
}
