package main

import (
	"context"
	"database/sql"
	"fmt"

	"balance-monitor/config"
	"balance-monitor/internal/adapter/fake"
	pgStorage "balance-monitor/internal/adapter/storage/postgres"
	sqliteStorage "balance-monitor/internal/adapter/storage/sqlite"
	"balance-monitor/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// balanceSource is the configured fetcher plus the health checks and
// cleanup of whatever it connected to.
type balanceSource struct {
	fetcher  ports.BalanceFetcher
	checkers []ports.HealthChecker
	close    func()
}

func openSource(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*balanceSource, error) {
	switch cfg.Fetch.Source {
	case config.SourcePostgres:
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			return nil, fmt.Errorf("connect to PostgreSQL: %w", err)
		}
		repo := pgStorage.NewBalanceRepo(pool, uuid.MustParse(cfg.Fetch.AccountID))
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return &balanceSource{
			fetcher:  repo,
			checkers: []ports.HealthChecker{pgStorage.NewHealthCheck(pool)},
			close:    pool.Close,
		}, nil

	case config.SourceSQLite:
		repo, db, err := openSQLite(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return &balanceSource{
			fetcher:  repo,
			checkers: []ports.HealthChecker{sqliteStorage.NewHealthCheck(db)},
			close:    func() { _ = db.Close() },
		}, nil

	default:
		return &balanceSource{
			fetcher: fake.NewFetcher(fake.WithDelay(cfg.Fetch.FakeDelay)),
			close:   func() {},
		}, nil
	}
}

func openSQLite(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*sqliteStorage.BalanceRepo, *sql.DB, error) {
	db, err := sqliteStorage.Open(ctx, cfg.Fetch.SQLitePath, log)
	if err != nil {
		return nil, nil, err
	}
	return sqliteStorage.NewBalanceRepo(db, uuid.MustParse(cfg.Fetch.AccountID)), db, nil
}
