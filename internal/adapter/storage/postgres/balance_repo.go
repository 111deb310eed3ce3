package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"balance-monitor/internal/core/domain"
	"balance-monitor/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Schema creates the table the balance source reads from.
const Schema = `CREATE TABLE IF NOT EXISTS account_balances (
	account_id UUID PRIMARY KEY,
	balance    NUMERIC(20, 4) NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// BalanceRepo implements ports.BalanceFetcher by reading one account's
// balance from PostgreSQL.
type BalanceRepo struct {
	pool      Pool
	accountID uuid.UUID
}

// NewBalanceRepo creates a BalanceRepo bound to accountID.
func NewBalanceRepo(pool Pool, accountID uuid.UUID) *BalanceRepo {
	return &BalanceRepo{pool: pool, accountID: accountID}
}

// EnsureSchema creates the balances table if it does not exist.
func (r *BalanceRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure balance schema: %w", err)
	}
	return nil
}

// Fetch reads the current balance. The NUMERIC column is read as text so no
// precision is lost before it reaches decimal.
func (r *BalanceRepo) Fetch(ctx context.Context) domain.FetchResult {
	query := `SELECT balance::text, updated_at FROM account_balances WHERE account_id = $1`

	var (
		raw       string
		updatedAt time.Time
	)
	err := r.pool.QueryRow(ctx, query, r.accountID).Scan(&raw, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.FetchFailure(apperror.ErrNotFound("balance"))
		}
		return domain.FetchFailure(apperror.ErrFetchFailed(fmt.Errorf("get balance by account id: %w", err)))
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return domain.FetchFailure(apperror.ErrFetchFailed(fmt.Errorf("parse balance %q: %w", raw, err)))
	}

	return domain.FetchSuccess(amount.InexactFloat64(), updatedAt)
}

// Name identifies the source in logs.
func (r *BalanceRepo) Name() string { return "postgres" }
