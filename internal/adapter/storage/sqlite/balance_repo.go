package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"balance-monitor/internal/core/domain"
	"balance-monitor/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Schema mirrors the PostgreSQL table. Amounts are stored as decimal text
// and timestamps as Unix milliseconds.
const Schema = `CREATE TABLE IF NOT EXISTS account_balances (
	account_id TEXT PRIMARY KEY,
	balance    TEXT NOT NULL DEFAULT '0',
	updated_at INTEGER NOT NULL
)`

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// BalanceRepo implements ports.BalanceFetcher over a SQLite table.
type BalanceRepo struct {
	db        *sql.DB
	accountID uuid.UUID
	now       func() time.Time
}

// NewBalanceRepo creates a BalanceRepo bound to accountID.
func NewBalanceRepo(db *sql.DB, accountID uuid.UUID) *BalanceRepo {
	return &BalanceRepo{db: db, accountID: accountID, now: time.Now}
}

// Fetch reads the current balance.
func (r *BalanceRepo) Fetch(ctx context.Context) domain.FetchResult {
	var (
		raw       string
		updatedAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT balance, updated_at FROM account_balances WHERE account_id = ?`,
		r.accountID.String(),
	).Scan(&raw, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.FetchFailure(apperror.ErrNotFound("balance"))
		}
		return domain.FetchFailure(apperror.ErrFetchFailed(fmt.Errorf("get balance by account id: %w", err)))
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return domain.FetchFailure(apperror.ErrFetchFailed(fmt.Errorf("parse balance %q: %w", raw, err)))
	}
	return domain.FetchSuccess(amount.InexactFloat64(), fromMillis(updatedAt))
}

// SetBalance stores amount for the bound account, stamped with the current time.
func (r *BalanceRepo) SetBalance(ctx context.Context, amount decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO account_balances (account_id, balance, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(account_id) DO UPDATE SET balance = excluded.balance, updated_at = excluded.updated_at`,
		r.accountID.String(), amount.String(), toMillis(r.now()),
	)
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	return nil
}

// Name identifies the source in logs.
func (r *BalanceRepo) Name() string { return "sqlite" }
