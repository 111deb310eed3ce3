package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// HealthCheck reports whether the balance table can be read.
type HealthCheck struct {
	db *sql.DB
}

func NewHealthCheck(db *sql.DB) *HealthCheck {
	return &HealthCheck{db: db}
}

func (h *HealthCheck) Ping(ctx context.Context) error {
	if _, err := h.db.ExecContext(ctx, `SELECT 1 FROM account_balances LIMIT 1`); err != nil {
		return fmt.Errorf("sqlite balance store: %w", err)
	}
	return nil
}

func (h *HealthCheck) Name() string { return "sqlite" }
