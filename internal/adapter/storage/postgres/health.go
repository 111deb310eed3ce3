package postgres

import (
	"context"
	"fmt"
)

// HealthCheck reports whether the balance table can be read.
type HealthCheck struct {
	pool Pool
}

func NewHealthCheck(pool Pool) *HealthCheck {
	return &HealthCheck{pool: pool}
}

// Ping queries account_balances, so a reachable server with a missing
// schema still counts as unhealthy.
func (h *HealthCheck) Ping(ctx context.Context) error {
	if _, err := h.pool.Exec(ctx, `SELECT 1 FROM account_balances LIMIT 1`); err != nil {
		return fmt.Errorf("postgres balance store: %w", err)
	}
	return nil
}

// Name matches the fetch.source value.
func (h *HealthCheck) Name() string { return "postgres" }
