// Package sqlite provides a SQLite-backed balance source for single-host
// deployments and local development.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"balance-monitor/pkg/logger"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Open opens the database file at path, applies the balance schema and
// verifies the connection.
func Open(ctx context.Context, path string, log zerolog.Logger) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure balance schema: %w", err)
	}

	componentLog := logger.ForComponent(log, "sqlite")
	componentLog.Info().Str("path", path).Msg("SQLite database opened")
	return db, nil
}
