package ports

import "context"

// HealthChecker probes one dependency of the balance source or the snapshot
// publisher. GET /health runs every registered checker.
type HealthChecker interface {
	// Ping returns nil when the dependency can serve balance reads or
	// snapshot writes right now.
	Ping(ctx context.Context) error
	// Name keys the dependency in the health report: "postgres", "sqlite", "redis".
	Name() string
}
