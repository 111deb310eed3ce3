package ports

//go:generate mockgen -source=balance.go -destination=mocks/balance_mocks.go -package=mocks
//go:generate mockgen -source=health.go -destination=mocks/health_mocks.go -package=mocks

import (
	"context"

	"balance-monitor/internal/core/domain"
)

// BalanceFetcher is a source of the current balance.
// Fetch must fold every transport error into a failed result instead of
// panicking, and must be safe for concurrent calls.
type BalanceFetcher interface {
	Fetch(ctx context.Context) domain.FetchResult
	// Name identifies the source in logs (e.g., "postgres", "fake").
	Name() string
}

// StateObserver receives balance snapshots. It runs on the dispatching
// goroutine and must not call back into the service synchronously.
type StateObserver func(state domain.BalanceState)

// BalanceService owns the balance state and serializes every change to it.
type BalanceService interface {
	// CurrentState returns the latest snapshot.
	CurrentState() domain.BalanceState
	// Subscribe delivers the current snapshot before returning, then every
	// later one in order. The returned func stops future deliveries.
	Subscribe(observer StateObserver) (unsubscribe func())
	// Dispatch applies a refresh or lifecycle event. It never waits for a fetch.
	Dispatch(evt domain.Event)
}

// LifecycleNotifier turns host lifecycle signals into redaction events.
type LifecycleNotifier interface {
	Notify(sig domain.LifecycleSignal)
}
