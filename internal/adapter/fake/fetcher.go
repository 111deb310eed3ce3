package fake

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"balance-monitor/internal/core/domain"
	"balance-monitor/pkg/apperror"
)

const (
	// DefaultDelay mimics a slow remote call.
	DefaultDelay = time.Second
	// Balance is the amount every successful fake fetch reports.
	Balance = 100.0
)

// ErrSimulated is the cause of every simulated failure.
var ErrSimulated = errors.New("simulated balance source failure")

// Fetcher implements ports.BalanceFetcher with a canned balance that fails at
// random, for demos and local runs without a database.
type Fetcher struct {
	delay time.Duration
	now   func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithDelay overrides how long each fetch takes.
func WithDelay(d time.Duration) Option {
	return func(f *Fetcher) { f.delay = d }
}

// WithClock overrides the observation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

// WithSeed makes the success/failure sequence reproducible.
func WithSeed(seed int64) Option {
	return func(f *Fetcher) { f.rng = rand.New(rand.NewSource(seed)) }
}

// NewFetcher creates a fake balance source.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		delay: DefaultDelay,
		now:   time.Now,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch waits for the configured delay, then succeeds or fails with equal
// probability. Cancellation during the wait is reported as a failure.
func (f *Fetcher) Fetch(ctx context.Context) domain.FetchResult {
	timer := time.NewTimer(f.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return domain.FetchFailure(apperror.ErrFetchFailed(ctx.Err()))
	case <-timer.C:
	}

	if f.coinFlip() {
		return domain.FetchSuccess(Balance, f.now())
	}
	return domain.FetchFailure(apperror.ErrFetchFailed(ErrSimulated))
}

func (f *Fetcher) Name() string { return "fake" }

func (f *Fetcher) coinFlip() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rng.Intn(2) == 0
}
