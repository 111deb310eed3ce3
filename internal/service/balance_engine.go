package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"balance-monitor/internal/core/domain"
	"balance-monitor/internal/core/ports"
	"balance-monitor/pkg/apperror"
	"balance-monitor/pkg/logger"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "balance-monitor/internal/service"

// EngineOptions tunes the balance engine.
type EngineOptions struct {
	// FetchTimeout bounds a single fetch. Zero means no deadline.
	FetchTimeout time.Duration
	// Tracer records one span per fetch. Nil uses the global provider.
	Tracer trace.Tracer
}

type subscription struct {
	id       uuid.UUID
	observer ports.StateObserver
	active   atomic.Bool
}

// BalanceEngine implements ports.BalanceService.
//
// Every transition runs under dispatchMu together with the broadcast of the
// resulting snapshot, so observers see states in exactly the order they were
// applied. A monotonically increasing generation tags each refresh; only the
// completion of the latest generation may touch the state.
type BalanceEngine struct {
	fetcher ports.BalanceFetcher
	opts    EngineOptions
	tracer  trace.Tracer
	log     zerolog.Logger

	dispatchMu  sync.Mutex
	generation  uint64
	cancelFetch context.CancelFunc
	closed      bool

	stateMu sync.RWMutex
	state   domain.BalanceState

	subsMu sync.Mutex
	subs   []*subscription

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
}

// NewBalanceEngine creates an engine at rest: no balance, not refreshing,
// not failed, not redacted.
func NewBalanceEngine(fetcher ports.BalanceFetcher, opts EngineOptions, log zerolog.Logger) *BalanceEngine {
	ctx, stop := context.WithCancel(context.Background())
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return &BalanceEngine{
		fetcher: fetcher,
		opts:    opts,
		tracer:  tracer,
		log:     logger.ForComponent(log, "balance_engine"),
		baseCtx: ctx,
		stop:    stop,
	}
}

// CurrentState returns the latest snapshot.
func (e *BalanceEngine) CurrentState() domain.BalanceState {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.state.Clone()
}

// Subscribe registers observer and replays the current snapshot to it before
// returning. Unsubscribing is idempotent and safe from inside the observer.
func (e *BalanceEngine) Subscribe(observer ports.StateObserver) func() {
	sub := &subscription{id: uuid.New(), observer: observer}
	sub.active.Store(true)

	e.dispatchMu.Lock()
	e.subsMu.Lock()
	e.subs = append(e.subs, sub)
	e.subsMu.Unlock()
	observer(e.CurrentState())
	e.dispatchMu.Unlock()

	e.log.Debug().Str("subscription_id", sub.id.String()).Msg("observer subscribed")

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.active.Store(false)
			e.removeSubscription(sub)
			e.log.Debug().Str("subscription_id", sub.id.String()).Msg("observer unsubscribed")
		})
	}
}

func (e *BalanceEngine) removeSubscription(sub *subscription) {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	for i, s := range e.subs {
		if s == sub {
			e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
			return
		}
	}
}

// Dispatch applies a refresh or lifecycle event. Fetch completions are
// produced by the engine itself and are rejected here.
func (e *BalanceEngine) Dispatch(evt domain.Event) {
	switch evt.Kind {
	case domain.EventRefreshRequested:
		e.refresh()
	case domain.EventAppBecameInactive, domain.EventAppBecameActive:
		e.dispatchMu.Lock()
		defer e.dispatchMu.Unlock()
		e.apply(evt)
	case domain.EventFetchCompleted:
		e.log.Warn().Uint64("generation", evt.Generation).Msg("external fetch completion ignored")
	default:
		e.log.Warn().Str("kind", string(evt.Kind)).Msg("unknown event ignored")
	}
}

// Close cancels the in-flight fetch and waits for fetch goroutines to settle.
// Refresh requests after Close are ignored.
func (e *BalanceEngine) Close() {
	e.dispatchMu.Lock()
	e.closed = true
	e.dispatchMu.Unlock()

	e.stop()
	e.wg.Wait()
}

func (e *BalanceEngine) refresh() {
	e.dispatchMu.Lock()
	defer e.dispatchMu.Unlock()

	if e.closed {
		e.log.Debug().Msg("refresh after close ignored")
		return
	}

	e.generation++
	gen := e.generation

	// Superseded fetches are cancelled as a courtesy to the source; their
	// results would be discarded by the generation check anyway.
	if e.cancelFetch != nil {
		e.cancelFetch()
	}
	ctx, cancel := e.fetchContext()
	e.cancelFetch = cancel

	e.apply(domain.RefreshRequested())

	e.wg.Add(1)
	go e.runFetch(ctx, cancel, gen)
}

func (e *BalanceEngine) fetchContext() (context.Context, context.CancelFunc) {
	if e.opts.FetchTimeout > 0 {
		return context.WithTimeout(e.baseCtx, e.opts.FetchTimeout)
	}
	return context.WithCancel(e.baseCtx)
}

func (e *BalanceEngine) runFetch(ctx context.Context, cancel context.CancelFunc, gen uint64) {
	defer e.wg.Done()
	defer cancel()

	ctx, span := e.tracer.Start(ctx, "balance.fetch", trace.WithAttributes(
		attribute.String("balance.source", e.fetcher.Name()),
		attribute.Int64("balance.generation", int64(gen)),
	))
	defer span.End()

	start := time.Now()
	result := e.fetch(ctx)
	if !result.Succeeded() {
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, result.Err.Error())
	}

	ev := e.log.Debug()
	if !result.Succeeded() {
		ev = e.log.Warn().Err(result.Err)
	}
	ev.Str("source", e.fetcher.Name()).
		Uint64("generation", gen).
		Dur("latency", time.Since(start)).
		Bool("success", result.Succeeded()).
		Msg("balance fetch settled")

	span.SetAttributes(attribute.Bool("balance.stale", !e.complete(gen, result)))
}

// fetch calls the source and folds panics and malformed results into failures
// so the refresh flag can never stay set.
func (e *BalanceEngine) fetch(ctx context.Context) (result domain.FetchResult) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Str("source", e.fetcher.Name()).Msg("balance source panicked")
			result = domain.FetchFailure(apperror.ErrFetchPanicked(r))
		}
	}()

	result = e.fetcher.Fetch(ctx)
	if !result.Valid() {
		if result.Err != nil {
			// Both sides set: the error wins.
			return domain.FetchFailure(result.Err)
		}
		return domain.FetchFailure(apperror.ErrEmptyFetchResult())
	}
	return result
}

// complete is the only entry point for fetch completions. It reports whether
// the result was applied.
func (e *BalanceEngine) complete(gen uint64, result domain.FetchResult) bool {
	e.dispatchMu.Lock()
	defer e.dispatchMu.Unlock()

	if gen != e.generation {
		e.log.Debug().Uint64("generation", gen).Uint64("current", e.generation).Msg("stale fetch completion discarded")
		return false
	}
	e.cancelFetch = nil
	e.apply(domain.FetchCompleted(gen, result))
	return true
}

// apply runs the transition and broadcasts. Callers hold dispatchMu.
func (e *BalanceEngine) apply(evt domain.Event) {
	e.stateMu.RLock()
	current := e.state
	e.stateMu.RUnlock()

	next, changed := current.Apply(evt)
	if !changed {
		e.log.Debug().Str("event", string(evt.Kind)).Msg("event produced no transition")
		return
	}

	e.stateMu.Lock()
	e.state = next
	e.stateMu.Unlock()

	e.log.Debug().
		Str("event", string(evt.Kind)).
		Bool("is_refreshing", next.IsRefreshing).
		Bool("did_fail", next.DidFail).
		Bool("is_redacted", next.IsRedacted).
		Bool("has_response", next.LastResponse != nil).
		Msg("balance state transition")

	e.broadcast(next)
}

func (e *BalanceEngine) broadcast(state domain.BalanceState) {
	e.subsMu.Lock()
	subs := make([]*subscription, len(e.subs))
	copy(subs, e.subs)
	e.subsMu.Unlock()

	for _, sub := range subs {
		if !sub.active.Load() {
			continue
		}
		sub.observer(state.Clone())
	}
}
