package service

import (
	"context"

	"balance-monitor/internal/core/domain"
	"balance-monitor/internal/core/ports"
	"balance-monitor/pkg/logger"

	"github.com/rs/zerolog"
)

// LifecycleRelay forwards lifecycle signals from any source into the
// balance service as redaction events.
type LifecycleRelay struct {
	svc ports.BalanceService
	log zerolog.Logger
}

// NewLifecycleRelay creates a relay feeding svc.
func NewLifecycleRelay(svc ports.BalanceService, log zerolog.Logger) *LifecycleRelay {
	return &LifecycleRelay{svc: svc, log: logger.ForComponent(log, "lifecycle")}
}

// Notify dispatches the event matching sig.
func (r *LifecycleRelay) Notify(sig domain.LifecycleSignal) {
	r.log.Info().Str("signal", string(sig)).Msg("lifecycle signal received")
	r.svc.Dispatch(sig.Event())
}

// Run consumes signals until ctx is done or the channel is closed.
func (r *LifecycleRelay) Run(ctx context.Context, signals <-chan domain.LifecycleSignal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-signals:
			if !ok {
				return
			}
			r.Notify(sig)
		}
	}
}
