package service

import (
	"balance-monitor/internal/core/domain"
	"balance-monitor/internal/core/ports"
	"balance-monitor/pkg/logger"

	"github.com/rs/zerolog"
)

// LogObserver returns an observer that records every delivered snapshot at
// info level. Redacted snapshots never log the amount.
func LogObserver(log zerolog.Logger) ports.StateObserver {
	log = logger.ForComponent(log, "balance_state")
	return func(state domain.BalanceState) {
		ev := log.Info().
			Bool("is_refreshing", state.IsRefreshing).
			Bool("did_fail", state.DidFail).
			Bool("is_redacted", state.IsRedacted)
		if state.LastResponse != nil {
			ev = ev.Time("observed_at", state.LastResponse.ObservedAt)
			if !state.IsRedacted {
				ev = ev.Str("balance", state.FormattedBalance())
			}
		}
		ev.Msg("balance state")
	}
}
