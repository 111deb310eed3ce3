package service

import (
	"fmt"

	"balance-monitor/internal/core/domain"
	"balance-monitor/internal/core/ports"
	"balance-monitor/pkg/logger"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// RefreshScheduler dispatches refresh requests on a cron schedule.
// Schedules use the six-field format with seconds, or descriptors such as
// "@every 30s".
type RefreshScheduler struct {
	cron *cron.Cron
	svc  ports.BalanceService
	log  zerolog.Logger
}

// NewRefreshScheduler registers a periodic refresh on svc.
func NewRefreshScheduler(svc ports.BalanceService, spec string, log zerolog.Logger) (*RefreshScheduler, error) {
	s := &RefreshScheduler{
		cron: cron.New(cron.WithSeconds()),
		svc:  svc,
		log:  logger.ForComponent(log, "refresh_scheduler"),
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("register refresh schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *RefreshScheduler) tick() {
	s.log.Debug().Msg("scheduled refresh")
	s.svc.Dispatch(domain.RefreshRequested())
}

// Start runs the schedule in the background.
func (s *RefreshScheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("refresh scheduler started")
}

// Stop halts the schedule and waits for a running tick to return.
func (s *RefreshScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("refresh scheduler stopped")
}
