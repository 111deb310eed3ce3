package service

import (
	"testing"
	"time"

	"balance-monitor/internal/core/domain"
	"balance-monitor/internal/core/ports/mocks"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestRefreshScheduler_DispatchesRefresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockBalanceService(ctrl)

	fired := make(chan struct{}, 1)
	svc.EXPECT().Dispatch(domain.RefreshRequested()).Do(func(domain.Event) {
		select {
		case fired <- struct{}{}:
		default:
		}
	}).MinTimes(1)

	s, err := NewRefreshScheduler(svc, "@every 1s", zerolog.Nop())
	require.NoError(t, err)
	s.Start()
	defer s.Stop()

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled refresh never fired")
	}
}

func TestRefreshScheduler_StopBeforeFirstTick(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockBalanceService(ctrl)
	svc.EXPECT().Dispatch(gomock.Any()).Times(0)

	s, err := NewRefreshScheduler(svc, "0 0 0 1 1 *", zerolog.Nop())
	require.NoError(t, err)
	s.Start()
	s.Stop()
}

func TestRefreshScheduler_InvalidSpec(t *testing.T) {
	tests := []string{"", "every minute", "* * * *", "61 * * * * *"}

	for _, spec := range tests {
		t.Run(spec, func(t *testing.T) {
			_, err := NewRefreshScheduler(nil, spec, zerolog.Nop())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "register refresh schedule")
		})
	}
}
