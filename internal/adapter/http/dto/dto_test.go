package dto

import (
	"encoding/json"
	"testing"
	"time"

	"balance-monitor/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubDate(time.Time) string { return "00/00/0000 00:00:00 AM" }

func TestNewBalanceStateResponse_Empty(t *testing.T) {
	resp := NewBalanceStateResponse(domain.BalanceState{}, stubDate)

	assert.Nil(t, resp.LastResponse)
	assert.Equal(t, "--", resp.View.FormattedBalance)
	assert.Equal(t, "", resp.View.InfoText)
	assert.Equal(t, "gray", resp.View.InfoColor)
	assert.False(t, resp.View.ShowsActivity)
	assert.True(t, resp.View.RefreshAvailable)
	assert.Equal(t, 1.0, resp.View.ValueAlpha)
	assert.False(t, resp.View.OverlayVisible)
}

func TestNewBalanceStateResponse_FailedRedacted(t *testing.T) {
	observed := time.Date(2024, 3, 9, 14, 30, 0, 0, time.FixedZone("ICT", 7*3600))
	state := domain.BalanceState{
		LastResponse: &domain.BalanceResponse{Balance: 1.23456, ObservedAt: observed},
		DidFail:      true,
		IsRedacted:   true,
	}

	resp := NewBalanceStateResponse(state, stubDate)

	require.NotNil(t, resp.LastResponse)
	assert.Equal(t, 1.23456, resp.LastResponse.Balance)
	assert.Equal(t, "2024-03-09T07:30:00Z", resp.LastResponse.ObservedAt)
	assert.True(t, resp.DidFail)
	assert.True(t, resp.IsRedacted)
	assert.Equal(t, "$1.23", resp.View.FormattedBalance)
	assert.Equal(t, "Failed to update. Last update: 00/00/0000 00:00:00 AM.", resp.View.InfoText)
	assert.Equal(t, "red", resp.View.InfoColor)
	assert.Equal(t, domain.RedactedValueAlpha, resp.View.ValueAlpha)
	assert.True(t, resp.View.OverlayVisible)
}

func TestBalanceStateResponse_JSONShape(t *testing.T) {
	raw, err := json.Marshal(NewBalanceStateResponse(domain.BalanceState{IsRefreshing: true}, stubDate))
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Nil(t, m["last_response"])
	assert.Equal(t, true, m["is_refreshing"])

	view := m["view"].(map[string]interface{})
	assert.Equal(t, "Loading...", view["info_text"])
	assert.Equal(t, true, view["shows_activity"])
	assert.Equal(t, false, view["refresh_available"])
}
