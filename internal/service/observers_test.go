package service

import (
	"bytes"
	"encoding/json"
	"testing"

	"balance-monitor/internal/core/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	buf.Reset()
	return entry
}

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	observe := LogObserver(zerolog.New(&buf))

	observe(domain.BalanceState{
		LastResponse: &domain.BalanceResponse{Balance: 1.23456, ObservedAt: observedT},
	})
	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "balance state", entry["message"])
	assert.Equal(t, "balance_state", entry["component"])
	assert.Equal(t, "$1.23", entry["balance"])
	assert.Equal(t, false, entry["is_redacted"])
	assert.Contains(t, entry, "observed_at")

	observe(domain.BalanceState{
		LastResponse: &domain.BalanceResponse{Balance: 1.23456, ObservedAt: observedT},
		IsRedacted:   true,
	})
	entry = decodeLogLine(t, &buf)
	assert.Equal(t, true, entry["is_redacted"])
	assert.NotContains(t, entry, "balance")

	observe(domain.BalanceState{IsRefreshing: true})
	entry = decodeLogLine(t, &buf)
	assert.Equal(t, true, entry["is_refreshing"])
	assert.NotContains(t, entry, "observed_at")
}
