package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	redisStorage "balance-monitor/internal/adapter/storage/redis"
	"balance-monitor/internal/core/domain"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func useSQLiteSource(t *testing.T) {
	t.Helper()
	t.Setenv("BAL_FETCH_SOURCE", "sqlite")
	t.Setenv("BAL_FETCH_ACCOUNT_ID", "6f1c2f4e-8a7b-4d3c-9e2f-1a2b3c4d5e6f")
	t.Setenv("BAL_FETCH_SQLITE_PATH", filepath.Join(t.TempDir(), "balances.db"))
	t.Setenv("BAL_LOG_LEVEL", "error")
}

func TestCLI_SetBalanceThenFetch(t *testing.T) {
	useSQLiteSource(t)

	out, err := runCLI(t, "set-balance", "42.5")
	require.NoError(t, err)
	assert.Equal(t, "balance set to 42.50\n", out)

	out, err = runCLI(t, "fetch")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "$42.50", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Last update: "), lines[1])
}

func TestCLI_FetchMissingBalanceFails(t *testing.T) {
	useSQLiteSource(t)

	out, err := runCLI(t, "fetch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "balance fetch from sqlite failed")
	assert.Equal(t, "--\nFailed to update.\n", out)
}

func TestCLI_SetBalanceRejectsInvalidAmount(t *testing.T) {
	useSQLiteSource(t)

	_, err := runCLI(t, "set-balance", "a lot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid amount")
}

func TestCLI_SetBalanceNeedsSQLiteSource(t *testing.T) {
	t.Setenv("BAL_FETCH_SOURCE", "fake")

	_, err := runCLI(t, "set-balance", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `needs fetch.source "sqlite"`)
}

func TestCLI_InvalidConfigStopsEveryCommand(t *testing.T) {
	t.Setenv("BAL_FETCH_SOURCE", "carrier-pigeon")

	for _, args := range [][]string{{"fetch"}, {"serve"}, {}} {
		_, err := runCLI(t, args...)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "carrier-pigeon")
	}
}

func TestCLI_SetBalanceArgs(t *testing.T) {
	useSQLiteSource(t)

	_, err := runCLI(t, "set-balance")
	require.Error(t, err)
}

func useMiniredis(t *testing.T) *goredis.Client {
	t.Helper()
	s := miniredis.RunT(t)
	t.Setenv("BAL_REDIS_HOST", s.Host())
	t.Setenv("BAL_REDIS_PORT", s.Port())
	t.Setenv("BAL_LOG_LEVEL", "error")

	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCLI_FetchFromRedisPrintsLatestSnapshot(t *testing.T) {
	client := useMiniredis(t)

	publisher := redisStorage.NewStatePublisher(client, "balance:state", 1, zerolog.Nop())
	require.NoError(t, publisher.Publish(context.Background(), domain.BalanceState{
		LastResponse: &domain.BalanceResponse{Balance: 42.5, ObservedAt: time.Now()},
	}))

	out, err := runCLI(t, "fetch", "--from-redis")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "$42.50", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Last update: "), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "Published: "), lines[2])
}

func TestCLI_FetchFromRedisWithoutSnapshot(t *testing.T) {
	useMiniredis(t)
	t.Setenv("BAL_PUBLISH_CHANNEL", "wallet:balance")

	_, err := runCLI(t, "fetch", "--from-redis")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wallet:balance:latest")
}
