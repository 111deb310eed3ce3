package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"balance-monitor/internal/adapter/fake"
	"balance-monitor/internal/adapter/http/dto"
	"balance-monitor/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp wires the real engine, relay and router over the fake source.
type testApp struct {
	server *httptest.Server
	engine *service.BalanceEngine
}

func newTestApp(t *testing.T, delay time.Duration) *testApp {
	t.Helper()

	fetcher := fake.NewFetcher(fake.WithDelay(delay), fake.WithSeed(1))
	engine := service.NewBalanceEngine(fetcher, service.EngineOptions{FetchTimeout: 5 * time.Second}, zerolog.Nop())
	relay := service.NewLifecycleRelay(engine, zerolog.Nop())

	server := httptest.NewServer(SetupRouter(RouterDeps{
		BalanceSvc: engine,
		Lifecycle:  relay,
		FormatDate: stubDate,
		Logger:     zerolog.Nop(),
	}))

	t.Cleanup(func() {
		server.Close()
		engine.Close()
	})
	return &testApp{server: server, engine: engine}
}

func (a *testApp) call(t *testing.T, method, path string) (int, dto.BalanceStateResponse) {
	t.Helper()
	req, err := http.NewRequest(method, a.server.URL+path, nil)
	require.NoError(t, err)

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var body envelope
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return res.StatusCode, body.Data
}

func TestIntegration_RefreshSettles(t *testing.T) {
	app := newTestApp(t, 20*time.Millisecond)

	code, state := app.call(t, http.MethodGet, "/api/v1/balance")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "--", state.View.FormattedBalance)

	code, state = app.call(t, http.MethodPost, "/api/v1/balance/refresh")
	require.Equal(t, http.StatusAccepted, code)
	assert.True(t, state.IsRefreshing)
	assert.Equal(t, "Loading...", state.View.InfoText)

	var settled dto.BalanceStateResponse
	require.Eventually(t, func() bool {
		_, settled = app.call(t, http.MethodGet, "/api/v1/balance")
		return !settled.IsRefreshing
	}, 2*time.Second, 10*time.Millisecond)

	if settled.DidFail {
		assert.Nil(t, settled.LastResponse)
		assert.Equal(t, "Failed to update.", settled.View.InfoText)
		assert.Equal(t, "red", settled.View.InfoColor)
		return
	}
	require.NotNil(t, settled.LastResponse)
	assert.Equal(t, "$100.00", settled.View.FormattedBalance)
	assert.Equal(t, "Last update: "+stubDateText+".", settled.View.InfoText)
}

func TestIntegration_ConcurrentRefreshes(t *testing.T) {
	app := newTestApp(t, 5*time.Millisecond)

	const concurrency = 50
	var wg sync.WaitGroup
	codes := make(chan int, concurrency)
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := http.Post(app.server.URL+"/api/v1/balance/refresh", "application/json", nil)
			if err != nil {
				return
			}
			res.Body.Close()
			codes <- res.StatusCode
		}()
	}
	wg.Wait()
	close(codes)

	var accepted int
	for code := range codes {
		if code == http.StatusAccepted {
			accepted++
		}
	}
	assert.Equal(t, concurrency, accepted)

	// Only the latest refresh may settle the state; it always does.
	require.Eventually(t, func() bool {
		return !app.engine.CurrentState().IsRefreshing
	}, 2*time.Second, 10*time.Millisecond)

	state := app.engine.CurrentState()
	assert.True(t, state.DidFail || state.LastResponse != nil)
}

func TestIntegration_RedactionDuringRefresh(t *testing.T) {
	app := newTestApp(t, 50*time.Millisecond)

	app.call(t, http.MethodPost, "/api/v1/balance/refresh")

	code, state := app.call(t, http.MethodPost, "/api/v1/lifecycle/inactive")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, state.IsRedacted)
	assert.True(t, state.IsRefreshing)
	assert.True(t, state.View.OverlayVisible)

	require.Eventually(t, func() bool {
		return !app.engine.CurrentState().IsRefreshing
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, app.engine.CurrentState().IsRedacted, "settling a fetch keeps redaction")

	_, state = app.call(t, http.MethodPost, "/api/v1/lifecycle/active")
	assert.False(t, state.IsRedacted)
	assert.Equal(t, 1.0, state.View.ValueAlpha)
}
