package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"balance-monitor/internal/core/domain"
	"balance-monitor/internal/core/ports"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.StateObserver = (*StatePublisher)(nil).Observe

var publishedAt = time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)

func newTestPublisher(t *testing.T, buffer int) (*StatePublisher, *goredis.Client) {
	t.Helper()
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	p := NewStatePublisher(client, "balance:state", buffer, zerolog.Nop())
	p.now = func() time.Time { return publishedAt }
	return p, client
}

func sampleState(balance float64) domain.BalanceState {
	return domain.BalanceState{
		LastResponse: &domain.BalanceResponse{Balance: balance, ObservedAt: publishedAt.Add(-time.Minute)},
		IsRedacted:   true,
	}
}

func TestStatePublisher_PublishStoresLatestAndNotifies(t *testing.T) {
	p, client := newTestPublisher(t, 4)
	ctx := context.Background()

	sub := client.Subscribe(ctx, "balance:state")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, p.Publish(ctx, sampleState(1.23456)))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var got StateMessage
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, "$1.23", got.FormattedBalance)
	assert.True(t, got.State.IsRedacted)
	require.NotNil(t, got.State.LastResponse)
	assert.Equal(t, 1.23456, got.State.LastResponse.Balance)
	assert.True(t, publishedAt.Equal(got.PublishedAt))

	latest, err := p.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, got.FormattedBalance, latest.FormattedBalance)
}

func TestStatePublisher_LatestEmpty(t *testing.T) {
	p, _ := newTestPublisher(t, 4)

	latest, err := p.Latest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestStatePublisher_ObserveDropsOldestWhenFull(t *testing.T) {
	p, _ := newTestPublisher(t, 2)

	p.Observe(sampleState(1))
	p.Observe(sampleState(2))
	p.Observe(sampleState(3))
	p.Observe(sampleState(4))

	assert.Equal(t, uint64(2), p.Dropped())
	require.Len(t, p.queue, 2)
	assert.Equal(t, 3.0, (<-p.queue).LastResponse.Balance)
	assert.Equal(t, 4.0, (<-p.queue).LastResponse.Balance)
}

func TestStatePublisher_RunPublishesQueuedSnapshots(t *testing.T) {
	p, _ := newTestPublisher(t, 4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	p.Observe(domain.BalanceState{IsRefreshing: true})
	p.Observe(sampleState(42))

	require.Eventually(t, func() bool {
		latest, err := p.Latest(context.Background())
		return err == nil && latest != nil && latest.State.LastResponse != nil &&
			latest.State.LastResponse.Balance == 42
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher did not stop")
	}
}

func TestStatePublisher_PublishErrorWhenRedisDown(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr(), MaxRetries: -1})
	defer client.Close()
	p := NewStatePublisher(client, "balance:state", 1, zerolog.Nop())
	s.Close()

	err := p.Publish(context.Background(), sampleState(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis publish balance state")
}

func TestStatePublisher_LatestKey(t *testing.T) {
	p := NewStatePublisher(nil, "wallet:balance", 0, zerolog.Nop())

	assert.Equal(t, "wallet:balance:latest", p.LatestKey())
	assert.Equal(t, 1, cap(p.queue))
}
