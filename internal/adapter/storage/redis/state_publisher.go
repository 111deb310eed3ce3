package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"balance-monitor/internal/core/domain"
	"balance-monitor/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// StateMessage is the JSON payload published for every balance snapshot.
type StateMessage struct {
	State            domain.BalanceState `json:"state"`
	FormattedBalance string              `json:"formatted_balance"`
	PublishedAt      time.Time           `json:"published_at"`
}

// StatePublisher broadcasts balance snapshots over Redis pub/sub and keeps
// the latest one under "<channel>:latest" for late readers.
//
// Observe never blocks: snapshots are queued and written by Run. When the
// queue is full the oldest queued snapshot is dropped.
type StatePublisher struct {
	client  *goredis.Client
	channel string
	queue   chan domain.BalanceState
	dropped atomic.Uint64
	now     func() time.Time
	log     zerolog.Logger
}

// NewStatePublisher creates a publisher writing to channel with room for
// buffer pending snapshots.
func NewStatePublisher(client *goredis.Client, channel string, buffer int, log zerolog.Logger) *StatePublisher {
	if buffer < 1 {
		buffer = 1
	}
	return &StatePublisher{
		client:  client,
		channel: channel,
		queue:   make(chan domain.BalanceState, buffer),
		now:     time.Now,
		log:     logger.ForComponent(log, "state_publisher"),
	}
}

// LatestKey is where the most recent snapshot is stored.
func (p *StatePublisher) LatestKey() string {
	return p.channel + ":latest"
}

// Observe queues state for publishing. It satisfies ports.StateObserver.
func (p *StatePublisher) Observe(state domain.BalanceState) {
	for {
		select {
		case p.queue <- state:
			return
		default:
		}

		select {
		case <-p.queue:
			n := p.dropped.Add(1)
			p.log.Warn().Uint64("dropped_total", n).Msg("publish queue full, oldest snapshot dropped")
		default:
		}
	}
}

// Dropped reports how many snapshots were discarded because the queue was full.
func (p *StatePublisher) Dropped() uint64 {
	return p.dropped.Load()
}

// Run publishes queued snapshots until ctx is done.
func (p *StatePublisher) Run(ctx context.Context) {
	p.log.Info().Str("channel", p.channel).Msg("state publisher started")
	defer p.log.Info().Msg("state publisher stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case state := <-p.queue:
			if err := p.Publish(ctx, state); err != nil {
				p.log.Error().Err(err).Msg("failed to publish balance state")
			}
		}
	}
}

// Publish stores state as the latest snapshot and announces it on the channel.
func (p *StatePublisher) Publish(ctx context.Context, state domain.BalanceState) error {
	payload, err := json.Marshal(StateMessage{
		State:            state,
		FormattedBalance: state.FormattedBalance(),
		PublishedAt:      p.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal balance state: %w", err)
	}

	_, err = p.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, p.LatestKey(), payload, 0)
		pipe.Publish(ctx, p.channel, payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis publish balance state: %w", err)
	}
	return nil
}

// Latest returns the most recently published snapshot, or nil if none was
// published yet. The CLI reads it with `fetch --from-redis`.
func (p *StatePublisher) Latest(ctx context.Context) (*StateMessage, error) {
	val, err := p.client.Get(ctx, p.LatestKey()).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis latest balance state: %w", err)
	}

	var msg StateMessage
	if err := json.Unmarshal(val, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal balance state: %w", err)
	}
	return &msg, nil
}
