// Package redisbus publishes job events over Redis pub/sub so ingestion
// services in other processes can react to completion and failure.
package redisbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/ragvec/core"
	"github.com/poiesic/ragvec/status"
	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel used when none is configured.
const DefaultChannel = "ragvec:jobs"

// ErrMissingAddr indicates no Redis address was configured.
var ErrMissingAddr = errors.New("missing redis address")

// Bus publishes and subscribes to job events on one channel.
type Bus struct {
	rdb     *redis.Client
	channel string
	logger  *slog.Logger
}

var _ status.Notifier = (*Bus)(nil)

// Dial connects to Redis at addr and verifies the connection.
func Dial(ctx context.Context, addr, channel string, logger *slog.Logger) (*Bus, error) {
	if addr == "" {
		return nil, ErrMissingAddr
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(rdb, channel, logger), nil
}

// New wraps an existing client.
func New(rdb *redis.Client, channel string, logger *slog.Logger) *Bus {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		rdb:     rdb,
		channel: channel,
		logger:  logger.With("component", "redisbus", "channel", channel),
	}
}

// Notify publishes event as JSON.
func (b *Bus) Notify(ctx context.Context, event *core.JobEvent) error {
	raw, err := Encode(event)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// Subscribe delivers events to onEvent until ctx is done.
// It returns once the subscription is confirmed.
func (b *Bus) Subscribe(ctx context.Context, onEvent func(*core.JobEvent)) error {
	sub := b.rdb.Subscribe(ctx, b.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				event, err := Decode([]byte(m.Payload))
				if err != nil {
					b.logger.Warn("bad job event payload", "err", err)
					continue
				}
				onEvent(event)
			}
		}
	}()
	return nil
}

// Close closes the Redis client.
func (b *Bus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}

// Encode serializes an event for the wire.
func Encode(event *core.JobEvent) ([]byte, error) {
	return json.Marshal(event)
}

// Decode parses a wire event.
func Decode(raw []byte) (*core.JobEvent, error) {
	var event core.JobEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, err
	}
	if event.JobID == "" {
		return nil, errors.New("job event without jobId")
	}
	return &event, nil
}
