package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RedisPublisher struct {
	rdb     *redis.Client
	channel string
	logger  *zap.Logger
}

func NewRedisPublisher(rdb *redis.Client, channel string, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel, logger: logger}
}

// Publish sends to the shared channel and to a per-type channel
// (<channel>:<event_type>) for narrow subscribers.
func (p *RedisPublisher) Publish(ctx context.Context, ev *RegistrationEvent) error {
	stamp(ev)
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		p.logger.Error("failed to publish registration event",
			zap.String("event_type", ev.EventType),
			zap.Int64("registration_id", ev.RegistrationID),
			zap.Error(err))
		return fmt.Errorf("failed to publish event: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel+":"+ev.EventType, payload).Err(); err != nil {
		p.logger.Warn("failed to publish to typed channel",
			zap.String("event_type", ev.EventType),
			zap.Error(err))
	}

	p.logger.Debug("registration event published",
		zap.String("event_type", ev.EventType),
		zap.Int64("registration_id", ev.RegistrationID))
	return nil
}

// Close is a no-op: the redis client is owned by the server.
func (p *RedisPublisher) Close() error { return nil }
