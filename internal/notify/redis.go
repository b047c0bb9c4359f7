package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel notifications are published on.
const DefaultChannel = "hackhub-notifications"

// RedisSink publishes notifications to a Redis channel so every instance
// subscribed with Hub.SubscribeToRedis can deliver them.
type RedisSink struct {
	Client  *redis.Client
	Channel string
	Logger  *slog.Logger
}

func (s RedisSink) Notify(ctx context.Context, n Notification) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	payload, err := json.Marshal(n)
	if err != nil {
		logger.Error("encode notification", slog.Any("err", err))
		return
	}
	channel := s.Channel
	if channel == "" {
		channel = DefaultChannel
	}
	if err := s.Client.Publish(ctx, channel, payload).Err(); err != nil {
		logger.Error("redis publish", slog.String("channel", channel), slog.Any("err", err))
	}
}
