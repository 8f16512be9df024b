package notify

import (
	"context"

	"github.com/go-jose/go-jose/v4/json"
	"go.uber.org/zap"

	redispkg "github.com/canopy-network/stakewatch/pkg/redis"
)

// Delivery names on the Redis side.
const (
	// Channel carries live notifications over Pub/Sub.
	Channel = "stakewatch:notifications"
	// Stream keeps a capped backlog for consumers that attach late.
	Stream = "stakewatch:notifications.stream"
)

// RedisSink publishes notifications to the Pub/Sub channel for live
// consumers and appends them to the capped stream for late ones.
type RedisSink struct {
	client *redispkg.Client
	logger *zap.Logger
}

// NewRedisSink creates a sink that delivers through client.
func NewRedisSink(client *redispkg.Client, logger *zap.Logger) *RedisSink {
	return &RedisSink{client: client, logger: logger}
}

func (s *RedisSink) Notify(ctx context.Context, n Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		s.logger.Warn("Failed to encode notification", zap.String("id", n.ID), zap.Error(err))
		return
	}

	s.client.Publish(ctx, Channel, payload)
	s.client.XAdd(ctx, Stream, map[string]interface{}{
		"id":      n.ID,
		"variant": string(n.Variant),
		"data":    string(payload),
	})
}
