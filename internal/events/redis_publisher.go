// internal/events/redis_publisher.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Channel carries one JSON TransitionEvent per message.
const Channel = "coldpilot:status_events"

// RedisPublisher publishes transition events over Redis pub/sub.
type RedisPublisher struct {
	Redis *redis.Client
}

// NewRedisPublisher creates a publisher from a redis URL and verifies the
// connection.
func NewRedisPublisher(redisURL string) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed connecting to redis: %w", err)
	}

	log.Println("✅ Redis connected")

	return &RedisPublisher{Redis: client}, nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.Redis.Close()
}

func (p *RedisPublisher) PublishTransition(ctx context.Context, ev TransitionEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.Redis.Publish(ctx, Channel, payload).Err()
}

var _ Publisher = (*RedisPublisher)(nil)
