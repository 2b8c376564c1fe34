package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// NewClient connects to the identity store using a redis:// or rediss:// URL.
// TLS and auth are driven entirely by the URL; connection pooling is the
// client's concern.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
