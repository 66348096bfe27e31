// Package cache opens the Redis client shared by sessions, datasets and report results.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// Open creates a Redis client for addr. A failed ping is only logged.
func Open(ctx context.Context, addr string, logger *slog.Logger) *redis.Client {
	if logger == nil {
		logger = slog.Default()
	}
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.String("addr", addr), slog.Any("error", err))
	}
	return client
}

// Close releases client, logging failures.
func Close(client *redis.Client, logger *slog.Logger) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("redis close", slog.Any("error", err))
	}
}
