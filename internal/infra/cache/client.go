package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"order-pipeline/internal/pkg/config"

	"github.com/redis/go-redis/v9"
)

func Connect(cfg config.RedisConfig) (*redis.Client, func(), error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	cleanup := func() {
		slog.Info("closing redis client")
		_ = rdb.Close()
	}
	return rdb, cleanup, nil
}

// Pinger adapts a redis client to the health check.
type Pinger struct {
	rdb redis.UniversalClient
}

func NewPinger(rdb redis.UniversalClient) *Pinger {
	return &Pinger{rdb: rdb}
}

func (p *Pinger) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}
