package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aquago/aquago-api/pkg/config"
)

const (
	pingAttempts = 3
	pingTimeout  = 2 * time.Second
	pingBackoff  = 200 * time.Millisecond
)

// NewRedis returns a connected client, or nil when no host is configured.
// The first ping is retried a few times since redis often starts after the
// API in compose setups.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Host == "" {
		return nil, nil
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  pingTimeout,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	var err error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			return client, nil
		}
		if attempt == pingAttempts {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			attempt = pingAttempts
		case <-time.After(pingBackoff * time.Duration(attempt)):
		}
	}

	_ = client.Close()
	return nil, fmt.Errorf("ping redis %s: %w", addr, err)
}
