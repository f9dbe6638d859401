package redis

import (
	"context"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

// ClientConfig carries the connection settings for the Redis backend.
type ClientConfig struct {
	URL      string
	Password string
	DB       int
}

// NewClient creates a Redis client and performs a health check.
func NewClient(cfg ClientConfig) (*redislib.Client, error) {
	opts, err := redislib.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}

	client := redislib.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}
