package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	"fertilizer-service/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const pingTimeout = 5 * time.Second

// Client owns the connection pool behind the weather cache.
type Client struct {
	client *redis.Client
	logger *zap.Logger
}

func options(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  pingTimeout,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	}
}

func NewRedisClient(cfg config.RedisConfig, logger *zap.Logger) (*Client, error) {
	opts := options(cfg)
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", opts.Addr, err)
	}

	logger.Info("connected to redis", zap.String("addr", opts.Addr), zap.Int("db", cfg.DB))
	return &Client{client: client, logger: logger}, nil
}

func (c *Client) GetClient() *redis.Client {
	return c.client
}

func (c *Client) Close() error {
	if err := c.client.Close(); err != nil {
		c.logger.Error("failed to close redis client", zap.Error(err))
		return err
	}
	return nil
}
