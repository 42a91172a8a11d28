package redis

import (
	"context"
	"testing"

	"fertilizer-service/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRedisClient(t *testing.T) {
	s := miniredis.RunT(t)

	c, err := NewRedisClient(config.RedisConfig{Host: s.Host(), Port: s.Port()}, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, c.GetClient().Set(context.Background(), "k", "v", 0).Err())
	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
	assert.NoError(t, c.Close())
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	s := miniredis.RunT(t)
	host, port := s.Host(), s.Port()
	s.Close()

	_, err := NewRedisClient(config.RedisConfig{Host: host, Port: port}, zap.NewNop())
	assert.ErrorContains(t, err, "failed to reach redis")
}

func TestOptions_IPv6Host(t *testing.T) {
	opts := options(config.RedisConfig{Host: "::1", Port: "6379", DB: 2})
	assert.Equal(t, "[::1]:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
}
