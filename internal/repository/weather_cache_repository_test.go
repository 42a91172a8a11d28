package repository

import (
	"context"
	"testing"
	"time"

	"fertilizer-service/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestWeatherCacheRepository_RoundTrip(t *testing.T) {
	mr, client := newTestRedis(t)
	repo := NewWeatherCacheRepository(client, 10*time.Minute)
	ctx := context.Background()

	miss, err := repo.GetWeather(ctx, "city:pune")
	require.NoError(t, err)
	assert.Nil(t, miss)

	data := &models.WeatherData{Temperature: 28.4, Humidity: 62, City: "Pune", Country: "IN", Description: "haze"}
	require.NoError(t, repo.SetWeather(ctx, "city:pune", data))
	assert.True(t, mr.Exists("weather:city:pune"))

	hit, err := repo.GetWeather(ctx, "city:pune")
	require.NoError(t, err)
	assert.Equal(t, data, hit)

	mr.FastForward(11 * time.Minute)
	expired, err := repo.GetWeather(ctx, "city:pune")
	require.NoError(t, err)
	assert.Nil(t, expired)
}

func TestWeatherCacheRepository_CorruptEntry(t *testing.T) {
	mr, client := newTestRedis(t)
	repo := NewWeatherCacheRepository(client, time.Minute)

	require.NoError(t, mr.Set("weather:city:nagpur", "not json"))

	_, err := repo.GetWeather(context.Background(), "city:nagpur")
	assert.Error(t, err)
}

func TestWeatherCacheRepository_NilData(t *testing.T) {
	_, client := newTestRedis(t)
	repo := NewWeatherCacheRepository(client, time.Minute)

	assert.Error(t, repo.SetWeather(context.Background(), "city:x", nil))
}
