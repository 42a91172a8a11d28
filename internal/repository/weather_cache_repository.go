package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fertilizer-service/internal/models"
	"fertilizer-service/utils"

	"github.com/redis/go-redis/v9"
)

const weatherKeyPrefix = "weather:"

// WeatherCacheRepository keeps condensed weather snapshots in Redis.
type WeatherCacheRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewWeatherCacheRepository(client *redis.Client, ttl time.Duration) *WeatherCacheRepository {
	return &WeatherCacheRepository{client: client, ttl: ttl}
}

// GetWeather returns nil, nil on a miss.
func (r *WeatherCacheRepository) GetWeather(ctx context.Context, key string) (*models.WeatherData, error) {
	raw, err := r.client.Get(ctx, weatherKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read weather cache: %w", err)
	}

	data, err := utils.DecodeCached[models.WeatherData](raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cached weather: %w", err)
	}
	return data, nil
}

func (r *WeatherCacheRepository) SetWeather(ctx context.Context, key string, data *models.WeatherData) error {
	raw, err := utils.EncodeCached(data)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, weatherKeyPrefix+key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write weather cache: %w", err)
	}
	return nil
}
