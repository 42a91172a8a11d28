package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fertilizer-service/internal/config"
	"fertilizer-service/internal/models"

	"go.uber.org/zap"
)

var (
	ErrAPIKeyMissing    = errors.New("weather API key not configured")
	ErrLocationRequired = errors.New("city name or coordinates required")
	ErrUpstream         = errors.New("weather API error")
)

// WeatherCache is the optional read-through cache in front of OpenWeather.
type WeatherCache interface {
	GetWeather(ctx context.Context, key string) (*models.WeatherData, error)
	SetWeather(ctx context.Context, key string, data *models.WeatherData) error
}

type IWeatherService interface {
	FetchCurrentWeather(ctx context.Context, query models.WeatherQuery) (*models.WeatherData, error)
}

type WeatherService struct {
	cfg    config.WeatherConfig
	client *http.Client
	cache  WeatherCache
	logger *zap.Logger
}

// NewWeatherService builds the service. cache may be nil.
func NewWeatherService(cfg config.WeatherConfig, cache WeatherCache, logger *zap.Logger) IWeatherService {
	return &WeatherService{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		cache:  cache,
		logger: logger,
	}
}

func (w *WeatherService) FetchCurrentWeather(ctx context.Context, query models.WeatherQuery) (*models.WeatherData, error) {
	params := url.Values{}
	var key string
	switch {
	case strings.TrimSpace(query.City) != "":
		city := strings.TrimSpace(query.City)
		params.Set("q", city)
		key = "city:" + strings.ToLower(city)
	case query.HasCoordinates():
		lat := strconv.FormatFloat(*query.Lat, 'f', -1, 64)
		lon := strconv.FormatFloat(*query.Lon, 'f', -1, 64)
		params.Set("lat", lat)
		params.Set("lon", lon)
		key = "coord:" + lat + "," + lon
	default:
		return nil, ErrLocationRequired
	}

	if w.cfg.APIKey == "" {
		w.logger.Error("weather API key not configured", zap.String("op", "WeatherService.FetchCurrentWeather"))
		return nil, ErrAPIKeyMissing
	}

	if cached := w.fromCache(ctx, key); cached != nil {
		return cached, nil
	}

	params.Set("appid", w.cfg.APIKey)
	params.Set("units", "metric")
	endpoint := w.cfg.BaseURL + "/weather?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create weather request: %w", err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		w.logger.Error("error fetching weather data", zap.String("location", key), zap.Error(err))
		return nil, fmt.Errorf("%w: failed to call API", ErrUpstream)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response", ErrUpstream)
	}

	if resp.StatusCode != http.StatusOK {
		w.logger.Warn("weather API returned non-200 status",
			zap.String("location", key),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var raw models.OpenWeatherCurrentResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON: %v", ErrUpstream, err)
	}

	data, err := condenseWeather(raw)
	if err != nil {
		w.logger.Warn("unexpected weather data format", zap.String("location", key), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	w.logger.Info("weather data fetched", zap.String("location", key))
	w.toCache(ctx, key, data)
	return data, nil
}

func (w *WeatherService) fromCache(ctx context.Context, key string) *models.WeatherData {
	if w.cache == nil {
		return nil
	}
	data, err := w.cache.GetWeather(ctx, key)
	if err != nil {
		w.logger.Warn("weather cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	return data
}

func (w *WeatherService) toCache(ctx context.Context, key string, data *models.WeatherData) {
	if w.cache == nil {
		return
	}
	if err := w.cache.SetWeather(ctx, key, data); err != nil {
		w.logger.Warn("weather cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// condenseWeather keeps the fields the reports use. main, weather, sys and
// name are required; wind and rain default to 0.
func condenseWeather(raw models.OpenWeatherCurrentResponse) (*models.WeatherData, error) {
	if raw.Main == nil || raw.Main.Temp == nil || raw.Main.Humidity == nil || raw.Main.Pressure == nil {
		return nil, errors.New("missing main section")
	}
	if len(raw.Weather) == 0 {
		return nil, errors.New("missing weather description")
	}
	if raw.Sys == nil || raw.Name == "" {
		return nil, errors.New("missing location")
	}

	data := &models.WeatherData{
		Temperature: math.Round(*raw.Main.Temp*10) / 10,
		Humidity:    *raw.Main.Humidity,
		Pressure:    *raw.Main.Pressure,
		Description: raw.Weather[0].Description,
		City:        raw.Name,
		Country:     raw.Sys.Country,
	}
	if raw.Wind != nil {
		data.WindSpeed = raw.Wind.Speed
	}
	if raw.Rain != nil {
		data.Rainfall = raw.Rain.OneHour
	}
	return data, nil
}
