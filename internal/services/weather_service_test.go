package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"fertilizer-service/internal/config"
	"fertilizer-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const mumbaiWeather = `{
	"name": "Mumbai",
	"main": {"temp": 29.46, "humidity": 74, "pressure": 1008},
	"weather": [{"description": "haze"}],
	"wind": {"speed": 3.6},
	"sys": {"country": "IN"},
	"rain": {"1h": 0.8}
}`

type memoryWeatherCache struct {
	mu    sync.Mutex
	items map[string]*models.WeatherData
	sets  int
}

func newMemoryWeatherCache() *memoryWeatherCache {
	return &memoryWeatherCache{items: map[string]*models.WeatherData{}}
}

func (m *memoryWeatherCache) GetWeather(_ context.Context, key string) (*models.WeatherData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[key], nil
}

func (m *memoryWeatherCache) SetWeather(_ context.Context, key string, data *models.WeatherData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = data
	m.sets++
	return nil
}

func newTestWeatherService(t *testing.T, handler http.HandlerFunc, cache WeatherCache) IWeatherService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.WeatherConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 2 * time.Second,
	}
	return NewWeatherService(cfg, cache, zap.NewNop())
}

func floatPtr(v float64) *float64 { return &v }

func TestFetchCurrentWeather_ByCity(t *testing.T) {
	var gotQuery map[string]string
	svc := newTestWeatherService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		gotQuery = map[string]string{
			"q":     r.URL.Query().Get("q"),
			"appid": r.URL.Query().Get("appid"),
			"units": r.URL.Query().Get("units"),
		}
		w.Write([]byte(mumbaiWeather))
	}, nil)

	data, err := svc.FetchCurrentWeather(context.Background(), models.WeatherQuery{City: "Mumbai"})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"q": "Mumbai", "appid": "test-key", "units": "metric"}, gotQuery)
	assert.Equal(t, &models.WeatherData{
		Temperature: 29.5,
		Humidity:    74,
		Pressure:    1008,
		Description: "haze",
		WindSpeed:   3.6,
		City:        "Mumbai",
		Country:     "IN",
		Rainfall:    0.8,
	}, data)
}

func TestFetchCurrentWeather_ByCoordinates(t *testing.T) {
	svc := newTestWeatherService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0", r.URL.Query().Get("lat"))
		assert.Equal(t, "72.8777", r.URL.Query().Get("lon"))
		w.Write([]byte(`{"name":"Somewhere","main":{"temp":20,"humidity":50,"pressure":1000},"weather":[{"description":"clear sky"}],"sys":{"country":""}}`))
	}, nil)

	data, err := svc.FetchCurrentWeather(context.Background(), models.WeatherQuery{
		Lat: floatPtr(0),
		Lon: floatPtr(72.8777),
	})
	require.NoError(t, err)

	assert.Equal(t, "Somewhere", data.City)
	assert.Zero(t, data.WindSpeed)
	assert.Zero(t, data.Rainfall)
}

func TestFetchCurrentWeather_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		query   models.WeatherQuery
		wantErr error
	}{
		{"no location", http.StatusOK, mumbaiWeather, models.WeatherQuery{}, ErrLocationRequired},
		{"only latitude", http.StatusOK, mumbaiWeather, models.WeatherQuery{Lat: floatPtr(1)}, ErrLocationRequired},
		{"upstream 404", http.StatusNotFound, `{"cod":"404","message":"city not found"}`, models.WeatherQuery{City: "Atlantis"}, ErrUpstream},
		{"malformed json", http.StatusOK, `{`, models.WeatherQuery{City: "Pune"}, ErrUpstream},
		{"missing main", http.StatusOK, `{"name":"Pune","weather":[{"description":"x"}],"sys":{"country":"IN"}}`, models.WeatherQuery{City: "Pune"}, ErrUpstream},
		{"missing description", http.StatusOK, `{"name":"Pune","main":{"temp":1,"humidity":2,"pressure":3},"weather":[],"sys":{"country":"IN"}}`, models.WeatherQuery{City: "Pune"}, ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestWeatherService(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}, nil)

			_, err := svc.FetchCurrentWeather(context.Background(), tt.query)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFetchCurrentWeather_MissingAPIKey(t *testing.T) {
	svc := NewWeatherService(config.WeatherConfig{BaseURL: "http://unused"}, nil, zap.NewNop())

	_, err := svc.FetchCurrentWeather(context.Background(), models.WeatherQuery{City: "Mumbai"})
	assert.ErrorIs(t, err, ErrAPIKeyMissing)
}

func TestFetchCurrentWeather_UsesCache(t *testing.T) {
	calls := 0
	cache := newMemoryWeatherCache()
	svc := newTestWeatherService(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(mumbaiWeather))
	}, cache)

	first, err := svc.FetchCurrentWeather(context.Background(), models.WeatherQuery{City: "Mumbai"})
	require.NoError(t, err)
	second, err := svc.FetchCurrentWeather(context.Background(), models.WeatherQuery{City: " mumbai "})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, first, second)
}

func TestFetchCurrentWeather_CoordinateCacheKeyKeepsPrecision(t *testing.T) {
	calls := 0
	cache := newMemoryWeatherCache()
	svc := newTestWeatherService(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(mumbaiWeather))
	}, cache)

	lat, lonA, lonB := 19.07603, 72.87773, 72.87777
	_, err := svc.FetchCurrentWeather(context.Background(), models.WeatherQuery{Lat: &lat, Lon: &lonA})
	require.NoError(t, err)
	_, err = svc.FetchCurrentWeather(context.Background(), models.WeatherQuery{Lat: &lat, Lon: &lonB})
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Contains(t, cache.items, "coord:19.07603,72.87773")
	assert.Contains(t, cache.items, "coord:19.07603,72.87777")

	_, err = svc.FetchCurrentWeather(context.Background(), models.WeatherQuery{Lat: &lat, Lon: &lonA})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
