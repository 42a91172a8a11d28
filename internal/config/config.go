package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type FertilizerServiceConfig struct {
	Port           string
	CORSOrigins    []string
	LogCfg         LogConfig
	WeatherCfg     WeatherConfig
	ModelServerCfg ModelServerConfig
	PostgresCfg    PostgresConfig
	RedisCfg       RedisConfig
	MinioCfg       MinioConfig
	RabbitMQCfg    RabbitMQConfig
}

type LogConfig struct {
	Dir    string
	Level  string
	Format string
}

type WeatherConfig struct {
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

type ModelServerConfig struct {
	BaseURL string
	Timeout time.Duration
	Models  []string
}

type PostgresConfig struct {
	Enabled  bool
	DBname   string
	Username string
	Password string
	Host     string
	Port     string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type MinioConfig struct {
	Enabled        bool
	MinioURL       string
	MinioAccessKey string
	MinioSecretKey string
	MinioLocation  string
	MinioSecure    bool
	ReportBucket   string
}

type RabbitMQConfig struct {
	Enabled  bool
	Username string
	Password string
	Host     string
	Port     string
}

var defaults = map[string]any{
	"PORT":                 "5000",
	"CORS_ORIGINS":         "*",
	"LOG_DIR":              "/krushak/log/fertilizer_service",
	"LOG_LEVEL":            "info",
	"LOG_FORMAT":           "json",
	"WEATHER_API_KEY":      "",
	"WEATHER_BASE_URL":     "https://api.openweathermap.org/data/2.5",
	"WEATHER_TIMEOUT":      "10s",
	"WEATHER_CACHE_TTL":    "10m",
	"MODEL_SERVER_URL":     "http://localhost:8500",
	"MODEL_SERVER_TIMEOUT": "15s",
	"MODEL_NAMES":          "RandomForestClassifier,DecisionTreeClassifier,LogisticRegression,SVC,GaussianNB",
	"POSTGRES_ENABLED":     false,
	"POSTGRES_DB":          "krushak",
	"POSTGRES_USER":        "postgres",
	"POSTGRES_PASSWORD":    "postgres",
	"POSTGRES_HOST":        "localhost",
	"POSTGRES_PORT":        "5432",
	"REDIS_ENABLED":        false,
	"REDIS_HOST":           "localhost",
	"REDIS_PORT":           "6379",
	"REDIS_PASSWORD":       "",
	"REDIS_DB":             0,
	"MINIO_ENABLED":        false,
	"MINIO_ENDPOINT":       "http://localhost:9407",
	"MINIO_ACCESS_KEY":     "minio",
	"MINIO_SECRET_KEY":     "minio123",
	"MINIO_LOCATION":       "us-east-1",
	"MINIO_SECURE":         false,
	"MINIO_REPORT_BUCKET":  "fertilizer-reports",
	"RABBITMQ_ENABLED":     false,
	"RABBITMQ_USER":        "admin",
	"RABBITMQ_PWD":         "admin",
	"RABBITMQ_HOST":        "localhost",
	"RABBITMQ_PORT":        "5672",
}

// New reads configuration from the environment. When CONFIG_FILE is set the
// YAML file it names is loaded first and environment variables override it.
func New() (*FertilizerServiceConfig, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *FertilizerServiceConfig {
	return &FertilizerServiceConfig{
		Port:        v.GetString("PORT"),
		CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
		LogCfg: LogConfig{
			Dir:    v.GetString("LOG_DIR"),
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		WeatherCfg: WeatherConfig{
			APIKey:   v.GetString("WEATHER_API_KEY"),
			BaseURL:  strings.TrimRight(v.GetString("WEATHER_BASE_URL"), "/"),
			Timeout:  v.GetDuration("WEATHER_TIMEOUT"),
			CacheTTL: v.GetDuration("WEATHER_CACHE_TTL"),
		},
		ModelServerCfg: ModelServerConfig{
			BaseURL: strings.TrimRight(v.GetString("MODEL_SERVER_URL"), "/"),
			Timeout: v.GetDuration("MODEL_SERVER_TIMEOUT"),
			Models:  splitList(v.GetString("MODEL_NAMES")),
		},
		PostgresCfg: PostgresConfig{
			Enabled:  v.GetBool("POSTGRES_ENABLED"),
			DBname:   v.GetString("POSTGRES_DB"),
			Username: v.GetString("POSTGRES_USER"),
			Password: v.GetString("POSTGRES_PASSWORD"),
			Host:     v.GetString("POSTGRES_HOST"),
			Port:     v.GetString("POSTGRES_PORT"),
		},
		RedisCfg: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		MinioCfg: MinioConfig{
			Enabled:        v.GetBool("MINIO_ENABLED"),
			MinioURL:       v.GetString("MINIO_ENDPOINT"),
			MinioAccessKey: v.GetString("MINIO_ACCESS_KEY"),
			MinioSecretKey: v.GetString("MINIO_SECRET_KEY"),
			MinioLocation:  v.GetString("MINIO_LOCATION"),
			MinioSecure:    v.GetBool("MINIO_SECURE"),
			ReportBucket:   v.GetString("MINIO_REPORT_BUCKET"),
		},
		RabbitMQCfg: RabbitMQConfig{
			Enabled:  v.GetBool("RABBITMQ_ENABLED"),
			Username: v.GetString("RABBITMQ_USER"),
			Password: v.GetString("RABBITMQ_PWD"),
			Host:     v.GetString("RABBITMQ_HOST"),
			Port:     v.GetString("RABBITMQ_PORT"),
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
