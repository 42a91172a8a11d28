package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"fertilizer-service/internal/config"
	"fertilizer-service/internal/database/minio"
	"fertilizer-service/internal/database/postgres"
	"fertilizer-service/internal/database/redis"
	"fertilizer-service/internal/event"
	"fertilizer-service/internal/handlers"
	"fertilizer-service/internal/i18n"
	"fertilizer-service/internal/logger"
	"fertilizer-service/internal/repository"
	"fertilizer-service/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	postgresRetryWait     = 5 * time.Second
	postgresRetryAttempts = 3
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	if err := run(cfg); err != nil {
		log.Fatalf("fertilizer-service stopped: %v", err)
	}
}

// run returns instead of exiting so deferred connection closes always run.
func run(cfg *config.FertilizerServiceConfig) error {
	zlog, closeLog, err := logger.New(cfg.LogCfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer closeLog()

	zlog.Info("fertilizer-service configuration loaded",
		zap.String("port", cfg.Port),
		zap.String("model_server", cfg.ModelServerCfg.BaseURL),
		zap.Strings("models", cfg.ModelServerCfg.Models),
		zap.Bool("postgres", cfg.PostgresCfg.Enabled),
		zap.Bool("redis", cfg.RedisCfg.Enabled),
		zap.Bool("minio", cfg.MinioCfg.Enabled),
		zap.Bool("rabbitmq", cfg.RabbitMQCfg.Enabled))

	catalog := i18n.MustNewCatalog()

	// Optional infrastructure. Interfaces are only assigned on success so a
	// disabled or unreachable backend stays a true nil.
	var (
		store     services.AnalysisStore
		publisher services.AnalysisPublisher
		cache     services.WeatherCache
		archiver  services.ReportArchiver
	)

	if cfg.PostgresCfg.Enabled {
		db, err := postgres.RetryConnectOnFailed(postgresRetryWait, postgresRetryAttempts, cfg.PostgresCfg, zlog)
		if err != nil {
			zlog.Error("analysis history disabled", zap.Error(err))
		} else {
			defer db.Close()
			repo := repository.NewAnalysisRepository(db)
			if err := repo.EnsureSchema(context.Background()); err != nil {
				zlog.Error("analysis history disabled", zap.Error(err))
			} else {
				store = repo
			}
		}
	}

	if cfg.RedisCfg.Enabled {
		redisClient, err := redis.NewRedisClient(cfg.RedisCfg, zlog)
		if err != nil {
			zlog.Error("weather cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			cache = repository.NewWeatherCacheRepository(redisClient.GetClient(), cfg.WeatherCfg.CacheTTL)
		}
	}

	if cfg.MinioCfg.Enabled {
		minioClient, err := minio.NewMinioClient(cfg.MinioCfg, zlog)
		if err != nil {
			zlog.Error("report archive disabled", zap.Error(err))
		} else {
			archiver = minioClient
		}
	}

	if cfg.RabbitMQCfg.Enabled {
		conn, err := event.ConnectRabbitMQ(cfg.RabbitMQCfg, zlog)
		if err != nil {
			zlog.Error("analysis events disabled", zap.Error(err))
		} else {
			defer conn.Close()
			publisher = event.NewAnalysisPublisher(conn, zlog)
		}
	}

	predictionService := services.NewPredictionService(services.NewRemoteClassifiers(cfg.ModelServerCfg), zlog)
	evaluator := services.NewSoilHealthEvaluator(catalog)
	analysisService := services.NewAnalysisService(predictionService, evaluator, store, publisher, zlog)
	weatherService := services.NewWeatherService(cfg.WeatherCfg, cache, zlog)
	reportService := services.NewReportService(catalog, archiver, zlog)

	r := gin.Default()
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	handlers.NewFertilizerHandler(analysisService, zlog).RegisterRoutes(r)
	handlers.NewWeatherHandler(weatherService, zlog).RegisterRoutes(r)
	handlers.NewReportHandler(reportService, zlog).RegisterRoutes(r)

	zlog.Info("starting fertilizer-service", zap.String("port", cfg.Port))
	if err := r.Run(fmt.Sprintf(":%s", cfg.Port)); err != nil {
		zlog.Error("failed to start server", zap.Error(err))
		return err
	}
	return nil
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowHeaders = append(c.AllowHeaders, "Authorization")
	c.ExposeHeaders = []string{"Content-Disposition", "X-Report-Object"}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}
