package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"fertilizer-service/internal/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func connString(cfg config.PostgresConfig, dbname string) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, dbname)
}

// ConnectAndCreateDB connects to cfg.DBname, creating the database through
// the default postgres database first when it does not exist yet.
func ConnectAndCreateDB(cfg config.PostgresConfig, logger *zap.Logger) (*sqlx.DB, error) {
	logger.Info("connecting to postgres",
		zap.String("host", cfg.Host),
		zap.String("port", cfg.Port),
		zap.String("user", cfg.Username),
		zap.String("dbname", cfg.DBname))

	defaultDB, err := sql.Open("postgres", connString(cfg, "postgres"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to default postgres db: %w", err)
	}
	defer defaultDB.Close()

	var exists bool
	err = defaultDB.QueryRow(`SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`, cfg.DBname).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check if database exists: %w", err)
	}

	if !exists {
		if _, err = defaultDB.Exec(fmt.Sprintf(`CREATE DATABASE "%s"`, cfg.DBname)); err != nil {
			return nil, fmt.Errorf("failed to create database %s: %w", cfg.DBname, err)
		}
		logger.Info("database created", zap.String("dbname", cfg.DBname))
	}

	db, err := sqlx.Connect("postgres", connString(cfg, cfg.DBname))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to target database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping target database: %w", err)
	}
	return db, nil
}

// RetryConnectOnFailed keeps calling ConnectAndCreateDB every wait until it
// succeeds or attempts run out. attempts <= 0 retries forever.
func RetryConnectOnFailed(wait time.Duration, attempts int, cfg config.PostgresConfig, logger *zap.Logger) (*sqlx.DB, error) {
	var lastErr error
	for i := 1; attempts <= 0 || i <= attempts; i++ {
		db, err := ConnectAndCreateDB(cfg, logger)
		if err == nil {
			return db, nil
		}
		lastErr = err
		logger.Warn("failed to connect database, retrying",
			zap.Int("attempt", i),
			zap.Duration("wait", wait),
			zap.Error(err))
		time.Sleep(wait)
	}
	return nil, fmt.Errorf("giving up on postgres after %d attempts: %w", attempts, lastErr)
}
