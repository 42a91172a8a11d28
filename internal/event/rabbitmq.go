package event

import (
	"errors"
	"fmt"
	"strconv"

	"fertilizer-service/internal/config"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RabbitMQConnection is the broker link the analysis publisher writes to.
type RabbitMQConnection struct {
	Connection *amqp.Connection
	Channel    *amqp.Channel
	logger     *zap.Logger
}

// brokerURI escapes credentials, so passwords may contain '@' or '/'.
func brokerURI(cfg config.RabbitMQConfig) (string, error) {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		return "", fmt.Errorf("invalid rabbitmq port %q: %w", cfg.Port, err)
	}
	uri := amqp.URI{
		Scheme:   "amqp",
		Host:     cfg.Host,
		Port:     port,
		Username: cfg.Username,
		Password: cfg.Password,
		Vhost:    "/",
	}
	return uri.String(), nil
}

func ConnectRabbitMQ(cfg config.RabbitMQConfig, logger *zap.Logger) (*RabbitMQConnection, error) {
	uri, err := brokerURI(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rabbitmq at %s:%s: %w", cfg.Host, cfg.Port, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}

	logger.Info("connected to rabbitmq", zap.String("host", cfg.Host), zap.String("port", cfg.Port))
	return &RabbitMQConnection{Connection: conn, Channel: ch, logger: logger}, nil
}

// Close shuts the channel before the connection and reports both failures.
func (r *RabbitMQConnection) Close() error {
	var errs []error
	if r.Channel != nil {
		if err := r.Channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("channel: %w", err))
		}
	}
	if r.Connection != nil {
		if err := r.Connection.Close(); err != nil {
			errs = append(errs, fmt.Errorf("connection: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		r.logger.Error("failed to close rabbitmq", zap.Error(err))
		return err
	}
	return nil
}
