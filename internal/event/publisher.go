package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"fertilizer-service/internal/models"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// channel is the subset of *amqp.Channel the publisher needs.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AnalysisPublisher publishes completed analyses to AnalysisQueue.
type AnalysisPublisher struct {
	ch                channel
	logger            *zap.Logger
	messagesPublished atomic.Int64
	messagesFailed    atomic.Int64
}

func NewAnalysisPublisher(conn *RabbitMQConnection, logger *zap.Logger) *AnalysisPublisher {
	return newAnalysisPublisher(conn.Channel, logger)
}

func newAnalysisPublisher(ch channel, logger *zap.Logger) *AnalysisPublisher {
	return &AnalysisPublisher{ch: ch, logger: logger}
}

// NewAnalysisEvent flattens a record into its event form.
func NewAnalysisEvent(record *models.AnalysisRecord) AnalysisEvent {
	predictions := make(map[string]string, len(record.Predictions))
	for name, p := range record.Predictions {
		predictions[name] = p.Prediction
	}
	return AnalysisEvent{
		ID:          uuid.NewString(),
		EventType:   AnalysisCompleted,
		AnalysisID:  record.ID.String(),
		Language:    record.Language,
		HealthScore: record.SoilHealth.HealthScore,
		Status:      record.SoilHealth.OverallStatus,
		Predictions: predictions,
		OccurredAt:  record.CreatedAt,
	}
}

func (p *AnalysisPublisher) PublishAnalysisCompleted(ctx context.Context, record *models.AnalysisRecord) error {
	_, err := p.ch.QueueDeclare(
		AnalysisQueue, // queue name
		true,          // durable
		false,         // delete when unused
		false,         // exclusive
		false,         // no-wait
		nil,           // arguments
	)
	if err != nil {
		p.messagesFailed.Add(1)
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	evt := NewAnalysisEvent(record)
	body, err := json.Marshal(evt)
	if err != nil {
		p.messagesFailed.Add(1)
		return fmt.Errorf("failed to marshal analysis event: %w", err)
	}

	err = p.ch.PublishWithContext(
		ctx,
		"",            // exchange
		AnalysisQueue, // routing key
		false,         // mandatory
		false,         // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    evt.ID,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		p.messagesFailed.Add(1)
		return fmt.Errorf("failed to publish analysis event: %w", err)
	}

	p.messagesPublished.Add(1)
	p.logger.Debug("analysis event published",
		zap.String("queue", AnalysisQueue),
		zap.String("analysis_id", evt.AnalysisID))
	return nil
}

// GetMetrics returns publisher counters.
func (p *AnalysisPublisher) GetMetrics() map[string]any {
	return map[string]any{
		"messages_published": p.messagesPublished.Load(),
		"messages_failed":    p.messagesFailed.Load(),
		"queue":              AnalysisQueue,
	}
}
