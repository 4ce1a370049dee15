package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/septivank/charging-telemetry-service/internal/telemetry"
	"go.uber.org/zap"
)

// Publisher handles message publishing to RabbitMQ
type Publisher struct {
	channel  *amqp.Channel
	exchange string
	logger   *zap.Logger
}

// NewPublisher creates a new RabbitMQ publisher
func NewPublisher(conn *Connection, exchange string, logger *zap.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{
		channel:  ch,
		exchange: exchange,
		logger:   logger,
	}, nil
}

// IngestedEvent is published after an event reached both history and status
type IngestedEvent struct {
	Kind       telemetry.Kind `json:"kind"`
	SubjectID  string         `json:"subjectId"`
	HistoryID  string         `json:"historyId"`
	Timestamp  string         `json:"timestamp"`
	IngestedAt string         `json:"ingestedAt"`
}

// NewIngestedEvent builds the notification for a persisted event
func NewIngestedEvent(event telemetry.Event, historyID uuid.UUID, ingestedAt time.Time) IngestedEvent {
	return IngestedEvent{
		Kind:       event.Kind,
		SubjectID:  event.SubjectID,
		HistoryID:  historyID.String(),
		Timestamp:  event.Timestamp.UTC().Format(time.RFC3339Nano),
		IngestedAt: ingestedAt.UTC().Format(time.RFC3339Nano),
	}
}

// IngestedRoutingKey returns the routing key of an ingested notification
func IngestedRoutingKey(kind telemetry.Kind) string {
	return fmt.Sprintf("telemetry.%s.ingested", kind)
}

// NotifyIngested publishes an ingested event for a persisted reading
func (p *Publisher) NotifyIngested(ctx context.Context, event telemetry.Event, historyID uuid.UUID, ingestedAt time.Time) error {
	body, err := json.Marshal(NewIngestedEvent(event, historyID, ingestedAt))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	routingKey := IngestedRoutingKey(event.Kind)
	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    historyID.String(),
			Timestamp:    ingestedAt,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("published ingested event",
		zap.String("routing_key", routingKey),
		zap.String("subject_id", event.SubjectID),
	)
	return nil
}

// Close closes the publisher channel
func (p *Publisher) Close() error {
	if p.channel != nil {
		return p.channel.Close()
	}
	return nil
}
