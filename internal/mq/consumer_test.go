package mq

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/septivank/charging-telemetry-service/internal/service"
	"go.uber.org/zap"
)

type settlement struct {
	tag     uint64
	acked   bool
	requeue bool
}

type fakeAcknowledger struct {
	settled []settlement
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.settled = append(a.settled, settlement{tag: tag, acked: true})
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.settled = append(a.settled, settlement{tag: tag, requeue: requeue})
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func TestConsumer_ProcessMessageSettles(t *testing.T) {
	tests := []struct {
		name        string
		handlerErr  error
		redelivered bool
		want        settlement
	}{
		{"ack on success", nil, false, settlement{tag: 7, acked: true}},
		{"requeue storage failure", &service.StorageError{Op: "append_history", Err: errors.New("down")}, false, settlement{tag: 7, requeue: true}},
		{"dead letter after retry", &service.StorageError{Op: "append_history", Err: errors.New("down")}, true, settlement{tag: 7}},
		{"dead letter invalid", &service.ValidationError{}, false, settlement{tag: 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAcknowledger{}
			var gotKey string
			c := &Consumer{
				queue:  "test",
				logger: zap.NewNop(),
				handle: func(ctx context.Context, routingKey string, body []byte) error {
					gotKey = routingKey
					return tt.handlerErr
				},
			}

			c.processMessage(context.Background(), amqp.Delivery{
				Acknowledger: ack,
				DeliveryTag:  7,
				RoutingKey:   RoutingKeyMeter,
				Redelivered:  tt.redelivered,
				Body:         []byte(`{}`),
			})

			if gotKey != RoutingKeyMeter {
				t.Errorf("Expected handler to receive %s, got %s", RoutingKeyMeter, gotKey)
			}
			if len(ack.settled) != 1 {
				t.Fatalf("Expected exactly one settlement, got %d", len(ack.settled))
			}
			if ack.settled[0] != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, ack.settled[0])
			}
		})
	}
}
