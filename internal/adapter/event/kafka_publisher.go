package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/rl1809/order-fulfillment/internal/core/domain"
)

const DefaultEventsTopic = "order.events"

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
		},
	}
}

func (p *KafkaPublisher) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, domain.Event{
		Type:       domain.EventTypeOrderCreated,
		OrderID:    order.ID,
		Order:      order,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *KafkaPublisher) PublishOrderShipped(ctx context.Context, orderID string) error {
	return p.publish(ctx, domain.Event{
		Type:       domain.EventTypeOrderShipped,
		OrderID:    orderID,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *KafkaPublisher) publish(ctx context.Context, ev domain.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.OrderID),
		Value: b,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(ev.Type)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
