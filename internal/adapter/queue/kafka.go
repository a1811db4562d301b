package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/rl1809/order-fulfillment/internal/core/domain"
)

const (
	DefaultTaskTopic = "order.processing"

	// realTopicHeader names the topic a delayed message must be republished
	// to once its delay tier has elapsed.
	realTopicHeader = "real-topic"
)

// DelayTier pairs a delay duration with the Kafka topic that parks messages
// for that long. Reschedule delays are fixed (lock contention and inventory
// conflict), so two tiers cover the whole design.
type DelayTier struct {
	Topic string
	Delay time.Duration
}

func DelayTiers() []DelayTier {
	return []DelayTier{
		{Topic: "order.processing.delay.30s", Delay: 30 * time.Second},
		{Topic: "order.processing.delay.60s", Delay: 60 * time.Second},
	}
}

// tierFor picks the first tier that holds a message at least as long as the
// requested delay, falling back to the longest tier.
func tierFor(delay time.Duration) DelayTier {
	tiers := DelayTiers()
	for _, t := range tiers {
		if t.Delay >= delay {
			return t
		}
	}
	return tiers[len(tiers)-1]
}

type TaskQueue struct {
	topic        string
	writer       *kafka.Writer
	delayWriters map[time.Duration]*kafka.Writer
}

func NewTaskQueue(brokers []string, topic string) *TaskQueue {
	q := &TaskQueue{
		topic:        topic,
		writer:       newWriter(brokers, topic),
		delayWriters: make(map[time.Duration]*kafka.Writer),
	}
	for _, tier := range DelayTiers() {
		q.delayWriters[tier.Delay] = newWriter(brokers, tier.Topic)
	}
	return q
}

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
}

func (q *TaskQueue) Enqueue(ctx context.Context, task domain.ProcessingTask) error {
	msg, err := taskMessage(task)
	if err != nil {
		return err
	}
	return q.writer.WriteMessages(ctx, msg)
}

// EnqueueDelayed parks the task on the delay topic matching the requested
// delay. The scheduler republishes it to the real topic once due.
func (q *TaskQueue) EnqueueDelayed(ctx context.Context, task domain.ProcessingTask, delay time.Duration) error {
	msg, err := taskMessage(task)
	if err != nil {
		return err
	}
	msg.Headers = append(msg.Headers, kafka.Header{
		Key:   realTopicHeader,
		Value: []byte(q.topic),
	})

	tier := tierFor(delay)
	return q.delayWriters[tier.Delay].WriteMessages(ctx, msg)
}

func (q *TaskQueue) Close() error {
	err := q.writer.Close()
	for _, w := range q.delayWriters {
		if closeErr := w.Close(); err == nil {
			err = closeErr
		}
	}
	return err
}

func taskMessage(task domain.ProcessingTask) (kafka.Message, error) {
	b, err := json.Marshal(task)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal task: %w", err)
	}
	return kafka.Message{
		Key:   []byte(task.OrderID),
		Value: b,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}, nil
}

func headerValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
