package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/rl1809/order-fulfillment/internal/core/domain"
	"github.com/rl1809/order-fulfillment/internal/core/service"
)

const (
	fetchBackoff       = 300 * time.Millisecond
	defaultTaskTimeout = 15 * time.Second
)

// Processor runs one attempt for a task and reports whether and when it must
// be rescheduled.
type Processor interface {
	Process(ctx context.Context, task domain.ProcessingTask) service.Outcome
}

// Consumer pulls processing tasks from the shared topic and hands them to a
// processor. Retryable outcomes are republished through the delay topics
// before the offset is committed, so a crash between the two at worst
// redelivers the task.
type Consumer struct {
	reader      *kafka.Reader
	processor   Processor
	queue       *TaskQueue
	taskTimeout time.Duration
	logger      *zap.Logger
}

func NewConsumer(brokers []string, topic, groupID string, processor Processor, queue *TaskQueue, logger *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})

	return &Consumer{
		reader:      reader,
		processor:   processor,
		queue:       queue,
		taskTimeout: defaultTaskTimeout,
		logger:      logger,
	}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("kafka fetch error", zap.Error(err))
			time.Sleep(fetchBackoff)
			continue
		}

		var task domain.ProcessingTask
		if err := json.Unmarshal(msg.Value, &task); err != nil {
			// Poison payload: retrying can never succeed, skip and commit.
			c.logger.Warn("invalid task payload, skipping",
				zap.Int64("offset", msg.Offset), zap.Error(err))
			c.commit(ctx, msg)
			continue
		}

		taskCtx, cancel := context.WithTimeout(ctx, c.taskTimeout)
		outcome := c.processor.Process(taskCtx, task)
		cancel()

		if !outcome.Terminal() {
			if err := c.queue.EnqueueDelayed(ctx, task, outcome.RetryAfter); err != nil {
				// Leave the offset uncommitted; the group redelivers the
				// task instead of losing it.
				c.logger.Error("failed to reschedule task",
					zap.String("order_id", task.OrderID), zap.Error(err))
				continue
			}
		}

		c.commit(ctx, msg)
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Warn("kafka commit failed",
			zap.Int64("offset", msg.Offset), zap.Error(err))
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
