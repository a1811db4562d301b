package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/rl1809/order-fulfillment/internal/config"
	"github.com/rl1809/order-fulfillment/internal/core/domain"
)

// The notifier stands in for the confirmation-email and shipping-department
// collaborators: it consumes the events topic and records each notification.
func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		cancel()
	}()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.KafkaBrokers,
		GroupID:     "order-notifier",
		Topic:       cfg.EventsTopic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})
	defer reader.Close()

	logger.Info("notifier consuming", zap.String("topic", cfg.EventsTopic))

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("notifier stopping")
				return
			}
			logger.Warn("kafka fetch error", zap.Error(err))
			time.Sleep(300 * time.Millisecond)
			continue
		}

		var ev domain.Event
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			logger.Warn("invalid event payload, skipping", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		switch ev.Type {
		case domain.EventTypeOrderCreated:
			logger.Info("order confirmation email sent", zap.String("order_id", ev.OrderID))
		case domain.EventTypeOrderShipped:
			logger.Info("shipping department notified", zap.String("order_id", ev.OrderID))
		default:
			logger.Warn("unknown event type", zap.String("type", ev.Type))
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			logger.Warn("kafka commit failed", zap.Error(err))
		}
	}
}
