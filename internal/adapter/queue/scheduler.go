package queue

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Scheduler drains one delay tier. Messages sit on the tier topic until
// their publish time plus the tier delay has passed, then move to the topic
// named in their real-topic header. Because a tier holds a single fixed
// delay, the head message of a partition is always the next one due.
type Scheduler struct {
	tier    DelayTier
	reader  *kafka.Reader
	brokers []string
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

func NewScheduler(brokers []string, tier DelayTier, groupID string, logger *zap.Logger) *Scheduler {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       tier.Topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})

	return &Scheduler{
		tier:    tier,
		reader:  reader,
		brokers: brokers,
		logger:  logger,
		now:     time.Now,
		writers: make(map[string]*kafka.Writer),
	}
}

// Run polls the tier topic until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, pollInterval time.Duration) {
	s.logger.Info("delay scheduler started",
		zap.String("topic", s.tier.Topic),
		zap.Duration("delay", s.tier.Delay))

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	defer s.close()

	for {
		select {
		case <-ticker.C:
			s.drain(ctx, pollInterval)
		case <-ctx.Done():
			s.logger.Info("delay scheduler stopping", zap.String("topic", s.tier.Topic))
			return
		}
	}
}

func (s *Scheduler) drain(ctx context.Context, fetchTimeout time.Duration) {
	for {
		fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
		msg, err := s.reader.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			// No message in time, or shutting down; wait for the next tick.
			return
		}

		if s.now().Before(msg.Time.Add(s.tier.Delay)) {
			// Head message not yet due, so nothing behind it is either.
			return
		}

		realTopic := headerValue(msg.Headers, realTopicHeader)
		if realTopic == "" {
			s.logger.Warn("delayed message without real-topic header, dropping",
				zap.String("topic", s.tier.Topic), zap.Int64("offset", msg.Offset))
			s.commit(ctx, msg)
			continue
		}

		if err := s.republish(ctx, realTopic, msg); err != nil {
			// Not committed; the same message is retried next tick.
			s.logger.Error("failed to republish delayed message",
				zap.String("real_topic", realTopic), zap.Error(err))
			return
		}
		s.commit(ctx, msg)
	}
}

func (s *Scheduler) republish(ctx context.Context, topic string, msg kafka.Message) error {
	s.mu.Lock()
	writer, ok := s.writers[topic]
	if !ok {
		writer = newWriter(s.brokers, topic)
		s.writers[topic] = writer
	}
	s.mu.Unlock()

	return writer.WriteMessages(ctx, kafka.Message{
		Key:   msg.Key,
		Value: msg.Value,
	})
}

func (s *Scheduler) commit(ctx context.Context, msg kafka.Message) {
	if err := s.reader.CommitMessages(ctx, msg); err != nil {
		s.logger.Warn("delay scheduler commit failed",
			zap.String("topic", s.tier.Topic), zap.Error(err))
	}
}

func (s *Scheduler) close() {
	s.reader.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	for topic, writer := range s.writers {
		if err := writer.Close(); err != nil {
			s.logger.Warn("failed to close writer", zap.String("topic", topic), zap.Error(err))
		}
	}
}
