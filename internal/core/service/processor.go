package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/order-fulfillment/internal/core/domain"
	"github.com/rl1809/order-fulfillment/internal/port"
)

const (
	// DefaultLockTTL bounds how long a crashed worker can keep an order
	// locked. There is no renewal; an attempt that outlives the TTL can
	// lose exclusivity to a new acquirer.
	DefaultLockTTL = 30 * time.Second

	// LockBusyDelay is the reschedule delay when the per-order lock is held
	// by someone else.
	LockBusyDelay = 30 * time.Second

	// RetryDelay is the reschedule delay after an inventory conflict or any
	// unexpected processing fault.
	RetryDelay = 60 * time.Second

	orderLockPrefix = "order:"
)

// ProcessingState names the worker's position in the per-order state
// machine when an attempt ends.
type ProcessingState string

const (
	StateLocking      ProcessingState = "locking"
	StateDecrementing ProcessingState = "decrementing"
	StateProcessed    ProcessingState = "processed"
	StateLockBusy     ProcessingState = "lock-busy-retry"
	StatePendingRetry ProcessingState = "pending-retry"
)

// Outcome is the result of one processing attempt. RetryAfter > 0 means the
// task must be rescheduled after that delay; zero means the attempt is
// terminal.
type Outcome struct {
	State      ProcessingState
	RetryAfter time.Duration
}

func (o Outcome) Terminal() bool {
	return o.RetryAfter == 0
}

// OrderProcessor drives one ProcessingTask through locking, decrementing and
// the status transition. It owns no scheduling: rescheduling is expressed in
// the returned Outcome and executed by the queue consumer.
type OrderProcessor struct {
	lock    port.Locker
	orders  port.OrderRepository
	events  port.EventPublisher
	lockTTL time.Duration
	logger  *zap.Logger
}

func NewOrderProcessor(lock port.Locker, orders port.OrderRepository, events port.EventPublisher, lockTTL time.Duration, logger *zap.Logger) *OrderProcessor {
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	return &OrderProcessor{
		lock:    lock,
		orders:  orders,
		events:  events,
		lockTTL: lockTTL,
		logger:  logger,
	}
}

// Process runs a single attempt for the task. Once the lock is acquired it
// is released on every exit path; when acquisition fails nothing is
// released and no inventory is touched.
func (p *OrderProcessor) Process(ctx context.Context, task domain.ProcessingTask) Outcome {
	resource := orderLockPrefix + task.OrderID

	token, err := p.lock.Acquire(ctx, resource, p.lockTTL)
	if err != nil {
		p.logger.Warn("lock acquisition failed",
			zap.String("order_id", task.OrderID), zap.Error(err))
		return Outcome{State: StateLockBusy, RetryAfter: LockBusyDelay}
	}
	if token == "" {
		p.logger.Info("order lock busy, rescheduling",
			zap.String("order_id", task.OrderID),
			zap.Duration("retry_after", LockBusyDelay))
		return Outcome{State: StateLockBusy, RetryAfter: LockBusyDelay}
	}

	defer func() {
		// The release must still run when the task context has expired,
		// otherwise the lock stays taken until the TTL fires.
		releaseCtx := context.WithoutCancel(ctx)
		released, err := p.lock.Release(releaseCtx, resource, token)
		if err != nil {
			p.logger.Error("lock release failed",
				zap.String("order_id", task.OrderID), zap.Error(err))
			return
		}
		if !released {
			p.logger.Warn("lock was no longer ours on release",
				zap.String("order_id", task.OrderID))
		}
	}()

	err = p.orders.ProcessOrder(ctx, task.OrderID, task.Items, task.InventoryVersions)
	switch {
	case errors.Is(err, domain.ErrAlreadyProcessed):
		// Redelivered task; the earlier attempt committed and emitted.
		p.logger.Info("skipping redelivered task for processed order",
			zap.String("order_id", task.OrderID))
		return Outcome{State: StateProcessed}
	case errors.Is(err, domain.ErrVersionConflict):
		p.logger.Warn("inventory version conflict, rescheduling",
			zap.String("order_id", task.OrderID),
			zap.Duration("retry_after", RetryDelay))
		return Outcome{State: StatePendingRetry, RetryAfter: RetryDelay}
	case err != nil:
		p.logger.Error("order processing failed, rescheduling",
			zap.String("order_id", task.OrderID),
			zap.Duration("retry_after", RetryDelay),
			zap.Error(err))
		return Outcome{State: StatePendingRetry, RetryAfter: RetryDelay}
	}

	// The commit is durable here. A failed publish is logged, not retried:
	// rerunning the task would only conflict against the moved versions.
	if err := p.events.PublishOrderShipped(ctx, task.OrderID); err != nil {
		p.logger.Error("order processed but OrderShipped not published",
			zap.String("order_id", task.OrderID), zap.Error(err))
	}

	p.logger.Info("order processed", zap.String("order_id", task.OrderID))
	return Outcome{State: StateProcessed}
}
