package port

import (
	"context"
	"time"

	"github.com/rl1809/order-fulfillment/internal/core/domain"
)

type TaskQueue interface {
	// Enqueue publishes a task for immediate consumption.
	Enqueue(ctx context.Context, task domain.ProcessingTask) error

	// EnqueueDelayed publishes a task that becomes consumable only after
	// the given delay has elapsed.
	EnqueueDelayed(ctx context.Context, task domain.ProcessingTask, delay time.Duration) error
}
