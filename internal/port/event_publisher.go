package port

import (
	"context"

	"github.com/rl1809/order-fulfillment/internal/core/domain"
)

type EventPublisher interface {
	// PublishOrderCreated emits OrderCreated at the end of order creation.
	PublishOrderCreated(ctx context.Context, order *domain.Order) error

	// PublishOrderShipped emits OrderShipped after the processing commit is
	// durable.
	PublishOrderShipped(ctx context.Context, orderID string) error
}
