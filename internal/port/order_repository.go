package port

import (
	"context"

	"github.com/rl1809/order-fulfillment/internal/core/domain"
)

type OrderRepository interface {
	// CreateOrder persists the order and all of its items as one atomic
	// unit: either every row is visible or none is.
	CreateOrder(ctx context.Context, order *domain.Order) error

	// GetOrder loads an order with its items, or domain.ErrOrderNotFound.
	GetOrder(ctx context.Context, id string) (*domain.Order, error)

	// ProcessOrder runs the worker's critical section in a single
	// transaction: a conditional decrement per item against the snapshotted
	// versions, then the pending → processed status transition. Any failed
	// decrement rolls everything back and yields domain.ErrVersionConflict.
	// A redelivered task for an order that already left pending yields
	// domain.ErrAlreadyProcessed without touching inventory.
	ProcessOrder(ctx context.Context, orderID string, items []domain.OrderItem, versions map[string]int64) error
}
