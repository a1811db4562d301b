package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/order-fulfillment/internal/core/domain"
	"github.com/rl1809/order-fulfillment/internal/core/shard"
	"github.com/rl1809/order-fulfillment/internal/port"
)

var (
	ErrNoItems       = errors.New("order has no items")
	ErrInvalidItem   = errors.New("invalid order item")
	ErrTotalMismatch = errors.New("total amount does not match item sum")
)

type OrderService struct {
	orders    port.OrderRepository
	inventory port.InventoryRepository
	tasks     port.TaskQueue
	events    port.EventPublisher
	shards    *shard.Router
	logger    *zap.Logger
}

func NewOrderService(
	orders port.OrderRepository,
	inventory port.InventoryRepository,
	tasks port.TaskQueue,
	events port.EventPublisher,
	shards *shard.Router,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:    orders,
		inventory: inventory,
		tasks:     tasks,
		events:    events,
		shards:    shards,
		logger:    logger,
	}
}

// CreateOrder validates the request, snapshots inventory versions, persists
// the order with its items atomically and schedules asynchronous
// fulfillment. Insufficient inventory aborts before any write.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, items []domain.OrderItem, totalAmount int64) (*domain.Order, error) {
	if err := validateItems(items, totalAmount); err != nil {
		return nil, err
	}

	versions, err := s.inventory.SnapshotVersions(ctx, items)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:          uuid.NewString(),
		UserID:      userID,
		Status:      domain.OrderStatusPending,
		TotalAmount: totalAmount,
		Items:       make([]domain.OrderItem, len(items)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	order.ShardID = s.shards.ShardOf(order.ID)
	for i, item := range items {
		item.OrderID = order.ID
		order.Items[i] = item
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}

	// Emission is best-effort; a publish failure must not undo a committed
	// order. OrderCreated goes out before the task so it always precedes
	// OrderShipped.
	if err := s.events.PublishOrderCreated(ctx, order); err != nil {
		s.logger.Error("failed to publish OrderCreated",
			zap.String("order_id", order.ID), zap.Error(err))
	}

	task := domain.ProcessingTask{
		OrderID:           order.ID,
		Items:             order.Items,
		InventoryVersions: versions,
	}
	if err := s.tasks.Enqueue(ctx, task); err != nil {
		return nil, fmt.Errorf("enqueue processing task: %w", err)
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.Int("shard_id", order.ShardID),
		zap.Int("items", len(order.Items)))

	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.orders.GetOrder(ctx, id)
}

func validateItems(items []domain.OrderItem, totalAmount int64) error {
	if len(items) == 0 {
		return ErrNoItems
	}

	var sum int64
	for _, item := range items {
		if item.ProductID == "" {
			return fmt.Errorf("%w: missing product id", ErrInvalidItem)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive for product %s", ErrInvalidItem, item.ProductID)
		}
		if item.UnitPrice < 0 {
			return fmt.Errorf("%w: negative unit price for product %s", ErrInvalidItem, item.ProductID)
		}
		sum += int64(item.Quantity) * item.UnitPrice
	}

	if sum != totalAmount {
		return ErrTotalMismatch
	}
	return nil
}
