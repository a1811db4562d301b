package port

import (
	"context"

	"github.com/rl1809/order-fulfillment/internal/core/domain"
)

type InventoryRepository interface {
	// SnapshotVersions reads quantity and version for every requested
	// product without holding any lock. If any product lacks stock it
	// returns *domain.InsufficientInventoryError listing all of them.
	SnapshotVersions(ctx context.Context, items []domain.OrderItem) (map[string]int64, error)

	// DecrementStock applies one conditional decrement: quantity drops and
	// version advances by exactly 1 only if the stored version still equals
	// expectedVersion and the result stays non-negative. Returns whether the
	// write applied; on mismatch the record is left untouched.
	DecrementStock(ctx context.Context, productID string, expectedVersion int64, quantity int) (bool, error)
}
