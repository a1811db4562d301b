package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rl1809/order-fulfillment/internal/core/domain"
)

// decrementStockStmt is the one conditional write the ledger allows: the
// quantity drops and the version advances only while the observed version
// still matches and the result stays non-negative.
const decrementStockStmt = `
	UPDATE inventory
	SET quantity = quantity - ?, version = version + 1, updated_at = NOW()
	WHERE product_id = ? AND version = ? AND quantity >= ?`

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) CreateOrder(ctx context.Context, order *domain.Order) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, status, total_amount, shard_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.UserID, order.Status, order.TotalAmount, order.ShardID,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			order.ID, item.ProductID, item.Quantity, item.UnitPrice,
			order.CreatedAt, order.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert order item %s: %w", item.ProductID, err)
		}
	}

	return tx.Commit()
}

func (m *MySQLAdapter) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	err := m.db.QueryRowContext(ctx, `
		SELECT id, user_id, status, total_amount, shard_id, created_at, updated_at
		FROM orders WHERE id = ?`, id,
	).Scan(&order.ID, &order.UserID, &order.Status, &order.TotalAmount,
		&order.ShardID, &order.CreatedAt, &order.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT order_id, product_id, quantity, unit_price
		FROM order_items WHERE order_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return &order, nil
}

// SnapshotVersions reads quantity and version per requested product without
// taking any lock. Every product that lacks stock (or does not exist) is
// collected so the caller sees the full shortfall at once.
func (m *MySQLAdapter) SnapshotVersions(ctx context.Context, items []domain.OrderItem) (map[string]int64, error) {
	if len(items) == 0 {
		return map[string]int64{}, nil
	}

	placeholders := make([]string, len(items))
	args := make([]any, len(items))
	for i, item := range items {
		placeholders[i] = "?"
		args[i] = item.ProductID
	}

	rows, err := m.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT product_id, quantity, version
		FROM inventory WHERE product_id IN (%s)`,
		strings.Join(placeholders, ", ")), args...)
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	records := make(map[string]domain.InventoryRecord, len(items))
	for rows.Next() {
		var rec domain.InventoryRecord
		if err := rows.Scan(&rec.ProductID, &rec.Quantity, &rec.Version); err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		records[rec.ProductID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory: %w", err)
	}

	versions := make(map[string]int64, len(items))
	var insufficient []string
	for _, item := range items {
		rec, ok := records[item.ProductID]
		if !ok || rec.Quantity < item.Quantity {
			insufficient = append(insufficient, item.ProductID)
			continue
		}
		versions[item.ProductID] = rec.Version
	}

	if len(insufficient) > 0 {
		sort.Strings(insufficient)
		return nil, &domain.InsufficientInventoryError{Products: dedupe(insufficient)}
	}
	return versions, nil
}

func (m *MySQLAdapter) DecrementStock(ctx context.Context, productID string, expectedVersion int64, quantity int) (bool, error) {
	result, err := m.db.ExecContext(ctx, decrementStockStmt,
		quantity, productID, expectedVersion, quantity)
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// ProcessOrder is the worker's critical section: every item's conditional
// decrement plus the status transition commit together or not at all.
func (m *MySQLAdapter) ProcessOrder(ctx context.Context, orderID string, items []domain.OrderItem, versions map[string]int64) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var status domain.OrderStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE id = ? FOR UPDATE`, orderID,
	).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("query order status: %w", err)
	}
	if status != domain.OrderStatusPending {
		return domain.ErrAlreadyProcessed
	}

	for _, item := range items {
		expected, ok := versions[item.ProductID]
		if !ok {
			return fmt.Errorf("%w: no version snapshot for product %s",
				domain.ErrVersionConflict, item.ProductID)
		}

		result, err := tx.ExecContext(ctx, decrementStockStmt,
			item.Quantity, item.ProductID, expected, item.Quantity)
		if err != nil {
			return fmt.Errorf("decrement stock for %s: %w", item.ProductID, err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return fmt.Errorf("%w: product %s at version %d",
				domain.ErrVersionConflict, item.ProductID, expected)
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders SET status = ?, updated_at = NOW() WHERE id = ?`,
		domain.OrderStatusProcessed, orderID)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	return tx.Commit()
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}
