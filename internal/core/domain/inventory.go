package domain

import "time"

// InventoryRecord is mutated only through the conditional decrement;
// Version starts at 1 and increases by exactly one per successful write.
type InventoryRecord struct {
	ProductID string
	Quantity  int
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
