package domain

// ProcessingTask is the queue payload produced once per order at creation
// time. Delivery is at-least-once; consumers must tolerate redelivery.
type ProcessingTask struct {
	OrderID string      `json:"order_id"`
	Items   []OrderItem `json:"items"`
	// InventoryVersions holds the per-product version snapshot captured by
	// the orchestrator. It may be stale by the time the worker runs; the
	// conditional decrement re-validates it.
	InventoryVersions map[string]int64 `json:"inventory_versions"`
}
