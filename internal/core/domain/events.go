package domain

import "time"

const (
	EventTypeOrderCreated = "OrderCreated"
	EventTypeOrderShipped = "OrderShipped"
)

// Event is the envelope published to the events topic. OrderCreated carries
// the full order; OrderShipped carries only the order id. Delivery is
// at-least-once, and OrderCreated always precedes OrderShipped for the same
// order.
type Event struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"order_id"`
	Order      *Order    `json:"order,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
