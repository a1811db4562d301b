package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrVersionConflict means a conditional decrement lost the race on the
	// version field. The whole processing attempt rolls back.
	ErrVersionConflict = errors.New("inventory version conflict")

	// ErrAlreadyProcessed marks a redelivered task whose order was already
	// moved out of pending by an earlier attempt.
	ErrAlreadyProcessed = errors.New("order already processed")

	ErrOrderNotFound = errors.New("order not found")
)

// InsufficientInventoryError enumerates every product that lacked stock,
// not just the first one found.
type InsufficientInventoryError struct {
	Products []string
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for products: %s", strings.Join(e.Products, ", "))
}
