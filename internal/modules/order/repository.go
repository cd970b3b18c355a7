package order

import (
	"context"
	"time"
)

// Repository defines data access for orders.
type Repository interface {
	// CreateOrder persists the order header and all its lines atomically.
	CreateOrder(ctx context.Context, o *Order) error

	// GetOrderByID retrieves an order with its lines, or
	// domain.ErrOrderNotFound.
	GetOrderByID(ctx context.Context, id string) (*Order, error)

	// ListOrdersByBuyer returns all orders placed by a buyer, newest first.
	ListOrdersByBuyer(ctx context.Context, buyerID string) ([]*Order, error)

	// UpdateStatusIf flips the status from `from` to `to` in a single
	// conditional write keyed on the current status. Returns false when the
	// order was no longer in `from`, which makes every transition
	// at-most-once under concurrent callers.
	UpdateStatusIf(ctx context.Context, id string, from, to Status) (bool, error)

	// ListUnpaidBefore returns unpaid orders created before the cutoff,
	// with their lines. Used by the timeout reaper.
	ListUnpaidBefore(ctx context.Context, cutoff time.Time) ([]*Order, error)
}
