package ports

import (
	"context"
	"time"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates,
// including the applied-event set that backs transition idempotency.
type OrderRepository interface {
	// Add persists a new order aggregate to storage.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes to an existing order aggregate.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetAllActive retrieves all orders not yet delivered or cancelled.
	GetAllActive(ctx context.Context) ([]*order.Order, error)

	// GetAllInStatusOlderThan retrieves orders that have sat in the given
	// status since before the cutoff. Used by the stall sweep.
	GetAllInStatusOlderThan(ctx context.Context, status order.Status, cutoff time.Time) ([]*order.Order, error)
}
