package ports

import (
	"context"

	"coordinator/internal/core/domain/model/delivery"
	"coordinator/internal/core/domain/model/kernel"
)

// DeliveryRepository defines the persistence contract for deliveries.
type DeliveryRepository interface {
	// Add persists a new delivery.
	Add(ctx context.Context, aggregate *delivery.Delivery) error

	// Update persists changes to an existing delivery.
	Update(ctx context.Context, aggregate *delivery.Delivery) error

	// GetByOrderID retrieves the delivery attached to an order.
	GetByOrderID(ctx context.Context, orderID kernel.UUID) (*delivery.Delivery, error)

	// GetAllActive retrieves deliveries still in flight.
	GetAllActive(ctx context.Context) ([]*delivery.Delivery, error)
}
