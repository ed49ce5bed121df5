package ports

import (
	"context"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/payment"
)

// PaymentRepository defines the persistence contract for payment intents.
// The storage enforces at most one intent per order.
type PaymentRepository interface {
	// Add persists a new intent. Adding a second intent for the same order
	// fails on the unique constraint.
	Add(ctx context.Context, aggregate *payment.Intent) error

	// Update persists changes to an existing intent.
	Update(ctx context.Context, aggregate *payment.Intent) error

	// Get retrieves an intent by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*payment.Intent, error)

	// GetByOrderID retrieves the intent opened for an order.
	GetByOrderID(ctx context.Context, orderID kernel.UUID) (*payment.Intent, error)
}
