package ports

import (
	"context"
	"errors"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/order"
)

// ErrCompensationAlreadyIssued is returned when a compensation for the same
// order and stall kind was recorded before. Overlapping sweeps hit this and
// treat it as a no-op.
var ErrCompensationAlreadyIssued = errors.New("compensation already issued for this order and kind")

// CompensationRepository defines the persistence contract for compensation
// records. The storage enforces uniqueness on (order id, kind).
type CompensationRepository interface {
	// Add persists a new compensation. A second Add for the same order and
	// kind fails with ErrCompensationAlreadyIssued.
	Add(ctx context.Context, aggregate *order.Compensation) error

	// GetByOrderAndKind retrieves a recorded compensation.
	GetByOrderAndKind(ctx context.Context, orderID kernel.UUID, kind order.CompensationKind) (*order.Compensation, error)

	// GetAllForOrder retrieves all compensations issued for an order.
	GetAllForOrder(ctx context.Context, orderID kernel.UUID) ([]*order.Compensation, error)
}
