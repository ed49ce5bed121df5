package ports

import (
	"context"

	"coordinator/internal/core/domain/model/driver"
	"coordinator/internal/core/domain/model/kernel"
)

// DriverRepository defines the persistence contract for drivers.
type DriverRepository interface {
	// Add persists a new driver.
	Add(ctx context.Context, aggregate *driver.Driver) error

	// Update persists changes to an existing driver.
	Update(ctx context.Context, aggregate *driver.Driver) error

	// Get retrieves a driver by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*driver.Driver, error)

	// GetAllAvailable retrieves drivers accepting offers. Radius and cap
	// filtering happens in the matcher, not in the query.
	GetAllAvailable(ctx context.Context) ([]*driver.Driver, error)
}
