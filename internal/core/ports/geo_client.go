package ports

import (
	"context"
	"time"

	"coordinator/internal/core/domain/model/kernel"
)

// GeoClient is the outbound contract to the geo service. It resolves
// restaurant pickup locations and estimates travel times for ranking.
type GeoClient interface {
	// GetLocation resolves the coordinates of a restaurant.
	GetLocation(ctx context.Context, restaurantID kernel.UUID) (kernel.GeoPoint, error)

	// EstimateTravelTime estimates how long a driver needs from one point
	// to another.
	EstimateTravelTime(ctx context.Context, from, to kernel.GeoPoint) (time.Duration, error)
}
