// Package driver models the couriers available for assignment. A driver's
// availability for new offers is bounded by a per-driver cap on concurrently
// active deliveries.
package driver

import (
	"errors"
	"fmt"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/pkg/errs"
)

const (
	// DefaultMaxActiveDeliveries caps how many deliveries a driver carries
	// at once when no explicit cap is configured.
	DefaultMaxActiveDeliveries = 2
)

var (
	// ErrDriverIsNotConstructed is returned when a Driver bypassed its
	// constructors.
	ErrDriverIsNotConstructed = errors.New("Driver must be created via NewDriver or RestoreDriver")

	// ErrDriverAtCapacity is returned when a driver at the active-delivery
	// cap is asked to take another one.
	ErrDriverAtCapacity = errors.New("driver is at the active-delivery cap")

	// ErrDriverUnavailable is returned when an unavailable driver is asked
	// to take a delivery.
	ErrDriverUnavailable = errors.New("driver is not available")

	// ErrNoActiveDeliveries is returned when releasing a delivery from a
	// driver that carries none.
	ErrNoActiveDeliveries = errors.New("driver has no active deliveries")
)

// Driver is a courier who can be offered orders ready for pickup.
type Driver struct {
	id                  kernel.UUID
	name                string
	location            kernel.GeoPoint
	maxActiveDeliveries int
	activeDeliveries    int
	available           bool
	rating              float64

	isConstructed bool
}

// NewDriver creates an available driver with no active deliveries.
func NewDriver(id kernel.UUID, name string, location kernel.GeoPoint, maxActiveDeliveries int) (*Driver, error) {
	d := &Driver{
		available:     true,
		isConstructed: true,
	}

	if err := errors.Join(
		d.setID(id),
		d.setName(name),
		d.setLocation(location),
		d.setMaxActiveDeliveries(maxActiveDeliveries),
	); err != nil {
		return nil, err
	}

	return d, nil
}

// RestoreDriver reconstructs a driver from persistence.
func RestoreDriver(
	id kernel.UUID,
	name string,
	location kernel.GeoPoint,
	maxActiveDeliveries int,
	activeDeliveries int,
	available bool,
	rating float64,
) (*Driver, error) {
	d := &Driver{
		available:     available,
		rating:        rating,
		isConstructed: true,
	}

	if err := errors.Join(
		d.setID(id),
		d.setName(name),
		d.setLocation(location),
		d.setMaxActiveDeliveries(maxActiveDeliveries),
	); err != nil {
		return nil, err
	}

	if activeDeliveries < 0 || activeDeliveries > maxActiveDeliveries {
		return nil, errs.NewValueIsOutOfRangeError("active deliveries",
			activeDeliveries, 0, maxActiveDeliveries)
	}
	d.activeDeliveries = activeDeliveries

	return d, nil
}

// Validate ensures the driver was built through a constructor.
func (d *Driver) Validate() error {
	if d == nil || !d.isConstructed {
		return ErrDriverIsNotConstructed
	}
	return nil
}

// ID returns the driver identifier.
func (d *Driver) ID() kernel.UUID { return d.id }

// Name returns the driver's display name.
func (d *Driver) Name() string { return d.name }

// Location returns the last known position.
func (d *Driver) Location() kernel.GeoPoint { return d.location }

// MaxActiveDeliveries returns the concurrency cap.
func (d *Driver) MaxActiveDeliveries() int { return d.maxActiveDeliveries }

// ActiveDeliveries returns the number of deliveries currently in flight.
func (d *Driver) ActiveDeliveries() int { return d.activeDeliveries }

// IsAvailable reports whether the driver accepts offers at all.
func (d *Driver) IsAvailable() bool { return d.available }

// Rating returns the driver's review rating.
func (d *Driver) Rating() float64 { return d.rating }

// CanAcceptDelivery reports whether the driver may be offered another order:
// available and below the active-delivery cap.
func (d *Driver) CanAcceptDelivery() bool {
	return d.available && d.activeDeliveries < d.maxActiveDeliveries
}

// TakeDelivery reserves one delivery slot. Called when the driver accepts
// an offer.
func (d *Driver) TakeDelivery() error {
	if err := d.Validate(); err != nil {
		return err
	}
	if !d.available {
		return ErrDriverUnavailable
	}
	if d.activeDeliveries >= d.maxActiveDeliveries {
		return fmt.Errorf("%w: %d of %d", ErrDriverAtCapacity, d.activeDeliveries, d.maxActiveDeliveries)
	}
	d.activeDeliveries++
	return nil
}

// ReleaseDelivery frees one delivery slot when a delivery reaches a
// terminal state.
func (d *Driver) ReleaseDelivery() error {
	if err := d.Validate(); err != nil {
		return err
	}
	if d.activeDeliveries == 0 {
		return ErrNoActiveDeliveries
	}
	d.activeDeliveries--
	return nil
}

// MoveTo updates the last known position.
func (d *Driver) MoveTo(location kernel.GeoPoint) error {
	if err := d.Validate(); err != nil {
		return err
	}
	return d.setLocation(location)
}

// SetAvailable flips whether the driver accepts new offers.
func (d *Driver) SetAvailable(available bool) error {
	if err := d.Validate(); err != nil {
		return err
	}
	d.available = available
	return nil
}

// DistanceTo returns the straight-line distance to a point in meters.
func (d *Driver) DistanceTo(point kernel.GeoPoint) (float64, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}
	return d.location.DistanceTo(point)
}

func (d *Driver) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	d.id = id
	return nil
}

func (d *Driver) setName(name string) error {
	if name == "" {
		return errs.NewValueIsRequiredError("name")
	}
	d.name = name
	return nil
}

func (d *Driver) setLocation(location kernel.GeoPoint) error {
	if err := location.Validate(); err != nil {
		return err
	}
	d.location = location
	return nil
}

func (d *Driver) setMaxActiveDeliveries(maxActiveDeliveries int) error {
	if maxActiveDeliveries <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("max active deliveries",
			fmt.Errorf("%d is not greater than 0", maxActiveDeliveries))
	}
	d.maxActiveDeliveries = maxActiveDeliveries
	return nil
}
