// Package delivery models the driver-side view of an order in flight: who
// carries it, where it has been, and how many assignment attempts it took.
// A Delivery shares its identifier with the order it fulfills, and at most
// one active (non-terminal) Delivery exists per order.
package delivery

import (
	"errors"
	"fmt"
	"time"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/pkg/errs"
)

var (
	// ErrDeliveryIsNotConstructed is returned when a Delivery bypassed its
	// constructors.
	ErrDeliveryIsNotConstructed = errors.New("Delivery must be created via NewDelivery or RestoreDelivery")

	// ErrDeliveryIsTerminal rejects mutations of archived deliveries.
	ErrDeliveryIsTerminal = errors.New("delivery is in a terminal state")

	// ErrInvalidDeliveryTransition marks an illegal delivery status edge.
	ErrInvalidDeliveryTransition = errors.New("invalid delivery status transition")
)

// Status is the delivery-side subset of the order lifecycle.
type Status int

const (
	Unknown Status = iota
	ReadyForPickup
	OutForDelivery
	Delivered
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:        "unknown",
		ReadyForPickup: "ready_for_pickup",
		OutForDelivery: "out_for_delivery",
		Delivered:      "delivered",
		Cancelled:      "cancelled",
	}
}

// StatusFromString parses the wire form of a delivery status.
func StatusFromString(s string) (Status, error) {
	for status, str := range getStatusStrings() {
		if str == s && status != Unknown {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("delivery_status",
		fmt.Errorf("%q is not a valid delivery status", s))
}

// Validate checks that the Status is defined.
func (s Status) Validate() error {
	if s == Unknown {
		return errs.NewValueIsInvalidErrorWithCause("delivery_status",
			fmt.Errorf("%d is not a valid delivery status", int(s)))
	}
	if _, ok := getStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("delivery_status",
			fmt.Errorf("%d is not a valid delivery status", int(s)))
	}
	return nil
}

// String returns the wire name of the status.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsTerminal reports whether the delivery is finished or voided.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// TrackPoint is one observed driver position.
type TrackPoint struct {
	Point kernel.GeoPoint
	At    time.Time
}

// Delivery tracks one driver fulfilling one order. The location history is
// append-only.
type Delivery struct {
	orderID         kernel.UUID
	driverID        kernel.UUID
	status          Status
	locationHistory []TrackPoint
	retryCount      int
	createdAt       time.Time
	updatedAt       time.Time

	isConstructed bool
}

// NewDelivery creates a delivery for an accepted offer. retryCount records
// how many assignment rounds it took to land a driver.
func NewDelivery(orderID, driverID kernel.UUID, retryCount int, now time.Time) (*Delivery, error) {
	if err := errors.Join(orderID.Validate(), driverID.Validate()); err != nil {
		return nil, err
	}
	if retryCount < 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("retry count",
			fmt.Errorf("%d is negative", retryCount))
	}

	return &Delivery{
		orderID:       orderID,
		driverID:      driverID,
		status:        ReadyForPickup,
		retryCount:    retryCount,
		createdAt:     now.UTC(),
		updatedAt:     now.UTC(),
		isConstructed: true,
	}, nil
}

// RestoreDelivery reconstructs a delivery from persistence.
func RestoreDelivery(
	orderID, driverID kernel.UUID,
	status Status,
	locationHistory []TrackPoint,
	retryCount int,
	createdAt, updatedAt time.Time,
) (*Delivery, error) {
	if err := errors.Join(orderID.Validate(), driverID.Validate(), status.Validate()); err != nil {
		return nil, err
	}

	history := make([]TrackPoint, len(locationHistory))
	copy(history, locationHistory)

	return &Delivery{
		orderID:         orderID,
		driverID:        driverID,
		status:          status,
		locationHistory: history,
		retryCount:      retryCount,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
		isConstructed:   true,
	}, nil
}

// Validate ensures the delivery was built through a constructor.
func (d *Delivery) Validate() error {
	if d == nil || !d.isConstructed {
		return ErrDeliveryIsNotConstructed
	}
	return nil
}

// OrderID returns the fulfilled order's id, which is also the delivery id.
func (d *Delivery) OrderID() kernel.UUID { return d.orderID }

// DriverID returns the carrying driver.
func (d *Delivery) DriverID() kernel.UUID { return d.driverID }

// Status returns the current delivery status.
func (d *Delivery) Status() Status { return d.status }

// RetryCount returns the number of assignment rounds before acceptance.
func (d *Delivery) RetryCount() int { return d.retryCount }

// CreatedAt returns the acceptance time.
func (d *Delivery) CreatedAt() time.Time { return d.createdAt }

// UpdatedAt returns the time of the last mutation.
func (d *Delivery) UpdatedAt() time.Time { return d.updatedAt }

// LocationHistory returns a copy of the recorded track.
func (d *Delivery) LocationHistory() []TrackPoint {
	history := make([]TrackPoint, len(d.locationHistory))
	copy(history, d.locationHistory)
	return history
}

// IsActive reports whether the delivery still counts against the driver's
// concurrency cap.
func (d *Delivery) IsActive() bool {
	return !d.status.IsTerminal()
}

// RecordLocation appends a track point. Terminal deliveries reject updates;
// a late ping for an archived delivery is dropped by the caller.
func (d *Delivery) RecordLocation(point kernel.GeoPoint, at time.Time) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if err := point.Validate(); err != nil {
		return err
	}
	if d.status.IsTerminal() {
		return ErrDeliveryIsTerminal
	}
	d.locationHistory = append(d.locationHistory, TrackPoint{Point: point, At: at.UTC()})
	d.updatedAt = at.UTC()
	return nil
}

// MarkOutForDelivery records the driver's pickup confirmation.
func (d *Delivery) MarkOutForDelivery(now time.Time) error {
	return d.transition(OutForDelivery, now)
}

// MarkDelivered finishes the delivery.
func (d *Delivery) MarkDelivered(now time.Time) error {
	return d.transition(Delivered, now)
}

// MarkCancelled voids the delivery, releasing the driver's slot.
func (d *Delivery) MarkCancelled(now time.Time) error {
	return d.transition(Cancelled, now)
}

func (d *Delivery) transition(next Status, now time.Time) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if d.status == next {
		return nil
	}

	legal := map[Status][]Status{
		ReadyForPickup: {OutForDelivery, Cancelled},
		OutForDelivery: {Delivered, Cancelled},
	}
	for _, target := range legal[d.status] {
		if target == next {
			d.status = next
			d.updatedAt = now.UTC()
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidDeliveryTransition, d.status, next)
}
