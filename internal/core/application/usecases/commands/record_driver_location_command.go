package commands

import (
	"errors"
	"time"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/pkg/guard"
)

var ErrRecordDriverLocationCommandIsNotConstructed = errors.New(
	"RecordDriverLocationCommand must be created via NewRecordDriverLocationCommand constructor",
)

// RecordDriverLocationCommand appends a position ping to the active
// delivery's track and moves the driver's last known location.
type RecordDriverLocationCommand struct { //nolint:recvcheck //using for validation
	orderID  kernel.UUID
	driverID kernel.UUID
	point    kernel.GeoPoint
	at       time.Time

	guard guard.ConstructorGuard
}

// NewRecordDriverLocationCommand creates a command for one location ping.
func NewRecordDriverLocationCommand(orderID, driverID kernel.UUID, point kernel.GeoPoint, at time.Time) (RecordDriverLocationCommand, error) {
	cmd := RecordDriverLocationCommand{
		at:    at,
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setDriverID(driverID),
		cmd.setPoint(point),
	); err != nil {
		return RecordDriverLocationCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c RecordDriverLocationCommand) Validate() error {
	return c.guard.Validate(ErrRecordDriverLocationCommandIsNotConstructed)
}

// OrderID returns the order being delivered.
func (c RecordDriverLocationCommand) OrderID() kernel.UUID { return c.orderID }

// DriverID returns the driver reporting the position.
func (c RecordDriverLocationCommand) DriverID() kernel.UUID { return c.driverID }

// Point returns the reported position.
func (c RecordDriverLocationCommand) Point() kernel.GeoPoint { return c.point }

// At returns when the position was observed.
func (c RecordDriverLocationCommand) At() time.Time { return c.at }

func (c *RecordDriverLocationCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *RecordDriverLocationCommand) setDriverID(driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return err
	}
	c.driverID = driverID
	return nil
}

func (c *RecordDriverLocationCommand) setPoint(point kernel.GeoPoint) error {
	if err := point.Validate(); err != nil {
		return err
	}
	c.point = point
	return nil
}
