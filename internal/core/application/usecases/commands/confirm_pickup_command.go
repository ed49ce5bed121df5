package commands

import (
	"errors"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/pkg/guard"
)

var ErrConfirmPickupCommandIsNotConstructed = errors.New(
	"ConfirmPickupCommand must be created via NewConfirmPickupCommand constructor",
)

// ConfirmPickupCommand reports that the assigned driver collected the order
// at the restaurant. This is the transition that actually moves the order to
// out_for_delivery; acceptance of the offer never does.
type ConfirmPickupCommand struct { //nolint:recvcheck //using for validation
	orderID  kernel.UUID
	driverID kernel.UUID
	eventID  kernel.UUID

	guard guard.ConstructorGuard
}

// NewConfirmPickupCommand creates a command for a confirmed pickup. eventID
// is the bus event id that carried the confirmation.
func NewConfirmPickupCommand(orderID, driverID, eventID kernel.UUID) (ConfirmPickupCommand, error) {
	cmd := ConfirmPickupCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setDriverID(driverID),
		cmd.setEventID(eventID),
	); err != nil {
		return ConfirmPickupCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c ConfirmPickupCommand) Validate() error {
	return c.guard.Validate(ErrConfirmPickupCommandIsNotConstructed)
}

// OrderID returns the picked-up order.
func (c ConfirmPickupCommand) OrderID() kernel.UUID { return c.orderID }

// DriverID returns the driver reporting the pickup.
func (c ConfirmPickupCommand) DriverID() kernel.UUID { return c.driverID }

// EventID returns the bus event id behind the confirmation.
func (c ConfirmPickupCommand) EventID() kernel.UUID { return c.eventID }

func (c *ConfirmPickupCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *ConfirmPickupCommand) setDriverID(driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return err
	}
	c.driverID = driverID
	return nil
}

func (c *ConfirmPickupCommand) setEventID(eventID kernel.UUID) error {
	if err := eventID.Validate(); err != nil {
		return err
	}
	c.eventID = eventID
	return nil
}
